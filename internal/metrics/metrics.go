package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scoring service metrics for production monitoring
var (
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pumpml_predictions_total",
			Help: "Total number of failure predictions served",
		},
		[]string{"mode", "risk"},
	)

	PredictionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pumpml_prediction_duration_seconds",
			Help:    "Prediction duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8), // 100µs to ~1.6s
		},
		[]string{"mode"},
	)

	FallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pumpml_model_fallbacks_total",
			Help: "Total number of model scoring failures recovered by the rule-based fallback",
		},
	)

	TrainingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pumpml_trainings_total",
			Help: "Total number of training runs",
		},
		[]string{"status"}, // success/failure/cancelled
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pumpml_training_duration_seconds",
			Help:    "Model training duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1min
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pumpml_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	WSClientsConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pumpml_ws_clients_connected",
			Help: "Currently connected live-score websocket clients",
		},
	)
)

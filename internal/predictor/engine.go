package predictor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/neuramaint/pumpml/internal/metrics"
	"github.com/neuramaint/pumpml/internal/ml"
	"github.com/neuramaint/pumpml/internal/sensor"
)

// Prediction modes reported in results and status.
const (
	ModeIsolationForest = "isolation_forest"
	ModeRuleBased       = "rule_based"
)

// Retrain parameter bounds; requests outside them are rejected before any
// training work starts.
const (
	MinSampleCount   = 1000
	MaxSampleCount   = 50000
	MinContamination = 0.01
	MaxContamination = 0.2
)

var (
	ErrSampleCountOutOfRange   = fmt.Errorf("sample count must be between %d and %d", MinSampleCount, MaxSampleCount)
	ErrContaminationOutOfRange = fmt.Errorf("contamination must be between %v and %v", MinContamination, MaxContamination)
)

// ScoreResult is the complete answer for one reading. Produced fresh per
// call, never cached.
type ScoreResult struct {
	Probability    float64  `json:"failure_probability"`
	Risk           RiskTier `json:"risk"`
	Recommendation string   `json:"recommendation"`
	Confidence     float64  `json:"confidence"`
	Mode           string   `json:"prediction_mode"`
}

// RetrainSummary reports a successful training run.
type RetrainSummary struct {
	AccuracyEstimate float64 `json:"accuracy_estimate"`
	AnomalyRatio     float64 `json:"anomaly_ratio"`
	SampleCount      int     `json:"sample_count"`
	Contamination    float64 `json:"contamination"`
}

// ModelStatus is a derived view over the current model, recomputed on demand.
type ModelStatus struct {
	Loaded        bool       `json:"loaded"`
	Trained       bool       `json:"trained"`
	Training      bool       `json:"training"`
	Version       string     `json:"version"`
	LastTraining  *time.Time `json:"last_training,omitempty"`
	Estimators    int        `json:"n_estimators,omitempty"`
	Contamination float64    `json:"contamination,omitempty"`
	Mode          string     `json:"prediction_mode"`
	FeatureNames  []string   `json:"feature_names,omitempty"`
}

// ArtifactStore persists trained model artifacts as opaque blobs.
type ArtifactStore interface {
	// SaveModel persists detector, scaler and metadata. All-or-nothing: a
	// failed save must not leave a partial artifact set behind.
	SaveModel(ctx context.Context, model *ml.TrainedModel) error

	// LoadModel reads the current artifact set. Missing metadata is
	// tolerated; a missing detector or scaler yields ErrArtifactNotFound.
	LoadModel(ctx context.Context) (*ml.TrainedModel, error)
}

// ErrNoArtifacts is returned by LoadArtifacts when no persisted model exists.
var ErrNoArtifacts = errors.New("predictor: no persisted model artifacts")

// Engine orchestrates feature construction, the anomaly model, calibration
// and risk assessment behind a single Score operation. The current trained
// model is an immutable value behind an atomic swap handle: any number of
// concurrent scores may read it while a retrain publishes a replacement in
// one store.
type Engine struct {
	log   *zap.Logger
	store ArtifactStore

	current  atomic.Pointer[ml.TrainedModel]
	trainMu  sync.Mutex
	training atomic.Bool
}

// NewEngine creates a scoring engine. Store may be nil, in which case trained
// models live only in memory.
func NewEngine(log *zap.Logger, store ArtifactStore) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log, store: store}
}

// Score produces a failure assessment for one reading. It never returns an
// error and never panics: model failures degrade to the rule-based fallback,
// and anything unexpected degrades to a fixed conservative default.
func (e *Engine) Score(reading sensor.Reading) (result ScoreResult) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			e.log.Error("scoring panic recovered, returning conservative default",
				zap.Any("panic", r),
				zap.String("sensor_type", string(reading.Kind)))
			result = conservativeDefault()
		}
		metrics.PredictionDuration.WithLabelValues(result.Mode).Observe(time.Since(start).Seconds())
		metrics.PredictionsTotal.WithLabelValues(result.Mode, string(result.Risk)).Inc()
	}()

	features := ml.Vectorize(reading)

	probability, mode := e.modelProbability(reading, features)
	if mode == ModeRuleBased {
		probability = RuleScore(reading.Kind, reading.Value)
	}

	return ScoreResult{
		Probability:    round2(probability),
		Risk:           TierFor(probability),
		Recommendation: Recommend(reading.Kind, reading.Value, probability),
		Confidence:     round1(Confidence(reading.Kind, reading.Value, probability)),
		Mode:           mode,
	}
}

// modelProbability attempts the trained-model path. Any failure selects the
// rule-based stage instead of propagating.
func (e *Engine) modelProbability(reading sensor.Reading, features []float64) (float64, string) {
	model := e.current.Load()
	if model == nil {
		return 0, ModeRuleBased
	}

	decision, err := model.Score(features)
	if err != nil {
		e.log.Warn("model scoring failed, falling back to rule-based",
			zap.Error(err),
			zap.String("sensor_type", string(reading.Kind)))
		metrics.FallbacksTotal.Inc()
		return 0, ModeRuleBased
	}

	probability := Calibrate(decision)
	probability = AdjustForSensor(reading.Kind, reading.Value, probability)
	return probability, ModeIsolationForest
}

// Retrain generates a synthetic corpus, trains a fresh model and atomically
// replaces the current one. On any failure the previously trained model (if
// any) stays in force and nothing partial is committed.
func (e *Engine) Retrain(ctx context.Context, sampleCount int, contamination float64) (*RetrainSummary, error) {
	if sampleCount < MinSampleCount || sampleCount > MaxSampleCount {
		return nil, ErrSampleCountOutOfRange
	}
	if contamination < MinContamination || contamination > MaxContamination {
		return nil, ErrContaminationOutOfRange
	}

	// Single writer; concurrent scoring keeps reading the old model.
	e.trainMu.Lock()
	defer e.trainMu.Unlock()
	e.training.Store(true)
	defer e.training.Store(false)

	start := time.Now()
	e.log.Info("training started",
		zap.Int("sample_count", sampleCount),
		zap.Float64("contamination", contamination))

	vectors := ml.NewSyntheticGenerator().Generate(sampleCount, contamination)

	res, err := ml.Train(vectors, contamination)
	if err != nil {
		metrics.TrainingsTotal.WithLabelValues("failure").Inc()
		return nil, fmt.Errorf("training model: %w", err)
	}

	if err := ctx.Err(); err != nil {
		metrics.TrainingsTotal.WithLabelValues("cancelled").Inc()
		return nil, fmt.Errorf("training cancelled before publish: %w", err)
	}

	if e.store != nil {
		if err := e.store.SaveModel(ctx, res.Model); err != nil {
			metrics.TrainingsTotal.WithLabelValues("failure").Inc()
			return nil, fmt.Errorf("persisting model artifacts: %w", err)
		}
	}

	e.current.Store(res.Model)

	metrics.TrainingsTotal.WithLabelValues("success").Inc()
	metrics.TrainingDuration.Observe(time.Since(start).Seconds())
	e.log.Info("training completed",
		zap.Float64("anomaly_ratio", res.AnomalyRatio),
		zap.Float64("accuracy_estimate", res.AccuracyEstimate),
		zap.Duration("elapsed", time.Since(start)))

	return &RetrainSummary{
		AccuracyEstimate: res.AccuracyEstimate,
		AnomalyRatio:     res.AnomalyRatio,
		SampleCount:      sampleCount,
		Contamination:    contamination,
	}, nil
}

// LoadArtifacts restores the most recently persisted model, if any.
func (e *Engine) LoadArtifacts(ctx context.Context) error {
	if e.store == nil {
		return ErrNoArtifacts
	}
	model, err := e.store.LoadModel(ctx)
	if err != nil {
		return err
	}
	e.current.Store(model)
	e.log.Info("model artifacts loaded",
		zap.String("version", model.Meta.ModelVersion),
		zap.Time("training_date", model.Meta.TrainingDate))
	return nil
}

// Status derives the model status view. Never stored, recomputed per call.
func (e *Engine) Status() ModelStatus {
	model := e.current.Load()
	if model == nil {
		return ModelStatus{
			Training: e.training.Load(),
			Version:  ml.ModelVersion,
			Mode:     ModeRuleBased,
		}
	}

	trainedAt := model.Meta.TrainingDate
	return ModelStatus{
		Loaded:        true,
		Trained:       true,
		Training:      e.training.Load(),
		Version:       model.Meta.ModelVersion,
		LastTraining:  &trainedAt,
		Estimators:    model.Forest.NumTrees,
		Contamination: model.Forest.Contamination,
		Mode:          ModeIsolationForest,
		FeatureNames:  model.Meta.FeatureNames,
	}
}

// conservativeDefault is the fixed result for catastrophic internal failure.
func conservativeDefault() ScoreResult {
	return ScoreResult{
		Probability:    15.0,
		Risk:           RiskMedium,
		Recommendation: "Verification advised due to prediction error.",
		Confidence:     50.0,
		Mode:           ModeRuleBased,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

package ml

import (
	"fmt"
	"math"
	"time"

	"github.com/neuramaint/pumpml/internal/sensor"
)

// ModelVersion identifies the scoring pipeline generation. Bump when the
// feature layout or calibration changes incompatibly.
const ModelVersion = "2.0.0"

// Default training hyperparameters.
const (
	DefaultEstimators = 100
	DefaultSubSample  = 256
)

// Metadata describes how a model was trained. It travels with the detector
// and scaler as the third persisted artifact.
type Metadata struct {
	TrainingDate  time.Time              `json:"training_date"`
	SampleCount   int                    `json:"sample_count"`
	Contamination float64                `json:"contamination"`
	AnomalyRatio  float64                `json:"anomaly_ratio"`
	FeatureNames  []string               `json:"feature_names"`
	SensorRanges  map[string]sensor.Range `json:"sensor_ranges"`
	ModelVersion  string                 `json:"model_version"`
}

// TrainedModel is an immutable trained artifact set: detector, scaler and
// metadata. It is never mutated after construction; retraining builds a new
// value and swaps it in whole.
type TrainedModel struct {
	Forest *IsolationForest
	Scaler *StandardScaler
	Meta   Metadata
}

// TrainResult carries a freshly trained model plus its self-evaluation.
type TrainResult struct {
	Model            *TrainedModel
	AnomalyRatio     float64
	AccuracyEstimate float64
}

// Train fits a scaler and isolation forest on the corpus, then evaluates the
// forest on its own training data to report the empirical anomaly ratio.
// Fails only on numerical degeneracy (empty or zero-variance corpus).
func Train(vectors [][]float64, contamination float64) (*TrainResult, error) {
	scaler, err := FitScaler(vectors)
	if err != nil {
		return nil, fmt.Errorf("fitting scaler: %w", err)
	}

	scaled, err := scaler.TransformAll(vectors)
	if err != nil {
		return nil, fmt.Errorf("scaling corpus: %w", err)
	}

	forest := NewIsolationForest(DefaultEstimators, DefaultSubSample, contamination, trainingSeed)
	if err := forest.Fit(scaled); err != nil {
		return nil, fmt.Errorf("fitting forest: %w", err)
	}

	ratio, err := forest.AnomalyRatio(scaled)
	if err != nil {
		return nil, fmt.Errorf("evaluating forest: %w", err)
	}

	model := &TrainedModel{
		Forest: forest,
		Scaler: scaler,
		Meta: Metadata{
			TrainingDate:  time.Now().UTC(),
			SampleCount:   len(vectors),
			Contamination: contamination,
			AnomalyRatio:  ratio,
			FeatureNames:  FeatureNames,
			SensorRanges:  rangeSnapshot(),
			ModelVersion:  ModelVersion,
		},
	}

	return &TrainResult{
		Model:            model,
		AnomalyRatio:     ratio,
		AccuracyEstimate: accuracyEstimate(ratio, contamination),
	}, nil
}

// Score scales the vector and queries the detector's decision function.
// More negative means more anomalous.
func (m *TrainedModel) Score(vec []float64) (float64, error) {
	if m == nil || m.Forest == nil || m.Scaler == nil {
		return 0, ErrNotTrained
	}
	scaled, err := m.Scaler.Transform(vec)
	if err != nil {
		return 0, err
	}
	return m.Forest.Decision(scaled)
}

// accuracyEstimate is a heuristic: the closer the empirical anomaly ratio
// lands to the requested contamination, the better the fit, bounded to
// [70, 95] because it is measured on the training corpus itself.
func accuracyEstimate(ratio, contamination float64) float64 {
	est := (1 - math.Abs(ratio-contamination)) * 100
	return clamp(est, 70, 95)
}

func rangeSnapshot() map[string]sensor.Range {
	snapshot := make(map[string]sensor.Range, len(sensor.Kinds))
	for _, kind := range sensor.Kinds {
		r, _ := sensor.RangeFor(kind)
		snapshot[string(kind)] = r
	}
	return snapshot
}

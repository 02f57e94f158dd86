package ml

import (
	"errors"
	"testing"

	"github.com/neuramaint/pumpml/internal/sensor"
)

func TestTrain(t *testing.T) {
	corpus := NewSyntheticGenerator().Generate(2000, 0.05)

	result, err := Train(corpus, 0.05)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	model := result.Model
	if model.Meta.SampleCount != 2000 {
		t.Errorf("SampleCount = %d, want 2000", model.Meta.SampleCount)
	}
	if model.Meta.Contamination != 0.05 {
		t.Errorf("Contamination = %v, want 0.05", model.Meta.Contamination)
	}
	if model.Meta.ModelVersion != ModelVersion {
		t.Errorf("ModelVersion = %q, want %q", model.Meta.ModelVersion, ModelVersion)
	}
	if len(model.Meta.FeatureNames) != FeatureCount {
		t.Errorf("FeatureNames has %d entries, want %d", len(model.Meta.FeatureNames), FeatureCount)
	}
	if len(model.Meta.SensorRanges) != len(sensor.Kinds) {
		t.Errorf("SensorRanges has %d entries, want %d", len(model.Meta.SensorRanges), len(sensor.Kinds))
	}
	if result.AccuracyEstimate < 70 || result.AccuracyEstimate > 95 {
		t.Errorf("AccuracyEstimate = %v, outside [70, 95]", result.AccuracyEstimate)
	}
}

func TestTrain_Deterministic(t *testing.T) {
	a, err := Train(NewSyntheticGenerator().Generate(1500, 0.05), 0.05)
	if err != nil {
		t.Fatalf("Train a: %v", err)
	}
	b, err := Train(NewSyntheticGenerator().Generate(1500, 0.05), 0.05)
	if err != nil {
		t.Fatalf("Train b: %v", err)
	}

	if a.AnomalyRatio != b.AnomalyRatio {
		t.Errorf("anomaly ratios diverge: %v vs %v", a.AnomalyRatio, b.AnomalyRatio)
	}
	if a.AccuracyEstimate != b.AccuracyEstimate {
		t.Errorf("accuracy estimates diverge: %v vs %v", a.AccuracyEstimate, b.AccuracyEstimate)
	}

	probe := Vectorize(sensor.Reading{Kind: sensor.KindTemperature, Value: 95})
	da, err := a.Model.Score(probe)
	if err != nil {
		t.Fatalf("Score a: %v", err)
	}
	db, err := b.Model.Score(probe)
	if err != nil {
		t.Fatalf("Score b: %v", err)
	}
	if da != db {
		t.Errorf("scores diverge: %v vs %v", da, db)
	}
}

func TestTrain_DegenerateCorpus(t *testing.T) {
	constant := make([][]float64, 100)
	for i := range constant {
		constant[i] = []float64{1, 2, 3, 4, 5, 6}
	}
	if _, err := Train(constant, 0.05); !errors.Is(err, ErrDegenerateData) {
		t.Fatalf("Train on constant corpus: err = %v, want ErrDegenerateData", err)
	}
}

func TestScore_ExtremeReadingScoresAnomalous(t *testing.T) {
	result, err := Train(NewSyntheticGenerator().Generate(3000, 0.05), 0.05)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	model := result.Model

	normal := Vectorize(sensor.Reading{Kind: sensor.KindTemperature, Value: 50})
	extreme := Vectorize(sensor.Reading{Kind: sensor.KindTemperature, Value: 89})

	dn, err := model.Score(normal)
	if err != nil {
		t.Fatalf("Score(normal): %v", err)
	}
	de, err := model.Score(extreme)
	if err != nil {
		t.Fatalf("Score(extreme): %v", err)
	}
	if de >= dn {
		t.Errorf("extreme decision %v not below normal decision %v", de, dn)
	}
}

func TestScore_NilModel(t *testing.T) {
	var model *TrainedModel
	if _, err := model.Score(defaultVector()); err != ErrNotTrained {
		t.Fatalf("nil model Score: err = %v, want ErrNotTrained", err)
	}
}

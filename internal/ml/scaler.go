package ml

import (
	"errors"
	"fmt"
	"math"
)

// ErrDegenerateData is returned when a training corpus has zero variance in
// some feature, which makes scaling (and isolation splits) meaningless.
var ErrDegenerateData = errors.New("ml: training data has zero variance")

// StandardScaler centers each feature on its corpus mean and divides by the
// corpus standard deviation. Exported fields so a fitted scaler serializes
// as a model artifact.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler computes per-feature mean and standard deviation over the corpus.
func FitScaler(vectors [][]float64) (*StandardScaler, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("ml: cannot fit scaler on empty corpus: %w", ErrDegenerateData)
	}

	n := len(vectors)
	dim := len(vectors[0])
	mean := make([]float64, dim)
	std := make([]float64, dim)

	for _, vec := range vectors {
		for j, v := range vec {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(n)
	}

	for _, vec := range vectors {
		for j, v := range vec {
			diff := v - mean[j]
			std[j] += diff * diff
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / float64(n))
		if std[j] < 1e-12 {
			return nil, fmt.Errorf("ml: feature %d: %w", j, ErrDegenerateData)
		}
	}

	return &StandardScaler{Mean: mean, Std: std}, nil
}

// Transform scales a single vector in place-free fashion.
func (s *StandardScaler) Transform(vec []float64) ([]float64, error) {
	if len(vec) != len(s.Mean) {
		return nil, fmt.Errorf("ml: vector has %d features, scaler expects %d", len(vec), len(s.Mean))
	}
	out := make([]float64, len(vec))
	for j, v := range vec {
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out, nil
}

// TransformAll scales a corpus.
func (s *StandardScaler) TransformAll(vectors [][]float64) ([][]float64, error) {
	out := make([][]float64, len(vectors))
	for i, vec := range vectors {
		scaled, err := s.Transform(vec)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}

package ml

import (
	"math/rand"

	"github.com/neuramaint/pumpml/internal/sensor"
)

// trainingSeed fixes the random stream so repeated trainings with the same
// parameters produce comparable corpora and accuracy estimates.
const trainingSeed = 42

// SyntheticGenerator produces labeled-free training corpora of feature
// vectors. Normal patterns cluster around each sensor's operating band;
// anomalous patterns mix catastrophic extremes with subtle drift.
type SyntheticGenerator struct {
	rng *rand.Rand
}

// NewSyntheticGenerator returns a generator with the fixed training seed.
func NewSyntheticGenerator() *SyntheticGenerator {
	return &SyntheticGenerator{rng: rand.New(rand.NewSource(trainingSeed))}
}

// Generate builds sampleCount feature vectors of which a contamination
// fraction are anomalous, uniformly shuffled.
func (g *SyntheticGenerator) Generate(sampleCount int, contamination float64) [][]float64 {
	anomalous := int(float64(sampleCount) * contamination)
	normal := sampleCount - anomalous

	vectors := make([][]float64, 0, sampleCount)
	for i := 0; i < normal; i++ {
		vectors = append(vectors, g.normalPattern())
	}
	for i := 0; i < anomalous; i++ {
		vectors = append(vectors, g.anomalyPattern())
	}

	// Fisher-Yates shuffle of the concatenated groups.
	for i := len(vectors) - 1; i > 0; i-- {
		j := g.rng.Intn(i + 1)
		vectors[i], vectors[j] = vectors[j], vectors[i]
	}

	return vectors
}

// normalPattern draws each sensor from a Gaussian centred on the band
// midpoint with sigma = width/6, so ~99.7% of draws land in band before
// clamping.
func (g *SyntheticGenerator) normalPattern() []float64 {
	features := make([]float64, FeatureCount)

	for i, kind := range sensor.Kinds {
		rng, _ := sensor.RangeFor(kind)
		value := g.rng.NormFloat64()*(rng.Width()/6) + rng.Midpoint()
		features[i] = clamp(value, rng.Min, rng.Max)
	}

	fillNormalized(features, normalPatternCeiling)
	return features
}

// anomalyPattern produces a failure signature: with probability 0.7 an
// extreme value (0.8 high above the band, 0.2 far below it), otherwise a
// merely elevated value near the top of the band.
func (g *SyntheticGenerator) anomalyPattern() []float64 {
	features := make([]float64, FeatureCount)

	for i, kind := range sensor.Kinds {
		rng, _ := sensor.RangeFor(kind)

		switch {
		case g.rng.Float64() < 0.7:
			if g.rng.Float64() < 0.8 {
				features[i] = g.uniform(rng.Max*1.1, rng.Critical)
			} else {
				features[i] = g.uniform(rng.Min*0.2, rng.Min*0.7)
			}
		default:
			features[i] = g.uniform(rng.Max*0.85, rng.Max)
		}
	}

	fillNormalized(features, anomalyCeiling)
	return features
}

func (g *SyntheticGenerator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

package ml

import "github.com/neuramaint/pumpml/internal/sensor"

// FeatureCount is the fixed length of every feature vector: raw values for
// temperature, vibration and pressure followed by their range-normalized
// counterparts.
const FeatureCount = 6

// Normalized-slot clamp ceilings. Inference allows ratios up to 2x the normal
// band; anomaly synthesis allows up to 3x so the detector trains on more
// extreme ratios than it will ever see clamped at scoring time.
const (
	inferenceCeiling     = 2.0
	normalPatternCeiling = 1.0
	anomalyCeiling       = 3.0
)

// FeatureNames lists the vector slots in order, for model metadata.
var FeatureNames = []string{
	"temperature", "vibration", "pressure",
	"temperature_normalized", "vibration_normalized", "pressure_normalized",
}

// Vectorize maps a single reading into the fixed-length feature vector
// consumed by the anomaly detector. Slots for the two kinds not present in
// the reading keep mid-range defaults so an absent sensor never looks
// abnormal on its own. Unsupported kinds leave all raw slots at default.
func Vectorize(r sensor.Reading) []float64 {
	features := defaultVector()

	for i, kind := range sensor.Kinds {
		if r.Kind == kind {
			features[i] = r.Value
		}
	}

	fillNormalized(features, inferenceCeiling)
	return features
}

// defaultVector returns raw slots at the midpoint of each normal band with
// normalized slots at 0.5.
func defaultVector() []float64 {
	features := make([]float64, FeatureCount)
	for i, kind := range sensor.Kinds {
		rng, _ := sensor.RangeFor(kind)
		features[i] = rng.Midpoint()
		features[i+3] = 0.5
	}
	return features
}

// fillNormalized recomputes the three normalized slots from the raw slots,
// clamping each ratio to [0, ceiling].
func fillNormalized(features []float64, ceiling float64) {
	for i, kind := range sensor.Kinds {
		rng, ok := sensor.RangeFor(kind)
		if !ok {
			continue
		}
		features[i+3] = clamp(rng.Normalize(features[i]), 0, ceiling)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

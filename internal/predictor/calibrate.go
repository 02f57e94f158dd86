package predictor

import "github.com/neuramaint/pumpml/internal/sensor"

// Calibrate converts a raw detector decision score into a failure
// probability in [0,100]. The detector's scores are roughly zero-centred in
// [-0.5, 0.5] with negative meaning anomalous, so a zero score maps to 50%
// and the typical range spans the full probability scale; anything outside
// is clamped, never rejected.
func Calibrate(decision float64) float64 {
	return clamp((-decision+0.5)*100, 0, 100)
}

// AdjustForSensor applies sensor-specific multiplicative boosts near known
// failure signatures. Boosts only push risk upward, never downward, and the
// result is re-clamped to 100.
func AdjustForSensor(kind sensor.Kind, value, probability float64) float64 {
	switch kind {
	case sensor.KindTemperature:
		if value > 85 {
			probability *= 1.2
		} else if value < 15 {
			probability *= 1.1
		}
	case sensor.KindVibration:
		if value > 6 {
			probability *= 1.3
		} else if value > 4.5 {
			probability *= 1.1
		}
	case sensor.KindPressure:
		if value > 11 {
			probability *= 1.25
		} else if value < 1 {
			probability *= 1.15
		}
	}
	if probability > 100 {
		probability = 100
	}
	return probability
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

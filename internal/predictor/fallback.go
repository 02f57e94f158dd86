package predictor

import "github.com/neuramaint/pumpml/internal/sensor"

// lowValueFactor is the fraction of a sensor's normal minimum below which a
// reading is treated as a malfunction signal. Earlier rule sets used 0.8;
// 0.6 is canonical here.
const lowValueFactor = 0.6

// RuleScore is the deterministic fallback used when no trained model exists
// or the model path fails. Pure and total: every finite value maps to a
// probability in [0,100] and no branch can panic.
func RuleScore(kind sensor.Kind, value float64) float64 {
	rng, ok := sensor.RangeFor(kind)
	if !ok {
		return 15.0 // no domain knowledge, flat moderate default
	}

	switch {
	case value >= rng.Critical:
		return 95.0
	case value > rng.Max:
		// Linear ramp from 70 at max to 95 at critical.
		excess := (value - rng.Max) / (rng.Critical - rng.Max)
		return 70.0 + 25.0*excess
	case value < rng.Min*lowValueFactor:
		return 60.0 // starved or dead sensor also indicates malfunction
	case value > rng.Max*0.9:
		return 40.0
	default:
		return 10.0
	}
}

package predictor

import (
	"fmt"

	"github.com/neuramaint/pumpml/internal/sensor"
)

// RiskTier is the coarse risk bucket the maintenance dashboard renders.
type RiskTier string

const (
	RiskLow    RiskTier = "low"
	RiskMedium RiskTier = "medium"
	RiskHigh   RiskTier = "high"
)

// TierFor buckets a failure probability: >=80 high, >=40 medium, else low.
func TierFor(probability float64) RiskTier {
	switch {
	case probability >= 80:
		return RiskHigh
	case probability >= 40:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Confidence estimates how much to trust a prediction, in [50,95].
// Extreme readings and extreme predictions are easier to classify; the
// ambiguous middle band of probabilities is penalized.
func Confidence(kind sensor.Kind, value, probability float64) float64 {
	confidence := 85.0

	if rng, ok := sensor.RangeFor(kind); ok {
		if value >= rng.Critical || value < rng.Min*0.5 {
			confidence += 10.0
		}
	}

	if probability > 90 || probability < 10 {
		confidence += 5.0
	} else if probability >= 40 && probability <= 60 {
		confidence -= 10.0
	}

	return clamp(confidence, 50, 95)
}

// Recommend produces the operator-facing action text for a prediction.
func Recommend(kind sensor.Kind, value, probability float64) string {
	label := sensor.Label(kind)

	switch {
	case probability >= 90:
		return fmt.Sprintf("CRITICAL: %s indicates imminent failure. Immediate shutdown recommended for inspection.", label)
	case probability >= 70:
		return fmt.Sprintf("WARNING: %s shows elevated risk. Schedule preventive maintenance.", label)
	case probability >= 40:
		return fmt.Sprintf("MODERATE: %s requires monitoring. Review recent trends.", label)
	default:
		return fmt.Sprintf("NORMAL: %s operating within parameters. Continue monitoring.", label)
	}
}

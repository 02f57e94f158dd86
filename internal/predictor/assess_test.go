package predictor

import (
	"strings"
	"testing"

	"github.com/neuramaint/pumpml/internal/sensor"
)

func TestTierFor(t *testing.T) {
	cases := []struct {
		probability float64
		want        RiskTier
	}{
		{0, RiskLow},
		{39.9, RiskLow},
		{40, RiskMedium},
		{79.9, RiskMedium},
		{80, RiskHigh},
		{100, RiskHigh},
	}
	for _, tc := range cases {
		if got := TierFor(tc.probability); got != tc.want {
			t.Errorf("TierFor(%v) = %v, want %v", tc.probability, got, tc.want)
		}
	}
}

func TestConfidence(t *testing.T) {
	cases := []struct {
		name        string
		kind        sensor.Kind
		value       float64
		probability float64
		want        float64
	}{
		{"baseline", sensor.KindTemperature, 60, 25, 85},
		{"extreme reading and extreme probability", sensor.KindTemperature, 95, 95, 95},
		{"extreme low reading", sensor.KindTemperature, 5, 25, 95},
		{"ambiguous midband", sensor.KindTemperature, 60, 50, 75},
		{"extreme probability only", sensor.KindTemperature, 60, 95, 90},
		{"unsupported kind baseline", sensor.Kind("flow"), 999, 25, 85},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Confidence(tc.kind, tc.value, tc.probability)
			if got != tc.want {
				t.Errorf("Confidence(%s, %v, %v) = %v, want %v",
					tc.kind, tc.value, tc.probability, got, tc.want)
			}
		})
	}
}

func TestConfidence_Bounds(t *testing.T) {
	for _, kind := range sensor.Kinds {
		for v := -10.0; v <= 120.0; v += 5 {
			for p := 0.0; p <= 100.0; p += 5 {
				got := Confidence(kind, v, p)
				if got < 50 || got > 95 {
					t.Fatalf("Confidence(%s, %v, %v) = %v, outside [50, 95]", kind, v, p, got)
				}
			}
		}
	}
}

func TestRecommend(t *testing.T) {
	cases := []struct {
		probability float64
		prefix      string
	}{
		{95, "CRITICAL"},
		{90, "CRITICAL"},
		{75, "WARNING"},
		{50, "MODERATE"},
		{10, "NORMAL"},
	}
	for _, tc := range cases {
		got := Recommend(sensor.KindVibration, 3, tc.probability)
		if !strings.HasPrefix(got, tc.prefix) {
			t.Errorf("Recommend(vibration, 3, %v) = %q, want prefix %q", tc.probability, got, tc.prefix)
		}
		if !strings.Contains(got, "vibration") {
			t.Errorf("Recommend(vibration, 3, %v) = %q, missing sensor label", tc.probability, got)
		}
	}
}

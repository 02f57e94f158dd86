package predictor

import (
	"testing"

	"github.com/neuramaint/pumpml/internal/sensor"
)

func TestRuleScore(t *testing.T) {
	cases := []struct {
		name  string
		kind  sensor.Kind
		value float64
		want  float64
	}{
		{"temperature critical", sensor.KindTemperature, 95, 95.0},
		{"temperature at critical threshold", sensor.KindTemperature, 90, 95.0},
		{"temperature mid ramp", sensor.KindTemperature, 85, 82.5},
		{"temperature near top of band", sensor.KindTemperature, 75, 40.0},
		{"temperature nominal", sensor.KindTemperature, 50, 10.0},
		{"temperature starved", sensor.KindTemperature, 5, 60.0},
		{"temperature at low boundary", sensor.KindTemperature, 12, 10.0},
		{"temperature just below low boundary", sensor.KindTemperature, 11.9, 60.0},
		{"vibration critical", sensor.KindVibration, 7.5, 95.0},
		{"vibration mid ramp", sensor.KindVibration, 6, 82.5},
		{"vibration nominal", sensor.KindVibration, 2.5, 10.0},
		{"vibration near top of band", sensor.KindVibration, 4.8, 40.0},
		{"pressure above band", sensor.KindPressure, 11, 82.5},
		{"pressure critical", sensor.KindPressure, 12, 95.0},
		{"pressure nominal", sensor.KindPressure, 5, 10.0},
		{"unsupported kind", sensor.Kind("flow"), 100, 15.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RuleScore(tc.kind, tc.value); got != tc.want {
				t.Errorf("RuleScore(%s, %v) = %v, want %v", tc.kind, tc.value, got, tc.want)
			}
		})
	}
}

func TestRuleScore_RampMonotonic(t *testing.T) {
	prev := 0.0
	for v := 80.1; v < 90; v += 0.5 {
		got := RuleScore(sensor.KindTemperature, v)
		if got <= prev {
			t.Fatalf("RuleScore(temperature, %v) = %v, not above previous %v", v, got, prev)
		}
		if got < 70 || got > 95 {
			t.Fatalf("RuleScore(temperature, %v) = %v, outside ramp [70, 95]", v, got)
		}
		prev = got
	}
}

func TestRuleScore_AlwaysInRange(t *testing.T) {
	for _, kind := range sensor.Kinds {
		for v := -50.0; v <= 150.0; v += 1.0 {
			got := RuleScore(kind, v)
			if got < 0 || got > 100 {
				t.Fatalf("RuleScore(%s, %v) = %v, outside [0, 100]", kind, v, got)
			}
		}
	}
}

package predictor

import (
	"math"
	"testing"

	"github.com/neuramaint/pumpml/internal/sensor"
)

func TestCalibrate(t *testing.T) {
	cases := []struct {
		decision float64
		want     float64
	}{
		{0, 50},
		{-0.5, 100},
		{0.5, 0},
		{-0.25, 75},
		{0.25, 25},
		{-2, 100}, // clamped
		{2, 0},    // clamped
	}
	for _, tc := range cases {
		if got := Calibrate(tc.decision); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("Calibrate(%v) = %v, want %v", tc.decision, got, tc.want)
		}
	}
}

func TestAdjustForSensor(t *testing.T) {
	cases := []struct {
		name        string
		kind        sensor.Kind
		value       float64
		probability float64
		want        float64
	}{
		{"temperature hot", sensor.KindTemperature, 90, 50, 60},
		{"temperature cold", sensor.KindTemperature, 10, 50, 55},
		{"temperature nominal", sensor.KindTemperature, 50, 50, 50},
		{"vibration severe", sensor.KindVibration, 6.5, 50, 65},
		{"vibration elevated", sensor.KindVibration, 5, 50, 55},
		{"vibration mild", sensor.KindVibration, 2, 50, 50},
		{"pressure high", sensor.KindPressure, 11.5, 50, 62.5},
		{"pressure starved", sensor.KindPressure, 0.5, 50, 57.5},
		{"pressure nominal", sensor.KindPressure, 5, 50, 50},
		{"boost capped at 100", sensor.KindVibration, 6.5, 90, 100},
		{"unsupported kind untouched", sensor.Kind("flow"), 999, 50, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AdjustForSensor(tc.kind, tc.value, tc.probability)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("AdjustForSensor(%s, %v, %v) = %v, want %v",
					tc.kind, tc.value, tc.probability, got, tc.want)
			}
		})
	}
}

func TestAdjustForSensor_NeverLowers(t *testing.T) {
	for _, kind := range sensor.Kinds {
		for v := -10.0; v <= 100.0; v += 0.5 {
			got := AdjustForSensor(kind, v, 30)
			if got < 30 {
				t.Fatalf("AdjustForSensor(%s, %v, 30) = %v, lowered the probability", kind, v, got)
			}
		}
	}
}

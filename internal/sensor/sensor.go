package sensor

import "time"

// Kind identifies the type of sensor a reading came from.
type Kind string

const (
	KindTemperature Kind = "temperature"
	KindVibration   Kind = "vibration"
	KindPressure    Kind = "pressure"
)

// Kinds lists the supported sensor kinds in feature-vector order.
var Kinds = []Kind{KindTemperature, KindVibration, KindPressure}

// Range describes the normal operating band of a sensor kind plus the
// critical threshold beyond which failure is assumed imminent.
// Invariant: Min < Max < Critical.
type Range struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Critical float64 `json:"critical"`
}

// Midpoint returns the center of the normal operating band.
func (r Range) Midpoint() float64 {
	return (r.Min + r.Max) / 2
}

// Width returns the width of the normal operating band.
func (r Range) Width() float64 {
	return r.Max - r.Min
}

// Normalize maps a raw value onto the normal band: 0 at Min, 1 at Max.
// Values outside the band produce ratios below 0 or above 1.
func (r Range) Normalize(value float64) float64 {
	return (value - r.Min) / (r.Max - r.Min)
}

// ranges holds the operating bands for industrial pump sensors.
// Temperature in °C, vibration in mm/s RMS, pressure in bar.
var ranges = map[Kind]Range{
	KindTemperature: {Min: 20, Max: 80, Critical: 90},
	KindVibration:   {Min: 0, Max: 5, Critical: 7},
	KindPressure:    {Min: 0, Max: 10, Critical: 12},
}

// RangeFor returns the operating range for a sensor kind. The second return
// is false for unsupported kinds; callers must treat those as having no
// domain knowledge rather than failing.
func RangeFor(kind Kind) (Range, bool) {
	r, ok := ranges[kind]
	return r, ok
}

// Supported reports whether the engine has domain knowledge for the kind.
func Supported(kind Kind) bool {
	_, ok := ranges[kind]
	return ok
}

// labels are the human-readable names used in recommendations.
var labels = map[Kind]string{
	KindTemperature: "temperature",
	KindVibration:   "vibration",
	KindPressure:    "pressure",
}

// Label returns the display name for a sensor kind. Unknown kinds fall back
// to the raw kind string so recommendation text never comes out empty.
func Label(kind Kind) string {
	if l, ok := labels[kind]; ok {
		return l
	}
	return string(kind)
}

// Reading is a single validated sensor measurement. Readings are created per
// scoring request and never persisted by the engine.
type Reading struct {
	SensorID   int       `json:"sensor_id"`
	Kind       Kind      `json:"sensor_type"`
	Value      float64   `json:"value"`
	ObservedAt time.Time `json:"timestamp"`
}

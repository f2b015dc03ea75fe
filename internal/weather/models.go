package weather

import (
	"fmt"
	"math"
)

// Summary is the normalized weather view used to adjust park factors.
// Temperatures are Fahrenheit, wind speeds miles per hour.
type Summary struct {
	TemperatureF float64 `json:"temperature_f"`
	WindMph      float64 `json:"wind_mph"`
	Condition    string  `json:"condition,omitempty"`
}

// Valid reports whether both readings are finite numbers.
func (s Summary) Valid() bool {
	return isFinite(s.TemperatureF) && isFinite(s.WindMph)
}

// Text renders the summary as shown next to each park, e.g. "72°F, 8 mph wind".
// Halves round away from zero.
func (s Summary) Text() string {
	return fmt.Sprintf("%.0f°F, %.0f mph wind", math.Round(s.TemperatureF), math.Round(s.WindMph))
}

// UnavailableText is shown for parks whose weather could not be fetched.
const UnavailableText = "Weather unavailable"

// Observation is the outcome of a weather fetch: either a Summary or absence.
// The zero value is absent.
type Observation struct {
	summary Summary
	present bool
}

// Present wraps a successful reading.
func Present(s Summary) Observation {
	return Observation{summary: s, present: true}
}

// Absent is the outcome of a failed, timed out or malformed fetch.
func Absent() Observation {
	return Observation{}
}

// Summary returns the reading and whether one exists.
func (o Observation) Summary() (Summary, bool) {
	return o.summary, o.present
}

// IsAbsent reports whether no usable reading was obtained.
func (o Observation) IsAbsent() bool {
	return !o.present
}

// Text renders the observation for display.
func (o Observation) Text() string {
	if !o.present {
		return UnavailableText
	}
	return o.summary.Text()
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

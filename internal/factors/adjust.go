package factors

import (
	"math"

	"github.com/i474232898/park-factors/internal/weather"
)

// Temperature and wind thresholds. Comparisons are strict: exactly 80°F or
// exactly 15 mph leave the factor untouched.
const (
	HotAboveF   = 80.0
	ColdBelowF  = 50.0
	WindyAbove  = 15.0
	CalmBelow   = 5.0
	hotBoost    = 1.02
	coldPenalty = 0.98
	windPenalty = 0.97
	calmBoost   = 1.01
)

// TemperatureMultiplier is 1.02 above 80°F, 0.98 below 50°F and 1.0 otherwise.
func TemperatureMultiplier(tempF float64) float64 {
	switch {
	case tempF > HotAboveF:
		return hotBoost
	case tempF < ColdBelowF:
		return coldPenalty
	default:
		return 1.0
	}
}

// WindMultiplier is 0.97 above 15 mph, 1.01 below 5 mph and 1.0 otherwise.
func WindMultiplier(windMph float64) float64 {
	switch {
	case windMph > WindyAbove:
		return windPenalty
	case windMph < CalmBelow:
		return calmBoost
	default:
		return 1.0
	}
}

// Adjust applies the weather multipliers to a baseline factor and rounds to
// three decimals. Absent weather returns the baseline unchanged.
func Adjust(base float64, obs weather.Observation) float64 {
	s, ok := obs.Summary()
	if !ok {
		return base
	}
	return Round3(base * TemperatureMultiplier(s.TemperatureF) * WindMultiplier(s.WindMph))
}

// Round3 rounds half away from zero to three decimal places.
func Round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

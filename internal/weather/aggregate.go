package weather

import (
	"errors"
	"fmt"
)

// ErrNoReadings is returned when a forecast window holds no usable values.
var ErrNoReadings = errors.New("no usable readings in window")

// SummarizeWindow combines the trailing window of a daily series into a single
// Summary. Max temperature and max wind are averaged independently over the
// last window days, skipping null entries; the condition of the newest day
// that has one is carried over.
func SummarizeWindow(series []DailyReading, window int) (Summary, error) {
	if window <= 0 {
		return Summary{}, fmt.Errorf("window must be greater than zero, got %d", window)
	}
	if len(series) == 0 {
		return Summary{}, ErrNoReadings
	}

	start := len(series) - window
	if start < 0 {
		start = 0
	}
	tail := series[start:]

	var (
		sumTemp, sumWind float64
		nTemp, nWind     int
		condition        string
	)

	for _, d := range tail {
		if d.MaxTempF != nil && isFinite(*d.MaxTempF) {
			sumTemp += *d.MaxTempF
			nTemp++
		}
		if d.MaxWindMph != nil && isFinite(*d.MaxWindMph) {
			sumWind += *d.MaxWindMph
			nWind++
		}
		if d.ConditionLabel != "" {
			condition = d.ConditionLabel
		}
	}

	if nTemp == 0 || nWind == 0 {
		return Summary{}, ErrNoReadings
	}

	return Summary{
		TemperatureF: sumTemp / float64(nTemp),
		WindMph:      sumWind / float64(nWind),
		Condition:    condition,
	}, nil
}

package weather

import (
	"context"
)

// Provider abstracts an upstream weather API (Open-Meteo, WeatherAPI, OpenWeatherMap).
// Implementations return errors freely; Source turns them into absence.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, lat, lon float64) (Summary, error)
}

// DailyReading is one day of a forecast series. Nil fields are days the
// upstream reported as null.
type DailyReading struct {
	Date           string
	MaxTempF       *float64
	MaxWindMph     *float64
	ConditionLabel string
}

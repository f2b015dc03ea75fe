package providers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/i474232898/park-factors/internal/weather"
)

// Options carries the settings any provider may need.
type Options struct {
	WeatherAPIKey     string
	OpenWeatherAPIKey string
	WindowDays        int
	PastDays          int
}

// New builds the provider named by kind: "openmeteo", "weatherapi" or "openweather".
func New(kind string, client *http.Client, opts Options) (weather.Provider, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "openmeteo":
		return NewOpenMeteoProvider(client, opts.WindowDays, opts.PastDays), nil
	case "weatherapi":
		if opts.WeatherAPIKey == "" {
			return nil, fmt.Errorf("weatherapi provider requires WEATHERAPI_API_KEY")
		}
		return NewWeatherAPIProvider(client, opts.WeatherAPIKey), nil
	case "openweather", "openweathermap":
		if opts.OpenWeatherAPIKey == "" {
			return nil, fmt.Errorf("openweather provider requires OPENWEATHER_API_KEY")
		}
		return NewOpenWeatherProvider(client, opts.OpenWeatherAPIKey), nil
	default:
		return nil, fmt.Errorf("unknown weather provider %q", kind)
	}
}

package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/i474232898/park-factors/internal/weather"
)

// WeatherAPIProvider implements weather.Provider for WeatherAPI.com current conditions.
type WeatherAPIProvider struct {
	name     string
	apiKey   string
	baseURL  string
	httpCfg  HTTPClientConfig
	circuits *breakerSet
}

func NewWeatherAPIProvider(client *http.Client, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:     "weatherapi",
		apiKey:   apiKey,
		baseURL:  "https://api.weatherapi.com/v1/current.json",
		httpCfg:  defaultHTTPConfig(client),
		circuits: newBreakerSet("weatherapi"),
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, lat, lon float64) (weather.Summary, error) {
	if p.apiKey == "" {
		return weather.Summary{}, fmt.Errorf("weatherapi api key is not configured")
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	// WeatherAPI accepts "lat,lon" in q.
	values.Set("q", fmt.Sprintf("%.4f,%.4f", lat, lon))

	var payload struct {
		Current *struct {
			TempF     *float64 `json:"temp_f"`
			WindMph   *float64 `json:"wind_mph"`
			Condition struct {
				Text string `json:"text"`
			} `json:"condition"`
		} `json:"current"`
	}

	if err := getJSON(ctx, p.httpCfg, p.circuits.forLocation(lat, lon), p.baseURL+"?"+values.Encode(), &payload); err != nil {
		return weather.Summary{}, err
	}

	c := payload.Current
	if c == nil || c.TempF == nil || c.WindMph == nil {
		return weather.Summary{}, fmt.Errorf("weatherapi: response missing current temp_f or wind_mph")
	}

	return weather.Summary{
		TemperatureF: *c.TempF,
		WindMph:      *c.WindMph,
		Condition:    c.Condition.Text,
	}, nil
}

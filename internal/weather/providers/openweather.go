package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/i474232898/park-factors/internal/weather"
)

// OpenWeatherProvider implements weather.Provider for OpenWeatherMap current
// conditions in imperial units.
type OpenWeatherProvider struct {
	name     string
	apiKey   string
	baseURL  string
	httpCfg  HTTPClientConfig
	circuits *breakerSet
}

func NewOpenWeatherProvider(client *http.Client, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:     "openweathermap",
		apiKey:   apiKey,
		baseURL:  "https://api.openweathermap.org/data/2.5/weather",
		httpCfg:  defaultHTTPConfig(client),
		circuits: newBreakerSet("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, lat, lon float64) (weather.Summary, error) {
	if p.apiKey == "" {
		return weather.Summary{}, fmt.Errorf("openweather api key is not configured")
	}

	values := url.Values{}
	values.Set("appid", p.apiKey)
	values.Set("units", "imperial")
	values.Set("lat", strconv.FormatFloat(lat, 'f', 4, 64))
	values.Set("lon", strconv.FormatFloat(lon, 'f', 4, 64))

	var payload struct {
		Main *struct {
			Temp *float64 `json:"temp"`
		} `json:"main"`
		Wind *struct {
			Speed *float64 `json:"speed"`
		} `json:"wind"`
		Weather []struct {
			Main string `json:"main"`
		} `json:"weather"`
	}

	if err := getJSON(ctx, p.httpCfg, p.circuits.forLocation(lat, lon), p.baseURL+"?"+values.Encode(), &payload); err != nil {
		return weather.Summary{}, err
	}

	if payload.Main == nil || payload.Main.Temp == nil || payload.Wind == nil || payload.Wind.Speed == nil {
		return weather.Summary{}, fmt.Errorf("openweather: response missing main.temp or wind.speed")
	}

	var cond string
	if len(payload.Weather) > 0 {
		cond = payload.Weather[0].Main
	}

	return weather.Summary{
		TemperatureF: *payload.Main.Temp,
		WindMph:      *payload.Wind.Speed,
		Condition:    cond,
	}, nil
}

package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/i474232898/park-factors/internal/weather"
)

// OpenMeteoProvider implements weather.Provider on top of the Open-Meteo daily
// forecast series. It requests pastDays of history plus today and averages the
// trailing window.
type OpenMeteoProvider struct {
	name     string
	baseURL  string
	pastDays int
	window   int
	httpCfg  HTTPClientConfig
	circuits *breakerSet
}

// NewOpenMeteoProvider creates an Open-Meteo provider. Non-positive window or
// pastDays fall back to 3 and 7.
func NewOpenMeteoProvider(client *http.Client, window, pastDays int) *OpenMeteoProvider {
	if window <= 0 {
		window = 3
	}
	if pastDays <= 0 {
		pastDays = 7
	}
	return &OpenMeteoProvider{
		name:     "openmeteo",
		baseURL:  "https://api.open-meteo.com/v1/forecast",
		pastDays: pastDays,
		window:   window,
		httpCfg:  defaultHTTPConfig(client),
		circuits: newBreakerSet("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoDaily struct {
	Daily struct {
		Time        []string   `json:"time"`
		TempMax     []*float64 `json:"temperature_2m_max"`
		WindMax     []*float64 `json:"windspeed_10m_max"`
		WeatherCode []*int     `json:"weathercode"`
	} `json:"daily"`
}

func (p *OpenMeteoProvider) Fetch(ctx context.Context, lat, lon float64) (weather.Summary, error) {
	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	values.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	values.Set("daily", "temperature_2m_max,windspeed_10m_max,weathercode")
	values.Set("temperature_unit", "fahrenheit")
	values.Set("windspeed_unit", "mph")
	values.Set("past_days", strconv.Itoa(p.pastDays))
	values.Set("forecast_days", "1")
	values.Set("timezone", "auto")

	var payload openMeteoDaily
	if err := getJSON(ctx, p.httpCfg, p.circuits.forLocation(lat, lon), p.baseURL+"?"+values.Encode(), &payload); err != nil {
		return weather.Summary{}, err
	}

	series, err := payload.series()
	if err != nil {
		return weather.Summary{}, err
	}
	return weather.SummarizeWindow(series, p.window)
}

// series zips the parallel daily arrays. Arrays of differing length are
// treated as malformed.
func (o openMeteoDaily) series() ([]weather.DailyReading, error) {
	d := o.Daily
	if len(d.TempMax) == 0 || len(d.WindMax) == 0 {
		return nil, fmt.Errorf("openmeteo: daily series missing temperature or wind")
	}
	if len(d.TempMax) != len(d.WindMax) {
		return nil, fmt.Errorf("openmeteo: daily series length mismatch (%d temps, %d winds)", len(d.TempMax), len(d.WindMax))
	}

	out := make([]weather.DailyReading, len(d.TempMax))
	for i := range d.TempMax {
		r := weather.DailyReading{
			MaxTempF:   d.TempMax[i],
			MaxWindMph: d.WindMax[i],
		}
		if i < len(d.Time) {
			r.Date = d.Time[i]
		}
		if i < len(d.WeatherCode) && d.WeatherCode[i] != nil {
			r.ConditionLabel = mapOpenMeteoCondition(*d.WeatherCode[i])
		}
		out[i] = r
	}
	return out, nil
}

func mapOpenMeteoCondition(code int) string {
	// WMO weather interpretation codes, simplified.
	switch {
	case code == 0:
		return "Clear"
	case code >= 1 && code <= 3:
		return "Cloudy"
	case code == 45 || code == 48:
		return "Fog"
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return "Rain"
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return "Snow"
	case code >= 95:
		return "Storm"
	default:
		return ""
	}
}

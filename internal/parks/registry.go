package parks

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownTeam is returned when a team code does not map to any venue.
	ErrUnknownTeam = errors.New("unknown team")

	// ErrInvalidRegistry is returned when a venue table violates its invariants.
	ErrInvalidRegistry = errors.New("invalid venue registry")
)

// Venue is a ballpark with its weather-independent baseline factors.
// Teams holds the home team abbreviations accepted by lookups.
type Venue struct {
	Name           string   `json:"park"`
	Teams          []string `json:"teams"`
	Lat            float64  `json:"lat"`
	Lon            float64  `json:"lon"`
	BaseHRFactor   float64  `json:"base_hr_factor"`
	BaseRunsFactor float64  `json:"base_runs_factor"`
}

// HasTeam reports whether code (case-insensitive) is one of the venue's teams.
func (v Venue) HasTeam(code string) bool {
	for _, t := range v.Teams {
		if strings.EqualFold(t, code) {
			return true
		}
	}
	return false
}

var venues = []Venue{
	{Name: "Coors Field", Teams: []string{"COL"}, Lat: 39.7559, Lon: -104.9942, BaseHRFactor: 1.255, BaseRunsFactor: 1.115},
	{Name: "Great American Ball Park", Teams: []string{"CIN"}, Lat: 39.0975, Lon: -84.5061, BaseHRFactor: 1.124, BaseRunsFactor: 1.034},
	{Name: "Yankee Stadium", Teams: []string{"NYY"}, Lat: 40.8296, Lon: -73.9262, BaseHRFactor: 1.103, BaseRunsFactor: 1.027},
	{Name: "Fenway Park", Teams: []string{"BOS"}, Lat: 42.3467, Lon: -71.0972, BaseHRFactor: 1.095, BaseRunsFactor: 1.019},
	{Name: "Camden Yards", Teams: []string{"BAL"}, Lat: 39.2840, Lon: -76.6218, BaseHRFactor: 1.089, BaseRunsFactor: 1.015},
	{Name: "Rogers Centre", Teams: []string{"TOR"}, Lat: 43.6414, Lon: -79.3894, BaseHRFactor: 1.082, BaseRunsFactor: 1.012},
	{Name: "Minute Maid Park", Teams: []string{"HOU"}, Lat: 29.7570, Lon: -95.3551, BaseHRFactor: 1.076, BaseRunsFactor: 1.008},
	{Name: "Angel Stadium", Teams: []string{"LAA"}, Lat: 33.8003, Lon: -117.8827, BaseHRFactor: 1.023, BaseRunsFactor: 1.003},
	{Name: "Chase Field", Teams: []string{"ARI", "AZ"}, Lat: 33.4453, Lon: -112.0667, BaseHRFactor: 1.019, BaseRunsFactor: 1.001},
	{Name: "Wrigley Field", Teams: []string{"CHC"}, Lat: 41.9484, Lon: -87.6553, BaseHRFactor: 1.015, BaseRunsFactor: 0.998},
	{Name: "Truist Park", Teams: []string{"ATL"}, Lat: 33.8907, Lon: -84.4677, BaseHRFactor: 1.012, BaseRunsFactor: 0.995},
	{Name: "Citizens Bank Park", Teams: []string{"PHI"}, Lat: 39.9061, Lon: -75.1665, BaseHRFactor: 1.008, BaseRunsFactor: 0.992},
	{Name: "Globe Life Field", Teams: []string{"TEX"}, Lat: 32.7473, Lon: -97.0815, BaseHRFactor: 1.005, BaseRunsFactor: 0.989},
	{Name: "Busch Stadium", Teams: []string{"STL"}, Lat: 38.6226, Lon: -90.1928, BaseHRFactor: 1.001, BaseRunsFactor: 0.986},
	{Name: "Guaranteed Rate Field", Teams: []string{"CWS", "CHW"}, Lat: 41.8300, Lon: -87.6338, BaseHRFactor: 0.998, BaseRunsFactor: 0.983},
	{Name: "Target Field", Teams: []string{"MIN"}, Lat: 44.9817, Lon: -93.2777, BaseHRFactor: 0.995, BaseRunsFactor: 0.980},
	{Name: "Citi Field", Teams: []string{"NYM"}, Lat: 40.7571, Lon: -73.8458, BaseHRFactor: 0.992, BaseRunsFactor: 0.977},
	{Name: "Progressive Field", Teams: []string{"CLE"}, Lat: 41.4959, Lon: -81.6852, BaseHRFactor: 0.989, BaseRunsFactor: 0.974},
	{Name: "T-Mobile Park", Teams: []string{"SEA"}, Lat: 47.5914, Lon: -122.3325, BaseHRFactor: 0.986, BaseRunsFactor: 0.971},
	{Name: "Comerica Park", Teams: []string{"DET"}, Lat: 42.3390, Lon: -83.0485, BaseHRFactor: 0.983, BaseRunsFactor: 0.968},
	{Name: "Tropicana Field", Teams: []string{"TB", "TBR"}, Lat: 27.7682, Lon: -82.6534, BaseHRFactor: 0.980, BaseRunsFactor: 0.965},
	{Name: "Kauffman Stadium", Teams: []string{"KC", "KCR"}, Lat: 39.0517, Lon: -94.4803, BaseHRFactor: 0.977, BaseRunsFactor: 0.962},
	{Name: "Oracle Park", Teams: []string{"SF", "SFG"}, Lat: 37.7786, Lon: -122.3893, BaseHRFactor: 0.825, BaseRunsFactor: 0.894},
	{Name: "Petco Park", Teams: []string{"SD", "SDP"}, Lat: 32.7073, Lon: -117.1566, BaseHRFactor: 0.822, BaseRunsFactor: 0.891},
	{Name: "Marlins Park", Teams: []string{"MIA"}, Lat: 25.7781, Lon: -80.2197, BaseHRFactor: 0.919, BaseRunsFactor: 0.948},
}

// All returns a copy of the venue table in registry order.
func All() []Venue {
	out := make([]Venue, len(venues))
	copy(out, venues)
	return out
}

// ByTeam returns the venue whose home team matches code.
func ByTeam(code string) (Venue, error) {
	code = strings.TrimSpace(code)
	for _, v := range venues {
		if v.HasTeam(code) {
			return v, nil
		}
	}
	return Venue{}, fmt.Errorf("%w: %q", ErrUnknownTeam, code)
}

// Validate checks that names are unique, coordinates are in range and
// baseline factors are positive.
func Validate(vs []Venue) error {
	if len(vs) == 0 {
		return fmt.Errorf("%w: no venues", ErrInvalidRegistry)
	}
	seen := make(map[string]struct{}, len(vs))
	for _, v := range vs {
		if v.Name == "" {
			return fmt.Errorf("%w: venue without a name", ErrInvalidRegistry)
		}
		if _, dup := seen[v.Name]; dup {
			return fmt.Errorf("%w: duplicate venue %q", ErrInvalidRegistry, v.Name)
		}
		seen[v.Name] = struct{}{}

		if v.Lat < -90 || v.Lat > 90 || v.Lon < -180 || v.Lon > 180 {
			return fmt.Errorf("%w: %s has out-of-range coordinates", ErrInvalidRegistry, v.Name)
		}
		if v.BaseHRFactor <= 0 || v.BaseRunsFactor <= 0 {
			return fmt.Errorf("%w: %s has non-positive baseline factors", ErrInvalidRegistry, v.Name)
		}
	}
	return nil
}

package factors

import (
	"context"
	"fmt"
	"sort"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/i474232898/park-factors/internal/parks"
	"github.com/i474232898/park-factors/internal/weather"
)

// WeatherFetcher returns the weather at a coordinate, or absence. It must not block
// past its own deadline. *weather.Source implements it.
type WeatherFetcher interface {
	FetchWeather(ctx context.Context, lat, lon float64) weather.Observation
}

// Aggregator computes adjusted park factors for every registry venue.
type Aggregator struct {
	fetcher WeatherFetcher
	venues  []parks.Venue
	clock   clockwork.Clock
}

// NewAggregator creates an Aggregator over venues. A nil clock uses real time.
func NewAggregator(fetcher WeatherFetcher, venues []parks.Venue, clock clockwork.Clock) *Aggregator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Aggregator{
		fetcher: fetcher,
		venues:  venues,
		clock:   clock,
	}
}

// Compute fetches weather for every venue concurrently, waits for all of
// them, then builds one record per venue sorted by HRFactor descending.
// Venues with equal HRFactor keep registry order. Cancelling ctx does not
// stop a run in progress; each fetch is bounded by its own deadline.
func (a *Aggregator) Compute(ctx context.Context) (Result, error) {
	if err := parks.Validate(a.venues); err != nil {
		return Result{}, err
	}
	if a.fetcher == nil {
		return Result{}, fmt.Errorf("aggregate: no weather fetcher configured")
	}

	ctx = context.WithoutCancel(ctx)
	observations := make([]weather.Observation, len(a.venues))

	var g errgroup.Group
	for i, v := range a.venues {
		i, v := i, v
		g.Go(func() error {
			observations[i] = a.fetcher.FetchWeather(ctx, v.Lat, v.Lon)
			return nil
		})
	}
	_ = g.Wait()

	records := make([]Record, len(a.venues))
	for i, v := range a.venues {
		obs := observations[i]
		records[i] = Record{
			Park:           v.Name,
			HRFactor:       Adjust(v.BaseHRFactor, obs),
			RunsFactor:     Adjust(v.BaseRunsFactor, obs),
			BaseHRFactor:   v.BaseHRFactor,
			BaseRunsFactor: v.BaseRunsFactor,
			Weather:        obs.Text(),
		}
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].HRFactor > records[j].HRFactor
	})

	return Result{
		LastUpdated: a.clock.Now().UTC().Round(0),
		ParkFactors: records,
	}, nil
}

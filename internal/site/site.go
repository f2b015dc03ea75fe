package site

import (
	"context"
	"log"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/i474232898/park-factors/internal/factors"
)

// LoadErrorMessage is shown to readers when no park factors can be loaded.
const LoadErrorMessage = "Unable to load current park factors data. Please check back later."

// DateLayout renders dates like "Friday, July 4, 2025".
const DateLayout = "Monday, January 2, 2006"

// Provider supplies the current result. *refresh.Controller implements it.
type Provider interface {
	Current(ctx context.Context) (factors.Result, error)
}

// Data is what the page templates consume.
type Data struct {
	LastUpdated time.Time        `json:"last_updated"`
	Date        string           `json:"date"`
	ParkFactors []factors.Record `json:"park_factors"`
	Error       string           `json:"error,omitempty"`
}

// BuildData fetches the current result once. It never fails: on error the
// returned Data carries an empty record list and a reader-facing message.
func BuildData(ctx context.Context, p Provider) Data {
	return build(ctx, p, clockwork.NewRealClock())
}

func build(ctx context.Context, p Provider, clock clockwork.Clock) Data {
	res, err := p.Current(ctx)
	if err != nil {
		log.Printf("ERROR: site: loading park factors: %v", err)
		now := clock.Now().UTC()
		return Data{
			LastUpdated: now,
			Date:        now.Format(DateLayout),
			ParkFactors: []factors.Record{},
			Error:       LoadErrorMessage,
		}
	}

	recs := res.Clone().ParkFactors
	if recs == nil {
		recs = []factors.Record{}
	}
	return Data{
		LastUpdated: res.LastUpdated,
		Date:        res.LastUpdated.Format(DateLayout),
		ParkFactors: recs,
	}
}

package factors

import (
	"encoding/json"
	"fmt"
	"time"
)

// Record is the adjusted park factor for one venue.
type Record struct {
	Park           string  `json:"park"`
	HRFactor       float64 `json:"hr_factor"`
	RunsFactor     float64 `json:"runs_factor"`
	BaseHRFactor   float64 `json:"base_hr_factor"`
	BaseRunsFactor float64 `json:"base_runs_factor"`
	Weather        string  `json:"weather"`
}

// Result is one pipeline run: records ordered by descending HRFactor.
type Result struct {
	LastUpdated time.Time `json:"last_updated"`
	ParkFactors []Record  `json:"park_factors"`
}

// Find returns the record for park.
func (r Result) Find(park string) (Record, bool) {
	for _, rec := range r.ParkFactors {
		if rec.Park == park {
			return rec, true
		}
	}
	return Record{}, false
}

// Clone returns a copy that shares no slices with r.
func (r Result) Clone() Result {
	if r.ParkFactors != nil {
		recs := make([]Record, len(r.ParkFactors))
		copy(recs, r.ParkFactors)
		r.ParkFactors = recs
	}
	return r
}

// Marshal renders a Result as indented JSON. A nil record list is written as [].
func Marshal(r Result) ([]byte, error) {
	if r.ParkFactors == nil {
		r.ParkFactors = []Record{}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal park factors: %w", err)
	}
	return data, nil
}

// Unmarshal parses a document produced by Marshal. A missing or unparseable
// last_updated yields the zero time so callers can fall back to another
// freshness source.
func Unmarshal(data []byte) (Result, error) {
	var doc struct {
		LastUpdated json.RawMessage `json:"last_updated"`
		ParkFactors []Record        `json:"park_factors"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Result{}, fmt.Errorf("unmarshal park factors: %w", err)
	}
	if doc.ParkFactors == nil {
		return Result{}, fmt.Errorf("unmarshal park factors: document has no park_factors list")
	}

	r := Result{ParkFactors: doc.ParkFactors}
	if len(doc.LastUpdated) > 0 {
		// A bad timestamp is left zero.
		_ = json.Unmarshal(doc.LastUpdated, &r.LastUpdated)
	}
	return r, nil
}

package site

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"

	"github.com/i474232898/park-factors/internal/factors"
)

type stubProvider struct {
	res   factors.Result
	err   error
	calls int
}

func (s *stubProvider) Current(context.Context) (factors.Result, error) {
	s.calls++
	return s.res, s.err
}

func TestBuildData_Success(t *testing.T) {
	at := time.Date(2025, 7, 4, 18, 0, 0, 0, time.UTC)
	p := &stubProvider{res: factors.Result{
		LastUpdated: at,
		ParkFactors: []factors.Record{{Park: "Coors Field", HRFactor: 1.28}},
	}}

	d := BuildData(context.Background(), p)

	assert.Equal(t, 1, p.calls)
	assert.Empty(t, d.Error)
	assert.Equal(t, at, d.LastUpdated)
	assert.Equal(t, "Friday, July 4, 2025", d.Date)
	assert.Len(t, d.ParkFactors, 1)
}

func TestBuildData_Failure(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 30, 9, 0, 0, 0, time.UTC))
	p := &stubProvider{err: errors.New("park factors unavailable")}

	d := build(context.Background(), p, clock)

	assert.Equal(t, 1, p.calls)
	assert.Equal(t, LoadErrorMessage, d.Error)
	assert.NotNil(t, d.ParkFactors)
	assert.Empty(t, d.ParkFactors)
	assert.Equal(t, clock.Now(), d.LastUpdated)
	assert.Equal(t, "Sunday, March 30, 2025", d.Date)
}

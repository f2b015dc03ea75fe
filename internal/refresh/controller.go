package refresh

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/i474232898/park-factors/internal/factors"
	"github.com/i474232898/park-factors/internal/store"
)

// DefaultThreshold is the maximum age of a persisted result before it is recomputed.
const DefaultThreshold = time.Hour

// ErrUnavailable is returned when no result can be computed and none was ever persisted.
var ErrUnavailable = errors.New("park factors unavailable")

// Computer produces a fresh result. *factors.Aggregator implements it.
type Computer interface {
	Compute(ctx context.Context) (factors.Result, error)
}

// Recorder receives controller outcomes. *observability.Metrics implements it.
type Recorder interface {
	PipelineFinished(err error, took time.Duration, at time.Time)
	CacheLookup(result string)
}

// Controller serves the current result, recomputing it when it has aged past
// the freshness threshold. At most one recompute runs at a time; concurrent
// callers share its outcome.
type Controller struct {
	computer  Computer
	store     store.Store
	threshold time.Duration
	offline   bool
	clock     clockwork.Clock
	recorder  Recorder
	flight    singleflight.Group

	// forcePending makes the next flight recompute even if the stored result is fresh.
	forcePending atomic.Bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithThreshold sets the freshness threshold. Non-positive values are ignored.
func WithThreshold(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.threshold = d
		}
	}
}

// WithClock injects a time source.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Controller) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithOffline makes the controller serve the persisted result only and never recompute.
func WithOffline(offline bool) Option {
	return func(c *Controller) {
		c.offline = offline
	}
}

// WithRecorder attaches a Recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

// NewController creates a Controller.
func NewController(computer Computer, st store.Store, opts ...Option) *Controller {
	c := &Controller{
		computer:  computer,
		store:     st,
		threshold: DefaultThreshold,
		clock:     clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Threshold returns the configured freshness threshold.
func (c *Controller) Threshold() time.Duration {
	return c.threshold
}

// Stored returns the persisted result without recomputing, whatever its age.
func (c *Controller) Stored(ctx context.Context) (factors.Result, error) {
	return c.store.Load(ctx)
}

// Current returns the persisted result if it is fresh, and otherwise
// recomputes, persists and returns a new one. If the recompute fails the
// stale result is returned; ErrUnavailable is returned only when there is
// nothing to fall back to.
func (c *Controller) Current(ctx context.Context) (factors.Result, error) {
	prev, ok := c.load(ctx)
	if ok && c.fresh(prev) {
		c.record("hit")
		return prev, nil
	}

	if c.offline {
		if ok {
			c.record("hit")
			return prev, nil
		}
		return factors.Result{}, fmt.Errorf("%w: offline mode and nothing persisted", ErrUnavailable)
	}

	c.record("miss")
	return c.recompute(ctx, false)
}

// Refresh recomputes regardless of freshness, with the same fallback rules as
// Current. A Refresh that arrives while a recompute is running shares it; one
// that joins a flight which skipped computing starts another.
func (c *Controller) Refresh(ctx context.Context) (factors.Result, error) {
	if c.offline {
		return factors.Result{}, fmt.Errorf("%w: refresh disabled in offline mode", ErrUnavailable)
	}
	return c.recompute(ctx, true)
}

// flightKey is shared by Current and Refresh so at most one recompute runs at a time.
const flightKey = "recompute"

// flightResult is what a flight hands to everyone sharing it. attempted is
// false when the flight found a fresh result and skipped computing.
type flightResult struct {
	res       factors.Result
	attempted bool
}

func (c *Controller) recompute(ctx context.Context, force bool) (factors.Result, error) {
	for {
		if force {
			c.forcePending.Store(true)
		}

		// The flight is detached from the first caller so that one caller going
		// away does not fail the others sharing it.
		ch := c.flight.DoChan(flightKey, func() (interface{}, error) {
			return c.run(context.WithoutCancel(ctx))
		})

		select {
		case r := <-ch:
			if r.Err != nil {
				return factors.Result{}, r.Err
			}
			out := r.Val.(flightResult)
			if force && !out.attempted {
				// Joined a flight that served the stored result; go again.
				continue
			}
			if r.Shared {
				log.Printf("refresh: joined in-flight recompute")
			}
			return out.res.Clone(), nil
		case <-ctx.Done():
			return factors.Result{}, ctx.Err()
		}
	}
}

// run executes inside the single flight.
func (c *Controller) run(ctx context.Context) (flightResult, error) {
	force := c.forcePending.Swap(false)
	prev, ok := c.load(ctx)
	// Another flight may have finished between the caller's check and ours.
	if !force && ok && c.fresh(prev) {
		return flightResult{res: prev}, nil
	}

	runID := uuid.NewString()
	start := c.clock.Now()
	log.Printf("refresh: run %s recomputing park factors (forced=%t)", runID, force)

	res, err := c.compute(ctx)
	c.observe(err, c.clock.Since(start), c.clock.Now())

	if err != nil {
		if ok {
			log.Printf("WARN: refresh: run %s failed, serving result from %s: %v", runID, prev.LastUpdated.Format(time.RFC3339), err)
			c.record("stale_fallback")
			return flightResult{res: prev, attempted: true}, nil
		}
		log.Printf("ERROR: refresh: run %s failed with nothing persisted: %v", runID, err)
		return flightResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := c.store.Save(ctx, res); err != nil {
		log.Printf("ERROR: refresh: run %s could not persist result: %v", runID, err)
	} else {
		log.Printf("refresh: run %s persisted %d park factors in %s", runID, len(res.ParkFactors), c.clock.Since(start).Round(time.Millisecond))
	}
	return flightResult{res: res, attempted: true}, nil
}

func (c *Controller) compute(ctx context.Context) (res factors.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("compute panic: %v", r)
		}
	}()
	if c.computer == nil {
		return factors.Result{}, errors.New("no computer configured")
	}
	return c.computer.Compute(ctx)
}

// load reads the store. Read errors other than ErrNotFound are logged and
// treated as nothing persisted.
func (c *Controller) load(ctx context.Context) (factors.Result, bool) {
	r, err := c.store.Load(ctx)
	if err == nil {
		return r, true
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Printf("WARN: refresh: reading persisted result: %v", err)
	}
	return factors.Result{}, false
}

// fresh reports whether r is within the threshold. A result exactly
// threshold old is still fresh.
func (c *Controller) fresh(r factors.Result) bool {
	if r.LastUpdated.IsZero() {
		return false
	}
	return c.clock.Since(r.LastUpdated) <= c.threshold
}

func (c *Controller) record(result string) {
	if c.recorder != nil {
		c.recorder.CacheLookup(result)
	}
}

func (c *Controller) observe(err error, took time.Duration, at time.Time) {
	if c.recorder != nil {
		c.recorder.PipelineFinished(err, took, at)
	}
}

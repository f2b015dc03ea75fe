package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/time/rate"
)

// DefaultFetchTimeout bounds a single FetchWeather call.
const DefaultFetchTimeout = 5 * time.Second

// FetchRecorder is notified of every fetch outcome.
type FetchRecorder interface {
	WeatherFetched(present bool)
}

// Source wraps a Provider so that fetches never fail: network errors,
// timeouts, panics and malformed readings all collapse to Absent.
type Source struct {
	provider Provider
	timeout  time.Duration
	limiter  *rate.Limiter
	recorder FetchRecorder
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithRateLimit caps outbound requests per second. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) SourceOption {
	return func(s *Source) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRecorder attaches a FetchRecorder, typically *observability.Metrics.
func WithRecorder(r FetchRecorder) SourceOption {
	return func(s *Source) {
		s.recorder = r
	}
}

// NewSource creates a Source with the given per-call timeout.
// A non-positive timeout falls back to DefaultFetchTimeout.
func NewSource(p Provider, timeout time.Duration, opts ...SourceOption) *Source {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	s := &Source{
		provider: p,
		timeout:  timeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the underlying provider name.
func (s *Source) Name() string {
	if s.provider == nil {
		return "none"
	}
	return s.provider.Name()
}

type fetchResult struct {
	summary Summary
	err     error
}

// FetchWeather returns the weather at lat/lon or Absent. It returns as soon
// as the deadline expires; the abandoned provider call observes the
// cancelled context and its late result is discarded.
func (s *Source) FetchWeather(ctx context.Context, lat, lon float64) Observation {
	obs := s.fetch(ctx, lat, lon)
	if s.recorder != nil {
		s.recorder.WeatherFetched(!obs.IsAbsent())
	}
	return obs
}

func (s *Source) fetch(ctx context.Context, lat, lon float64) Observation {
	if s.provider == nil {
		return Absent()
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// Buffered so a late send never blocks the detached goroutine.
	done := make(chan fetchResult, 1)
	go func() {
		done <- s.call(ctx, lat, lon)
	}()

	select {
	case r := <-done:
		if r.err != nil {
			log.Printf("source: %s fetch failed for %.4f,%.4f: %v", s.provider.Name(), lat, lon, r.err)
			return Absent()
		}
		if !r.summary.Valid() {
			log.Printf("source: %s returned non-finite reading for %.4f,%.4f", s.provider.Name(), lat, lon)
			return Absent()
		}
		return Present(r.summary)
	case <-ctx.Done():
		log.Printf("source: %s fetch abandoned for %.4f,%.4f: %v", s.provider.Name(), lat, lon, ctx.Err())
		return Absent()
	}
}

func (s *Source) call(ctx context.Context, lat, lon float64) (res fetchResult) {
	defer func() {
		if r := recover(); r != nil {
			res = fetchResult{err: fmt.Errorf("provider panic: %v", r)}
		}
	}()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return fetchResult{err: fmt.Errorf("rate limit wait canceled: %w", err)}
		}
	}

	sum, err := s.provider.Fetch(ctx, lat, lon)
	if err == nil && ctx.Err() != nil {
		err = errors.Join(errors.New("result arrived after deadline"), ctx.Err())
	}
	return fetchResult{summary: sum, err: err}
}

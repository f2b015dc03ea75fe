package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/park-factors/internal/factors"
)

// jobTimeout bounds a single scheduled refresh.
const jobTimeout = 2 * time.Minute

// Refresher recomputes and persists park factors. *refresh.Controller implements it.
type Refresher interface {
	Refresh(ctx context.Context) (factors.Result, error)
}

// Pruner drops persisted runs older than maxAge. *store.PostgresStore implements it.
type Pruner interface {
	Prune(ctx context.Context, maxAge time.Duration) (int64, error)
}

// Scheduler periodically refreshes park factors in the background.
type Scheduler struct {
	scheduler *gocron.Scheduler
	refresher Refresher
	interval  time.Duration
	pruner    Pruner
	retention time.Duration
}

// New creates a new Scheduler. A non-positive interval disables it.
func New(interval time.Duration, refresher Refresher) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		refresher: refresher,
		interval:  interval,
	}
}

// WithPruning makes every run also prune history older than retention.
func (s *Scheduler) WithPruning(p Pruner, retention time.Duration) *Scheduler {
	s.pruner = p
	s.retention = retention
	return s
}

// Start schedules the periodic job, runs it once immediately and starts the
// underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		log.Println("scheduler: refresh interval not set; background refresh disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	log.Printf("scheduler: refreshing park factors every %s", s.interval)
	return nil
}

// RunOnce performs one refresh and, if configured, one prune.
func (s *Scheduler) RunOnce(ctx context.Context) {
	log.Println("scheduler: running park factor refresh job")

	res, err := s.refresher.Refresh(ctx)
	if err != nil {
		log.Printf("scheduler: refresh failed: %v", err)
	} else {
		log.Printf("scheduler: completed refresh job (%d parks, last updated %s)", len(res.ParkFactors), res.LastUpdated.Format(time.RFC3339))
	}

	if s.pruner == nil || s.retention <= 0 {
		return
	}
	n, err := s.pruner.Prune(ctx, s.retention)
	if err != nil {
		log.Printf("scheduler: prune failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("scheduler: pruned %d runs older than %s", n, s.retention)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/i474232898/park-factors/internal/factors"
)

// ErrNotFound is returned when no result has ever been persisted.
var ErrNotFound = errors.New("no park factor data persisted")

// Store persists the single current pipeline result. Save replaces the
// previous result atomically: concurrent Loads see either the old or the new
// result, never a partial one.
type Store interface {
	Load(ctx context.Context) (factors.Result, error)
	Save(ctx context.Context, r factors.Result) error
}

// Options selects and configures a backend.
type Options struct {
	Backend     string
	Path        string
	RedisURL    string
	RedisKey    string
	DatabaseURL string
}

// Open builds the configured backend. The returned close function releases
// any connections and is never nil.
func Open(ctx context.Context, opts Options) (Store, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(opts.Backend) {
	case "", "file":
		return NewFileStore(opts.Path), noop, nil
	case "memory":
		return NewMemoryStore(), noop, nil
	case "redis":
		s, err := NewRedisStore(ctx, opts.RedisURL, opts.RedisKey)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case "postgres":
		s, err := NewPostgresStore(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		return s, func() error { s.Close(); return nil }, nil
	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

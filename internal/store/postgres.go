package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/i474232898/park-factors/internal/factors"
)

const schema = `
CREATE TABLE IF NOT EXISTS park_factor_runs (
	id          BIGSERIAL PRIMARY KEY,
	computed_at TIMESTAMPTZ NOT NULL,
	payload     JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS park_factor_runs_computed_at_idx ON park_factor_runs (computed_at DESC);
`

// PostgresStore appends every run to park_factor_runs and serves the newest.
// Each Save is a single INSERT, so readers see whole runs only.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn and creates the table if needed.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres store requires DATABASE_URL")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Save(ctx context.Context, r factors.Result) error {
	data, err := factors.Marshal(r)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO park_factor_runs (computed_at, payload) VALUES ($1, $2)`,
		r.LastUpdated, data,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (factors.Result, error) {
	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT payload FROM park_factor_runs ORDER BY computed_at DESC, id DESC LIMIT 1`,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return factors.Result{}, ErrNotFound
	}
	if err != nil {
		return factors.Result{}, fmt.Errorf("select latest run: %w", err)
	}
	return factors.Unmarshal(data)
}

// Prune deletes runs older than maxAge and returns how many were removed.
func (s *PostgresStore) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM park_factor_runs
		 WHERE computed_at < $1
		   AND id <> (SELECT id FROM park_factor_runs ORDER BY computed_at DESC, id DESC LIMIT 1)`,
		time.Now().Add(-maxAge),
	)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

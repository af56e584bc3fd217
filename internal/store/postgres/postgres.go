// Package postgres stores catalog documents as JSONB rows.
//
// Every collection shares one documents table keyed by (collection,
// natural_key). An upsert merges the new fields over the stored document
// with the jsonb || operator, so fields absent from the import survive.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JonMunkholm/catalogimport/internal/core"
	"github.com/JonMunkholm/catalogimport/internal/store"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection  text        NOT NULL,
	natural_key text        NOT NULL,
	doc         jsonb       NOT NULL,
	created_at  timestamptz NOT NULL DEFAULT now(),
	updated_at  timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, natural_key)
);

CREATE TABLE IF NOT EXISTS import_runs (
	id              text        PRIMARY KEY,
	endpoint        text        NOT NULL,
	file_name       text        NOT NULL,
	total_rows      integer     NOT NULL,
	processed_count integer     NOT NULL,
	error_count     integer     NOT NULL,
	duration_ms     bigint      NOT NULL,
	started_at      timestamptz NOT NULL
);

CREATE INDEX IF NOT EXISTS import_runs_endpoint_started_idx
	ON import_runs (endpoint, started_at DESC);
`

const upsertQuery = `
INSERT INTO documents (collection, natural_key, doc)
VALUES ($1, $2, $3)
ON CONFLICT (collection, natural_key)
DO UPDATE SET doc = documents.doc || EXCLUDED.doc, updated_at = now()
RETURNING (xmax = 0)`

// Store is a core.Store backed by a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps an open pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens a pool from url, applies the pool limits and verifies the
// connection.
func Connect(ctx context.Context, url string, maxConns, minConns int32, maxConnLifetime time.Duration) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	poolConfig.MaxConns = maxConns
	poolConfig.MinConns = minConns
	poolConfig.MaxConnLifetime = maxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Upsert merges doc into the document stored under key.
func (s *Store) Upsert(ctx context.Context, collection string, key core.Record, doc core.Record) (core.UpsertResult, error) {
	naturalKey, err := store.KeyString(key)
	if err != nil {
		return core.UpsertResult{}, err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return core.UpsertResult{}, fmt.Errorf("encode document: %w", err)
	}

	var inserted bool
	if err := s.pool.QueryRow(ctx, upsertQuery, collection, naturalKey, body).Scan(&inserted); err != nil {
		return core.UpsertResult{}, err
	}
	return core.UpsertResult{Inserted: inserted}, nil
}

// Ping checks the pool can reach the database.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// RecordRun inserts an import history entry.
func (s *Store) RecordRun(ctx context.Context, run core.ImportRun) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO import_runs
			(id, endpoint, file_name, total_rows, processed_count, error_count, duration_ms, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, run.Endpoint, run.FileName, run.TotalRows,
		run.ProcessedCount, run.ErrorCount, run.DurationMs, run.StartedAt,
	)
	return err
}

// ListRuns returns the newest runs for endpoint first.
func (s *Store) ListRuns(ctx context.Context, endpoint string, limit int) ([]core.ImportRun, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, endpoint, file_name, total_rows, processed_count, error_count, duration_ms, started_at
		FROM import_runs
		WHERE endpoint = $1
		ORDER BY started_at DESC
		LIMIT $2`,
		endpoint, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs, err := pgx.CollectRows(rows, scanRun)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []core.ImportRun{}
	}
	return runs, nil
}

func scanRun(row pgx.CollectableRow) (core.ImportRun, error) {
	var run core.ImportRun
	err := row.Scan(
		&run.ID, &run.Endpoint, &run.FileName, &run.TotalRows,
		&run.ProcessedCount, &run.ErrorCount, &run.DurationMs, &run.StartedAt,
	)
	return run, err
}

var (
	_ core.Store       = (*Store)(nil)
	_ core.RunRecorder = (*Store)(nil)
)

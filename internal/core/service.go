package core

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/JonMunkholm/catalogimport/internal/logging"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// DefaultImportTimeout bounds a single import when Options.Timeout is unset.
const DefaultImportTimeout = 10 * time.Minute

// Options configures a Service.
type Options struct {
	// Workers is the number of rows written concurrently. Rows that share a
	// natural key are always written in file order. Values <= 1 process
	// rows strictly in order.
	Workers int

	// Timeout bounds one import call, including every row write.
	Timeout time.Duration

	// MaxConcurrent and MaxWait configure the ImportLimiter.
	MaxConcurrent int
	MaxWait       time.Duration
}

// Service runs imports against a Store.
type Service struct {
	store    Store
	registry *Registry
	limiter  *ImportLimiter
	opts     Options
}

// NewService creates a Service for the endpoints in registry.
func NewService(store Store, registry *Registry, opts Options) *Service {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultImportTimeout
	}
	return &Service{
		store:    store,
		registry: registry,
		limiter:  NewImportLimiter(opts.MaxConcurrent, opts.MaxWait),
		opts:     opts,
	}
}

// Endpoints returns every registered endpoint sorted by key.
func (s *Service) Endpoints() []Endpoint {
	return s.registry.All()
}

// Endpoint returns one endpoint by key.
func (s *Service) Endpoint(key string) (Endpoint, bool) {
	return s.registry.Get(key)
}

// Ping checks the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// LimiterStatus returns a snapshot of the import limiter.
func (s *Service) LimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until in-flight imports finish or ctx is done.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Import decodes data and upserts every row into the endpoint's collection.
//
// Request-level failures (unknown endpoint, unsupported format, unparseable
// file, limiter timeout) are returned as errors and no row is touched. Every
// row-level failure is recorded in the result instead. When ctx is cancelled
// or the import times out, rows already written stay written and the result
// carries an error at the first row that was not started.
func (s *Service) Import(ctx context.Context, endpointKey, fileName string, data []byte) (*ImportResult, error) {
	ep, ok := s.registry.Get(endpointKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, endpointKey)
	}

	rows, err := Decode(data, fileName)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	runID := uuid.New().String()
	started := time.Now()
	logger := logging.ForImport(ctx, runID, ep.Key, fileName)
	logger.Info("import started", "rows", len(rows), "workers", s.workers())

	agg := NewAggregator(len(rows))
	if s.workers() <= 1 {
		s.runSequential(ctx, ep, rows, agg)
	} else {
		s.runPool(ctx, ep, rows, agg)
	}

	result := agg.Result()
	result.RunID = runID
	duration := time.Since(started)

	logger.Info("import finished",
		"total_rows", result.TotalRows,
		"processed", result.ProcessedCount,
		"inserted", agg.Inserted(),
		"errors", len(result.Errors),
		"duration_ms", duration.Milliseconds(),
	)

	s.recordRun(ctx, ImportRun{
		ID:             runID,
		Endpoint:       ep.Key,
		FileName:       fileName,
		TotalRows:      result.TotalRows,
		ProcessedCount: result.ProcessedCount,
		ErrorCount:     len(result.Errors),
		DurationMs:     duration.Milliseconds(),
		StartedAt:      started.UTC(),
	})

	return result, nil
}

// History returns the most recent import runs for an endpoint.
// Stores without history support return an empty list.
func (s *Service) History(ctx context.Context, endpointKey string, limit int) ([]ImportRun, error) {
	if _, ok := s.registry.Get(endpointKey); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEndpoint, endpointKey)
	}
	rec, ok := s.store.(RunRecorder)
	if !ok {
		return []ImportRun{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	return rec.ListRuns(ctx, endpointKey, limit)
}

func (s *Service) workers() int {
	return s.opts.Workers
}

func (s *Service) runSequential(ctx context.Context, ep Endpoint, rows []RawRow, agg *Aggregator) {
	builder := NewRowBuilder(ep)
	for i, row := range rows {
		if ctx.Err() != nil {
			agg.AddError(importStopped(row.Line, context.Cause(ctx)))
			return
		}
		agg.addResult(s.persistRow(ctx, ep, i, row, builder.Build(row)))
	}
}

// runPool spreads rows over one lane per worker. Rows sharing a natural key
// land in the same lane and are written in file order, so the last of them
// decides the stored document as it would sequentially. Lanes send results
// to a single collector, which orders them by row index before they reach
// the aggregator.
//
// A lane that sees ctx done stops and reports the row it did not start; the
// earliest such row carries the import-stopped error.
func (s *Service) runPool(ctx context.Context, ep Endpoint, rows []RawRow, agg *Aggregator) {
	builder := NewRowBuilder(ep)
	n := s.workers()
	outcomes := make([]RowOutcome, len(rows))
	lanes := make([][]int, n)
	for i, row := range rows {
		outcomes[i] = builder.Build(row)
		lane := i % n
		if outcomes[i].Persistable() {
			lane = laneFor(naturalKey(ep, outcomes[i].Record), i, n)
		}
		lanes[lane] = append(lanes[lane], i)
	}

	results := make(chan rowResult)
	collected := make([]rowResult, 0, len(rows))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range results {
			collected = append(collected, r)
		}
	}()

	var g errgroup.Group
	for _, lane := range lanes {
		if len(lane) == 0 {
			continue
		}
		g.Go(func() error {
			for _, i := range lane {
				if ctx.Err() != nil {
					results <- rowResult{index: i, notStarted: true}
					return nil
				}
				results <- s.persistRow(ctx, ep, i, rows[i], outcomes[i])
			}
			return nil
		})
	}
	_ = g.Wait()
	close(results)
	<-done

	sortResults(collected)
	stoppedAt := -1
	for _, r := range collected {
		if r.notStarted {
			if stoppedAt < 0 {
				stoppedAt = r.index
			}
			continue
		}
		agg.addResult(r)
	}
	if stoppedAt >= 0 {
		agg.AddError(importStopped(rows[stoppedAt].Line, context.Cause(ctx)))
	}
}

// persistRow writes one built row. It never returns an error; every failure
// is carried in the result.
func (s *Service) persistRow(ctx context.Context, ep Endpoint, index int, row RawRow, outcome RowOutcome) rowResult {
	if !outcome.Persistable() {
		return rowResult{index: index, status: RowSkipped, errors: outcome.Errors}
	}

	res, err := s.store.Upsert(ctx, ep.Collection, naturalKey(ep, outcome.Record), outcome.Record)
	if err != nil {
		return rowResult{
			index:  index,
			status: RowPersistFailed,
			errors: append(outcome.Errors, persistenceFailed(row.Line, err)),
		}
	}
	return rowResult{
		index:    index,
		status:   RowSucceeded,
		inserted: res.Inserted,
		errors:   outcome.Errors,
	}
}

func naturalKey(ep Endpoint, record Record) Record {
	key := make(Record, len(ep.NaturalKey))
	for _, k := range ep.NaturalKey {
		key[k] = record[k]
	}
	return key
}

// laneFor hashes the JSON form of key, the same form the stores match on.
// A key that cannot be encoded will fail in the store anyway and keeps the
// row's own lane.
func laneFor(key Record, index, lanes int) int {
	b, err := json.Marshal(key)
	if err != nil {
		return index % lanes
	}
	h := fnv.New32a()
	h.Write(b)
	return int(h.Sum32() % uint32(lanes))
}

// recordRun stores the history entry. It runs even when the import context
// has expired, and failures are only logged.
func (s *Service) recordRun(ctx context.Context, run ImportRun) {
	rec, ok := s.store.(RunRecorder)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := rec.RecordRun(ctx, run); err != nil {
		logging.FromContext(ctx).Warn("record import run failed", logging.KeyRunID, run.ID, "error", err)
	}
}

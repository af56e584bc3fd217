// Package memory is an in-process Store used by tests and the CLI dry runs.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/JonMunkholm/catalogimport/internal/core"
	"github.com/JonMunkholm/catalogimport/internal/store"
)

// Store keeps documents in maps guarded by a mutex.
type Store struct {
	mu   sync.RWMutex
	docs map[string]map[string]core.Record // collection -> key -> document
	runs []core.ImportRun

	// FailOn, when set, is consulted before every write. A non-nil error is
	// returned from Upsert unchanged.
	FailOn func(collection string, key core.Record) error
}

// New creates an empty store.
func New() *Store {
	return &Store{docs: make(map[string]map[string]core.Record)}
}

// Upsert merges doc into the document identified by key.
func (s *Store) Upsert(ctx context.Context, collection string, key core.Record, doc core.Record) (core.UpsertResult, error) {
	if err := ctx.Err(); err != nil {
		return core.UpsertResult{}, err
	}
	if s.FailOn != nil {
		if err := s.FailOn(collection, key); err != nil {
			return core.UpsertResult{}, err
		}
	}
	k, err := store.KeyString(key)
	if err != nil {
		return core.UpsertResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.docs[collection]
	if !ok {
		coll = make(map[string]core.Record)
		s.docs[collection] = coll
	}
	existing, found := coll[k]
	if !found {
		coll[k] = maps.Clone(doc)
		return core.UpsertResult{Inserted: true}, nil
	}
	maps.Copy(existing, doc)
	return core.UpsertResult{}, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

// Get returns a copy of one document.
func (s *Store) Get(collection string, key core.Record) (core.Record, bool) {
	k, err := store.KeyString(key)
	if err != nil {
		return nil, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[collection][k]
	if !ok {
		return nil, false
	}
	return maps.Clone(doc), true
}

// Put stores doc as-is, replacing any previous document. Tests use it to
// seed fields an import must leave untouched.
func (s *Store) Put(collection string, key core.Record, doc core.Record) {
	k, err := store.KeyString(key)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs[collection] == nil {
		s.docs[collection] = make(map[string]core.Record)
	}
	s.docs[collection][k] = maps.Clone(doc)
}

// Count returns the number of documents in collection.
func (s *Store) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs[collection])
}

// RecordRun appends an import history entry.
func (s *Store) RecordRun(_ context.Context, run core.ImportRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

// ListRuns returns the newest runs for endpoint first.
func (s *Store) ListRuns(_ context.Context, endpoint string, limit int) ([]core.ImportRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []core.ImportRun{}
	for _, run := range slices.Backward(s.runs) {
		if run.Endpoint != endpoint {
			continue
		}
		out = append(out, run)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

var (
	_ core.Store       = (*Store)(nil)
	_ core.RunRecorder = (*Store)(nil)
)

package core

import (
	"fmt"
	"sort"
)

// Registry holds the import endpoints a service accepts.
// It is built once at start-up and never modified afterwards.
type Registry struct {
	endpoints map[string]Endpoint
}

// NewRegistry validates and indexes endpoints by key.
// Duplicate keys and inconsistent endpoint definitions are rejected.
func NewRegistry(endpoints ...Endpoint) (*Registry, error) {
	r := &Registry{endpoints: make(map[string]Endpoint, len(endpoints))}
	for _, ep := range endpoints {
		if err := ep.Validate(); err != nil {
			return nil, err
		}
		if _, exists := r.endpoints[ep.Key]; exists {
			return nil, fmt.Errorf("endpoint already registered: %s", ep.Key)
		}
		r.endpoints[ep.Key] = ep
	}
	return r, nil
}

// MustRegistry is NewRegistry that panics on error.
// Use this only for static endpoint tables.
func MustRegistry(endpoints ...Endpoint) *Registry {
	r, err := NewRegistry(endpoints...)
	if err != nil {
		panic(err)
	}
	return r
}

// Get returns an endpoint by key.
func (r *Registry) Get(key string) (Endpoint, bool) {
	ep, ok := r.endpoints[key]
	return ep, ok
}

// All returns every endpoint sorted by key.
func (r *Registry) All() []Endpoint {
	result := make([]Endpoint, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		result = append(result, ep)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result
}

// Len returns the number of endpoints.
func (r *Registry) Len() int {
	return len(r.endpoints)
}

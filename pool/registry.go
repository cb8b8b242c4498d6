// File: pool/registry.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Named-region usage registry. Regions from many execution contexts report
// usage under a diagnostic name ("iobuf", "iobuf_cache", connection tags);
// shards keyed by xxhash keep cross-context contention negligible.

package pool

import (
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

const (
	// Power of two so the shard pick is a bit mask, not a modulo.
	registryShardCount = 64
	registryShardMask  = registryShardCount - 1
)

type regionEntry struct {
	used atomic.Int64
}

type registryShard struct {
	mu      sync.RWMutex
	entries map[string]*regionEntry
}

// Registry aggregates region usage by name across execution contexts.
type Registry struct {
	shards [registryShardCount]*registryShard
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i] = &registryShard{entries: make(map[string]*regionEntry)}
	}
	return r
}

func (r *Registry) shard(name string) *registryShard {
	return r.shards[xxhash.Sum64String(name)&registryShardMask]
}

// entry returns the accounting slot for name, creating it on first use.
func (r *Registry) entry(name string) *regionEntry {
	s := r.shard(name)
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()
	if ok {
		return e
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[name]; ok {
		return e
	}
	e = &regionEntry{}
	s.entries[name] = e
	return e
}

// Used reports current bytes accounted under name.
func (r *Registry) Used(name string) int64 {
	s := r.shard(name)
	s.mu.RLock()
	e, ok := s.entries[name]
	s.mu.RUnlock()
	if !ok {
		return 0
	}
	return e.used.Load()
}

// Snapshot returns usage for every known name.
func (r *Registry) Snapshot() map[string]int64 {
	out := make(map[string]int64)
	for _, s := range r.shards {
		s.mu.RLock()
		for name, e := range s.entries {
			out[name] = e.used.Load()
		}
		s.mu.RUnlock()
	}
	return out
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
)

// DefaultRegistry returns the process-wide registry so all contexts report
// into one place instead of fragmenting diagnostics.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

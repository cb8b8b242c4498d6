// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Runtime metrics collector for system-level monitoring.
// Buffering contexts publish their cache and arena snapshots here under a
// context key; exporters (see metrics/) read the merged view on scrape.

package control

import (
	"sync"
	"time"

	"github.com/momentics/hioload-iobuf/api"
)

// MetricsRegistry holds mutable and read-only metrics.
type MetricsRegistry struct {
	mu      sync.RWMutex
	metrics map[string]any
	updated time.Time
}

// NewMetricsRegistry creates an empty registry.
func NewMetricsRegistry() *MetricsRegistry {
	return &MetricsRegistry{
		metrics: make(map[string]any),
	}
}

// Set sets or updates a metric key.
func (mr *MetricsRegistry) Set(key string, value any) {
	mr.mu.Lock()
	mr.metrics[key] = value
	mr.updated = time.Now()
	mr.mu.Unlock()
}

// PublishArena records an arena snapshot under "arena.<ctx>".
func (mr *MetricsRegistry) PublishArena(ctx string, stats api.ArenaStats) {
	mr.Set("arena."+ctx, stats)
}

// PublishCache records a buffer-pair cache snapshot under "iobuf.<ctx>".
func (mr *MetricsRegistry) PublishCache(ctx string, stats api.CacheStats) {
	mr.Set("iobuf."+ctx, stats)
}

// GetSnapshot returns the latest metrics.
func (mr *MetricsRegistry) GetSnapshot() map[string]any {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	out := make(map[string]any, len(mr.metrics))
	for k, v := range mr.metrics {
		out[k] = v
	}
	return out
}

// UpdatedAt reports when any metric last changed.
func (mr *MetricsRegistry) UpdatedAt() time.Time {
	mr.mu.RLock()
	defer mr.mu.RUnlock()
	return mr.updated
}

// File: api/stats.go
// Author: momentics <momentics@gmail.com>
//
// Snapshot types consumed by control probes and the metrics collector.

package api

// CacheStats aggregates buffer-pair cache counters for one execution context.
type CacheStats struct {
	Acquired     int64 // total New calls
	Released     int64 // total Put calls
	FreeListHits int64 // New calls served from the free list
	FreePairs    int64 // pairs currently parked in the free list
	Shrinks      int64 // release-time shrinks of oversized buffers
}

// File: api/arena.go
// Author: momentics <momentics@gmail.com>
//
// Bulk-memory arena contract. An Arena hands out variably sized blocks,
// amortizing per-allocation overhead; callers return blocks when done.
// Arenas are single-owner: one execution context per instance, no locking.

package api

// Block is one contiguous memory region leased from an Arena.
type Block interface {
	// Bytes returns the full backing slice, len == Capacity.
	Bytes() []byte

	// Capacity returns the usable size of the block. It may exceed the
	// size requested from AcquireBlock (size-class rounding).
	Capacity() int
}

// Arena supplies memory blocks for buffers and regions.
type Arena interface {
	// AcquireBlock returns a block of at least minSize bytes, or an
	// OutOfMemoryError if the arena cannot supply one.
	AcquireBlock(minSize int) (Block, error)

	// ReleaseBlock returns a block to the arena. The block must not be
	// used afterwards.
	ReleaseBlock(Block)

	// Stats exposes allocation counters for observability.
	Stats() ArenaStats
}

// ArenaStats aggregates arena allocation/reuse counters.
type ArenaStats struct {
	TotalAcquired int64
	TotalReleased int64
	InUse         int64
	BytesInUse    int64
	CacheHits     int64
	CacheMisses   int64
}

// File: pool/slab_cache.go
// Package pool implements size-classed slab allocation behind the api.Arena
// contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"sync/atomic"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-iobuf/api"
)

// Predefined (power-of-two) slab size classes (bytes).
// This table can be tuned for deployment needs.
var sizeClasses = [...]int{
	1 * 1024,        // 1K
	2 * 1024,        // 2K
	4 * 1024,        // 4K
	8 * 1024,        // 8K
	16 * 1024,       // 16K
	32 * 1024,       // 32K
	64 * 1024,       // 64K
	128 * 1024,      // 128K
	256 * 1024,      // 256K
	512 * 1024,      // 512K
	1 * 1024 * 1024, // 1M
	2 * 1024 * 1024, // 2M
	4 * 1024 * 1024, // 4M
}

// perClassCacheCap bounds how many free slabs one class retains.
const perClassCacheCap = 64

// sizeClassIndex returns the index of the smallest class >= size,
// or -1 when size exceeds the largest class (huge allocation).
func sizeClassIndex(size int) int {
	for i, c := range sizeClasses {
		if size <= c {
			return i
		}
	}
	return -1
}

// slab is one block leased from a SlabCache.
type slab struct {
	data    []byte
	class   int  // size class index, -1 for huge blocks
	mmapped bool // platform allocator origin, see alloc_linux.go
}

func (s *slab) Bytes() []byte { return s.data }
func (s *slab) Capacity() int { return len(s.data) }

// SlabCache is a size-classed block allocator owned by a single execution
// context. Freed slabs are parked in per-class FIFO queues and handed back
// on the next acquire of the same class; nothing here takes a lock.
//
// Stats counters are atomic so an observer (control probe, metrics scrape)
// may read them from another goroutine.
type SlabCache struct {
	free  [len(sizeClasses)]*queue.Queue
	limit int64 // max bytes in use, 0 = unlimited

	acquired   atomic.Int64
	released   atomic.Int64
	bytesInUse atomic.Int64
	hits       atomic.Int64
	misses     atomic.Int64
}

// SlabCacheOption configures a SlabCache.
type SlabCacheOption func(*SlabCache)

// WithLimit caps the total bytes the cache may have in use. Acquires that
// would cross the cap fail with OutOfMemory.
func WithLimit(limit int64) SlabCacheOption {
	return func(c *SlabCache) { c.limit = limit }
}

// NewSlabCache creates an empty slab cache.
func NewSlabCache(opts ...SlabCacheOption) *SlabCache {
	c := &SlabCache{}
	for i := range c.free {
		c.free[i] = queue.New()
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AcquireBlock returns a block of at least minSize bytes.
func (c *SlabCache) AcquireBlock(minSize int) (api.Block, error) {
	if minSize <= 0 {
		return nil, api.ErrInvalidArgument
	}
	cls := sizeClassIndex(minSize)
	size := minSize
	if cls >= 0 {
		size = sizeClasses[cls]
	}
	if c.limit > 0 && c.bytesInUse.Load()+int64(size) > c.limit {
		return nil, api.NewOutOfMemory(size, "SlabCache.AcquireBlock", "slab cache")
	}
	if cls >= 0 && c.free[cls].Length() > 0 {
		s := c.free[cls].Remove().(*slab)
		c.hits.Add(1)
		c.acquired.Add(1)
		c.bytesInUse.Add(int64(s.Capacity()))
		return s, nil
	}
	s := platformAlloc(size)
	s.class = cls
	c.misses.Add(1)
	c.acquired.Add(1)
	c.bytesInUse.Add(int64(s.Capacity()))
	return s, nil
}

// ReleaseBlock returns a block to the cache. Huge blocks and overflow beyond
// the per-class retention cap go back to the platform allocator.
func (c *SlabCache) ReleaseBlock(b api.Block) {
	s, ok := b.(*slab)
	if !ok {
		panic("pool: foreign block released to SlabCache")
	}
	c.released.Add(1)
	c.bytesInUse.Add(-int64(s.Capacity()))
	if s.class >= 0 && c.free[s.class].Length() < perClassCacheCap {
		c.free[s.class].Add(s)
		return
	}
	platformRelease(s)
}

// Stats returns a snapshot of the allocation counters.
func (c *SlabCache) Stats() api.ArenaStats {
	acq := c.acquired.Load()
	rel := c.released.Load()
	return api.ArenaStats{
		TotalAcquired: acq,
		TotalReleased: rel,
		InUse:         acq - rel,
		BytesInUse:    c.bytesInUse.Load(),
		CacheHits:     c.hits.Load(),
		CacheMisses:   c.misses.Load(),
	}
}

var _ api.Arena = (*SlabCache)(nil)

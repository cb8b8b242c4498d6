// File: iobuf/iobuf.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Buffer pair and per-context cache. Every connection checks out one Iobuf
// (input buffer + output buffer + the region backing the output segments);
// idle pairs go back to the context's cache instead of the allocator, with
// oversized ones shrunk first so idle connections cannot pin large memory.

package iobuf

import (
	"sync/atomic"

	"github.com/momentics/hioload-iobuf/api"
	"github.com/momentics/hioload-iobuf/pool"
)

// cacheRegionName tags regions of pairs parked in the cache.
const cacheRegionName = "iobuf_cache"

// Iobuf couples one input and one output buffer for a connection.
type Iobuf struct {
	// In receives raw network input; the protocol decoder consumes it.
	In Ibuf
	// Out accumulates response bytes for a scatter/gather writer.
	Out Obuf

	// Region backing Out's segments, freed in bulk on shrink.
	pool *pool.Region

	// A pinned pair is not destroyed or cached even when it looks idle.
	// The last holder to unpin an idle pair is responsible for releasing it.
	pins int

	name string
}

// Pin marks the pair as referenced by an additional logical holder, for
// example an outstanding writev that still points into Out.
func (io *Iobuf) Pin() { io.pins++ }

// Unpin drops one pin.
func (io *Iobuf) Unpin() {
	if io.pins == 0 {
		panic("iobuf: Unpin without matching Pin")
	}
	io.pins--
}

// Pins reports the current pin count.
func (io *Iobuf) Pins() int { return io.pins }

// IsIdle reports whether there is no unparsed input, no pending output and
// no pins, i.e. the pair is safe to release.
func (io *Iobuf) IsIdle() bool {
	return io.In.Size() == 0 && io.Out.Size() == 0 && io.pins == 0
}

// Reset prepares the pair for the next request/response cycle without
// returning it to the cache: the input cursor collapses if everything was
// parsed, and the output empties. Cheap to call even when already done.
func (io *Iobuf) Reset() {
	if io.In.Size() == 0 {
		io.In.Reset()
	}
	io.Out.Reset()
}

// Name returns the diagnostic tag assigned at checkout.
func (io *Iobuf) Name() string { return io.name }

// Tracer receives cache lifecycle events. Implementations must be cheap;
// events fire on checkout/release paths.
type Tracer interface {
	Event(event, name string, bytes int)
}

// Cache is a per-execution-context pool of buffer pairs. It owns a fixed
// object pool for pair allocation and a LIFO free list for reuse. Not safe
// for concurrent use: one Cache per worker context, created at context
// startup and destroyed at teardown.
type Cache struct {
	arena   api.Arena
	reg     *pool.Registry
	mempool *pool.Mempool[Iobuf]
	free    []*Iobuf
	tracer  Tracer

	// Hard cap on live pairs, 0 = unlimited. Set before mempool creation.
	maxPairs int

	// Atomic so probes and metrics may scrape from outside the context.
	acquired atomic.Int64
	released atomic.Int64
	hits     atomic.Int64
	shrinks  atomic.Int64
}

// CacheOption customizes Cache initialization.
type CacheOption func(*Cache)

// WithRegistry routes region diagnostics into reg instead of the default
// process-wide registry.
func WithRegistry(reg *pool.Registry) CacheOption {
	return func(c *Cache) { c.reg = reg }
}

// WithTracer attaches a lifecycle event tracer.
func WithTracer(t Tracer) CacheOption {
	return func(c *Cache) { c.tracer = t }
}

// WithMaxPairs caps how many pairs may be live at once; New fails with
// OutOfMemory beyond the cap. Zero means unlimited.
func WithMaxPairs(n int) CacheOption {
	return func(c *Cache) { c.maxPairs = n }
}

// NewCache creates the buffer-pair pool for one execution context.
func NewCache(arena api.Arena, opts ...CacheOption) *Cache {
	c := &Cache{
		arena: arena,
		reg:   pool.DefaultRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.mempool = pool.NewMempool(func() *Iobuf {
		io := &Iobuf{}
		io.pool = pool.NewRegion(arena, pool.WithRegistry(c.reg))
		io.In.Init(arena)
		io.Out.Init(io.pool, Readahead())
		return io
	}, pairFootprint, c.maxPairs)
	return c
}

// pairFootprint is the advisory object size reported when the pair pool is
// exhausted.
const pairFootprint = 256

// New checks out a pair, reusing a cached one when available. name tags the
// pair and its region for diagnostics.
func (c *Cache) New(name string) (*Iobuf, error) {
	var io *Iobuf
	if n := len(c.free); n > 0 {
		io = c.free[n-1]
		c.free[n-1] = nil
		c.free = c.free[:n-1]
		c.hits.Add(1)
		// Put shrinks before caching, but the threshold tracks the
		// readahead tunable: a pair cached before the tunable was
		// lowered may exceed the current threshold. Shrink it here
		// rather than handing out an oversized pair.
		if c.shrinkOversized(io) && c.tracer != nil {
			c.tracer.Event("shrink", io.name, io.In.Capacity()+io.pool.Used())
		}
	} else {
		var err error
		io, err = c.mempool.AcquireObject()
		if err != nil {
			return nil, err
		}
	}
	io.name = name
	io.pool.SetName(name)
	c.acquired.Add(1)
	if c.tracer != nil {
		c.tracer.Event("acquire", name, io.In.Capacity()+io.pool.Used())
	}
	return io, nil
}

// shrinkOversized tears down either side of the pair that grew past the
// current footprint threshold, leaving sides within the threshold alone.
// Reports whether anything was torn down.
func (c *Cache) shrinkOversized(io *Iobuf) bool {
	threshold := maxCacheFootprint()
	shrunk := false
	if io.In.Capacity() >= threshold {
		io.In.Destroy()
		io.In.Init(c.arena)
		c.shrinks.Add(1)
		shrunk = true
	}
	if io.pool.Used() >= threshold {
		io.Out.Destroy()
		io.Out.Init(io.pool, Readahead())
		c.shrinks.Add(1)
		shrunk = true
	}
	return shrunk
}

// Put returns an idle pair to the cache. Pins must be zero. Either side
// that grew past the shrink threshold is torn down and recreated empty;
// a side within the threshold is just reset for cheap reuse.
func (c *Cache) Put(io *Iobuf) {
	if io.pins != 0 {
		panic("iobuf: Put of a pinned pair")
	}
	io.In.Reset()
	io.Out.Reset()
	shrunk := c.shrinkOversized(io)
	if shrunk && c.tracer != nil {
		c.tracer.Event("shrink", io.name, io.In.Capacity()+io.pool.Used())
	}
	io.pool.SetName(cacheRegionName)
	c.free = append(c.free, io)
	c.released.Add(1)
	if c.tracer != nil {
		c.tracer.Event("release", io.name, io.In.Capacity()+io.pool.Used())
	}
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() api.CacheStats {
	return api.CacheStats{
		Acquired:     c.acquired.Load(),
		Released:     c.released.Load(),
		FreeListHits: c.hits.Load(),
		FreePairs:    int64(len(c.free)),
		Shrinks:      c.shrinks.Load(),
	}
}

// Destroy releases every cached pair and its memory. Call at context
// teardown, after all pairs are back in the cache.
func (c *Cache) Destroy() {
	for _, io := range c.free {
		io.In.Destroy()
		io.pool.Free()
		c.mempool.ReleaseObject(io)
	}
	c.free = nil
}

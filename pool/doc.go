// Package pool
// Author: momentics <momentics@gmail.com>
//
// Memory management layer for hioload-iobuf.
// Implements size-classed slab caching, bulk-freed regions, fixed-size
// object pools, and a named-region usage registry for diagnostics.
// All primitives are single-owner (one execution context each) except the
// registry; cross-platform, with mmap-backed slabs on Linux.
// See slab_cache.go, region.go, mempool.go for implementation details.
package pool

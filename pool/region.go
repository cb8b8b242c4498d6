// File: pool/region.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Region is a sub-arena: a stack of slabs carved out sequentially and
// released all at once. Individual allocations are never freed; the output
// buffer relies on this to keep segment pointers stable for scatter/gather
// writes and savepoints.

package pool

import (
	"github.com/momentics/hioload-iobuf/api"
)

// Region allocates from slabs acquired on demand and frees them in bulk.
// Single-owner, like its backing SlabCache.
type Region struct {
	arena  api.Arena
	blocks []api.Block
	active []byte // unused tail of the last block
	used   int

	name  string
	reg   *Registry
	entry *regionEntry
}

// RegionOption configures a Region.
type RegionOption func(*Region)

// WithRegistry attaches per-name usage accounting for diagnostics.
func WithRegistry(reg *Registry) RegionOption {
	return func(r *Region) { r.reg = reg }
}

// NewRegion creates an empty region over arena. No memory is acquired
// until the first Alloc.
func NewRegion(arena api.Arena, opts ...RegionOption) *Region {
	r := &Region{arena: arena}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Alloc carves size bytes out of the region. The returned slice is full
// length, zero extra capacity, and stays valid until Free.
func (r *Region) Alloc(size int) ([]byte, error) {
	if size <= 0 {
		return nil, api.ErrInvalidArgument
	}
	if len(r.active) < size {
		block, err := r.arena.AcquireBlock(size)
		if err != nil {
			return nil, err
		}
		r.blocks = append(r.blocks, block)
		r.active = block.Bytes()
	}
	p := r.active[:size:size]
	r.active = r.active[size:]
	r.used += size
	if r.entry != nil {
		r.entry.used.Add(int64(size))
	}
	return p, nil
}

// Used reports total bytes carved out since creation or the last Free.
func (r *Region) Used() int { return r.used }

// Free returns every slab to the arena. Slices handed out by Alloc become
// dead; the region itself is reusable.
func (r *Region) Free() {
	for _, b := range r.blocks {
		r.arena.ReleaseBlock(b)
	}
	r.blocks = r.blocks[:0]
	r.active = nil
	if r.entry != nil {
		r.entry.used.Add(-int64(r.used))
	}
	r.used = 0
}

// SetName tags the region for diagnostics and moves its usage accounting
// under the new name.
func (r *Region) SetName(name string) {
	if r.reg == nil || name == r.name {
		r.name = name
		return
	}
	if r.entry != nil {
		r.entry.used.Add(-int64(r.used))
	}
	r.entry = r.reg.entry(name)
	r.entry.used.Add(int64(r.used))
	r.name = name
}

// Name returns the current diagnostic tag.
func (r *Region) Name() string { return r.name }

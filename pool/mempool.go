// File: pool/mempool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"github.com/momentics/hioload-iobuf/api"
)

// Mempool is a fixed-size object pool for a single execution context.
// Released objects go onto a LIFO free list so the hottest object (and its
// cache lines) is reused first. A hard cap on live objects, when set, turns
// exhaustion into OutOfMemory instead of unbounded growth.
type Mempool[T any] struct {
	creator func() *T
	objSize int // advisory per-object footprint, used for error reporting
	maxLive int // 0 = unlimited
	free    []*T
	live    int
}

// NewMempool creates a pool producing objects with creator.
func NewMempool[T any](creator func() *T, objSize, maxLive int) *Mempool[T] {
	return &Mempool[T]{creator: creator, objSize: objSize, maxLive: maxLive}
}

// AcquireObject returns an instance from the free list, or a new one.
func (p *Mempool[T]) AcquireObject() (*T, error) {
	if n := len(p.free); n > 0 {
		obj := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		p.live++
		return obj, nil
	}
	if p.maxLive > 0 && p.live >= p.maxLive {
		return nil, api.NewOutOfMemory(p.objSize, "Mempool.AcquireObject", "object pool")
	}
	p.live++
	return p.creator(), nil
}

// ReleaseObject parks an instance for reuse.
func (p *Mempool[T]) ReleaseObject(obj *T) {
	if p.live <= 0 {
		panic("pool: ReleaseObject without matching AcquireObject")
	}
	p.live--
	p.free = append(p.free, obj)
}

// Live reports objects currently checked out.
func (p *Mempool[T]) Live() int { return p.live }

// FreeLen reports objects parked in the free list.
func (p *Mempool[T]) FreeLen() int { return len(p.free) }

var _ api.ObjectPool[struct{}] = (*Mempool[struct{}])(nil)

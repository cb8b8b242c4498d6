// Package fake
// Author: momentics <momentics@gmail.com>
//
// Fake arena implementations for testing allocation-failure paths.

package fake

import (
	"github.com/momentics/hioload-iobuf/api"
)

// Block is a heap-backed api.Block.
type Block struct {
	data []byte
}

func (b *Block) Bytes() []byte { return b.data }
func (b *Block) Capacity() int { return len(b.data) }

// Arena is an api.Arena test double. It allocates exactly the requested
// size from the heap and can be armed to fail after a given number of
// acquisitions.
type Arena struct {
	// FailAfter makes AcquireBlock fail once this many calls succeeded.
	// Negative means never fail.
	FailAfter int

	Acquired int
	Released int
}

// NewArena creates a never-failing fake arena.
func NewArena() *Arena {
	return &Arena{FailAfter: -1}
}

// AcquireBlock returns an exact-size heap block, or OutOfMemory when armed.
func (a *Arena) AcquireBlock(minSize int) (api.Block, error) {
	if minSize <= 0 {
		return nil, api.ErrInvalidArgument
	}
	if a.FailAfter >= 0 && a.Acquired >= a.FailAfter {
		return nil, api.NewOutOfMemory(minSize, "fake.Arena.AcquireBlock", "test arena")
	}
	a.Acquired++
	return &Block{data: make([]byte, minSize)}, nil
}

// ReleaseBlock counts the release.
func (a *Arena) ReleaseBlock(api.Block) { a.Released++ }

// Stats reports acquire/release counts.
func (a *Arena) Stats() api.ArenaStats {
	return api.ArenaStats{
		TotalAcquired: int64(a.Acquired),
		TotalReleased: int64(a.Released),
		InUse:         int64(a.Acquired - a.Released),
	}
}

var _ api.Arena = (*Arena)(nil)

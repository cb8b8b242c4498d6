// File: iobuf/ibuf.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Input buffer: one contiguous slab holding raw network input, allocated in
// factors of the readahead hint. A read cursor tracks how far the protocol
// decoder has parsed; the gap between cursor and end is the unparsed tail.
//
// Typical use:
//
//	n, _ := conn.Read(in.WritableBytes())
//	in.Fill(n)
//	if in.Size() >= requestLen {
//		process(in.Bytes()[:requestLen])
//		in.Consume(requestLen)
//	}

package iobuf

import (
	"github.com/momentics/hioload-iobuf/api"
)

// Ibuf is a growable input buffer. The zero value is unusable; call Init
// (or let a Cache do it). Cursors are integer offsets from the start of the
// allocation, so they stay meaningful across reallocation.
type Ibuf struct {
	arena api.Arena
	block api.Block
	buf   []byte // full-capacity view of block, nil until first Reserve
	pos   int    // start of unparsed input
	end   int    // end of valid input
}

// Init binds the buffer to an arena. No memory is allocated yet; idle
// connections cost nothing.
func (b *Ibuf) Init(arena api.Arena) {
	b.arena = arena
	b.block = nil
	b.buf = nil
	b.pos = 0
	b.end = 0
}

// Size reports how much input is read but not yet parsed.
func (b *Ibuf) Size() int { return b.end - b.pos }

// Unused reports how much room is left past the end of valid input.
func (b *Ibuf) Unused() int { return len(b.buf) - b.end }

// Capacity reports total allocated bytes.
func (b *Ibuf) Capacity() int { return len(b.buf) }

// Pos returns the parse cursor as an offset from the allocation start.
// Reserve may move data to the front, resetting it to zero.
func (b *Ibuf) Pos() int { return b.pos }

// Bytes returns the unparsed input. Valid until the next Reserve or Reset.
func (b *Ibuf) Bytes() []byte { return b.buf[b.pos:b.end] }

// WritableBytes returns the free tail for a network reader to fill.
// Call Reserve first to guarantee its length.
func (b *Ibuf) WritableBytes() []byte { return b.buf[b.end:] }

// Fill commits n bytes written into WritableBytes.
func (b *Ibuf) Fill(n int) {
	if n < 0 || b.end+n > len(b.buf) {
		panic("iobuf: Fill beyond reserved capacity")
	}
	b.end += n
}

// Consume advances the parse cursor past n bytes.
func (b *Ibuf) Consume(n int) {
	if n < 0 || b.pos+n > b.end {
		panic("iobuf: Consume beyond valid input")
	}
	b.pos += n
}

// Reset forgets all cached input without touching capacity.
func (b *Ibuf) Reset() {
	b.pos = 0
	b.end = 0
}

// Reserve ensures at least size bytes of free space past the end of input.
//
// If the current allocation has room once the unparsed tail is moved back
// to the start, the buffer de-fragments in place with no allocation.
// Otherwise capacity doubles (starting from the readahead hint) until the
// unparsed tail plus size fits, and the data moves to a fresh slab.
// On failure the buffer is unchanged.
func (b *Ibuf) Reserve(size int) error {
	if size <= b.Unused() {
		return nil
	}
	used := b.Size()
	if used+size <= len(b.buf) {
		copy(b.buf, b.buf[b.pos:b.end])
	} else {
		newCapacity := max(len(b.buf)*2, Readahead())
		for newCapacity < used+size {
			newCapacity *= 2
		}
		block, err := b.arena.AcquireBlock(newCapacity)
		if err != nil {
			return api.NewOutOfMemory(newCapacity, "Ibuf.Reserve", "slab cache")
		}
		copy(block.Bytes(), b.buf[b.pos:b.end])
		if b.block != nil {
			b.arena.ReleaseBlock(b.block)
		}
		b.block = block
		b.buf = block.Bytes()
	}
	b.pos = 0
	b.end = used
	return nil
}

// Destroy returns the backing slab to the arena, if one was ever allocated.
func (b *Ibuf) Destroy() {
	if b.block != nil {
		b.arena.ReleaseBlock(b.block)
		b.block = nil
		b.buf = nil
	}
	b.pos = 0
	b.end = 0
}

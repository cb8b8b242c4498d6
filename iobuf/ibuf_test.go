// File: iobuf/ibuf_test.go
// Author: momentics <momentics@gmail.com>
//
// Input buffer tests: lazy allocation, defragmentation, growth, and
// failure atomicity.

package iobuf_test

import (
	"bytes"
	"testing"
	"unsafe"

	"github.com/momentics/hioload-iobuf/api"
	"github.com/momentics/hioload-iobuf/fake"
	"github.com/momentics/hioload-iobuf/iobuf"
	"github.com/momentics/hioload-iobuf/pool"
)

// startPtr recovers the allocation start address for pointer-stability
// checks, walking back from whichever view is non-empty.
func startPtr(b *iobuf.Ibuf) unsafe.Pointer {
	if w := b.WritableBytes(); len(w) > 0 {
		return unsafe.Add(unsafe.Pointer(unsafe.SliceData(w)), -(b.Pos() + b.Size()))
	}
	if d := b.Bytes(); len(d) > 0 {
		return unsafe.Add(unsafe.Pointer(unsafe.SliceData(d)), -b.Pos())
	}
	return nil
}

// TestIbufLazyAllocation: a fresh buffer holds no memory; the first Reserve
// allocates at least the readahead default.
func TestIbufLazyAllocation(t *testing.T) {
	slabc := pool.NewSlabCache()
	var b iobuf.Ibuf
	b.Init(slabc)

	if b.Capacity() != 0 {
		t.Fatalf("Capacity = %d before first Reserve, want 0", b.Capacity())
	}
	if err := b.Reserve(100); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if b.Capacity() < iobuf.DefaultReadahead {
		t.Fatalf("Capacity = %d, want >= %d", b.Capacity(), iobuf.DefaultReadahead)
	}
	if b.Unused() < 100 {
		t.Fatalf("Unused = %d after Reserve(100)", b.Unused())
	}
	b.Destroy()
}

// TestIbufResetThenReserveKeepsBlock: after all input is consumed and the
// buffer reset, a reserve fitting the existing capacity must not reallocate.
func TestIbufResetThenReserveKeepsBlock(t *testing.T) {
	slabc := pool.NewSlabCache()
	var b iobuf.Ibuf
	b.Init(slabc)

	if err := b.Reserve(100); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	before := startPtr(&b)

	copy(b.WritableBytes(), bytes.Repeat([]byte{'r'}, 100))
	b.Fill(100)
	b.Consume(100)
	if b.Size() != 0 {
		t.Fatalf("Size = %d after consuming everything", b.Size())
	}
	b.Reset()

	if err := b.Reserve(50); err != nil {
		t.Fatalf("Reserve after Reset: %v", err)
	}
	if after := startPtr(&b); after != before {
		t.Fatal("Reserve reallocated although capacity was sufficient")
	}
	b.Destroy()
}

// TestIbufDefragmentInPlace: when shifted data plus the request fits the
// current allocation, Reserve moves the tail to the front with no arena
// traffic and keeps the bytes intact.
func TestIbufDefragmentInPlace(t *testing.T) {
	arena := fake.NewArena()
	var b iobuf.Ibuf
	b.Init(arena)

	if err := b.Reserve(1000); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	capacity := b.Capacity()

	payload := make([]byte, capacity)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	copy(b.WritableBytes(), payload)
	b.Fill(capacity)
	b.Consume(capacity - 10) // 10 unparsed bytes at the very end

	acquiresBefore := arena.Acquired
	before := startPtr(&b)
	if err := b.Reserve(capacity - 10); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if arena.Acquired != acquiresBefore {
		t.Fatal("defragmentation went to the arena")
	}
	if after := startPtr(&b); after != before {
		t.Fatal("defragmentation replaced the allocation")
	}
	if b.Pos() != 0 {
		t.Fatalf("Pos = %d after defragmentation, want 0", b.Pos())
	}
	if !bytes.Equal(b.Bytes(), payload[capacity-10:]) {
		t.Fatal("unparsed tail corrupted by defragmentation")
	}
	if b.Unused() < capacity-10 {
		t.Fatalf("Unused = %d, want >= %d", b.Unused(), capacity-10)
	}
}

// TestIbufGrowthPreservesData: growing to a bigger block copies the
// unparsed tail and releases the old block.
func TestIbufGrowthPreservesData(t *testing.T) {
	arena := fake.NewArena()
	var b iobuf.Ibuf
	b.Init(arena)

	if err := b.Reserve(10); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	capacity := b.Capacity()
	copy(b.WritableBytes(), bytes.Repeat([]byte{'d'}, capacity))
	b.Fill(capacity)
	b.Consume(3)
	want := append([]byte(nil), b.Bytes()...)

	if err := b.Reserve(capacity); err != nil {
		t.Fatalf("growing Reserve: %v", err)
	}
	if b.Capacity() < 2*capacity {
		t.Fatalf("Capacity = %d after growth, want >= %d", b.Capacity(), 2*capacity)
	}
	if arena.Released != 1 {
		t.Fatalf("old block releases = %d, want 1", arena.Released)
	}
	if !bytes.Equal(b.Bytes(), want) {
		t.Fatal("unparsed tail corrupted by growth")
	}
	if b.Pos() != 0 {
		t.Fatalf("Pos = %d after growth, want 0", b.Pos())
	}
}

// TestIbufReserveFailureLeavesStateIntact: a failing arena must not disturb
// cursors, capacity, or content.
func TestIbufReserveFailureLeavesStateIntact(t *testing.T) {
	arena := fake.NewArena()
	var b iobuf.Ibuf
	b.Init(arena)

	if err := b.Reserve(8); err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	capacity := b.Capacity()
	copy(b.WritableBytes(), "payload!")
	b.Fill(8)

	arena.FailAfter = arena.Acquired
	err := b.Reserve(capacity + 1)
	if !api.IsOutOfMemory(err) {
		t.Fatalf("error = %v, want OutOfMemory", err)
	}
	if b.Capacity() != capacity || b.Size() != 8 {
		t.Fatalf("state mutated by failed Reserve: cap=%d size=%d", b.Capacity(), b.Size())
	}
	if string(b.Bytes()) != "payload!" {
		t.Fatal("content mutated by failed Reserve")
	}
}

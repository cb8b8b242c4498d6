// File: iobuf/iobuf_test.go
// Author: momentics <momentics@gmail.com>
//
// Buffer pair and cache tests: checkout/release cycle, idle/pin contract,
// shrink-on-release policy.

package iobuf_test

import (
	"bytes"
	"testing"

	"github.com/momentics/hioload-iobuf/api"
	"github.com/momentics/hioload-iobuf/iobuf"
	"github.com/momentics/hioload-iobuf/pool"
)

func newTestCache(t *testing.T, opts ...iobuf.CacheOption) *iobuf.Cache {
	t.Helper()
	opts = append(opts, iobuf.WithRegistry(pool.NewRegistry()))
	return iobuf.NewCache(pool.NewSlabCache(), opts...)
}

func TestCacheCheckoutRelease(t *testing.T) {
	c := newTestCache(t)

	io, err := c.New("conn/1")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if io.Name() != "conn/1" {
		t.Fatalf("Name = %q", io.Name())
	}
	if !io.IsIdle() {
		t.Fatal("fresh pair is not idle")
	}

	// One request/response cycle.
	if err := io.In.Reserve(64); err != nil {
		t.Fatalf("In.Reserve: %v", err)
	}
	copy(io.In.WritableBytes(), "request")
	io.In.Fill(7)
	if io.IsIdle() {
		t.Fatal("pair with pending input reported idle")
	}
	io.In.Consume(7)
	if err := io.Out.Dup([]byte("response")); err != nil {
		t.Fatalf("Out.Dup: %v", err)
	}
	if io.IsIdle() {
		t.Fatal("pair with pending output reported idle")
	}
	io.Reset() // output drained, input parsed
	if !io.IsIdle() {
		t.Fatal("pair not idle after Reset")
	}
	c.Put(io)

	// The free list hands the same pair back.
	io2, err := c.New("conn/2")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if io2 != io {
		t.Fatal("free list did not reuse the released pair")
	}
	if s := c.Stats(); s.FreeListHits != 1 || s.Acquired != 2 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestPairPinBlocksIdle(t *testing.T) {
	c := newTestCache(t)
	io, err := c.New("pinned")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	io.Pin()
	if io.IsIdle() {
		t.Fatal("pinned pair reported idle")
	}
	io.Pin()
	io.Unpin()
	if io.Pins() != 1 {
		t.Fatalf("Pins = %d, want 1", io.Pins())
	}
	io.Unpin()
	if !io.IsIdle() {
		t.Fatal("unpinned empty pair not idle")
	}
}

func TestPutPanicsOnPinnedPair(t *testing.T) {
	c := newTestCache(t)
	io, err := c.New("pinned")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	io.Pin()
	defer func() {
		if recover() == nil {
			t.Fatal("Put of a pinned pair did not panic")
		}
	}()
	c.Put(io)
}

// TestCacheShrinkOnRelease grows both sides past the shrink threshold and
// verifies the released pair comes back with a bounded footprint.
func TestCacheShrinkOnRelease(t *testing.T) {
	c := newTestCache(t)
	io, err := c.New("fat")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	threshold := 18 * iobuf.Readahead()
	big := threshold + 1

	if err := io.In.Reserve(big); err != nil {
		t.Fatalf("In.Reserve: %v", err)
	}
	io.In.Fill(big)
	io.In.Consume(big)
	if err := io.Out.Dup(bytes.Repeat([]byte{'o'}, big)); err != nil {
		t.Fatalf("Out.Dup: %v", err)
	}
	if io.In.Capacity() <= threshold {
		t.Fatalf("input capacity %d did not exceed threshold %d", io.In.Capacity(), threshold)
	}

	io.Reset()
	c.Put(io)

	io2, err := c.New("thin")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if io2.In.Capacity() > threshold {
		t.Fatalf("input capacity %d after round trip, want <= %d", io2.In.Capacity(), threshold)
	}
	if io2.Out.Size() != 0 {
		t.Fatalf("output size %d after round trip", io2.Out.Size())
	}
	if s := c.Stats(); s.Shrinks < 2 {
		t.Fatalf("Shrinks = %d, want >= 2", s.Shrinks)
	}
}

// TestCacheSmallPairSkipsShrink keeps a pair under the threshold and checks
// its input block survives the round trip (cheap reuse path).
func TestCacheSmallPairSkipsShrink(t *testing.T) {
	c := newTestCache(t)
	io, err := c.New("small")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := io.In.Reserve(64); err != nil {
		t.Fatalf("In.Reserve: %v", err)
	}
	capacity := io.In.Capacity()
	c.Put(io)

	io2, _ := c.New("small/2")
	if io2.In.Capacity() != capacity {
		t.Fatalf("input capacity %d after round trip, want %d (block kept)",
			io2.In.Capacity(), capacity)
	}
	if s := c.Stats(); s.Shrinks != 0 {
		t.Fatalf("Shrinks = %d, want 0", s.Shrinks)
	}
}

func TestPairResetKeepsUnparsedInput(t *testing.T) {
	c := newTestCache(t)
	io, err := c.New("partial")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := io.In.Reserve(32); err != nil {
		t.Fatalf("In.Reserve: %v", err)
	}
	copy(io.In.WritableBytes(), "req1req2")
	io.In.Fill(8)
	io.In.Consume(4) // req1 parsed, req2 pending

	io.Reset()
	if string(io.In.Bytes()) != "req2" {
		t.Fatalf("unparsed input = %q after Reset, want %q", io.In.Bytes(), "req2")
	}
	if io.In.Pos() == 0 {
		t.Fatal("cursor collapsed although input was pending")
	}

	io.In.Consume(4)
	io.Reset()
	if io.In.Pos() != 0 {
		t.Fatalf("Pos = %d after Reset with everything parsed, want 0", io.In.Pos())
	}
}

func TestCacheMaxPairs(t *testing.T) {
	c := newTestCache(t, iobuf.WithMaxPairs(1))
	if _, err := c.New("one"); err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err := c.New("two")
	if !api.IsOutOfMemory(err) {
		t.Fatalf("error = %v, want OutOfMemory", err)
	}
}

func TestCacheDestroyReleasesMemory(t *testing.T) {
	slabc := pool.NewSlabCache()
	c := iobuf.NewCache(slabc, iobuf.WithRegistry(pool.NewRegistry()))

	io, err := c.New("teardown")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := io.In.Reserve(128); err != nil {
		t.Fatalf("In.Reserve: %v", err)
	}
	if err := io.Out.Dup([]byte("bytes")); err != nil {
		t.Fatalf("Out.Dup: %v", err)
	}
	io.In.Consume(0)
	io.Out.Reset()
	io.Reset()
	c.Put(io)
	c.Destroy()

	if s := slabc.Stats(); s.InUse != 0 {
		t.Fatalf("arena InUse = %d after Destroy, want 0", s.InUse)
	}
}

// TestCacheNewShrinksAfterReadaheadLowered caches a pair that is legal
// under the current readahead, lowers the tunable so the cached pair now
// exceeds the shrink threshold, and expects the next checkout to hand it
// back shrunk rather than failing.
func TestCacheNewShrinksAfterReadaheadLowered(t *testing.T) {
	defer iobuf.SetReadahead(iobuf.DefaultReadahead)

	c := newTestCache(t)
	io, err := c.New("conn/wide")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := io.In.Reserve(40000); err != nil {
		t.Fatalf("In.Reserve: %v", err)
	}
	if io.In.Capacity() >= 18*iobuf.Readahead() {
		t.Fatalf("capacity %d already over the threshold", io.In.Capacity())
	}
	c.Put(io)

	iobuf.SetReadahead(1024)
	io2, err := c.New("conn/narrow")
	if err != nil {
		t.Fatalf("New after lowering readahead: %v", err)
	}
	if io2 != io {
		t.Fatal("free list did not reuse the released pair")
	}
	if limit := 18 * iobuf.Readahead(); io2.In.Capacity() >= limit {
		t.Fatalf("input capacity %d after checkout, want < %d", io2.In.Capacity(), limit)
	}
	if s := c.Stats(); s.Shrinks == 0 {
		t.Fatal("checkout of an oversized cached pair did not count a shrink")
	}
}

func TestSetReadahead(t *testing.T) {
	defer iobuf.SetReadahead(iobuf.DefaultReadahead)

	iobuf.SetReadahead(4096)
	if iobuf.Readahead() != 4096 {
		t.Fatalf("Readahead = %d, want 4096", iobuf.Readahead())
	}
	iobuf.SetReadahead(0) // invalid values fall back to the default
	if iobuf.Readahead() != iobuf.DefaultReadahead {
		t.Fatalf("Readahead = %d, want default", iobuf.Readahead())
	}
}

// File: pool/alloc_stub.go
//go:build !linux

//
// Package pool: portable slab allocation fallback (Go heap).
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

func platformAlloc(sz int) *slab {
	return &slab{data: make([]byte, sz)}
}

func platformRelease(s *slab) {
	// GC handles memory.
}

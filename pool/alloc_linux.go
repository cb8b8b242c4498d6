// File: pool/alloc_linux.go
//go:build linux

//
// Package pool: Linux-specific slab allocation via anonymous mmap.
//
// Slabs of 2 MiB and above are requested with MAP_HUGETLB for hugepage
// backing. Fallback to the Go heap if mmap fails (no hugepages configured,
// resource limits).
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"golang.org/x/sys/unix"
)

const hugeSize = 2 << 20

// platformAlloc maps or allocates a slab of exactly `sz` bytes.
func platformAlloc(sz int) *slab {
	flags := unix.MAP_ANON | unix.MAP_PRIVATE
	length := sz
	if sz >= hugeSize {
		flags |= unix.MAP_HUGETLB
		length = ((sz + hugeSize - 1) / hugeSize) * hugeSize
	}
	data, err := unix.Mmap(-1, 0, length,
		unix.PROT_READ|unix.PROT_WRITE, flags)
	if err != nil && sz >= hugeSize {
		// Retry without hugepages before falling back to the heap.
		data, err = unix.Mmap(-1, 0, sz,
			unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	}
	if err != nil {
		return &slab{data: make([]byte, sz)}
	}
	return &slab{data: data[:sz], mmapped: true}
}

// platformRelease returns mapped memory to the OS; heap slabs are left to GC.
func platformRelease(s *slab) {
	if s.mmapped {
		_ = unix.Munmap(s.data[:cap(s.data)])
	}
}

// File: iobuf/readahead.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package iobuf

import "sync/atomic"

// DefaultReadahead is the default growth hint for input buffers and the
// initial segment factor for output buffers.
//
// Notice that it is not a strict power of two. Slab metadata takes some
// space, and allocation steps should correlate to slab size classes, so a
// request for 16320 bytes lands in a 16 KiB class slab instead of 32 KiB.
const DefaultReadahead = 16320

var readahead atomic.Int64

func init() {
	readahead.Store(DefaultReadahead)
}

// SetReadahead tunes the buffer growth hint at runtime. Contexts may observe
// the previous value for a while; it only affects sizing of new allocations.
func SetReadahead(n int) {
	if n <= 0 {
		n = DefaultReadahead
	}
	readahead.Store(int64(n))
}

// Readahead returns the current growth hint.
func Readahead() int {
	return int(readahead.Load())
}

// maxCacheFootprint is how big one buffer side may be and still be kept as-is
// when its pair goes back into the cache. Anything larger is shrunk so idle
// connections cannot retain unbounded memory.
func maxCacheFootprint() int {
	return 18 * Readahead()
}

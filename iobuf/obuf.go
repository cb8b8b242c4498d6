// File: iobuf/obuf.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Output buffer: an ordered chain of segments allocated from a region,
// each at least twice as big as the previous one, exposed as a net.Buffers
// vector for writev-style draining. With doubling growth the chain is
// unlikely to ever reach the hard segment ceiling; if it does, the write
// fails with OutOfMemory rather than reallocating earlier segments, since
// outstanding iovecs and savepoints must keep pointing at live memory.
//
// Typical framing use:
//
//	svp, _ := out.Book(4)              // placeholder for a length prefix
//	out.Dup(body)                      // any number of writes
//	binary.LittleEndian.PutUint32(out.SvpBytes(svp), uint32(out.Size()))

package iobuf

import (
	"net"

	"github.com/momentics/hioload-iobuf/api"
	"github.com/momentics/hioload-iobuf/pool"
)

// IOVMax is the hard ceiling on the number of segments in one Obuf.
const IOVMax = 32

// Svp is an output buffer savepoint: a value capturing (active segment,
// bytes used in it, total size) at one point in time. Valid until the
// buffer is reset; using a stale savepoint after Reset is caller error and
// undefined.
type Svp struct {
	pos    int
	segLen int
	size   int
}

// Size returns the total buffer size recorded in the savepoint.
func (s Svp) Size() int { return s.size }

// Obuf is a multi-segment output buffer. The zero value is unusable; call
// Init (or let a Cache do it).
type Obuf struct {
	pool *pool.Region
	size int // total bytes written across all segments
	pos  int // index of the active segment

	// Initial segment capacity; later segments double the previous one.
	allocFactor int

	// Allocated segments. len(seg[i]) is the used length, cap is fixed at
	// segCap[i]. Segments are never reallocated once handed out.
	seg    [][]byte
	segCap []int

	// Ceiling, IOVMax except in tests.
	maxSeg int
}

// Init binds the buffer to a region. No segment is allocated yet.
func (b *Obuf) Init(region *pool.Region, allocFactor int) {
	if allocFactor <= 0 {
		allocFactor = DefaultReadahead
	}
	b.pool = region
	b.size = 0
	b.pos = 0
	b.allocFactor = allocFactor
	b.seg = b.seg[:0]
	b.segCap = b.segCap[:0]
	b.maxSeg = IOVMax
}

// Size reports total bytes written.
func (b *Obuf) Size() int { return b.size }

// segRoom reports free bytes in the active segment, zero when the segment
// does not exist yet.
func (b *Obuf) segRoom() int {
	if b.pos >= len(b.seg) {
		return 0
	}
	return b.segCap[b.pos] - len(b.seg[b.pos])
}

// allocSeg allocates the segment at index pos, sized geometrically but at
// least size bytes. The buffer is not mutated if allocation fails.
func (b *Obuf) allocSeg(pos, size int) error {
	if pos >= b.maxSeg {
		return api.NewOutOfMemory(size, "Obuf.Reserve", "segment directory")
	}
	capacity := b.allocFactor
	if pos > 0 {
		capacity = b.segCap[pos-1] * 2
	}
	for capacity < size {
		capacity *= 2
	}
	data, err := b.pool.Alloc(capacity)
	if err != nil {
		return err
	}
	if pos == len(b.seg) {
		b.seg = append(b.seg, data[:0])
		b.segCap = append(b.segCap, capacity)
	} else {
		// Re-sizing a slot that survived a rollback cycle. The old
		// memory stays in the region until it is freed in bulk.
		b.seg[pos] = data[:0]
		b.segCap[pos] = capacity
	}
	return nil
}

// Reserve returns a writable window of at least size contiguous bytes in
// the active segment, without committing anything. The window's full length
// is whatever the segment has left, so callers may Advance past size up to
// len(window). Idempotent until Advance.
func (b *Obuf) Reserve(size int) ([]byte, error) {
	if b.pos < len(b.seg) && b.segRoom() >= size {
		s := b.seg[b.pos]
		return s[len(s):b.segCap[b.pos]], nil
	}
	return b.reserveSlow(size)
}

// ReserveAll returns the entire writable tail of the active segment,
// reserving at least one byte if the segment is full. Encoders that emit
// variable-length output use it to fill whatever room is on hand and
// Advance by what they actually wrote.
func (b *Obuf) ReserveAll() ([]byte, error) {
	return b.Reserve(1)
}

// reserveSlow advances to (or allocates) a segment that fits size bytes.
// All mutation happens after the allocation succeeds.
func (b *Obuf) reserveSlow(size int) ([]byte, error) {
	pos := b.pos
	if pos < len(b.seg) && len(b.seg[pos]) > 0 {
		pos++
	}
	if pos >= len(b.seg) || b.segCap[pos] < size {
		if err := b.allocSeg(pos, size); err != nil {
			return nil, err
		}
	}
	b.pos = pos
	s := b.seg[pos]
	return s[len(s):b.segCap[pos]], nil
}

// Advance commits n bytes previously obtained via Reserve. Committing more
// than the last Reserve guaranteed is caller error.
func (b *Obuf) Advance(n int) {
	if n < 0 || b.pos >= len(b.seg) || len(b.seg[b.pos])+n > b.segCap[b.pos] {
		panic("iobuf: Advance beyond reserved capacity")
	}
	b.seg[b.pos] = b.seg[b.pos][:len(b.seg[b.pos])+n]
	b.size += n
}

// Alloc reserves and immediately commits size bytes, returning the
// committed window for the caller to fill in.
func (b *Obuf) Alloc(size int) ([]byte, error) {
	w, err := b.Reserve(size)
	if err != nil {
		return nil, err
	}
	b.Advance(size)
	return w[:size], nil
}

// Dup copies data into the buffer, splitting across segments as needed.
// On OutOfMemory the buffer rolls back to its pre-call state.
func (b *Obuf) Dup(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	svp := b.CreateSvp()
	for len(data) > 0 {
		if b.pos >= len(b.seg) || b.segCap[b.pos] == 0 {
			if err := b.allocSeg(b.pos, len(data)); err != nil {
				b.Rollback(svp)
				return err
			}
		}
		room := b.segCap[b.pos] - len(b.seg[b.pos])
		if room == 0 {
			// Segment full; the next one is allocated (or re-used
			// from a rollback cycle) on the following iteration.
			b.pos++
			continue
		}
		n := min(room, len(data))
		b.seg[b.pos] = append(b.seg[b.pos], data[:n]...)
		b.size += n
		data = data[n:]
		if len(data) > 0 {
			b.pos++
		}
	}
	return nil
}

// Book commits size bytes and returns a savepoint taken just before the
// commit, so the reserved bytes can be patched after later writes determine
// their value (length prefixes). The booked bytes never move: earlier
// segments are never reallocated.
func (b *Obuf) Book(size int) (Svp, error) {
	if _, err := b.Reserve(size); err != nil {
		return Svp{}, err
	}
	svp := b.CreateSvp()
	b.Advance(size)
	return svp, nil
}

// CreateSvp captures the current buffer state without writing.
func (b *Obuf) CreateSvp() Svp {
	segLen := 0
	if b.pos < len(b.seg) {
		segLen = len(b.seg[b.pos])
	}
	return Svp{pos: b.pos, segLen: segLen, size: b.size}
}

// SvpBytes returns the bytes written at and after the savepoint within its
// segment. For a savepoint from Book(n), the first n bytes are the booked
// window. A savepoint from CreateSvp may precede its segment's allocation;
// then there are no bytes to return and the result is nil.
func (b *Obuf) SvpBytes(svp Svp) []byte {
	if svp.pos >= len(b.seg) {
		return nil
	}
	return b.seg[svp.pos][svp.segLen:]
}

// Rollback truncates the buffer back to the exact state captured by svp.
// Memory is not released, only logically truncated; capacities of segments
// allocated after the savepoint survive for reuse.
func (b *Obuf) Rollback(svp Svp) {
	b.pos = svp.pos
	if svp.pos < len(b.seg) {
		b.seg[svp.pos] = b.seg[svp.pos][:svp.segLen]
	}
	for i := svp.pos + 1; i < len(b.seg); i++ {
		b.seg[i] = b.seg[i][:0]
	}
	b.size = svp.size
}

// IOVec returns the used segments as a scatter/gather vector. The slices
// alias buffer memory; they are valid until Reset or Rollback.
func (b *Obuf) IOVec() net.Buffers {
	cnt := b.segCount()
	v := make(net.Buffers, 0, cnt)
	for i := 0; i < cnt; i++ {
		v = append(v, b.seg[i])
	}
	return v
}

// segCount reports segments carrying data: everything before the active
// one, plus the active one when it is non-empty.
func (b *Obuf) segCount() int {
	if b.pos < len(b.seg) && len(b.seg[b.pos]) > 0 {
		return b.pos + 1
	}
	return b.pos
}

// Reset marks the buffer empty. Segment capacities are retained so the next
// cycle reproduces the same segment shape without allocating.
func (b *Obuf) Reset() {
	for i := range b.seg {
		b.seg[i] = b.seg[i][:0]
	}
	b.pos = 0
	b.size = 0
}

// Destroy frees the backing region in bulk and drops every segment. The
// buffer needs another Init before reuse.
func (b *Obuf) Destroy() {
	b.pool.Free()
	b.seg = b.seg[:0]
	b.segCap = b.segCap[:0]
	b.pos = 0
	b.size = 0
}

// Package segarray implements an append-only segmented slot store addressed by
// uint32 index.
//
// Slots live in fixed-size segments that are never reallocated, so a slot's
// index stays valid for the lifetime of the array and a pointer obtained from
// At remains valid across later Alloc calls. Growth allocates one new segment
// instead of copying the whole store, which keeps large trie builds from
// needing one huge contiguous block.
//
// The array is not safe for concurrent mutation; it backs single-threaded
// builders.
package segarray

import "github.com/coregx/actrie/internal/conv"

const (
	// segmentBits determines the size of each segment.
	// 12 bits = 4096 slots per segment.
	segmentBits = 12
	segmentSize = 1 << segmentBits
	segmentMask = segmentSize - 1
)

// Array is a growable store of T slots.
type Array[T any] struct {
	segments []*[segmentSize]T
	n        uint32
}

// New creates an empty array.
func New[T any]() *Array[T] {
	return &Array[T]{}
}

// Alloc appends a zero-valued slot and returns its index.
// Panics (via conv) if the index space is exhausted.
func (a *Array[T]) Alloc() uint32 {
	idx := a.n
	if int(idx>>segmentBits) == len(a.segments) {
		a.segments = append(a.segments, new([segmentSize]T))
	}
	a.n = conv.IntToUint32(int(a.n) + 1)
	return idx
}

// Append stores v in a new slot and returns its index.
func (a *Array[T]) Append(v T) uint32 {
	idx := a.Alloc()
	*a.At(idx) = v
	return idx
}

// At returns a pointer to slot idx. Panics if idx has not been allocated.
func (a *Array[T]) At(idx uint32) *T {
	if idx >= a.n {
		panic("segarray: index out of range")
	}
	return &a.segments[idx>>segmentBits][idx&segmentMask]
}

// Len returns the number of allocated slots.
func (a *Array[T]) Len() int {
	return int(a.n)
}

// Reset forgets all slots but keeps the allocated segments for reuse.
// Slots are zeroed so that Alloc keeps handing out zero values.
func (a *Array[T]) Reset() {
	var zero T
	for i := uint32(0); i < a.n; i++ {
		a.segments[i>>segmentBits][i&segmentMask] = zero
	}
	a.n = 0
}

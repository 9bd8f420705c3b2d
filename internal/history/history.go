// Package history implements the sliding-window cache of pending tail matches
// used by the distance matcher.
//
// Every recorded span belongs to one tag and sits in two lists at once: the
// per-tag chain (arrival order within the tag) and the global arrival queue.
// Spans arrive in non-decreasing end order, so evicting from the queue front
// always removes the head of some tag chain, and one eviction unlinks a span
// from both lists in O(1).
//
// Span records live in a slot pool with a free list, so steady-state scanning
// does not allocate. Reset empties the cache in O(1) in the number of tags.
package history

import (
	"github.com/coregx/actrie/internal/conv"
	"github.com/coregx/actrie/internal/sparse"
)

// Cursor points at a span in a tag chain. The zero Cursor is the end of a
// chain.
type Cursor uint32

// Valid reports whether c points at a span.
func (c Cursor) Valid() bool {
	return c != 0
}

// Span is a recorded match in byte offsets.
type Span struct {
	Start int
	End   int
}

type slot struct {
	span  Span
	tag   uint32
	next  uint32 // next span of the same tag
	qnext uint32 // next span in arrival order; free-list link when unused
}

// Cache is a tag-keyed history of spans with FIFO eviction.
// It is not safe for concurrent use.
type Cache struct {
	slots []slot // slots[0] is the nil sentinel
	free  uint32

	head []uint32 // per-tag chain head, valid only for tags in live
	tail []uint32
	live *sparse.Set

	qhead, qtail uint32
	n            int
}

// New creates a cache for tags in [0, numTags).
func New(numTags int) *Cache {
	return &Cache{
		slots: make([]slot, 1, 64),
		head:  make([]uint32, numTags),
		tail:  make([]uint32, numTags),
		live:  sparse.New(numTags),
	}
}

// Insert records a span for tag. Spans must be inserted in non-decreasing
// end order.
func (c *Cache) Insert(tag, start, end int) {
	t := conv.IntToUint32(tag)
	idx := c.alloc()
	c.slots[idx] = slot{span: Span{Start: start, End: end}, tag: t}

	if c.live.Insert(t) {
		c.head[t] = idx
	} else {
		c.slots[c.tail[t]].next = idx
	}
	c.tail[t] = idx

	if c.qtail == 0 {
		c.qhead = idx
	} else {
		c.slots[c.qtail].qnext = idx
	}
	c.qtail = idx
	c.n++
}

// EvictThrough removes, oldest first, every span whose end offset is at most
// offset, stopping at the first span that ends later. It returns the number
// of spans removed.
func (c *Cache) EvictThrough(offset int) int {
	removed := 0
	for c.qhead != 0 && c.slots[c.qhead].span.End <= offset {
		idx := c.qhead
		s := &c.slots[idx]

		// The oldest span is the head of its chain.
		c.head[s.tag] = s.next
		if s.next == 0 {
			c.live.Remove(s.tag)
		}

		c.qhead = s.qnext
		if c.qhead == 0 {
			c.qtail = 0
		}
		c.release(idx)
		c.n--
		removed++
	}
	return removed
}

// Lookup returns a cursor at the oldest span recorded for tag.
func (c *Cache) Lookup(tag int) Cursor {
	if tag < 0 || !c.live.Contains(uint32(tag)) {
		return 0
	}
	return Cursor(c.head[tag])
}

// At returns the span under cur.
func (c *Cache) At(cur Cursor) Span {
	return c.slots[cur].span
}

// Next returns the cursor following cur in its tag chain.
func (c *Cache) Next(cur Cursor) Cursor {
	return Cursor(c.slots[cur].next)
}

// Len returns the number of recorded spans.
func (c *Cache) Len() int {
	return c.n
}

// Reset empties the cache. Slots are kept for reuse.
func (c *Cache) Reset() {
	c.slots = c.slots[:1]
	c.free = 0
	c.live.Clear()
	c.qhead, c.qtail = 0, 0
	c.n = 0
}

func (c *Cache) alloc() uint32 {
	if c.free != 0 {
		idx := c.free
		c.free = c.slots[idx].qnext
		return idx
	}
	c.slots = append(c.slots, slot{})
	return conv.IntToUint32(len(c.slots) - 1)
}

func (c *Cache) release(idx uint32) {
	c.slots[idx] = slot{qnext: c.free}
	c.free = idx
}

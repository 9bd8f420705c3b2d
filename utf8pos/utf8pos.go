// Package utf8pos maps byte offsets of a buffer to character offsets.
//
// Every matcher in the engine walks raw bytes, but matches are reported and
// gaps are measured in characters. A Table is built once per scanned buffer
// in a single linear pass and is read-only afterwards, so the byte -> character
// translation is a slice lookup everywhere else.
//
// Malformed UTF-8 never aborts a build. Each byte that is not a valid
// continuation of the current sequence starts a new character, so invalid
// lead bytes and stray continuation bytes count as one character each.
//
// Example:
//
//	var tab utf8pos.Table
//	tab.Build([]byte("a中b"))
//	tab.Char(4)             // 2: byte 4 is 'b'
//	tab.Distance(1, 4)      // 1: one character ('中') between them
package utf8pos

import "github.com/coregx/actrie/internal/swar"

// Table holds one character index per byte offset, plus one entry for the
// end of the buffer (len(buf) + 1 entries in total).
//
// Continuation bytes share the character index of their lead byte, so the
// table is monotonic non-decreasing.
//
// The zero value is an empty table for an empty buffer.
type Table struct {
	pos   []int
	ascii bool
	n     int
}

// New builds a table for buf.
func New(buf []byte) *Table {
	t := &Table{}
	t.Build(buf)
	return t
}

// Build recomputes the table for buf, reusing the previous allocation when
// it is large enough.
//
// ASCII buffers take a fast path: no table is materialized because byte
// offsets and character offsets coincide.
func (t *Table) Build(buf []byte) {
	t.n = len(buf)
	if swar.IsASCII(buf) {
		t.ascii = true
		t.pos = t.pos[:0]
		return
	}
	t.ascii = false

	if cap(t.pos) < len(buf)+1 {
		t.pos = make([]int, len(buf)+1)
	} else {
		t.pos = t.pos[:len(buf)+1]
	}

	char := -1
	pending := 0 // continuation bytes still expected by the current sequence
	for i, b := range buf {
		if pending > 0 && b&0xC0 == 0x80 {
			pending--
			t.pos[i] = char
			continue
		}
		char++
		t.pos[i] = char
		pending = continuations(b)
	}
	t.pos[len(buf)] = char + 1
}

// continuations returns how many continuation bytes a lead byte announces.
// Bytes that cannot lead a sequence announce none.
func continuations(b byte) int {
	switch {
	case b < 0xC0:
		// ASCII, or a stray continuation byte.
		return 0
	case b < 0xE0:
		return 1
	case b < 0xF0:
		return 2
	case b < 0xF8:
		return 3
	default:
		return 0
	}
}

// Len returns the buffer length in bytes the table was built for.
func (t *Table) Len() int {
	return t.n
}

// Chars returns the number of characters in the buffer.
func (t *Table) Chars() int {
	return t.Char(t.n)
}

// Char returns the character index of byte offset off.
// Offsets are clamped to [0, Len()].
func (t *Table) Char(off int) int {
	if off < 0 {
		off = 0
	} else if off > t.n {
		off = t.n
	}
	if t.ascii || len(t.pos) == 0 {
		return off
	}
	return t.pos[off]
}

// Distance returns the number of characters from byte offset a to byte
// offset b, or -1 if b precedes a.
//
// Distance(a, a) is 0. The result is exact for any pair of offsets, including
// offsets inside malformed sequences.
func (t *Table) Distance(a, b int) int {
	if b < a {
		return -1
	}
	return t.Char(b) - t.Char(a)
}

// Package prefilter answers "can this buffer contain any keyword at all?"
// before a full automaton walk.
//
// Most scanned buffers in filtering workloads contain no keyword. A prefilter
// rejects those buffers with a faster search than the match-reporting
// automaton, which has to visit every output link. A prefilter never reports
// matches itself: a positive answer only means the full scan must run.
//
// The strategy depends on the keyword set:
//   - One single-byte keyword -> byte search
//   - One keyword -> substring search
//   - Many keywords -> Aho-Corasick automaton (github.com/coregx/ahocorasick)
//
// Example usage:
//
//	b := prefilter.NewBuilder()
//	b.Add([]byte("hello"))
//	b.Add([]byte("world"))
//	pf, err := b.Build()
//	if err != nil { ... }
//	if pf != nil && !pf.IsMatch(buf) {
//	    // no keyword in buf
//	}
package prefilter

import (
	"bytes"

	"github.com/coregx/ahocorasick"
)

// Prefilter rejects buffers that cannot contain a keyword.
type Prefilter interface {
	// IsMatch reports whether haystack may contain a keyword. False is
	// definitive: no keyword occurs in haystack.
	IsMatch(haystack []byte) bool

	// HeapBytes returns the heap memory held by the prefilter, or an estimate
	// when the backing library does not expose it.
	HeapBytes() int
}

// Builder collects keywords and selects a prefilter strategy.
type Builder struct {
	keys  [][]byte
	seen  map[string]struct{}
	bytes int
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{seen: make(map[string]struct{})}
}

// Add registers a keyword. Empty and duplicate keywords are ignored.
func (b *Builder) Add(key []byte) {
	if len(key) == 0 {
		return
	}
	if _, ok := b.seen[string(key)]; ok {
		return
	}
	b.seen[string(key)] = struct{}{}
	b.keys = append(b.keys, key)
	b.bytes += len(key)
}

// Len returns the number of distinct keywords added.
func (b *Builder) Len() int {
	return len(b.keys)
}

// Build returns the prefilter for the collected keywords, or nil when no
// keyword was added.
func (b *Builder) Build() (Prefilter, error) {
	switch {
	case len(b.keys) == 0:
		return nil, nil
	case len(b.keys) == 1 && len(b.keys[0]) == 1:
		return &memchrPrefilter{needle: b.keys[0][0]}, nil
	case len(b.keys) == 1:
		return &memmemPrefilter{needle: b.keys[0]}, nil
	}

	ab := ahocorasick.NewBuilder()
	for _, k := range b.keys {
		ab.AddPattern(k)
	}
	auto, err := ab.Build()
	if err != nil {
		return nil, err
	}
	return &Literal{auto: auto, bytes: b.bytes}, nil
}

// memchrPrefilter looks for a single byte.
type memchrPrefilter struct {
	needle byte
}

func (p *memchrPrefilter) IsMatch(haystack []byte) bool {
	return bytes.IndexByte(haystack, p.needle) >= 0
}

func (p *memchrPrefilter) HeapBytes() int {
	return 0
}

// memmemPrefilter looks for a single substring.
type memmemPrefilter struct {
	needle []byte
}

func (p *memmemPrefilter) IsMatch(haystack []byte) bool {
	return bytes.Contains(haystack, p.needle)
}

func (p *memmemPrefilter) HeapBytes() int {
	return len(p.needle)
}

// Literal is a multi-keyword prefilter backed by an Aho-Corasick automaton.
type Literal struct {
	auto  *ahocorasick.Automaton
	bytes int
}

// IsMatch reports whether any keyword occurs in haystack.
func (p *Literal) IsMatch(haystack []byte) bool {
	return p.auto.IsMatch(haystack)
}

// HeapBytes estimates the automaton size from the keyword bytes.
func (p *Literal) HeapBytes() int {
	// Roughly one state per keyword byte, each with a transition entry.
	return p.bytes * 16
}

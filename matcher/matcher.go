// Package matcher defines the matcher/context abstraction shared by every
// matching strategy, and implements the plain trie strategy.
//
// A Matcher is immutable once built and may be shared by any number of
// goroutines. Each scan uses its own Context: Reset binds the context to a
// buffer, and Next yields one match per call until it reports false. Once
// Next has reported false it keeps doing so until the next Reset.
//
// Offsets in a Match are byte offsets into the buffer passed to Reset.
// Converting them to character offsets is the caller's job (see utf8pos).
package matcher

import (
	"fmt"

	"github.com/coregx/actrie/dict"
	"github.com/coregx/actrie/utf8pos"
)

// Kind selects a matching strategy.
type Kind uint8

const (
	// KindDistance treats keywords of the form head.{m,n}tail or
	// head\d{m,n}tail as bounded-gap patterns and everything else as literals.
	KindDistance Kind = iota

	// KindPlain treats every keyword as a literal.
	KindPlain
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindDistance:
		return "distance"
	case KindPlain:
		return "plain"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// ParseKind returns the kind named s.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "distance", "dist":
		return KindDistance, nil
	case "plain", "trie":
		return KindPlain, nil
	default:
		return 0, fmt.Errorf("matcher: unknown kind %q", s)
	}
}

// Match is one match in byte offsets. Entry.Owner() is the dictionary entry
// to report.
type Match struct {
	Entry *dict.Entry
	Start int
	End   int
}

// Matcher is an immutable, shareable matcher.
type Matcher interface {
	// Kind reports the strategy.
	Kind() Kind

	// AllocContext returns a fresh scan context.
	AllocContext() Context
}

// Context is a per-scan cursor. It is not safe for concurrent use.
type Context interface {
	// Reset binds the context to buf and rewinds it.
	Reset(buf []byte)

	// Next returns the next match, or false at the end of the buffer.
	Next() (Match, bool)

	// Free releases the context's scratch state. A freed context reports no
	// matches.
	Free()
}

// Positioner is implemented by contexts that build a UTF-8 position table for
// their buffer during Reset. Callers reuse it instead of building another.
type Positioner interface {
	Positions() *utf8pos.Table
}

// Package dict holds compiled dictionary entries and loads them from the
// line-oriented dictionary format.
//
// A dictionary source has one entry per line:
//
//	keyword<TAB>extra
//
// The extra payload is optional and opaque to the engine. Lines whose keyword
// is empty are skipped. A keyword may be a plain literal or a bounded-gap
// pattern such as "A.{0,5}B"; splitting gap patterns into fragments is done
// by the distance matcher, not here.
package dict

import "strings"

// Prop is a set of property flags describing how an entry takes part in
// matching.
type Prop uint8

const (
	// Single marks an entry matched as a whole literal.
	Single Prop = 1 << iota

	// Head marks the fragment before the gap of a bounded-gap pattern.
	Head

	// Tail marks the fragment after the gap of a bounded-gap pattern.
	Tail

	// Digit marks fragments of a numeric-gap pattern (\d{m,n}).
	Digit
)

// Has reports whether all flags in q are set in p.
func (p Prop) Has(q Prop) bool {
	return p&q == q
}

// String returns a "|"-joined list of flag names.
func (p Prop) String() string {
	if p == 0 {
		return "none"
	}
	var parts []string
	for _, f := range []struct {
		flag Prop
		name string
	}{{Single, "single"}, {Head, "head"}, {Tail, "tail"}, {Digit, "digit"}} {
		if p&f.flag != 0 {
			parts = append(parts, f.name)
		}
	}
	return strings.Join(parts, "|")
}

// Entry is one compiled dictionary entry.
//
// Entries loaded from a source carry Keyword, Extra and Tag. Fragment entries
// created when a gap pattern is split additionally carry the bytes to insert
// into an automaton (Key), the gap parameters and a reference to the entry
// they were split from (Origin).
type Entry struct {
	// Keyword is the text as written in the dictionary.
	Keyword string

	// Extra is the opaque payload following the TAB.
	Extra string

	// Tag identifies the dictionary entry. Tags are dense: the i-th loaded
	// entry has tag i. Fragments share the tag of their origin.
	Tag int

	// Prop describes the role of the entry.
	Prop Prop

	// Key holds the bytes inserted into an automaton. Empty means Keyword.
	Key []byte

	// Gap is the maximum gap in characters (tail fragments).
	Gap int

	// Min is the minimum gap in characters (tail fragments).
	Min int

	// Width is the widest tail alternative in characters (head fragments).
	Width int

	// Origin is the entry a fragment was split from, or nil.
	Origin *Entry
}

// Owner returns the entry reported to callers when e matches: the origin for
// fragments, e itself otherwise.
func (e *Entry) Owner() *Entry {
	if e.Origin != nil {
		return e.Origin
	}
	return e
}

// Bytes returns the automaton key of e.
func (e *Entry) Bytes() []byte {
	if e.Key != nil {
		return e.Key
	}
	return []byte(e.Keyword)
}

// KeyLen returns len(e.Bytes()) without allocating.
func (e *Entry) KeyLen() int {
	if e.Key != nil {
		return len(e.Key)
	}
	return len(e.Keyword)
}

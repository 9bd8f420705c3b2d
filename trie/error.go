// Package trie builds Aho-Corasick automata over byte keywords.
//
// Construction happens in two phases with two distinct node types. A Builder
// grows a keyword trie in a segmented arena, then Build converts it once into
// an immutable Automaton: nodes are laid out in breadth-first order, every
// node's children become a contiguous key-sorted run, and failure links plus
// output links are resolved. The Builder is consumed by Build.
//
// An Automaton is read-only and safe for concurrent use by any number of
// scanners.
package trie

import "errors"

var (
	// ErrEmptyKeyword is returned when inserting an empty key.
	ErrEmptyKeyword = errors.New("trie: empty keyword")

	// ErrBuilt is returned by a Builder that has already been converted into
	// an Automaton.
	ErrBuilt = errors.New("trie: builder already built")
)

package matcher

import (
	"fmt"

	"github.com/coregx/actrie/dict"
	"github.com/coregx/actrie/prefilter"
	"github.com/coregx/actrie/trie"
)

// TrieConfig controls construction of a plain trie matcher.
type TrieConfig struct {
	// EnablePrefilter consults a whole-buffer prefilter on every Reset and
	// skips the automaton walk when no keyword can occur.
	EnablePrefilter bool
}

// Trie matches entries as literals with an Aho-Corasick automaton.
type Trie struct {
	auto *trie.Automaton
	pf   *prefilter.Tracker
}

// NewTrie builds a plain matcher over entries. Each entry is inserted under
// its automaton key (Entry.Bytes).
func NewTrie(entries []*dict.Entry, config TrieConfig) (*Trie, error) {
	b := trie.NewBuilder()
	var pb *prefilter.Builder
	if config.EnablePrefilter {
		pb = prefilter.NewBuilder()
	}

	for _, e := range entries {
		key := e.Bytes()
		if _, err := b.Insert(key, e); err != nil {
			return nil, fmt.Errorf("matcher: insert %q: %w", e.Keyword, err)
		}
		if pb != nil {
			pb.Add(key)
		}
	}

	auto, err := b.Build()
	if err != nil {
		return nil, err
	}

	m := &Trie{auto: auto}
	if pb != nil {
		pf, err := pb.Build()
		if err != nil {
			return nil, fmt.Errorf("matcher: prefilter: %w", err)
		}
		m.pf = prefilter.NewTracker(pf)
	}
	return m, nil
}

// Kind returns KindPlain.
func (m *Trie) Kind() Kind {
	return KindPlain
}

// Automaton returns the underlying automaton.
func (m *Trie) Automaton() *trie.Automaton {
	return m.auto
}

// Prefilter returns the prefilter tracker, or nil when prefiltering is off
// or the matcher is empty.
func (m *Trie) Prefilter() *prefilter.Tracker {
	return m.pf
}

// AllocContext returns a fresh context.
func (m *Trie) AllocContext() Context {
	return m.NewContext()
}

// NewContext is AllocContext with a concrete result type.
func (m *Trie) NewContext() *TrieContext {
	return &TrieContext{m: m}
}

// TrieContext walks the automaton one byte at a time.
//
// Matches ending at the same byte are reported longest first: the outputs of
// the current state, then those of each state on its output-link chain. Within
// one state, entries come out in insertion order.
type TrieContext struct {
	m     *Trie
	buf   []byte
	pos   int    // bytes consumed
	state uint32 // state after buf[:pos]
	out   uint32 // state whose outputs are being reported
	idx   int    // next output of out
	done  bool
	freed bool
}

// Reset binds the context to buf. Empty buffers are not passed to the
// prefilter.
func (c *TrieContext) Reset(buf []byte) {
	c.buf = buf
	c.pos = 0
	c.state = trie.Root
	c.out = trie.Root
	c.idx = 0
	c.done = c.freed || len(buf) == 0
	if !c.done && c.m.pf != nil && !c.m.pf.IsMatch(buf) {
		c.done = true
	}
}

// Next returns the next match.
func (c *TrieContext) Next() (Match, bool) {
	auto := c.m.auto
	for {
		if c.out != trie.Root {
			outs := auto.Outputs(c.out)
			if c.idx < len(outs) {
				e := outs[c.idx]
				c.idx++
				return Match{Entry: e, Start: c.pos - e.KeyLen(), End: c.pos}, true
			}
			c.out = auto.DictLink(c.out)
			c.idx = 0
			continue
		}
		if c.done || c.pos >= len(c.buf) {
			c.done = true
			return Match{}, false
		}
		c.state = auto.Step(c.state, c.buf[c.pos])
		c.pos++
		c.out = c.state
	}
}

// Free releases the buffer reference.
func (c *TrieContext) Free() {
	c.buf = nil
	c.freed = true
	c.done = true
	c.out = trie.Root
}

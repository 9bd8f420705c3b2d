// Package dist implements the distance (bounded-gap) matcher.
//
// A distance matcher reports literal keywords and bounded-gap patterns such
// as "A.{0,5}B" (at most five characters between A and B) or "A\d{0,5}B" (at
// most five ASCII digits between them). Each pattern is split into a head
// fragment and a tail fragment, and three plain trie matchers are built:
//
//   - head: head fragments plus every literal keyword
//   - tail: tail fragments of ".{m,n}" patterns
//   - digit: tail fragments of "\d{m,n}" patterns
//
// A scan drives the head context and, for each head match, correlates it with
// tail matches that start within the pattern's gap. Tail matches seen while
// serving one head are kept in a history cache, since later heads may pair
// with them too.
package dist

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/coregx/actrie/dict"
	"github.com/coregx/actrie/matcher"
	"github.com/coregx/actrie/pattern"
	"github.com/coregx/actrie/prefilter"
)

// Config controls construction of a distance matcher.
type Config struct {
	// MaxGap caps the declared maximum gap of every pattern, in characters.
	MaxGap int

	// EnablePrefilter enables the whole-buffer prefilter on the head matcher.
	EnablePrefilter bool

	// StrictPatterns makes New fail on a malformed gap pattern instead of
	// matching it as a literal.
	StrictPatterns bool

	// Logger receives debug output about pattern handling. Nil discards it.
	Logger *slog.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxGap:          pattern.DefaultMaxGap,
		EnablePrefilter: true,
	}
}

// Stats describes a compiled matcher.
type Stats struct {
	Entries    int // dictionary entries
	Literals   int // entries matched as whole keywords
	Gapped     int // entries split into head and tail
	Fallbacks  int // gap-like entries that failed to parse
	Duplicates int // entries dropped for repeating an earlier keyword
	HeadNodes  int
	TailNodes  int
	DigitNodes int
}

// Matcher is an immutable distance matcher.
type Matcher struct {
	dict   *dict.Dict
	head   *matcher.Trie
	tail   *matcher.Trie
	digit  *matcher.Trie
	maxGap int

	// maxDigitTail is the longest numeric-gap tail in bytes.
	maxDigitTail int

	stats Stats
}

// New compiles d into a distance matcher.
func New(d *dict.Dict, config Config) (*Matcher, error) {
	log := config.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if config.MaxGap < 0 {
		return nil, fmt.Errorf("dist: negative MaxGap %d", config.MaxGap)
	}

	if d == nil {
		d = dict.New()
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	m := &Matcher{dict: d, maxGap: config.MaxGap}
	m.stats.Entries = d.Len()

	var heads, tails, digits []*dict.Entry
	seen := make(map[string]int, d.Len())
	for _, e := range d.Entries {
		if first, dup := seen[e.Keyword]; dup {
			log.Debug("duplicate keyword dropped", "keyword", e.Keyword, "tag", e.Tag, "first", first)
			m.stats.Duplicates++
			continue
		}
		seen[e.Keyword] = e.Tag

		g, err := pattern.Parse(e.Keyword, config.MaxGap)
		if err != nil {
			var serr *pattern.SyntaxError
			if errors.As(err, &serr) {
				if config.StrictPatterns {
					return nil, fmt.Errorf("dist: entry %d: %w", e.Tag, err)
				}
				log.Debug("gap pattern falls back to literal", "keyword", e.Keyword, "err", err)
				m.stats.Fallbacks++
			}
			heads = append(heads, &dict.Entry{
				Keyword: e.Keyword,
				Tag:     e.Tag,
				Prop:    dict.Single,
				Origin:  e,
			})
			m.stats.Literals++
			continue
		}

		m.stats.Gapped++
		base := dict.Prop(0)
		if g.Digit {
			base |= dict.Digit
		}
		for _, h := range g.Heads {
			heads = append(heads, &dict.Entry{
				Keyword: string(h),
				Key:     h,
				Tag:     e.Tag,
				Prop:    base | dict.Head,
				Gap:     g.Max,
				Min:     g.Min,
				Width:   g.Width,
				Origin:  e,
			})
		}
		for _, t := range g.Tails {
			frag := &dict.Entry{
				Keyword: string(t),
				Key:     t,
				Tag:     e.Tag,
				Prop:    base | dict.Tail,
				Gap:     g.Max,
				Min:     g.Min,
				Origin:  e,
			}
			if g.Digit {
				digits = append(digits, frag)
				m.maxDigitTail = max(m.maxDigitTail, len(t))
			} else {
				tails = append(tails, frag)
			}
		}
	}

	var err error
	if m.head, err = matcher.NewTrie(heads, matcher.TrieConfig{EnablePrefilter: config.EnablePrefilter}); err != nil {
		return nil, fmt.Errorf("dist: head: %w", err)
	}
	if m.tail, err = matcher.NewTrie(tails, matcher.TrieConfig{}); err != nil {
		return nil, fmt.Errorf("dist: tail: %w", err)
	}
	if m.digit, err = matcher.NewTrie(digits, matcher.TrieConfig{}); err != nil {
		return nil, fmt.Errorf("dist: digit: %w", err)
	}

	m.stats.HeadNodes = m.head.Automaton().Len()
	m.stats.TailNodes = m.tail.Automaton().Len()
	m.stats.DigitNodes = m.digit.Automaton().Len()

	log.Debug("distance matcher compiled",
		"entries", m.stats.Entries,
		"gapped", m.stats.Gapped,
		"fallbacks", m.stats.Fallbacks,
		"duplicates", m.stats.Duplicates,
		"head_nodes", m.stats.HeadNodes,
		"tail_nodes", m.stats.TailNodes,
		"digit_nodes", m.stats.DigitNodes,
	)
	return m, nil
}

// Kind returns matcher.KindDistance.
func (m *Matcher) Kind() matcher.Kind {
	return matcher.KindDistance
}

// Stats returns construction statistics.
func (m *Matcher) Stats() Stats {
	return m.stats
}

// Prefilter returns the head matcher's prefilter tracker, or nil when
// prefiltering is off or the dictionary is empty.
func (m *Matcher) Prefilter() *prefilter.Tracker {
	return m.head.Prefilter()
}

// Dict returns the dictionary the matcher was built from.
func (m *Matcher) Dict() *dict.Dict {
	return m.dict
}

// AllocContext returns a fresh scan context.
func (m *Matcher) AllocContext() matcher.Context {
	return m.NewContext()
}

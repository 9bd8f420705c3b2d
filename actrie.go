// Package actrie is a multi-pattern string matcher for UTF-8 text.
//
// A dictionary holds one entry per line, "keyword<TAB>extra". A keyword is
// either a literal or a bounded-gap pattern:
//
//	spam            literal
//	buy.{0,5}now    "buy", at most 5 characters, then "now"
//	id\d{0,8}x      "id", at most 8 ASCII digits, then "x"
//	(cheap|free).{0,3}(pills|meds)
//
// All keywords are matched in a single pass over the input and every match
// is reported, overlapping ones included, with character (not byte) offsets.
//
// Basic usage:
//
//	m, err := actrie.Compile("spam\tjunk\nbuy.{0,5}now\tsales", actrie.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, match := range m.FindAllString("please buy it now") {
//	    fmt.Println(match.Keyword, match.Start, match.End, match.Extra)
//	}
//
// A Matcher is immutable and safe for concurrent use. A Context is a scan
// cursor owned by one goroutine; allocate one per concurrent scan:
//
//	ctx, _ := m.AllocContext()
//	defer ctx.Free()
//	for _, buf := range buffers {
//	    _ = ctx.Reset(buf)
//	    for match := range ctx.All() {
//	        ...
//	    }
//	}
package actrie

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/coregx/actrie/dict"
	"github.com/coregx/actrie/dist"
	"github.com/coregx/actrie/matcher"
	"github.com/coregx/actrie/prefilter"
)

// Matcher is a compiled dictionary.
//
// A Matcher is safe to use concurrently from multiple goroutines.
type Matcher struct {
	engine matcher.Matcher
	pf     *prefilter.Tracker // nil without a prefilter
	dict   *dict.Dict
	config Config
	stats  Stats
	closed atomic.Bool

	// pool recycles contexts for the one-shot helpers (FindAll, Search).
	pool sync.Pool
}

// Stats describes a compiled matcher.
type Stats struct {
	Kind           matcher.Kind
	Entries        int // dictionary entries
	Gapped         int // entries compiled as gap patterns
	Fallbacks      int // gap-like entries compiled as literals
	Duplicates     int // entries dropped for repeating an earlier keyword
	Nodes          int // automaton states over all sub-matchers
	PrefilterBytes int // estimated prefilter memory, 0 without one
}

// PrefilterStats reports how the whole-buffer prefilter has fared so far.
type PrefilterStats struct {
	Enabled    bool    // a prefilter was built
	Active     bool    // still consulted; a rarely rejecting prefilter retires
	Checks     uint64  // buffers checked
	Rejects    uint64  // buffers skipped without a scan
	RejectRate float64 // Rejects / Checks
}

// Compile builds a matcher from an in-memory dictionary.
func Compile(src string, config Config) (*Matcher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	d, err := dict.Parse(src, config.dictOptions())
	if err != nil {
		return nil, err
	}
	return CompileDict(d, config)
}

// MustCompile is like Compile with the default configuration but panics on
// error. It simplifies initialization of global matchers.
func MustCompile(src string) *Matcher {
	m, err := Compile(src, DefaultConfig())
	if err != nil {
		panic("actrie: Compile: " + err.Error())
	}
	return m
}

// CompileFile builds a matcher from a dictionary file. Files ending in .zst,
// .zstd, .gz or .lz4 are decompressed on the fly.
func CompileFile(path string, config Config) (*Matcher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	d, err := dict.LoadFile(path, config.dictOptions())
	if err != nil {
		return nil, err
	}
	return CompileDict(d, config)
}

// CompileReader builds a matcher from a dictionary read from r.
func CompileReader(r io.Reader, config Config) (*Matcher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	d, err := dict.Load(r, config.dictOptions())
	if err != nil {
		return nil, err
	}
	return CompileDict(d, config)
}

// CompileStrings builds a matcher from dictionary lines, one entry each.
func CompileStrings(lines []string, config Config) (*Matcher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	d, err := dict.ParseLines(lines, config.dictOptions())
	if err != nil {
		return nil, err
	}
	return CompileDict(d, config)
}

// CompileDict builds a matcher over d. The matcher keeps d; callers must not
// modify it afterwards.
func CompileDict(d *dict.Dict, config Config) (*Matcher, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if d == nil {
		d = dict.New()
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("actrie: %w", err)
	}

	log := config.logger()
	defer func() {
		// Arena index overflow is fatal; leave a trace before unwinding.
		if r := recover(); r != nil {
			log.Error("matcher construction aborted", "entries", d.Len(), "panic", r)
			panic(r)
		}
	}()

	m := &Matcher{dict: d, config: config}
	m.stats.Kind = config.Kind
	m.stats.Entries = d.Len()

	switch config.Kind {
	case matcher.KindPlain:
		t, err := matcher.NewTrie(d.Entries, matcher.TrieConfig{EnablePrefilter: config.EnablePrefilter})
		if err != nil {
			return nil, fmt.Errorf("actrie: %w", err)
		}
		m.engine = t
		m.pf = t.Prefilter()
		m.stats.Nodes = t.Automaton().Len()
		m.stats.Duplicates = d.Len() - t.Automaton().Keys()
	default:
		dm, err := dist.New(d, config.distConfig())
		if err != nil {
			return nil, fmt.Errorf("actrie: %w", err)
		}
		m.engine = dm
		m.pf = dm.Prefilter()
		s := dm.Stats()
		m.stats.Gapped = s.Gapped
		m.stats.Fallbacks = s.Fallbacks
		m.stats.Duplicates = s.Duplicates
		m.stats.Nodes = s.HeadNodes + s.TailNodes + s.DigitNodes
	}

	if m.pf != nil {
		m.stats.PrefilterBytes = m.pf.HeapBytes()
	}

	log.Debug("matcher compiled",
		"kind", config.Kind,
		"entries", m.stats.Entries,
		"gapped", m.stats.Gapped,
		"nodes", m.stats.Nodes,
	)
	return m, nil
}

// Stats returns construction statistics.
func (m *Matcher) Stats() Stats {
	if m == nil {
		return Stats{}
	}
	return m.stats
}

// PrefilterStats returns the prefilter counters accumulated by all scans so
// far.
func (m *Matcher) PrefilterStats() PrefilterStats {
	if m == nil || m.pf == nil {
		return PrefilterStats{}
	}
	checks, rejects, rate, active := m.pf.Stats()
	return PrefilterStats{
		Enabled:    true,
		Active:     active,
		Checks:     checks,
		Rejects:    rejects,
		RejectRate: rate,
	}
}

// Config returns the configuration the matcher was built with.
func (m *Matcher) Config() Config {
	if m == nil {
		return Config{}
	}
	return m.config
}

// Dict returns the dictionary the matcher was built from.
func (m *Matcher) Dict() *dict.Dict {
	if m == nil {
		return nil
	}
	return m.dict
}

// AllocContext returns a new scan context. Contexts must be freed before the
// matcher is closed.
func (m *Matcher) AllocContext() (*Context, error) {
	if m == nil {
		return nil, ErrNilMatcher
	}
	if m.closed.Load() {
		return nil, ErrClosed
	}
	return newContext(m), nil
}

// Close releases the matcher. AllocContext fails afterwards; contexts already
// allocated keep working until freed. Close is idempotent.
func (m *Matcher) Close() error {
	if m == nil {
		return ErrNilMatcher
	}
	m.closed.Store(true)
	return nil
}

// FindAll returns every match in buf in the order a Context reports them.
// It returns nil for a nil or closed matcher.
func (m *Matcher) FindAll(buf []byte) []Match {
	c := m.acquire()
	if c == nil {
		return nil
	}
	defer m.release(c)

	c.reset(buf)
	var out []Match
	for {
		match, ok := c.Next()
		if !ok {
			return out
		}
		out = append(out, match)
	}
}

// FindAllString is FindAll on a string.
func (m *Matcher) FindAllString(s string) []Match {
	return m.FindAll([]byte(s))
}

// Search returns the first match a Context would report for buf.
func (m *Matcher) Search(buf []byte) (Match, bool) {
	c := m.acquire()
	if c == nil {
		return Match{}, false
	}
	defer m.release(c)

	c.reset(buf)
	return c.Next()
}

// acquire takes a context from the pool.
func (m *Matcher) acquire() *Context {
	if m == nil || m.closed.Load() {
		return nil
	}
	if c, ok := m.pool.Get().(*Context); ok {
		return c
	}
	return newContext(m)
}

// release drops the buffer reference and returns c to the pool.
func (m *Matcher) release(c *Context) {
	c.reset(nil)
	m.pool.Put(c)
}

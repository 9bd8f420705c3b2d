package actrie

import (
	"iter"

	"github.com/coregx/actrie/matcher"
	"github.com/coregx/actrie/utf8pos"
)

// Match is one reported occurrence.
type Match struct {
	// Keyword is the dictionary keyword. For a gap pattern it is the full
	// pattern text.
	Keyword string

	// Start and End delimit the match in characters, End exclusive.
	Start, End int

	// Extra is the payload after the TAB on the dictionary line.
	Extra string

	// Tag is the entry's position in the dictionary.
	Tag int
}

// Context is a scan cursor over one buffer at a time.
//
// A Context is not safe for concurrent use.
type Context struct {
	m     *Matcher
	inner matcher.Context

	// pos points into inner when it keeps its own position table, and to own
	// otherwise.
	pos *utf8pos.Table
	own utf8pos.Table

	freed bool
}

func newContext(m *Matcher) *Context {
	return &Context{m: m, inner: m.engine.AllocContext()}
}

// Reset binds the context to buf and rewinds it. A nil buf scans as empty.
func (c *Context) Reset(buf []byte) error {
	if c == nil {
		return ErrNilContext
	}
	if c.freed {
		return ErrContextFreed
	}
	c.reset(buf)
	return nil
}

func (c *Context) reset(buf []byte) {
	c.inner.Reset(buf)
	if p, ok := c.inner.(matcher.Positioner); ok {
		c.pos = p.Positions()
		return
	}
	c.own.Build(buf)
	c.pos = &c.own
}

// Next returns the next match, or false once the buffer is exhausted. It
// keeps returning false until the next Reset.
func (c *Context) Next() (Match, bool) {
	if c == nil || c.freed || c.pos == nil {
		return Match{}, false
	}
	m, ok := c.inner.Next()
	if !ok {
		return Match{}, false
	}
	e := m.Entry.Owner()
	return Match{
		Keyword: e.Keyword,
		Start:   c.pos.Char(m.Start),
		End:     c.pos.Char(m.End),
		Extra:   e.Extra,
		Tag:     e.Tag,
	}, true
}

// All returns an iterator over the remaining matches.
func (c *Context) All() iter.Seq[Match] {
	return func(yield func(Match) bool) {
		for {
			m, ok := c.Next()
			if !ok || !yield(m) {
				return
			}
		}
	}
}

// Free releases the context. Reset fails afterwards. Free is idempotent.
func (c *Context) Free() {
	if c == nil || c.freed {
		return
	}
	c.freed = true
	c.inner.Free()
	c.pos = nil
	c.own = utf8pos.Table{}
}

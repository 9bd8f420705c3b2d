package dist

import (
	"github.com/coregx/actrie/dict"
	"github.com/coregx/actrie/internal/history"
	"github.com/coregx/actrie/internal/swar"
	"github.com/coregx/actrie/matcher"
	"github.com/coregx/actrie/utf8pos"
)

// state is the resume point of Context.Next.
type state uint8

const (
	// stateNewRound pulls the next head match.
	stateNewRound state = iota
	// stateCheckPrefix scans the digit window after a numeric-gap head.
	stateCheckPrefix
	// stateCheckHistory walks cached tails sharing the head's tag.
	stateCheckHistory
	// stateCheckTail pulls fresh tails from the tail context.
	stateCheckTail
)

var stateNames = [...]string{
	stateNewRound:     "new_round",
	stateCheckPrefix:  "check_prefix",
	stateCheckHistory: "check_history",
	stateCheckTail:    "check_tail",
}

func (s state) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Context is a distance matcher scan context.
//
// Next is a resumable state machine: every return leaves enough state behind
// (the current head, the history cursor, the sub-context positions) to pick
// up exactly where it stopped.
type Context struct {
	m   *Matcher
	buf []byte
	pos utf8pos.Table

	head  *matcher.TrieContext
	tail  *matcher.TrieContext
	digit *matcher.TrieContext
	cache *history.Cache

	state state
	hm    matcher.Match  // current head match
	cur   history.Cursor // next cached tail to inspect
	base  int            // offset of the digit window in buf
	limit int            // latest tail start accepted in the digit window
	freed bool
}

// NewContext is AllocContext with a concrete result type.
func (m *Matcher) NewContext() *Context {
	return &Context{
		m:     m,
		head:  m.head.NewContext(),
		tail:  m.tail.NewContext(),
		digit: m.digit.NewContext(),
		cache: history.New(m.dict.Len()),
	}
}

// Reset binds the context to buf and rewinds every sub-context.
func (c *Context) Reset(buf []byte) {
	c.buf = buf
	c.pos.Build(buf)
	c.head.Reset(buf)
	c.tail.Reset(buf)
	c.digit.Reset(nil)
	c.cache.Reset()
	c.state = stateNewRound
	c.hm = matcher.Match{}
	c.cur = 0
}

// Positions returns the UTF-8 position table of the current buffer.
func (c *Context) Positions() *utf8pos.Table {
	return &c.pos
}

// Next returns the next match. Match.Entry is the dictionary entry of the
// literal or gap pattern; offsets are bytes.
func (c *Context) Next() (matcher.Match, bool) {
	if c.freed {
		return matcher.Match{}, false
	}
	for {
		switch c.state {
		case stateNewRound:
			hm, ok := c.head.Next()
			if !ok {
				return matcher.Match{}, false
			}
			c.hm = hm
			e := hm.Entry
			if e.Prop.Has(dict.Single) {
				return matcher.Match{Entry: e.Owner(), Start: hm.Start, End: hm.End}, true
			}
			if e.Prop.Has(dict.Digit) {
				c.openDigitWindow()
				c.state = stateCheckPrefix
				continue
			}
			c.cache.EvictThrough(hm.End)
			c.cur = c.cache.Lookup(e.Tag)
			c.state = stateCheckHistory

		case stateCheckPrefix:
			if m, ok := c.checkPrefix(); ok {
				return m, true
			}
			c.state = stateNewRound

		case stateCheckHistory:
			m, ok, exhausted := c.checkHistory()
			if ok {
				return m, true
			}
			if exhausted {
				c.state = stateCheckTail
			} else {
				c.state = stateNewRound
			}

		case stateCheckTail:
			if m, ok := c.checkTail(); ok {
				return m, true
			}
			c.state = stateNewRound
		}
	}
}

// openDigitWindow binds the digit context to the bytes a numeric-gap tail
// can occupy: it must start after at most min(Gap, digit run) digits.
func (c *Context) openDigitWindow() {
	e := c.hm.Entry
	c.base = c.hm.End
	run := swar.DigitRun(c.buf[c.base:], e.Gap)
	c.limit = run
	end := min(len(c.buf), c.base+run+c.m.maxDigitTail)
	c.digit.Reset(c.buf[c.base:end])
}

// checkPrefix returns the next digit-window tail paired with the current head.
func (c *Context) checkPrefix() (matcher.Match, bool) {
	e := c.hm.Entry
	for {
		tm, ok := c.digit.Next()
		if !ok {
			return matcher.Match{}, false
		}
		if tm.Entry.Tag != e.Tag || tm.Start < e.Min || tm.Start > c.limit {
			continue
		}
		return c.output(c.base + tm.End), true
	}
}

// checkHistory walks the cached tails of the head's tag. It reports
// exhausted when the chain ran out, and not exhausted when a cached tail
// proved that no later tail can be close enough.
func (c *Context) checkHistory() (m matcher.Match, ok, exhausted bool) {
	e := c.hm.Entry
	for c.cur.Valid() {
		sp := c.cache.At(c.cur)
		c.cur = c.cache.Next(c.cur)
		switch c.judge(e, sp.Start, sp.End) {
		case verdictMatch:
			return c.output(sp.End), true, false
		case verdictStop:
			return matcher.Match{}, false, false
		}
	}
	return matcher.Match{}, false, true
}

// checkTail pulls fresh tails, recording each in the history cache, until
// one pairs with the current head or none can.
func (c *Context) checkTail() (matcher.Match, bool) {
	e := c.hm.Entry
	headEnd := c.hm.End
	for {
		tm, ok := c.tail.Next()
		if !ok {
			return matcher.Match{}, false
		}
		if tm.Start < headEnd {
			continue
		}
		c.cache.Insert(tm.Entry.Tag, tm.Start, tm.End)

		if c.pos.Distance(headEnd, tm.End) > c.m.maxGap+e.Width {
			return matcher.Match{}, false
		}
		if tm.Entry.Tag != e.Tag {
			continue
		}
		switch c.judge(e, tm.Start, tm.End) {
		case verdictMatch:
			return c.output(tm.End), true
		case verdictStop:
			return matcher.Match{}, false
		}
	}
}

type verdict uint8

const (
	verdictSkip verdict = iota
	verdictMatch
	verdictStop
)

// judge decides whether the tail at [start, end) pairs with head entry e.
//
// A tail too far away whose own width reaches the widest tail alternative
// ends the search: tails arrive in end order, so every later tail starts at
// least as far from the head.
func (c *Context) judge(e *dict.Entry, start, end int) verdict {
	d := c.pos.Distance(c.hm.End, start)
	switch {
	case d < 0:
		return verdictSkip
	case d > e.Gap:
		if c.pos.Distance(start, end) >= e.Width {
			return verdictStop
		}
		return verdictSkip
	case d < e.Min:
		return verdictSkip
	}
	return verdictMatch
}

// output builds the match for the current head ending at end.
func (c *Context) output(end int) matcher.Match {
	return matcher.Match{Entry: c.hm.Entry.Owner(), Start: c.hm.Start, End: end}
}

// Free releases all sub-contexts.
func (c *Context) Free() {
	c.freed = true
	c.buf = nil
	c.head.Free()
	c.tail.Free()
	c.digit.Free()
	c.cache.Reset()
	c.state = stateNewRound
}

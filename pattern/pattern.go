// Package pattern recognizes bounded-gap keywords.
//
// A bounded-gap keyword has the form
//
//	head gap tail
//
// where gap is either ".{m,n}" (any characters) or "\d{m,n}" (ASCII digits).
// Head and tail are literal fragments. A fragment may list alternatives,
// either at the top level ("a|b") or in groups ("(a|b)c"); every combination
// becomes one literal. Escapes \\ \t \r \n \( \) \{ \. \| \ooo and \xhh are
// decoded inside fragments, and an unescaped '.' that is not followed by a
// repetition is taken literally.
//
// When a keyword contains several gaps, the last one splits it.
package pattern

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// DefaultMaxGap is the gap cap used when no other is configured.
const DefaultMaxGap = 15

// maxAlternatives bounds the expansion of a single fragment.
const maxAlternatives = 1024

// ErrNoGap is returned by Parse for keywords without a gap. Such keywords are
// matched as plain literals.
var ErrNoGap = errors.New("pattern: no gap")

// SyntaxError describes a keyword that looks like a gap pattern but cannot be
// split. Callers fall back to matching the keyword literally.
type SyntaxError struct {
	Pattern string
	Offset  int
	Msg     string
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("pattern %q: offset %d: %s", e.Pattern, e.Offset, e.Msg)
}

// Gapped is a parsed bounded-gap keyword.
type Gapped struct {
	// Heads and Tails hold the expanded fragment alternatives, deduplicated,
	// in order of first appearance.
	Heads [][]byte
	Tails [][]byte

	// Min and Max bound the gap in characters. Max is already clamped to the
	// configured cap and Min to Max.
	Min, Max int

	// Digit reports a \d gap.
	Digit bool

	// Width is the widest tail alternative in characters.
	Width int
}

// Parse splits keyword at its last gap. maxGap caps the declared maximum.
//
// It returns ErrNoGap when the keyword has no gap, and a *SyntaxError when a
// gap is present but the keyword is otherwise malformed.
func Parse(keyword string, maxGap int) (*Gapped, error) {
	toks := NewLexer(keyword).Tokens()
	last := toks[len(toks)-1]

	gap := -1
	for i := 0; i+1 < len(toks); i++ {
		if (toks[i].Kind == TokenAny || toks[i].Kind == TokenNum) && toks[i+1].Kind == TokenRept {
			gap = i
		}
	}
	if gap < 0 {
		if last.Kind == TokenErr {
			return nil, &SyntaxError{Pattern: keyword, Offset: last.Offset, Msg: last.Msg}
		}
		return nil, ErrNoGap
	}
	if last.Kind == TokenErr {
		return nil, &SyntaxError{Pattern: keyword, Offset: last.Offset, Msg: last.Msg}
	}

	heads, err := expand(toks[:gap])
	if err != nil {
		return nil, syntaxError(keyword, "head", err)
	}
	tails, err := expand(toks[gap+2 : len(toks)-1])
	if err != nil {
		return nil, syntaxError(keyword, "tail", err)
	}

	rept := toks[gap+1]
	g := &Gapped{
		Heads: heads,
		Tails: tails,
		Min:   rept.Min,
		Max:   min(rept.Max, max(maxGap, 0)),
		Digit: toks[gap].Kind == TokenNum,
	}
	g.Min = min(g.Min, g.Max)
	for _, t := range tails {
		g.Width = max(g.Width, utf8.RuneCount(t))
	}
	return g, nil
}

type fragmentError struct {
	offset int
	msg    string
}

func (e *fragmentError) Error() string { return e.msg }

func syntaxError(keyword, part string, err error) error {
	var fe *fragmentError
	if errors.As(err, &fe) {
		return &SyntaxError{Pattern: keyword, Offset: fe.offset, Msg: part + ": " + fe.msg}
	}
	return &SyntaxError{Pattern: keyword, Msg: part + ": " + err.Error()}
}

// expand turns the tokens of one fragment into its literal alternatives.
func expand(toks []Token) ([][]byte, error) {
	p := &fragmentParser{toks: toks}
	alts, err := p.alternation()
	if err != nil {
		return nil, err
	}
	if p.pos < len(toks) {
		return nil, &fragmentError{offset: toks[p.pos].Offset, msg: "unbalanced ')'"}
	}

	seen := make(map[string]struct{}, len(alts))
	out := alts[:0]
	for _, a := range alts {
		if len(a) == 0 {
			return nil, &fragmentError{offset: offsetOf(toks), msg: "empty fragment"}
		}
		if _, dup := seen[string(a)]; dup {
			continue
		}
		seen[string(a)] = struct{}{}
		out = append(out, a)
	}
	return out, nil
}

func offsetOf(toks []Token) int {
	if len(toks) == 0 {
		return 0
	}
	return toks[0].Offset
}

// fragmentParser expands
//
//	alternation := sequence ('|' sequence)*
//	sequence    := (Text | Any | '(' alternation ')')*
type fragmentParser struct {
	toks []Token
	pos  int
}

func (p *fragmentParser) alternation() ([][]byte, error) {
	alts, err := p.sequence()
	if err != nil {
		return nil, err
	}
	for p.pos < len(p.toks) && p.toks[p.pos].Kind == TokenAlt {
		p.pos++
		more, err := p.sequence()
		if err != nil {
			return nil, err
		}
		alts = append(alts, more...)
		if len(alts) > maxAlternatives {
			return nil, &fragmentError{offset: p.toks[p.pos-1].Offset, msg: "too many alternatives"}
		}
	}
	return alts, nil
}

func (p *fragmentParser) sequence() ([][]byte, error) {
	acc := [][]byte{{}}
	for p.pos < len(p.toks) {
		tok := p.toks[p.pos]
		var part [][]byte
		switch tok.Kind {
		case TokenText:
			part = [][]byte{tok.Text}
			p.pos++
		case TokenAny:
			part = [][]byte{{'.'}}
			p.pos++
		case TokenSubs:
			p.pos++
			inner, err := p.alternation()
			if err != nil {
				return nil, err
			}
			if p.pos >= len(p.toks) || p.toks[p.pos].Kind != TokenSube {
				return nil, &fragmentError{offset: tok.Offset, msg: "unclosed '('"}
			}
			p.pos++
			part = inner
		case TokenAlt, TokenSube:
			return acc, nil
		default:
			return nil, &fragmentError{offset: tok.Offset, msg: fmt.Sprintf("unexpected %v", tok.Kind)}
		}

		if len(acc)*len(part) > maxAlternatives {
			return nil, &fragmentError{offset: tok.Offset, msg: "too many alternatives"}
		}
		next := make([][]byte, 0, len(acc)*len(part))
		for _, a := range acc {
			for _, b := range part {
				joined := make([]byte, 0, len(a)+len(b))
				joined = append(joined, a...)
				next = append(next, append(joined, b...))
			}
		}
		acc = next
	}
	return acc, nil
}

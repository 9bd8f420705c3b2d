package pattern

import "fmt"

// TokenKind identifies a lexical token of the keyword pattern language.
type TokenKind uint8

const (
	// TokenEOF marks the end of input.
	TokenEOF TokenKind = iota
	// TokenText is a run of literal bytes with escapes decoded.
	TokenText
	// TokenAny is an unescaped '.'.
	TokenAny
	// TokenNum is the \d digit class.
	TokenNum
	// TokenRept is a repetition bound {min,max}.
	TokenRept
	// TokenSubs opens a group '('.
	TokenSubs
	// TokenSube closes a group ')'.
	TokenSube
	// TokenAlt separates alternatives '|'.
	TokenAlt
	// TokenAmbi opens an ambiguity group "(?&!".
	TokenAmbi
	// TokenAnto opens an antonym group "(?<!".
	TokenAnto
	// TokenErr reports a lexical error.
	TokenErr
)

var tokenNames = [...]string{
	TokenEOF:  "EOF",
	TokenText: "Text",
	TokenAny:  "Any",
	TokenNum:  "Num",
	TokenRept: "Rept",
	TokenSubs: "Subs",
	TokenSube: "Sube",
	TokenAlt:  "Alt",
	TokenAmbi: "Ambi",
	TokenAnto: "Anto",
	TokenErr:  "Err",
}

// String returns the token kind name.
func (k TokenKind) String() string {
	if int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", k)
}

// Token is one lexical token.
type Token struct {
	Kind   TokenKind
	Offset int    // byte offset of the token in the source
	Text   []byte // TokenText: decoded bytes
	Min    int    // TokenRept
	Max    int    // TokenRept
	Msg    string // TokenErr
}

// Lexer splits a keyword pattern into tokens.
//
// All lexer state lives in the Lexer value, so independent lexers may run
// concurrently.
type Lexer struct {
	src []byte
	pos int
}

// NewLexer returns a lexer over src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: []byte(src)}
}

// Next returns the next token. A TokenErr consumes the rest of the input,
// so every call after TokenEOF or TokenErr returns TokenEOF.
func (l *Lexer) Next() Token {
	if l.pos >= len(l.src) {
		return Token{Kind: TokenEOF, Offset: l.pos}
	}

	start := l.pos
	var text []byte
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch c {
		case '\\':
			if l.pos+1 < len(l.src) && l.src[l.pos+1] == 'd' {
				if text != nil {
					return Token{Kind: TokenText, Offset: start, Text: text}
				}
				l.pos += 2
				return Token{Kind: TokenNum, Offset: start}
			}
			b, err := l.escape()
			if err != nil {
				return l.fail(err.Error())
			}
			text = append(text, b)
		case '(', ')', '{', '.', '|':
			if text != nil {
				return Token{Kind: TokenText, Offset: start, Text: text}
			}
			return l.meta()
		default:
			text = append(text, c)
			l.pos++
		}
	}
	return Token{Kind: TokenText, Offset: start, Text: text}
}

// Tokens lexes the whole input. The last token is TokenEOF or TokenErr.
func (l *Lexer) Tokens() []Token {
	var toks []Token
	for {
		tok := l.Next()
		toks = append(toks, tok)
		if tok.Kind == TokenEOF || tok.Kind == TokenErr {
			return toks
		}
	}
}

func (l *Lexer) fail(msg string) Token {
	tok := Token{Kind: TokenErr, Offset: l.pos, Msg: msg}
	l.pos = len(l.src)
	return tok
}

// meta consumes one metacharacter at l.pos.
func (l *Lexer) meta() Token {
	start := l.pos
	c := l.src[l.pos]
	l.pos++
	switch c {
	case '(':
		switch {
		case l.expect("?&!"):
			return Token{Kind: TokenAmbi, Offset: start}
		case l.expect("?<!"):
			return Token{Kind: TokenAnto, Offset: start}
		}
		return Token{Kind: TokenSubs, Offset: start}
	case ')':
		return Token{Kind: TokenSube, Offset: start}
	case '.':
		return Token{Kind: TokenAny, Offset: start}
	case '|':
		return Token{Kind: TokenAlt, Offset: start}
	default: // '{'
		return l.rept(start)
	}
}

// rept parses "{min,max}" after the opening brace. Spaces are allowed around
// the numbers.
func (l *Lexer) rept(start int) Token {
	l.skipSpace()
	lo, ok := l.integer()
	if !ok {
		return l.fail("repetition: expected minimum")
	}
	l.skipSpace()
	if !l.expect(",") {
		return l.fail("repetition: expected ','")
	}
	l.skipSpace()
	hi, ok := l.integer()
	if !ok {
		return l.fail("repetition: expected maximum")
	}
	if hi < lo {
		return l.fail("repetition: maximum below minimum")
	}
	l.skipSpace()
	if !l.expect("}") {
		return l.fail("repetition: expected '}'")
	}
	return Token{Kind: TokenRept, Offset: start, Min: lo, Max: hi}
}

// escape decodes the escape sequence at l.pos (which holds the backslash).
func (l *Lexer) escape() (byte, error) {
	l.pos++
	if l.pos >= len(l.src) {
		return 0, fmt.Errorf("trailing backslash")
	}
	c := l.src[l.pos]
	l.pos++
	switch c {
	case '\\':
		return '\\', nil
	case 't':
		return '\t', nil
	case 'r':
		return '\r', nil
	case 'n':
		return '\n', nil
	case '(', ')', '{', '.', '|':
		return c, nil
	case '0', '1', '2', '3', '4', '5', '6', '7':
		n := int(c - '0')
		for range 2 {
			if l.pos >= len(l.src) || l.src[l.pos] < '0' || l.src[l.pos] > '7' {
				return 0, fmt.Errorf("octal escape needs three digits")
			}
			n = n*8 + int(l.src[l.pos]-'0')
			l.pos++
		}
		if n > 0xFF {
			return 0, fmt.Errorf("octal escape out of range")
		}
		return byte(n), nil
	case 'x':
		n := 0
		for range 2 {
			if l.pos >= len(l.src) {
				return 0, fmt.Errorf("hex escape needs two digits")
			}
			v, ok := hexValue(l.src[l.pos])
			if !ok {
				return 0, fmt.Errorf("hex escape needs two digits")
			}
			n = n*16 + v
			l.pos++
		}
		return byte(n), nil
	default:
		return 0, fmt.Errorf("unknown escape \\%c", c)
	}
}

func hexValue(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	}
	return 0, false
}

func (l *Lexer) expect(s string) bool {
	if len(l.src)-l.pos < len(s) || string(l.src[l.pos:l.pos+len(s)]) != s {
		return false
	}
	l.pos += len(s)
	return true
}

func (l *Lexer) skipSpace() {
	for l.pos < len(l.src) && l.src[l.pos] == ' ' {
		l.pos++
	}
}

// integer consumes a non-negative decimal integer.
func (l *Lexer) integer() (int, bool) {
	start := l.pos
	n := 0
	for l.pos < len(l.src) && l.src[l.pos] >= '0' && l.src[l.pos] <= '9' {
		if n > 1<<20 {
			return 0, false
		}
		n = n*10 + int(l.src[l.pos]-'0')
		l.pos++
	}
	return n, l.pos > start
}

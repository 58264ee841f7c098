package parser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// tokenKind identifies a lexical token.
type tokenKind int

const (
	tokEOF  tokenKind = iota
	tokVar                   // uppercase-initial identifier
	tokName                  // lowercase-initial identifier or quoted name
	tokAny                   // _
	tokLParen
	tokRParen
	tokComma
	tokDot
	tokImpl // <- <= ← :-
	tokNeg  // ~ ¬ !
	tokEq   // =
	tokNeq  // <> ~= != ≠
	tokAsk  // ? ?-
)

var tokenNames = map[tokenKind]string{
	tokEOF:    "end of input",
	tokVar:    "variable",
	tokName:   "name",
	tokAny:    "'_'",
	tokLParen: "'('",
	tokRParen: "')'",
	tokComma:  "','",
	tokDot:    "'.'",
	tokImpl:   "implication",
	tokNeg:    "negation",
	tokEq:     "'='",
	tokNeq:    "disequality",
	tokAsk:    "'?'",
}

func (k tokenKind) String() string {
	return tokenNames[k]
}

// Pos is a 1-based source position.
type Pos struct {
	Line   int
	Column int
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

type token struct {
	kind tokenKind
	text string // identifier text, unquoted for quoted names
	pos  Pos
}

// operators are matched longest first.
var operators = []struct {
	text string
	kind tokenKind
}{
	{"<-", tokImpl},
	{"<=", tokImpl},
	{":-", tokImpl},
	{"←", tokImpl},
	{"<>", tokNeq},
	{"~=", tokNeq},
	{"!=", tokNeq},
	{"≠", tokNeq},
	{"?-", tokAsk},
	{"?", tokAsk},
	{"~", tokNeg},
	{"¬", tokNeg},
	{"!", tokNeg},
	{"=", tokEq},
	{"(", tokLParen},
	{")", tokRParen},
	{",", tokComma},
	{".", tokDot},
}

// lexer splits source text into tokens.
type lexer struct {
	src  string
	off  int
	line int
	col  int
}

func newLexer(src string) *lexer {
	return &lexer{src: src, line: 1, col: 1}
}

// tokenize returns every token of src followed by tokEOF.
func tokenize(src string) ([]token, error) {
	lx := newLexer(src)
	var toks []token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.kind == tokEOF {
			return toks, nil
		}
	}
}

func (lx *lexer) pos() Pos {
	return Pos{Line: lx.line, Column: lx.col}
}

// advance consumes n bytes, tracking line and column by rune.
func (lx *lexer) advance(n int) {
	for _, r := range lx.src[lx.off : lx.off+n] {
		if r == '\n' {
			lx.line++
			lx.col = 1
		} else {
			lx.col++
		}
	}
	lx.off += n
}

func (lx *lexer) skipSpaceAndComments() {
	for lx.off < len(lx.src) {
		r, size := utf8.DecodeRuneInString(lx.src[lx.off:])
		switch {
		case unicode.IsSpace(r):
			lx.advance(size)
		case r == '%':
			end := strings.IndexByte(lx.src[lx.off:], '\n')
			if end < 0 {
				end = len(lx.src) - lx.off
			}
			lx.advance(end)
		default:
			return
		}
	}
}

func (lx *lexer) next() (token, error) {
	lx.skipSpaceAndComments()
	start := lx.pos()
	if lx.off >= len(lx.src) {
		return token{kind: tokEOF, pos: start}, nil
	}

	rest := lx.src[lx.off:]
	r, _ := utf8.DecodeRuneInString(rest)

	switch {
	case r == '\'' || r == '"':
		text, n, err := scanQuoted(rest)
		if err != nil {
			return token{}, &ParseError{Pos: start, Message: err.Error()}
		}
		lx.advance(n)
		return token{kind: tokName, text: text, pos: start}, nil

	case r == '_':
		n := identLength(rest[1:]) + 1
		if n > 1 {
			return token{}, &ParseError{Pos: start, Message: fmt.Sprintf("identifier %q must start with a letter", rest[:n])}
		}
		lx.advance(1)
		return token{kind: tokAny, text: "_", pos: start}, nil

	case r >= 'A' && r <= 'Z':
		n := identLength(rest)
		lx.advance(n)
		return token{kind: tokVar, text: rest[:n], pos: start}, nil

	case r >= 'a' && r <= 'z':
		n := identLength(rest)
		lx.advance(n)
		return token{kind: tokName, text: rest[:n], pos: start}, nil
	}

	for _, op := range operators {
		if strings.HasPrefix(rest, op.text) {
			lx.advance(len(op.text))
			return token{kind: op.kind, text: op.text, pos: start}, nil
		}
	}
	return token{}, &ParseError{Pos: start, Message: fmt.Sprintf("unexpected character %q", r)}
}

// identLength returns the byte length of the identifier symbols at the
// start of s: ASCII letters, digits, '-' and '_'.
func identLength(s string) int {
	n := 0
	for n < len(s) {
		c := s[n]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_' {
			n++
			continue
		}
		break
	}
	return n
}

// scanQuoted reads a quoted name at the start of s. A backslash escapes the
// next character. Returns the unquoted text and the bytes consumed.
func scanQuoted(s string) (string, int, error) {
	quote := s[0]
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			i++
			b.WriteByte(s[i])
		case c == quote:
			if b.Len() == 0 {
				return "", 0, fmt.Errorf("empty quoted name")
			}
			return b.String(), i + 1, nil
		default:
			b.WriteByte(c)
		}
	}
	return "", 0, fmt.Errorf("unterminated quoted name")
}

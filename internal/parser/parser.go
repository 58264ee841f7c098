package parser

import (
	"fmt"

	"github.com/roach88/datalogq/internal/ir"
)

// ParseError reports a syntax error at a source position.
type ParseError struct {
	Pos     Pos
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// ParseProgram parses rules with no query.
func ParseProgram(src string) (ir.Program, error) {
	p, err := newParser(src)
	if err != nil {
		return ir.Program{}, err
	}
	prog, err := p.program()
	if err != nil {
		return ir.Program{}, err
	}
	if err := p.expect(tokEOF); err != nil {
		return ir.Program{}, err
	}
	return prog, nil
}

// ParseQuery parses rules followed by a query.
func ParseQuery(src string) (ir.Query, error) {
	q, ok, err := parseSource(src)
	if err != nil {
		return ir.Query{}, err
	}
	if !ok {
		return ir.Query{}, &ParseError{Pos: endPos(src), Message: "missing query: expected '?' followed by a goal"}
	}
	return q, nil
}

// ParseSource parses rules followed by an optional query. The second
// result reports whether a query was present.
func ParseSource(src string) (ir.Query, bool, error) {
	return parseSource(src)
}

func parseSource(src string) (ir.Query, bool, error) {
	p, err := newParser(src)
	if err != nil {
		return ir.Query{}, false, err
	}
	prog, err := p.program()
	if err != nil {
		return ir.Query{}, false, err
	}
	q := ir.Query{Program: prog}
	if p.peek().kind == tokEOF {
		return q, false, nil
	}

	goal, err := p.query()
	if err != nil {
		return ir.Query{}, false, err
	}
	if err := p.expect(tokEOF); err != nil {
		return ir.Query{}, false, err
	}
	q.Goal = goal
	return q, true, nil
}

// ParseTerm parses a single term: _, a variable, or a name.
func ParseTerm(s string) (ir.Term, error) {
	p, err := newParser(s)
	if err != nil {
		return nil, err
	}
	t, err := p.term(true)
	if err != nil {
		return nil, err
	}
	if err := p.expect(tokEOF); err != nil {
		return nil, err
	}
	return t, nil
}

// parser is a recursive-descent parser over a token slice.
type parser struct {
	toks []token
	pos  int
}

func newParser(src string) (*parser, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	return &parser{toks: toks}, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

// peekAt looks ahead n tokens, stopping at EOF.
func (p *parser) peekAt(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) advance() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) accept(kind tokenKind) bool {
	if p.peek().kind == kind {
		p.advance()
		return true
	}
	return false
}

func (p *parser) expect(kind tokenKind) error {
	if tok := p.peek(); tok.kind != kind {
		return p.errorf(tok, "expected %s, found %s", kind, describe(tok))
	}
	p.advance()
	return nil
}

func (p *parser) errorf(tok token, format string, args ...any) error {
	return &ParseError{Pos: tok.pos, Message: fmt.Sprintf(format, args...)}
}

func describe(tok token) string {
	switch tok.kind {
	case tokVar, tokName:
		return fmt.Sprintf("%s %q", tok.kind, tok.text)
	default:
		return tok.kind.String()
	}
}

// program = { rule } ; stops at '?' or end of input.
func (p *parser) program() (ir.Program, error) {
	var prog ir.Program
	for {
		switch p.peek().kind {
		case tokEOF, tokAsk:
			return prog, nil
		}
		r, err := p.rule()
		if err != nil {
			return ir.Program{}, err
		}
		prog.Rules = append(prog.Rules, r)
	}
}

// rule = head IMPL body '.' | head '.'
func (p *parser) rule() (ir.Rule, error) {
	head, err := p.atom()
	if err != nil {
		return ir.Rule{}, err
	}
	if p.accept(tokDot) {
		return ir.Rule{Head: head}, nil
	}
	if tok := p.peek(); tok.kind != tokImpl {
		return ir.Rule{}, p.errorf(tok, "expected '.' or implication after %s, found %s", head, describe(tok))
	}
	p.advance()

	r := ir.Rule{Head: head}
	for !p.accept(tokDot) {
		if p.peek().kind == tokEOF {
			return ir.Rule{}, p.errorf(p.peek(), "unterminated rule %s: expected '.'", head)
		}
		el, err := p.bodyElement()
		if err != nil {
			return ir.Rule{}, err
		}
		r.Body = append(r.Body, el)
		p.accept(tokComma)
	}
	return r, nil
}

// bodyElement = NEG atom | NEG term '=' term | term '=' term
//
//	| term NEQ term | atom
func (p *parser) bodyElement() (ir.BodyElement, error) {
	negated := p.accept(tokNeg)

	if p.isAtomStart() {
		lit, err := p.atom()
		if err != nil {
			return nil, err
		}
		lit.Positive = !negated
		return lit, nil
	}

	left, err := p.term(false)
	if err != nil {
		return nil, err
	}
	op := p.advance()
	switch {
	case op.kind == tokEq:
		right, err := p.term(false)
		if err != nil {
			return nil, err
		}
		if negated {
			return ir.Neq(left, right), nil
		}
		return ir.Eq(left, right), nil
	case op.kind == tokNeq && !negated:
		right, err := p.term(false)
		if err != nil {
			return nil, err
		}
		return ir.Neq(left, right), nil
	default:
		return nil, p.errorf(op, "expected '=' or disequality after %s, found %s", left, describe(op))
	}
}

// isAtomStart reports whether the next tokens are a predicate and '('.
func (p *parser) isAtomStart() bool {
	tok := p.peek()
	return (tok.kind == tokVar || tok.kind == tokName) && p.peekAt(1).kind == tokLParen
}

// atom = pred '(' [ term { [','] term } ] ')'
func (p *parser) atom() (ir.Literal, error) {
	tok := p.peek()
	if tok.kind != tokVar && tok.kind != tokName {
		return ir.Literal{}, p.errorf(tok, "expected predicate, found %s", describe(tok))
	}
	p.advance()
	if err := p.expect(tokLParen); err != nil {
		return ir.Literal{}, err
	}

	lit := ir.Literal{Predicate: tok.text, Positive: true}
	for !p.accept(tokRParen) {
		t, err := p.term(true)
		if err != nil {
			return ir.Literal{}, err
		}
		lit.Args = append(lit.Args, t)
		p.accept(tokComma)
	}
	return lit, nil
}

// term = VAR | NAME | '_' (wildcards only where allowWildcard).
func (p *parser) term(allowWildcard bool) (ir.Term, error) {
	tok := p.advance()
	switch tok.kind {
	case tokVar:
		return ir.Var(tok.text), nil
	case tokName:
		return ir.Const(tok.text), nil
	case tokAny:
		if !allowWildcard {
			return nil, p.errorf(tok, "wildcard cannot appear in an equality or disequality")
		}
		return ir.Any(), nil
	default:
		return nil, p.errorf(tok, "expected term, found %s", describe(tok))
	}
}

// query = ASK atom [ '.' ]
func (p *parser) query() (ir.Literal, error) {
	if err := p.expect(tokAsk); err != nil {
		return ir.Literal{}, err
	}
	goal, err := p.atom()
	if err != nil {
		return ir.Literal{}, err
	}
	p.accept(tokDot)
	return goal, nil
}

// endPos returns the position just past the end of src.
func endPos(src string) Pos {
	lx := newLexer(src)
	lx.advance(len(src))
	return lx.pos()
}

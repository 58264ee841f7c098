package parser

import (
	"fmt"

	"github.com/roach88/datalogq/internal/ir"
)

// Document is a program and optional query written as structured data.
type Document struct {
	Rules []RuleDoc   `json:"rules" yaml:"rules"`
	Query *LiteralDoc `json:"query,omitempty" yaml:"query,omitempty"`
}

// RuleDoc is one rule. A rule without body elements is a fact.
type RuleDoc struct {
	Head LiteralDoc `json:"head" yaml:"head"`
	Body []BodyDoc  `json:"body,omitempty" yaml:"body,omitempty"`
}

// LiteralDoc is a predicate applied to term strings.
type LiteralDoc struct {
	Pred string   `json:"pred" yaml:"pred"`
	Args []string `json:"args,omitempty" yaml:"args,omitempty"`
}

// BodyDoc is one body element. Exactly one of Pred, Eq or Neq is set.
type BodyDoc struct {
	Pred    string   `json:"pred,omitempty" yaml:"pred,omitempty"`
	Args    []string `json:"args,omitempty" yaml:"args,omitempty"`
	Negated bool     `json:"negated,omitempty" yaml:"negated,omitempty"`
	Eq      []string `json:"eq,omitempty" yaml:"eq,omitempty"`
	Neq     []string `json:"neq,omitempty" yaml:"neq,omitempty"`
}

// DocumentError reports an invalid document field.
type DocumentError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ToProgram converts the rules of d.
func (d Document) ToProgram() (ir.Program, error) {
	var prog ir.Program
	for i, rd := range d.Rules {
		r, err := rd.toRule(fmt.Sprintf("rules[%d]", i))
		if err != nil {
			return ir.Program{}, err
		}
		prog.Rules = append(prog.Rules, r)
	}
	return prog, nil
}

// ToQuery converts d into a query. The query literal is required.
func (d Document) ToQuery() (ir.Query, error) {
	if d.Query == nil {
		return ir.Query{}, &DocumentError{Field: "query", Message: "missing query"}
	}
	prog, err := d.ToProgram()
	if err != nil {
		return ir.Query{}, err
	}
	goal, err := d.Query.toLiteral("query")
	if err != nil {
		return ir.Query{}, err
	}
	return ir.Query{Program: prog, Goal: goal}, nil
}

// FromQuery renders q as a document. Terms are written in text syntax, so
// ToQuery on the result returns an equal query.
func FromQuery(q ir.Query) Document {
	d := Document{Rules: make([]RuleDoc, 0, len(q.Program.Rules))}
	for _, r := range q.Program.Rules {
		rd := RuleDoc{Head: literalDoc(r.Head)}
		for _, el := range r.Body {
			switch b := el.(type) {
			case ir.Literal:
				ld := literalDoc(b)
				rd.Body = append(rd.Body, BodyDoc{Pred: ld.Pred, Args: ld.Args, Negated: !b.Positive})
			case ir.Equality:
				rd.Body = append(rd.Body, BodyDoc{Eq: []string{b.Left.String(), b.Right.String()}})
			case ir.Disequality:
				rd.Body = append(rd.Body, BodyDoc{Neq: []string{b.Left.String(), b.Right.String()}})
			}
		}
		d.Rules = append(d.Rules, rd)
	}
	goal := literalDoc(q.Goal)
	d.Query = &goal
	return d
}

func literalDoc(l ir.Literal) LiteralDoc {
	ld := LiteralDoc{Pred: l.Predicate}
	for _, a := range l.Args {
		ld.Args = append(ld.Args, a.String())
	}
	return ld
}

func (rd RuleDoc) toRule(field string) (ir.Rule, error) {
	head, err := rd.Head.toLiteral(field + ".head")
	if err != nil {
		return ir.Rule{}, err
	}
	r := ir.Rule{Head: head}
	for j, bd := range rd.Body {
		el, err := bd.toElement(fmt.Sprintf("%s.body[%d]", field, j))
		if err != nil {
			return ir.Rule{}, err
		}
		r.Body = append(r.Body, el)
	}
	return r, nil
}

func (ld LiteralDoc) toLiteral(field string) (ir.Literal, error) {
	if ld.Pred == "" {
		return ir.Literal{}, &DocumentError{Field: field + ".pred", Message: "predicate name is required"}
	}
	lit := ir.Literal{Predicate: ld.Pred, Positive: true}
	for i, s := range ld.Args {
		t, err := ParseTerm(s)
		if err != nil {
			return ir.Literal{}, &DocumentError{Field: fmt.Sprintf("%s.args[%d]", field, i), Message: err.Error()}
		}
		lit.Args = append(lit.Args, t)
	}
	return lit, nil
}

func (bd BodyDoc) toElement(field string) (ir.BodyElement, error) {
	set := 0
	if bd.Pred != "" {
		set++
	}
	if bd.Eq != nil {
		set++
	}
	if bd.Neq != nil {
		set++
	}
	if set != 1 {
		return nil, &DocumentError{Field: field, Message: "exactly one of pred, eq or neq must be set"}
	}

	switch {
	case bd.Eq != nil:
		left, right, err := pair(field+".eq", bd.Eq)
		if err != nil {
			return nil, err
		}
		if bd.Negated {
			return ir.Neq(left, right), nil
		}
		return ir.Eq(left, right), nil
	case bd.Neq != nil:
		if bd.Negated {
			return nil, &DocumentError{Field: field + ".negated", Message: "a disequality cannot be negated"}
		}
		left, right, err := pair(field+".neq", bd.Neq)
		if err != nil {
			return nil, err
		}
		return ir.Neq(left, right), nil
	default:
		lit, err := LiteralDoc{Pred: bd.Pred, Args: bd.Args}.toLiteral(field)
		if err != nil {
			return nil, err
		}
		lit.Positive = !bd.Negated
		return lit, nil
	}
}

// pair parses the two endpoints of an equality or disequality.
func pair(field string, terms []string) (ir.Term, ir.Term, error) {
	if len(terms) != 2 {
		return nil, nil, &DocumentError{Field: field, Message: fmt.Sprintf("expected 2 terms, got %d", len(terms))}
	}
	var out [2]ir.Term
	for i, s := range terms {
		t, err := ParseTerm(s)
		if err != nil {
			return nil, nil, &DocumentError{Field: fmt.Sprintf("%s[%d]", field, i), Message: err.Error()}
		}
		if _, ok := t.(ir.Wildcard); ok {
			return nil, nil, &DocumentError{Field: fmt.Sprintf("%s[%d]", field, i), Message: "wildcard cannot appear in an equality or disequality"}
		}
		out[i] = t
	}
	return out[0], out[1], nil
}

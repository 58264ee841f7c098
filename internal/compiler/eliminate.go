package compiler

import (
	"errors"
	"fmt"

	"github.com/roach88/datalogq/internal/ir"
)

// ErrUnsatisfiable is returned when equality elimination is asked to rewrite
// a rule with a static contradiction.
var ErrUnsatisfiable = errors.New("rule is not satisfiable")

// EliminateEqualities returns a rewrite of r in which every term is replaced
// by the representative of its equivalence class and every equality is
// removed. Disequalities are kept with rewritten endpoints, except those
// between two distinct constants, which always hold and are dropped.
//
// r itself is never modified. Applying EliminateEqualities to its own output
// returns an equal rule.
func EliminateEqualities(r ir.Rule) (ir.Rule, error) {
	if r.IsFact() {
		return r.Clone(), nil
	}
	if !IsRuleSatisfiable(r) {
		return ir.Rule{}, fmt.Errorf("%w: %s", ErrUnsatisfiable, r)
	}

	reps := ComputeEquivalence(r).Representatives()
	subst := func(t ir.Term) ir.Term {
		k, ok := ir.KeyOf(t)
		if !ok {
			return t
		}
		return reps[k]
	}
	substLiteral := func(l ir.Literal) ir.Literal {
		out := l.Clone()
		for i, a := range out.Args {
			out.Args[i] = subst(a)
		}
		return out
	}

	out := ir.Rule{Head: substLiteral(r.Head)}
	for _, el := range r.Body {
		switch b := el.(type) {
		case ir.Literal:
			out.Body = append(out.Body, substLiteral(b))
		case ir.Equality:
			// Encoded by the substitution.
		case ir.Disequality:
			d := ir.Neq(subst(b.Left), subst(b.Right))
			if isTautology(d) {
				continue
			}
			out.Body = append(out.Body, d)
		}
	}
	return out, nil
}

// isTautology reports whether d relates two distinct constants.
func isTautology(d ir.Disequality) bool {
	l, lok := d.Left.(ir.Constant)
	r, rok := d.Right.(ir.Constant)
	return lok && rok && l != r
}

// EliminateProgram applies EliminateEqualities to every rule of p and
// returns the rewritten program. p is not modified.
func EliminateProgram(p ir.Program) (ir.Program, error) {
	out := ir.Program{Rules: make([]ir.Rule, 0, len(p.Rules))}
	for i, r := range p.Rules {
		rewritten, err := EliminateEqualities(r)
		if err != nil {
			return ir.Program{}, fmt.Errorf("rules[%d]: %w", i, err)
		}
		out.Rules = append(out.Rules, rewritten)
	}
	return out, nil
}

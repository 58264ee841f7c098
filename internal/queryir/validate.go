package queryir

import (
	"fmt"
)

// ValidationResult contains the structural analysis of a plan.
type ValidationResult struct {
	// Valid indicates the plan is well formed: aliases are unique, every
	// column reference names a visible alias and an existing column.
	Valid bool

	// Problems lists every structural defect found. Empty when Valid is true.
	Problems []string
}

// Validate checks that a plan is well formed.
//
// Rules:
//  1. Scan aliases are unique across the plan, including NotExists sources
//  2. A ColumnRef names an alias in scope and an index below its arity
//  3. Join operands are Scan or Join; Select appears only at the root
//  4. NotExists filters see the enclosing scope plus their own source
//
// Validate is a pure function with no side effects.
func Validate(q Query) ValidationResult {
	v := &validator{
		problems: []string{},
		aliases:  make(map[string]bool),
	}
	v.validateRoot(q)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// scope maps a visible alias to its arity.
type scope map[string]int

func (s scope) with(extra scope) scope {
	out := make(scope, len(s)+len(extra))
	for k, a := range s {
		out[k] = a
	}
	for k, a := range extra {
		out[k] = a
	}
	return out
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
	aliases  map[string]bool // every alias declared so far
}

// addProblem appends a problem message.
func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateRoot(q Query) {
	switch query := q.(type) {
	case nil:
		v.addProblem("nil query")
	case Select:
		var sc scope
		if query.From != nil {
			sc = v.validateSource(query.From)
		}
		v.validatePredicate(query.Filter, sc)
		for _, out := range query.Outputs {
			v.validateOperand(out, sc)
		}
	default:
		v.validateSource(q)
	}
}

// validateSource validates a Scan or Join and returns the aliases it binds.
func (v *validator) validateSource(q Query) scope {
	switch query := q.(type) {
	case Scan:
		return v.declare(query)
	case Join:
		left := v.validateSource(query.Left)
		right := v.validateSource(query.Right)
		sc := left.with(right)
		v.validatePredicate(query.On, sc)
		return sc
	case nil:
		v.addProblem("nil join operand")
	default:
		v.addProblem("unsupported source type: %T", q)
	}
	return scope{}
}

// declare registers a scan alias.
func (v *validator) declare(s Scan) scope {
	if s.Relation == "" {
		v.addProblem("scan %q has no relation", s.Alias)
	}
	if s.Alias == "" {
		v.addProblem("scan of %q has no alias", s.Relation)
	}
	if s.Arity < 0 {
		v.addProblem("scan %q has negative arity %d", s.Alias, s.Arity)
	}
	if v.aliases[s.Alias] {
		v.addProblem("duplicate alias %q", s.Alias)
	}
	v.aliases[s.Alias] = true
	return scope{s.Alias: s.Arity}
}

func (v *validator) validatePredicate(p Predicate, sc scope) {
	switch pred := p.(type) {
	case nil:
		// No filter.
	case Equals:
		v.validateOperand(pred.Left, sc)
		v.validateOperand(pred.Right, sc)
	case NotEquals:
		v.validateOperand(pred.Left, sc)
		v.validateOperand(pred.Right, sc)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub, sc)
		}
	case NotExists:
		inner := sc.with(v.declare(pred.Source))
		v.validatePredicate(pred.Filter, inner)
	default:
		v.addProblem("unsupported predicate type: %T", p)
	}
}

func (v *validator) validateOperand(o Operand, sc scope) {
	switch op := o.(type) {
	case ColumnRef:
		arity, ok := sc[op.Alias]
		if !ok {
			v.addProblem("column %s.c%d refers to an alias not in scope", op.Alias, op.Index)
			return
		}
		if op.Index < 0 || op.Index >= arity {
			v.addProblem("column %s.c%d out of range for arity %d", op.Alias, op.Index, arity)
		}
	case Value:
		// Constants are always valid.
	default:
		v.addProblem("unsupported operand type: %T", o)
	}
}

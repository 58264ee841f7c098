package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/datalogq/internal/ir"
)

// Validation error codes (E200-E299)
const (
	ErrEmptyProgram        = "E200" // program has no rules
	ErrUnsafeRule          = "E201" // head variable or class not range restricted
	ErrUnsatisfiableRule   = "E202" // two constants or a disequality inside one class
	ErrArityMismatch       = "E203" // predicate used with different arities
	ErrNegatedWildcard     = "E204" // wildcard under negation
	ErrUndefinedPredicate  = "E205" // predicate never defined by a rule head
	ErrRecursiveDependency = "E206" // predicate depends on itself
	ErrNegativeHead        = "E207" // rule head is a negated literal
	ErrWildcardComparison  = "E208" // wildcard endpoint of an equality or disequality
)

// ValidationError represents a static validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Check runs every static validator over q and returns all errors found
// (does not fail-fast). An empty result means q may be evaluated, subject to
// recursion detection during sorting.
//
// Check is a pure function with no side effects.
func Check(q ir.Query) []ValidationError {
	return check(q.Program, &q.Goal)
}

// CheckProgram is Check for a program without a goal. Undefined predicates
// are those used in a rule body that no rule head defines.
func CheckProgram(p ir.Program) []ValidationError {
	return check(p, nil)
}

func check(p ir.Program, goal *ir.Literal) []ValidationError {
	var errs []ValidationError

	if len(p.Rules) == 0 {
		errs = append(errs, ValidationError{
			Field:   "rules",
			Message: "program must contain at least one rule",
			Code:    ErrEmptyProgram,
		})
	}

	for i, r := range p.Rules {
		field := fmt.Sprintf("rules[%d]", i)
		if !r.Head.Positive {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("rule head must be positive: %s", r),
				Code:    ErrNegativeHead,
			})
		}
		errs = append(errs, safetyErrors(field, r)...)
		if !r.IsFact() {
			errs = append(errs, satisfiabilityErrors(field, r)...)
		}
		errs = append(errs, negatedWildcardErrors(field, r)...)
		errs = append(errs, wildcardComparisonErrors(field, r)...)
	}

	errs = append(errs, arityErrors(p, goal)...)

	for _, name := range undefinedPredicates(p, goal) {
		errs = append(errs, ValidationError{
			Field:   "predicates",
			Message: fmt.Sprintf("predicate %q is used but no rule defines it", name),
			Code:    ErrUndefinedPredicate,
		})
	}

	return errs
}

// IsConjunctiveQuery reports whether p uses only positive literals and no
// equality or disequality constraints.
func IsConjunctiveQuery(p ir.Program) bool {
	for _, r := range p.Rules {
		if !IsRuleConjunctive(r) {
			return false
		}
	}
	return true
}

// IsRuleConjunctive reports whether the body of r holds only positive
// literals.
func IsRuleConjunctive(r ir.Rule) bool {
	for _, el := range r.Body {
		switch b := el.(type) {
		case ir.Literal:
			if !b.Positive {
				return false
			}
		case ir.Equality, ir.Disequality:
			return false
		}
	}
	return true
}

// IsSafe reports whether every rule of p is range restricted.
func IsSafe(p ir.Program) bool {
	for _, r := range p.Rules {
		if !IsRuleSafe(r) {
			return false
		}
	}
	return true
}

// IsRuleSafe reports whether r is range restricted:
//  1. every head variable also occurs in the body and the head has no
//     wildcard, and
//  2. every equivalence class of r contains a constant or a variable that
//     occurs in a positive body literal.
//
// A fact is safe iff its head is ground.
func IsRuleSafe(r ir.Rule) bool {
	return len(safetyErrors("rule", r)) == 0
}

func safetyErrors(field string, r ir.Rule) []ValidationError {
	var errs []ValidationError

	if r.Head.HasWildcard() {
		errs = append(errs, ValidationError{
			Field:   field + ".head",
			Message: fmt.Sprintf("wildcard in rule head is not range restricted: %s", r),
			Code:    ErrUnsafeRule,
		})
	}

	bodyVars := make(map[ir.Variable]bool)
	for _, v := range r.BodyVars() {
		bodyVars[v] = true
	}
	for _, v := range r.HeadVars() {
		if !bodyVars[v] {
			errs = append(errs, ValidationError{
				Field:   field + ".head",
				Message: fmt.Sprintf("head variable %s does not occur in the body: %s", v, r),
				Code:    ErrUnsafeRule,
			})
		}
	}
	if len(errs) > 0 {
		return errs
	}

	positive := r.PositiveVars()
	for _, class := range ComputeEquivalence(r).Classes() {
		if classIsGrounded(class, positive) {
			continue
		}
		errs = append(errs, ValidationError{
			Field:   field + ".body",
			Message: fmt.Sprintf("variables {%s} are bound by neither a constant nor a positive literal: %s", joinTerms(class), r),
			Code:    ErrUnsafeRule,
		})
	}
	return errs
}

// classIsGrounded reports whether a class holds a constant or a variable
// from a positive literal.
func classIsGrounded(class []ir.Term, positive map[ir.Variable]bool) bool {
	for _, t := range class {
		switch v := t.(type) {
		case ir.Constant:
			return true
		case ir.Variable:
			if positive[v] {
				return true
			}
		}
	}
	return false
}

// IsSatisfiable reports whether every non-fact rule of p is satisfiable.
func IsSatisfiable(p ir.Program) bool {
	for _, r := range p.Rules {
		if r.IsFact() {
			continue
		}
		if !IsRuleSatisfiable(r) {
			return false
		}
	}
	return true
}

// IsRuleSatisfiable reports whether r is free of static contradictions: no
// class contains two distinct constants and no disequality relates two terms
// of the same class.
func IsRuleSatisfiable(r ir.Rule) bool {
	return len(satisfiabilityErrors("rule", r)) == 0
}

func satisfiabilityErrors(field string, r ir.Rule) []ValidationError {
	var errs []ValidationError
	eq := ComputeEquivalence(r)

	for i, el := range r.Body {
		d, ok := el.(ir.Disequality)
		if !ok {
			continue
		}
		if eq.Same(d.Left, d.Right) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.body[%d]", field, i),
				Message: fmt.Sprintf("%s contradicts the equalities of %s", d, r),
				Code:    ErrUnsatisfiableRule,
			})
		}
	}

	for _, class := range eq.Classes() {
		if consts := constantsIn(class); len(consts) > 1 {
			errs = append(errs, ValidationError{
				Field:   field + ".body",
				Message: fmt.Sprintf("constants %s and %s are forced equal in %s", consts[0], consts[1], r),
				Code:    ErrUnsatisfiableRule,
			})
		}
	}
	return errs
}

// HasConsistentPredicateArity reports whether every predicate name of p is
// used with a single arity across all heads and bodies.
func HasConsistentPredicateArity(p ir.Program) bool {
	return len(arityErrors(p, nil)) == 0
}

// arityErrors reports predicates used with more than one arity. The goal
// literal is included when non-nil.
func arityErrors(p ir.Program, goal *ir.Literal) []ValidationError {
	var errs []ValidationError
	arity := make(map[string]int)
	reported := make(map[string]bool)

	visit := func(field string, l ir.Literal) {
		want, seen := arity[l.Predicate]
		if !seen {
			arity[l.Predicate] = l.Arity()
			return
		}
		if want == l.Arity() || reported[l.Predicate] {
			return
		}
		reported[l.Predicate] = true
		errs = append(errs, ValidationError{
			Field:   field,
			Message: fmt.Sprintf("predicate %q used with arity %d and %d", l.Predicate, want, l.Arity()),
			Code:    ErrArityMismatch,
		})
	}

	for i, r := range p.Rules {
		visit(fmt.Sprintf("rules[%d].head", i), r.Head)
		for j, el := range r.Body {
			if l, ok := el.(ir.Literal); ok {
				visit(fmt.Sprintf("rules[%d].body[%d]", i, j), l)
			}
		}
	}
	if goal != nil {
		visit("goal", *goal)
	}
	return errs
}

// HasNoNegatedWildcard reports whether no negative literal of p has a
// wildcard argument.
func HasNoNegatedWildcard(p ir.Program) bool {
	for _, r := range p.Rules {
		if !RuleHasNoNegatedWildcard(r) {
			return false
		}
	}
	return true
}

// RuleHasNoNegatedWildcard reports whether no negative literal of r has a
// wildcard argument.
func RuleHasNoNegatedWildcard(r ir.Rule) bool {
	return len(negatedWildcardErrors("rule", r)) == 0
}

func negatedWildcardErrors(field string, r ir.Rule) []ValidationError {
	var errs []ValidationError
	for i, el := range r.Body {
		l, ok := el.(ir.Literal)
		if !ok || l.Positive || !l.HasWildcard() {
			continue
		}
		errs = append(errs, ValidationError{
			Field:   fmt.Sprintf("%s.body[%d]", field, i),
			Message: fmt.Sprintf("wildcard under negation has no finite extension: %s", l),
			Code:    ErrNegatedWildcard,
		})
	}
	return errs
}

// wildcardComparisonErrors reports equalities and disequalities with a
// wildcard endpoint. Both parsers reject them; programs built in code can
// still hold them.
func wildcardComparisonErrors(field string, r ir.Rule) []ValidationError {
	var errs []ValidationError
	for i, el := range r.Body {
		var left, right ir.Term
		switch b := el.(type) {
		case ir.Equality:
			left, right = b.Left, b.Right
		case ir.Disequality:
			left, right = b.Left, b.Right
		default:
			continue
		}
		_, lw := left.(ir.Wildcard)
		_, rw := right.(ir.Wildcard)
		if !lw && !rw {
			continue
		}
		errs = append(errs, ValidationError{
			Field:   fmt.Sprintf("%s.body[%d]", field, i),
			Message: fmt.Sprintf("wildcard cannot be compared: %s", el),
			Code:    ErrWildcardComparison,
		})
	}
	return errs
}

// Query-level variants. Each applies the program check to q.Program; arity
// consistency also covers the goal.

// QueryIsConjunctive is IsConjunctiveQuery for q.
func QueryIsConjunctive(q ir.Query) bool { return IsConjunctiveQuery(q.Program) }

// QueryIsSafe is IsSafe for q.
func QueryIsSafe(q ir.Query) bool { return IsSafe(q.Program) }

// QueryIsSatisfiable is IsSatisfiable for q.
func QueryIsSatisfiable(q ir.Query) bool { return IsSatisfiable(q.Program) }

// QueryHasNoNegatedWildcard is HasNoNegatedWildcard for q.
func QueryHasNoNegatedWildcard(q ir.Query) bool { return HasNoNegatedWildcard(q.Program) }

// QueryHasConsistentPredicateArity reports whether every predicate of q,
// the goal included, is used with a single arity.
func QueryHasConsistentPredicateArity(q ir.Query) bool {
	return len(arityErrors(q.Program, &q.Goal)) == 0
}

// UndefinedPredicates returns the predicates referenced by a body literal or
// the goal that no rule head defines, in first-reference order.
func UndefinedPredicates(q ir.Query) []string {
	return undefinedPredicates(q.Program, &q.Goal)
}

func undefinedPredicates(p ir.Program, goal *ir.Literal) []string {
	defined := make(map[string]bool)
	for _, r := range p.Rules {
		defined[r.Head.Predicate] = true
	}

	var missing []string
	seen := make(map[string]bool)
	note := func(name string) {
		if defined[name] || seen[name] {
			return
		}
		seen[name] = true
		missing = append(missing, name)
	}

	for _, r := range p.Rules {
		_, body := r.Predicates()
		for _, name := range body {
			note(name)
		}
	}
	if goal != nil {
		note(goal.Predicate)
	}
	return missing
}

func joinTerms(terms []ir.Term) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

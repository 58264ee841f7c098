package engine

import (
	"fmt"
	"strings"

	"github.com/roach88/datalogq/internal/ir"
)

// occurrence is one position of a variable in a positive body literal.
type occurrence struct {
	literal int // index among the rule's positive literals
	column  int
}

// evaluateRule derives the head rows of an equality-free rule from the
// current relations. The relations are read, never modified.
func evaluateRule(r ir.Rule, relations map[string]ir.Relation) (ir.Relation, error) {
	var (
		positive []ir.Literal
		negative []ir.Literal
		diseqs   []ir.Disequality
	)
	for _, el := range r.Body {
		switch b := el.(type) {
		case ir.Literal:
			if b.Positive {
				positive = append(positive, b)
			} else {
				negative = append(negative, b)
			}
		case ir.Disequality:
			if isConstant(b.Left) && isConstant(b.Right) {
				return nil, &RuntimeError{
					Code:    ErrCodeStaticContradiction,
					Message: fmt.Sprintf("disequality %s between constants reached evaluation", b),
					Rule:    r.String(),
				}
			}
			diseqs = append(diseqs, b)
		case ir.Equality:
			return nil, &RuntimeError{
				Code:    ErrCodePreconditionFailed,
				Message: fmt.Sprintf("equality %s was not eliminated", b),
				Rule:    r.String(),
			}
		}
	}

	// Per-literal selection.
	tables := make([]ir.Relation, len(positive))
	widths := make([]int, len(positive))
	for i, lit := range positive {
		rel, ok := relations[lit.Predicate]
		if !ok {
			return nil, NewMissingPredicateError(lit.Predicate, r.String())
		}
		tables[i] = selectLiteral(lit, rel, diseqs)
		widths[i] = lit.Arity()
	}

	// Variable occurrence index, in first-occurrence order.
	var vars []ir.Variable
	occurrences := make(map[ir.Variable][]occurrence)
	for i, lit := range positive {
		for j, a := range lit.Args {
			v, ok := a.(ir.Variable)
			if !ok {
				continue
			}
			if _, seen := occurrences[v]; !seen {
				vars = append(vars, v)
			}
			occurrences[v] = append(occurrences[v], occurrence{literal: i, column: j})
		}
	}

	// Join fold. Two occurrences already in one table, including repeats
	// inside a single literal, become a selection.
	space := newJoinSpace(tables, widths)
	for _, v := range vars {
		first := occurrences[v][0]
		for _, o := range occurrences[v][1:] {
			ra, ca := space.column(first.literal, first.column)
			rb, cb := space.column(o.literal, o.column)
			if ra == rb {
				if ca != cb {
					space.filter(ra, func(row ir.Row) bool { return row[ca] == row[cb] })
				}
				continue
			}
			space.join(ra, rb, ca, cb)
		}
	}

	// Tables that share no variable.
	root := -1
	for i := range positive {
		ri, _ := space.find(i)
		switch {
		case root < 0:
			root = ri
		case ri != root:
			space.join(root, ri, -1, -1)
		}
	}

	rows := ir.Relation{ir.Row{}}
	if root >= 0 {
		rows = space.rows[root]
	}

	columnOf := func(v ir.Variable) (int, bool) {
		occ, ok := occurrences[v]
		if !ok {
			return 0, false
		}
		_, col := space.column(occ[0].literal, occ[0].column)
		return col, true
	}
	value := func(row ir.Row, t ir.Term) (string, error) {
		switch v := t.(type) {
		case ir.Constant:
			return v.Name, nil
		case ir.Variable:
			col, ok := columnOf(v)
			if !ok {
				return "", &RuntimeError{
					Code:    ErrCodePreconditionFailed,
					Message: fmt.Sprintf("variable %s is not bound by a positive literal", v),
					Rule:    r.String(),
				}
			}
			return row[col], nil
		default:
			return "", &RuntimeError{
				Code:    ErrCodePreconditionFailed,
				Message: "wildcard used as a value",
				Rule:    r.String(),
			}
		}
	}

	// Variable disequalities over the joined rows.
	for _, d := range diseqs {
		if isConstant(d.Left) || isConstant(d.Right) {
			continue
		}
		var filterErr error
		rows = filterRows(rows, func(row ir.Row) bool {
			l, err := value(row, d.Left)
			if err != nil {
				filterErr = err
				return false
			}
			rv, err := value(row, d.Right)
			if err != nil {
				filterErr = err
				return false
			}
			return l != rv
		})
		if filterErr != nil {
			return nil, filterErr
		}
	}

	// Negative literals: a row survives iff whether some row of the negated
	// relation matches equals the literal's polarity.
	for _, lit := range negative {
		rel, ok := relations[lit.Predicate]
		if !ok {
			return nil, NewMissingPredicateError(lit.Predicate, r.String())
		}
		matches, err := antiJoinProbe(lit, rel, value)
		if err != nil {
			return nil, err
		}
		var probeErr error
		rows = filterRows(rows, func(row ir.Row) bool {
			found, err := matches(row)
			if err != nil {
				probeErr = err
				return false
			}
			return found == lit.Positive
		})
		if probeErr != nil {
			return nil, probeErr
		}
	}

	// Projection.
	out := make(ir.Relation, 0, len(rows))
	for _, row := range rows {
		head := make(ir.Row, len(r.Head.Args))
		for j, a := range r.Head.Args {
			val, err := value(row, a)
			if err != nil {
				return nil, err
			}
			head[j] = val
		}
		out = append(out, head)
	}
	return out, nil
}

// selectLiteral keeps the rows of rel that satisfy lit's constant arguments
// and every disequality between a variable of lit and a constant.
func selectLiteral(lit ir.Literal, rel ir.Relation, diseqs []ir.Disequality) ir.Relation {
	type check struct {
		column int
		value  string
		equal  bool
	}
	var checks []check
	for j, a := range lit.Args {
		switch t := a.(type) {
		case ir.Constant:
			checks = append(checks, check{column: j, value: t.Name, equal: true})
		case ir.Variable:
			for _, d := range diseqs {
				if c, ok := constantAgainst(d, t); ok {
					checks = append(checks, check{column: j, value: c.Name, equal: false})
				}
			}
		}
	}

	return filterRows(rel, func(row ir.Row) bool {
		for _, c := range checks {
			if (row[c.column] == c.value) != c.equal {
				return false
			}
		}
		return true
	})
}

// constantAgainst returns the constant endpoint of d if its other endpoint
// is v.
func constantAgainst(d ir.Disequality, v ir.Variable) (ir.Constant, bool) {
	if lv, ok := d.Left.(ir.Variable); ok && lv == v {
		c, ok := d.Right.(ir.Constant)
		return c, ok
	}
	if rv, ok := d.Right.(ir.Variable); ok && rv == v {
		c, ok := d.Left.(ir.Constant)
		return c, ok
	}
	return ir.Constant{}, false
}

func isConstant(t ir.Term) bool {
	_, ok := t.(ir.Constant)
	return ok
}

// antiJoinProbe returns a function reporting whether some row of rel matches
// lit under the bindings of a joined row. Without wildcards the probe is a
// set lookup.
func antiJoinProbe(
	lit ir.Literal,
	rel ir.Relation,
	value func(ir.Row, ir.Term) (string, error),
) (func(ir.Row) (bool, error), error) {
	probe := func(row ir.Row) (ir.Row, error) {
		key := make(ir.Row, len(lit.Args))
		for j, a := range lit.Args {
			if _, ok := a.(ir.Wildcard); ok {
				continue
			}
			val, err := value(row, a)
			if err != nil {
				return nil, err
			}
			key[j] = val
		}
		return key, nil
	}

	if !lit.HasWildcard() {
		set := make(map[string]bool, len(rel))
		for _, r := range rel {
			set[rowKey(r)] = true
		}
		return func(row ir.Row) (bool, error) {
			key, err := probe(row)
			if err != nil {
				return false, err
			}
			return set[rowKey(key)], nil
		}, nil
	}

	return func(row ir.Row) (bool, error) {
		key, err := probe(row)
		if err != nil {
			return false, err
		}
		for _, r := range rel {
			if matchesWithWildcards(lit, key, r) {
				return true, nil
			}
		}
		return false, nil
	}, nil
}

func matchesWithWildcards(lit ir.Literal, key, row ir.Row) bool {
	for j, a := range lit.Args {
		if _, ok := a.(ir.Wildcard); ok {
			continue
		}
		if key[j] != row[j] {
			return false
		}
	}
	return true
}

// rowKey is an exact, unnormalized row key.
func rowKey(row ir.Row) string {
	return strings.Join(row, "\x00")
}

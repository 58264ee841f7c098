package compiler

import (
	"fmt"

	"github.com/roach88/datalogq/internal/ir"
	"github.com/roach88/datalogq/internal/queryir"
)

// PlanRule compiles an equality-free rule into a relational plan.
//
// The rule must already have been through EliminateEqualities and must be
// safe. The plan is built in body order:
//  1. Each positive literal becomes a Scan aliased "t<i>"; scans are joined
//     left-deep, with ON conditions for variables shared with earlier scans
//     (cross product when there are none)
//  2. Constant arguments and repeated variables inside one literal become
//     Select filters
//  3. Disequalities become NotEquals filters
//  4. Each negative literal becomes a NotExists over a Scan aliased "n<i>"
//  5. Head arguments become the projection
func PlanRule(r ir.Rule) (queryir.Select, error) {
	binding := make(map[ir.Variable]queryir.ColumnRef)
	var from queryir.Query
	var filters []queryir.Predicate

	for i, el := range r.Body {
		lit, ok := el.(ir.Literal)
		if !ok || !lit.Positive {
			continue
		}
		scan := queryir.Scan{Relation: lit.Predicate, Alias: fmt.Sprintf("t%d", i), Arity: lit.Arity()}

		var on []queryir.Predicate
		for j, a := range lit.Args {
			ref := queryir.ColumnRef{Alias: scan.Alias, Index: j}
			switch t := a.(type) {
			case ir.Constant:
				filters = append(filters, queryir.Equals{Left: ref, Right: queryir.Value{Text: t.Name}})
			case ir.Variable:
				prev, bound := binding[t]
				switch {
				case !bound:
					binding[t] = ref
				case prev.Alias == scan.Alias:
					filters = append(filters, queryir.Equals{Left: prev, Right: ref})
				default:
					on = append(on, queryir.Equals{Left: prev, Right: ref})
				}
			case ir.Wildcard:
				// Matches anything.
			}
		}

		if from == nil {
			from = scan
			continue
		}
		from = queryir.Join{Left: from, Right: scan, On: queryir.Conjoin(on...)}
	}

	operand := func(t ir.Term) (queryir.Operand, error) {
		switch v := t.(type) {
		case ir.Constant:
			return queryir.Value{Text: v.Name}, nil
		case ir.Variable:
			ref, ok := binding[v]
			if !ok {
				return nil, fmt.Errorf("variable %s is not bound by a positive literal in %s", v, r)
			}
			return ref, nil
		default:
			return nil, fmt.Errorf("wildcard cannot be used as a value in %s", r)
		}
	}

	for i, el := range r.Body {
		switch b := el.(type) {
		case ir.Disequality:
			left, err := operand(b.Left)
			if err != nil {
				return queryir.Select{}, err
			}
			right, err := operand(b.Right)
			if err != nil {
				return queryir.Select{}, err
			}
			filters = append(filters, queryir.NotEquals{Left: left, Right: right})
		case ir.Equality:
			return queryir.Select{}, fmt.Errorf("equality %s must be eliminated before planning", b)
		case ir.Literal:
			if b.Positive {
				continue
			}
			source := queryir.Scan{Relation: b.Predicate, Alias: fmt.Sprintf("n%d", i), Arity: b.Arity()}
			var match []queryir.Predicate
			for j, a := range b.Args {
				val, err := operand(a)
				if err != nil {
					return queryir.Select{}, err
				}
				match = append(match, queryir.Equals{Left: queryir.ColumnRef{Alias: source.Alias, Index: j}, Right: val})
			}
			filters = append(filters, queryir.NotExists{Source: source, Filter: queryir.Conjoin(match...)})
		}
	}

	outputs := make([]queryir.Operand, 0, r.Head.Arity())
	for _, a := range r.Head.Args {
		out, err := operand(a)
		if err != nil {
			return queryir.Select{}, err
		}
		outputs = append(outputs, out)
	}

	return queryir.Select{From: from, Filter: queryir.Conjoin(filters...), Outputs: outputs}, nil
}

// PlanGoal compiles the goal literal into a selection over its relation:
// constant arguments and repeated variables filter rows, and every column is
// returned.
func PlanGoal(goal ir.Literal) queryir.Select {
	scan := queryir.Scan{Relation: goal.Predicate, Alias: "g", Arity: goal.Arity()}
	first := make(map[ir.Variable]int)
	var filters []queryir.Predicate
	outputs := make([]queryir.Operand, goal.Arity())

	for j, a := range goal.Args {
		ref := queryir.ColumnRef{Alias: scan.Alias, Index: j}
		outputs[j] = ref
		switch t := a.(type) {
		case ir.Constant:
			filters = append(filters, queryir.Equals{Left: ref, Right: queryir.Value{Text: t.Name}})
		case ir.Variable:
			if k, ok := first[t]; ok {
				filters = append(filters, queryir.Equals{Left: queryir.ColumnRef{Alias: scan.Alias, Index: k}, Right: ref})
				continue
			}
			first[t] = j
		}
	}
	return queryir.Select{From: scan, Filter: queryir.Conjoin(filters...), Outputs: outputs}
}

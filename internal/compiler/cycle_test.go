package compiler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/datalogq/internal/ir"
)

// indexOf returns the position of name in order, or -1.
func indexOf(order []string, name string) int {
	for i, n := range order {
		if n == name {
			return i
		}
	}
	return -1
}

func TestSortedPredicateOrder_Chain(t *testing.T) {
	q := ir.Query{
		Program: program(
			ir.NewRule(ir.Pos("c", X), ir.Pos("b", X)),
			ir.NewRule(ir.Pos("b", X), ir.Pos("a", X)),
			ir.NewFact("a", "x"),
		),
		Goal: ir.Pos("c", X),
	}
	order, err := SortedPredicateOrder(q)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestSortedPredicateOrder_Diamond(t *testing.T) {
	// top depends on left and right, both depend on base.
	q := ir.Query{
		Program: program(
			ir.NewRule(ir.Pos("top", X), ir.Pos("left", X), ir.Pos("right", X)),
			ir.NewRule(ir.Pos("left", X), ir.Pos("base", X)),
			ir.NewRule(ir.Pos("right", X), ir.Pos("base", X), ir.Neg("other", X)),
			ir.NewFact("base", "x"),
			ir.NewFact("other", "y"),
		),
		Goal: ir.Pos("top", X),
	}
	order, err := SortedPredicateOrder(q)
	require.NoError(t, err)
	require.Len(t, order, 5)

	deps := map[string][]string{
		"top":   {"left", "right"},
		"left":  {"base"},
		"right": {"base", "other"},
	}
	for node, ds := range deps {
		for _, d := range ds {
			assert.Less(t, indexOf(order, d), indexOf(order, node), "%s must come before %s", d, node)
		}
	}
	assert.Equal(t, "top", order[len(order)-1])
}

func TestSortedPredicateOrder_SelfRecursion(t *testing.T) {
	q := ir.Query{
		Program: program(
			ir.NewFact("edge", "a", "b"),
			ir.NewRule(ir.Pos("path", X, Y), ir.Pos("edge", X, Y)),
			ir.NewRule(ir.Pos("path", X, Z), ir.Pos("path", X, Y), ir.Pos("edge", Y, Z)),
		),
		Goal: ir.Pos("path", X, Y),
	}
	_, err := SortedPredicateOrder(q)
	require.Error(t, err)

	var re *RecursionError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, []string{"path", "path"}, re.Path)
	assert.Contains(t, err.Error(), "path → path")
}

func TestSortedPredicateOrder_TransitiveRecursion(t *testing.T) {
	q := ir.Query{
		Program: program(
			ir.NewRule(ir.Pos("goal", X), ir.Pos("p", X)),
			ir.NewRule(ir.Pos("p", X), ir.Pos("q", X)),
			ir.NewRule(ir.Pos("q", X), ir.Pos("r", X)),
			ir.NewRule(ir.Pos("r", X), ir.Neg("p", X), ir.Pos("base", X)),
			ir.NewFact("base", "x"),
		),
		Goal: ir.Pos("goal", X),
	}
	_, err := SortedPredicateOrder(q)
	var re *RecursionError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, []string{"p", "q", "r", "p"}, re.Path)
}

func TestSortedPredicateOrder_IgnoresUnreachableCycle(t *testing.T) {
	q := ir.Query{
		Program: program(
			ir.NewFact("a", "x"),
			ir.NewRule(ir.Pos("goal", X), ir.Pos("a", X)),
			ir.NewRule(ir.Pos("loop", X), ir.Pos("loop", X)),
		),
		Goal: ir.Pos("goal", X),
	}
	order, err := SortedPredicateOrder(q)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "goal"}, order)
}

func TestSortRules_PreservesRelativeOrder(t *testing.T) {
	r1 := ir.NewRule(ir.Pos("q", X), ir.Pos("p", X), ir.Neq(X, a))
	r2 := ir.NewRule(ir.Pos("q", X), ir.Pos("s", X))
	q := ir.Query{
		Program: program(
			r1,
			ir.NewFact("p", "a"),
			r2,
			ir.NewFact("s", "c"),
			ir.NewFact("p", "b"),
			ir.NewFact("unused", "z"),
		),
		Goal: ir.Pos("q", X),
	}
	rules, order, err := SortRules(q)
	require.NoError(t, err)
	assert.Equal(t, []string{"p", "s", "q"}, order)

	var rendered []string
	for _, r := range rules {
		rendered = append(rendered, r.String())
	}
	assert.Equal(t, []string{
		"p(a).",
		"p(b).",
		"s(c).",
		r1.String(),
		r2.String(),
	}, rendered)
}

func TestAnalyzeCycles_DAG(t *testing.T) {
	p := program(
		ir.NewRule(ir.Pos("b", X), ir.Pos("a", X)),
		ir.NewFact("a", "x"),
	)
	assert.Empty(t, AnalyzeCycles(p))
}

func TestAnalyzeCycles_SelfLoop(t *testing.T) {
	p := program(ir.NewRule(ir.Pos("p", X), ir.Pos("p", X)))
	warnings := AnalyzeCycles(p)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"p", "p"}, warnings[0].Path)
	assert.Equal(t, ErrRecursiveDependency, warnings[0].Code)
}

func TestAnalyzeCycles_TwoNodeCycle(t *testing.T) {
	p := program(
		ir.NewRule(ir.Pos("p", X), ir.Pos("q", X)),
		ir.NewRule(ir.Pos("q", X), ir.Pos("p", X)),
	)
	warnings := AnalyzeCycles(p)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"p", "q", "p"}, warnings[0].Path)
	assert.Contains(t, warnings[0].Message, "p → q → p")
}

func TestAnalyzeCycles_MultipleComponents(t *testing.T) {
	p := program(
		ir.NewRule(ir.Pos("p", X), ir.Pos("p", X)),
		ir.NewRule(ir.Pos("q", X), ir.Pos("r", X)),
		ir.NewRule(ir.Pos("r", X), ir.Pos("q", X)),
		ir.NewRule(ir.Pos("s", X), ir.Pos("p", X)),
	)
	assert.Len(t, AnalyzeCycles(p), 2)
}

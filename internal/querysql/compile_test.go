package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/datalogq/internal/compiler"
	"github.com/roach88/datalogq/internal/ir"
	"github.com/roach88/datalogq/internal/queryir"
)

var (
	X = ir.Var("X")
	Y = ir.Var("Y")
	Z = ir.Var("Z")
	a = ir.Const("a")
)

func compileRule(t *testing.T, r ir.Rule) (string, []any) {
	t.Helper()
	plan, err := compiler.PlanRule(r)
	require.NoError(t, err)
	sql, params, err := NewSQLCompiler().Compile(plan)
	require.NoError(t, err)
	return sql, params
}

func TestCompile_ConstantSelection(t *testing.T) {
	sql, params := compileRule(t, ir.NewRule(ir.Pos("q", Y), ir.Pos("p", a, Y)))

	assert.Equal(t,
		`SELECT "t0".c1 FROM "rel_p" AS "t0" WHERE "t0".c0 = ? ORDER BY "t0"._seq ASC`,
		sql)
	assert.Equal(t, []any{"a"}, params)
	assert.NotContains(t, sql, "'a'") // value NOT in SQL
}

func TestCompile_Join(t *testing.T) {
	sql, params := compileRule(t, ir.NewRule(ir.Pos("q", X, Z), ir.Pos("p", X, Y), ir.Pos("r", Y, Z)))

	assert.Equal(t,
		`SELECT "t0".c0, "t1".c1 FROM "rel_p" AS "t0" JOIN "rel_r" AS "t1" ON "t0".c1 = "t1".c0`+
			` ORDER BY "t0"._seq ASC, "t1"._seq ASC`,
		sql)
	assert.Empty(t, params)
}

func TestCompile_CrossJoin(t *testing.T) {
	sql, _ := compileRule(t, ir.NewRule(ir.Pos("q", X, Y), ir.Pos("p", X), ir.Pos("r", Y)))
	assert.Contains(t, sql, `"rel_p" AS "t0" CROSS JOIN "rel_r" AS "t1"`)
}

func TestCompile_NegationAndDisequality(t *testing.T) {
	sql, params := compileRule(t, ir.NewRule(
		ir.Pos("q", X),
		ir.Pos("p", X, Y),
		ir.Neg("r", Y, a),
		ir.Neq(X, Y),
	))

	assert.Equal(t,
		`SELECT "t0".c0 FROM "rel_p" AS "t0"`+
			` WHERE NOT EXISTS (SELECT 1 FROM "rel_r" AS "n1" WHERE "n1".c0 = "t0".c1 AND "n1".c1 = ?)`+
			` AND "t0".c0 <> "t0".c1`+
			` ORDER BY "t0"._seq ASC`,
		sql)
	assert.Equal(t, []any{"a"}, params)
}

func TestCompile_ParamsInTextualOrder(t *testing.T) {
	// Head constant comes first in the SELECT list, then the filter value.
	sql, params := compileRule(t, ir.NewRule(ir.Pos("q", ir.Const("k"), X), ir.Pos("p", X, a)))

	assert.Equal(t,
		`SELECT ?, "t0".c0 FROM "rel_p" AS "t0" WHERE "t0".c1 = ? ORDER BY "t0"._seq ASC`,
		sql)
	assert.Equal(t, []any{"k", "a"}, params)
}

func TestCompile_NoFrom(t *testing.T) {
	sql, params := compileRule(t, ir.NewRule(ir.Pos("q", a), ir.Neg("p", a)))
	assert.Equal(t,
		`SELECT ? WHERE NOT EXISTS (SELECT 1 FROM "rel_p" AS "n1" WHERE "n1".c0 = ?)`,
		sql)
	assert.Equal(t, []any{"a", "a"}, params)
}

func TestCompile_NullaryHead(t *testing.T) {
	sql, _ := compileRule(t, ir.NewRule(ir.Pos("any"), ir.Pos("p", X)))
	assert.Equal(t, `SELECT NULL FROM "rel_p" AS "t0" ORDER BY "t0"._seq ASC`, sql)
}

func TestCompile_Goal(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(compiler.PlanGoal(ir.Pos("p", X, X, a)))
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "g".c0, "g".c1, "g".c2 FROM "rel_p" AS "g" WHERE "g".c0 = "g".c1 AND "g".c2 = ? ORDER BY "g"._seq ASC`,
		sql)
	assert.Equal(t, []any{"a"}, params)
}

func TestCompile_BareScan(t *testing.T) {
	sql, _, err := NewSQLCompiler().Compile(queryir.Scan{Relation: "p", Alias: "s", Arity: 2})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "s".c0, "s".c1 FROM "rel_p" AS "s" ORDER BY "s"._seq ASC`, sql)
}

func TestCompile_QuotesIdentifiers(t *testing.T) {
	sql, _ := compileRule(t, ir.NewRule(ir.Pos("q", X), ir.Pos(`Big "Co"`, X)))
	assert.Contains(t, sql, `"rel_Big ""Co"""`)
}

func TestCompile_Errors(t *testing.T) {
	c := NewSQLCompiler()

	_, _, err := c.Compile(nil)
	assert.Error(t, err)

	_, _, err = c.Compile(queryir.Select{
		From:    queryir.Scan{Relation: "p", Alias: "t0", Arity: 1},
		Outputs: []queryir.Operand{queryir.ColumnRef{Alias: "t9", Index: 0}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid plan")
}

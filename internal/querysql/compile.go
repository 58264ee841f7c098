package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/datalogq/internal/queryir"
	"github.com/roach88/datalogq/internal/store"
)

// SQLCompiler compiles relational plans to parameterized SQL for SQLite.
//
// CRITICAL: Every SELECT with a FROM clause is ordered by the _seq column
// of each scan, left to right, so results are deterministic.
// CRITICAL: Constants are always parameters, never interpolated.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a plan to parameterized SQL.
// Returns (sql, params, error) tuple.
//
// The plan is checked with queryir.Validate first; a malformed plan is an
// error, never partially compiled.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}
	if res := queryir.Validate(q); !res.Valid {
		return "", nil, fmt.Errorf("invalid plan: %s", strings.Join(res.Problems, "; "))
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case queryir.Scan, queryir.Join:
		return c.compileSelect(queryir.Select{From: q, Outputs: allColumns(q)})
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

// compileSelect compiles a Select to SQL.
// Clause order matters: params are collected in textual order.
func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	var params []any

	outputs := "NULL"
	if len(q.Outputs) > 0 {
		parts := make([]string, len(q.Outputs))
		for i, out := range q.Outputs {
			sql, ps, err := c.compileOperand(out)
			if err != nil {
				return "", nil, fmt.Errorf("compile output %d: %w", i, err)
			}
			parts[i] = sql
			params = append(params, ps...)
		}
		outputs = strings.Join(parts, ", ")
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(outputs)

	if q.From != nil {
		from, ps, err := c.compileSource(q.From)
		if err != nil {
			return "", nil, fmt.Errorf("compile from: %w", err)
		}
		b.WriteString(" FROM ")
		b.WriteString(from)
		params = append(params, ps...)
	}

	if q.Filter != nil {
		where, ps, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		b.WriteString(" WHERE ")
		b.WriteString(where)
		params = append(params, ps...)
	}

	if q.From != nil {
		b.WriteString(" ORDER BY ")
		b.WriteString(stableOrderKey(q.From))
	}

	return b.String(), params, nil
}

// compileSource compiles a Scan or left-deep Join to a FROM clause.
func (c *SQLCompiler) compileSource(q queryir.Query) (string, []any, error) {
	switch src := q.(type) {
	case queryir.Scan:
		return fmt.Sprintf("%s AS %s", store.TableName(src.Relation), store.QuoteIdent(src.Alias)), nil, nil
	case queryir.Join:
		left, lp, err := c.compileSource(src.Left)
		if err != nil {
			return "", nil, err
		}
		right, rp, err := c.compileSource(src.Right)
		if err != nil {
			return "", nil, err
		}
		params := append(lp, rp...)
		if src.On == nil {
			return fmt.Sprintf("%s CROSS JOIN %s", left, right), params, nil
		}
		on, op, err := c.compilePredicate(src.On)
		if err != nil {
			return "", nil, fmt.Errorf("compile join ON: %w", err)
		}
		return fmt.Sprintf("%s JOIN %s ON %s", left, right, on), append(params, op...), nil
	default:
		return "", nil, fmt.Errorf("unsupported source type: %T", q)
	}
}

// compilePredicate compiles a predicate to a WHERE clause fragment.
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case queryir.Equals:
		return c.compileComparison(pred.Left, "=", pred.Right)
	case queryir.NotEquals:
		return c.compileComparison(pred.Left, "<>", pred.Right)
	case queryir.And:
		return c.compileAnd(pred)
	case queryir.NotExists:
		return c.compileNotExists(pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileComparison(left queryir.Operand, op string, right queryir.Operand) (string, []any, error) {
	l, lp, err := c.compileOperand(left)
	if err != nil {
		return "", nil, err
	}
	r, rp, err := c.compileOperand(right)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("%s %s %s", l, op, r), append(lp, rp...), nil
}

// compileAnd compiles an And predicate to conjunction with AND.
func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil // Always true (vacuous truth)
	}

	var sqlParts []string
	var allParams []any
	for _, pred := range and.Predicates {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}
	return strings.Join(sqlParts, " AND "), allParams, nil
}

// compileNotExists compiles an anti-join to a correlated NOT EXISTS.
func (c *SQLCompiler) compileNotExists(ne queryir.NotExists) (string, []any, error) {
	from, params, err := c.compileSource(ne.Source)
	if err != nil {
		return "", nil, err
	}
	if ne.Filter == nil {
		return fmt.Sprintf("NOT EXISTS (SELECT 1 FROM %s)", from), params, nil
	}
	where, wp, err := c.compilePredicate(ne.Filter)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("NOT EXISTS (SELECT 1 FROM %s WHERE %s)", from, where), append(params, wp...), nil
}

func (c *SQLCompiler) compileOperand(o queryir.Operand) (string, []any, error) {
	switch op := o.(type) {
	case queryir.ColumnRef:
		return fmt.Sprintf("%s.%s", store.QuoteIdent(op.Alias), store.Column(op.Index)), nil, nil
	case queryir.Value:
		return "?", []any{op.Text}, nil
	default:
		return "", nil, fmt.Errorf("unsupported operand type: %T", o)
	}
}

// stableOrderKey orders rows by the insertion sequence of every scan in
// the source, leftmost first.
func stableOrderKey(q queryir.Query) string {
	var keys []string
	for _, s := range scans(q) {
		keys = append(keys, store.QuoteIdent(s.Alias)+"._seq ASC")
	}
	return strings.Join(keys, ", ")
}

// scans lists the scans of a source from left to right.
func scans(q queryir.Query) []queryir.Scan {
	switch src := q.(type) {
	case queryir.Scan:
		return []queryir.Scan{src}
	case queryir.Join:
		return append(scans(src.Left), scans(src.Right)...)
	default:
		return nil
	}
}

// allColumns projects every column of every scan in q.
func allColumns(q queryir.Query) []queryir.Operand {
	var outs []queryir.Operand
	for _, s := range scans(q) {
		for i := 0; i < s.Arity; i++ {
			outs = append(outs, queryir.ColumnRef{Alias: s.Alias, Index: i})
		}
	}
	return outs
}

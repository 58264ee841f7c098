package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/datalogq/internal/ir"
)

func answer(rows ...ir.Row) *Result {
	r := NewResult("run")
	r.Order = []string{"p", "q"}
	r.Rows = ir.Relation(rows)
	return r
}

func TestAssertRows_Multiset(t *testing.T) {
	result := answer(ir.Row{"b"}, ir.Row{"a"}, ir.Row{"a"})

	assert.NoError(t, assertRows(result, Assertion{Rows: [][]string{{"a"}, {"a"}, {"b"}}}))
	assert.Error(t, assertRows(result, Assertion{Rows: [][]string{{"a"}, {"b"}}}))
	assert.Error(t, assertRows(result, Assertion{Rows: [][]string{{"a"}, {"b"}, {"b"}}}))
}

func TestAssertRows_CanonicalNames(t *testing.T) {
	result := answer(ir.Row{"café"})
	assert.NoError(t, assertRows(result, Assertion{Rows: [][]string{{"café"}}}))
}

func TestAssertRows_Empty(t *testing.T) {
	assert.NoError(t, assertRows(answer(), Assertion{}))
}

func TestAssertMembership(t *testing.T) {
	result := answer(ir.Row{"a", "b"})

	assert.NoError(t, assertMembership(result, Assertion{Type: AssertContains, Row: []string{"a", "b"}}, true))
	assert.Error(t, assertMembership(result, Assertion{Type: AssertContains, Row: []string{"b", "a"}}, true))
	assert.NoError(t, assertMembership(result, Assertion{Type: AssertExcludes, Row: []string{"b", "a"}}, false))

	err := assertMembership(result, Assertion{Type: AssertExcludes, Row: []string{"a", "b"}}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in answer")
}

func TestAssertRowCount(t *testing.T) {
	result := answer(ir.Row{"a"}, ir.Row{"a"})
	assert.NoError(t, assertRowCount(result, Assertion{Count: 2}))

	err := assertRowCount(result, Assertion{Count: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Actual: 2 rows")
}

func TestAssertOrder(t *testing.T) {
	result := answer()
	assert.NoError(t, assertOrder(result, Assertion{Predicates: []string{"p", "q"}}))
	assert.Error(t, assertOrder(result, Assertion{Predicates: []string{"q", "p"}}))
}

func TestAssertError(t *testing.T) {
	ok := answer()
	err := assertError(ok, Assertion{Code: "RECURSION_DETECTED"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evaluation succeeded")

	failed := NewResult("run")
	failed.ErrorCode = "RECURSION_DETECTED"
	failed.Error = "RECURSION_DETECTED: recursive dependency detected: p → p"
	assert.NoError(t, assertError(failed, Assertion{Code: "RECURSION_DETECTED"}))
	assert.Error(t, assertError(failed, Assertion{Code: "PRECONDITION_FAILED"}))
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	errs := EvaluateAssertions(answer(), []Assertion{{Type: "final_state"}}, nil)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `unknown assertion type "final_state"`)
}

func TestEvaluateAssertions_BackendRequired(t *testing.T) {
	errs := EvaluateAssertions(answer(), []Assertion{{Type: AssertBackendAgrees}}, &AssertionContext{Ctx: context.Background()})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "requires a backend")
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertRowCount,
		Expected: "1 rows",
		Actual:   "2 rows",
		Rows:     ir.Relation{{"a"}, {"Big Co"}},
	}

	want := "Assertion failed: row_count\n" +
		"  Expected: 1 rows\n" +
		"  Actual: 2 rows\n" +
		"\nFull answer:\n" +
		"  [1] (a)\n" +
		"  [2] ('Big Co')\n"
	assert.Equal(t, want, err.Error())
}

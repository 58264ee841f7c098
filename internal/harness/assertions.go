package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/datalogq/internal/ir"
	"github.com/roach88/datalogq/internal/querysql"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string      // Assertion type for categorization
	Expected string      // Human-readable expected outcome
	Actual   string      // Human-readable actual outcome
	Rows     ir.Relation // Full answer for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Rows) > 0 {
		fmt.Fprintf(&buf, "\nFull answer:\n")
		for i, row := range e.Rows {
			fmt.Fprintf(&buf, "  [%d] %s\n", i+1, row)
		}
	}

	return buf.String()
}

// multiset returns the canonical keys of rows, sorted.
func multiset(rows ir.Relation) []string {
	keys := make([]string, len(rows))
	for i, row := range rows {
		keys[i] = ir.CanonicalRow(row)
	}
	slices.Sort(keys)
	return keys
}

func toRelation(rows [][]string) ir.Relation {
	rel := make(ir.Relation, len(rows))
	for i, r := range rows {
		rel[i] = ir.Row(r)
	}
	return rel
}

// hasRow reports whether rows contains row under canonical comparison.
func hasRow(rows ir.Relation, row ir.Row) bool {
	key := ir.CanonicalRow(row)
	for _, r := range rows {
		if len(r) == len(row) && ir.CanonicalRow(r) == key {
			return true
		}
	}
	return false
}

// requireAnswer fails assertions that need rows when evaluation failed.
func requireAnswer(result *Result, kind string) error {
	if !result.Failed() {
		return nil
	}
	return &AssertionError{
		Type:     kind,
		Expected: "evaluation to succeed",
		Actual:   fmt.Sprintf("evaluation failed: %s", result.Error),
	}
}

// assertRows checks the answer equals the expected rows as a multiset.
func assertRows(result *Result, assertion Assertion) error {
	if err := requireAnswer(result, AssertRows); err != nil {
		return err
	}
	want := toRelation(assertion.Rows)
	if slices.Equal(multiset(want), multiset(result.Rows)) {
		return nil
	}
	return &AssertionError{
		Type:     AssertRows,
		Expected: fmt.Sprintf("%d rows %v", len(want), want),
		Actual:   fmt.Sprintf("%d rows", len(result.Rows)),
		Rows:     result.Rows,
	}
}

// assertMembership checks whether the answer has assertion.Row.
func assertMembership(result *Result, assertion Assertion, want bool) error {
	if err := requireAnswer(result, assertion.Type); err != nil {
		return err
	}
	row := ir.Row(assertion.Row)
	if hasRow(result.Rows, row) == want {
		return nil
	}

	expected, actual := fmt.Sprintf("row %s in answer", row), "not found"
	if !want {
		expected, actual = fmt.Sprintf("row %s not in answer", row), "found"
	}
	return &AssertionError{
		Type:     assertion.Type,
		Expected: expected,
		Actual:   actual,
		Rows:     result.Rows,
	}
}

// assertRowCount checks the answer has exactly assertion.Count rows.
func assertRowCount(result *Result, assertion Assertion) error {
	if err := requireAnswer(result, AssertRowCount); err != nil {
		return err
	}
	if len(result.Rows) == assertion.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertRowCount,
		Expected: fmt.Sprintf("%d rows", assertion.Count),
		Actual:   fmt.Sprintf("%d rows", len(result.Rows)),
		Rows:     result.Rows,
	}
}

// assertOrder checks the evaluation order.
func assertOrder(result *Result, assertion Assertion) error {
	if err := requireAnswer(result, AssertOrder); err != nil {
		return err
	}
	if slices.Equal(result.Order, assertion.Predicates) {
		return nil
	}
	return &AssertionError{
		Type:     AssertOrder,
		Expected: strings.Join(assertion.Predicates, ", "),
		Actual:   strings.Join(result.Order, ", "),
	}
}

// assertError checks evaluation failed with the expected code.
func assertError(result *Result, assertion Assertion) error {
	if result.ErrorCode == assertion.Code {
		return nil
	}
	actual := "evaluation succeeded"
	if result.Failed() {
		actual = fmt.Sprintf("%s (%s)", result.ErrorCode, result.Error)
	}
	return &AssertionError{
		Type:     AssertError,
		Expected: assertion.Code,
		Actual:   actual,
		Rows:     result.Rows,
	}
}

// assertBackendAgrees re-evaluates the query on the SQLite backend and
// compares the answers as multisets.
func assertBackendAgrees(actx *AssertionContext, result *Result) error {
	if err := requireAnswer(result, AssertBackendAgrees); err != nil {
		return err
	}
	other, err := actx.Backend.Evaluate(actx.Ctx, actx.Query, actx.Dedup)
	if err != nil {
		return &AssertionError{
			Type:     AssertBackendAgrees,
			Expected: "sqlite evaluation to succeed",
			Actual:   err.Error(),
		}
	}
	if slices.Equal(multiset(result.Rows), multiset(other.Rows)) {
		return nil
	}
	return &AssertionError{
		Type:     AssertBackendAgrees,
		Expected: fmt.Sprintf("sqlite answer %v", other.Rows),
		Actual:   fmt.Sprintf("%d rows in memory, %d in sqlite", len(result.Rows), len(other.Rows)),
		Rows:     result.Rows,
	}
}

// AssertionContext provides context for evaluating assertions.
type AssertionContext struct {
	Ctx     context.Context
	Query   ir.Query
	Dedup   bool
	Backend *querysql.Backend
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
// The actx parameter provides the SQLite backend for backend_agrees.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertRows:
			err = assertRows(result, assertion)
		case AssertContains:
			err = assertMembership(result, assertion, true)
		case AssertExcludes:
			err = assertMembership(result, assertion, false)
		case AssertRowCount:
			err = assertRowCount(result, assertion)
		case AssertOrder:
			err = assertOrder(result, assertion)
		case AssertError:
			err = assertError(result, assertion)
		case AssertBackendAgrees:
			if actx == nil || actx.Backend == nil {
				err = fmt.Errorf("assertion[%d]: backend_agrees requires a backend", i)
			} else {
				err = assertBackendAgrees(actx, result)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/datalogq/internal/ir"
)

func TestRun_InlineSource(t *testing.T) {
	scenario := &Scenario{
		Name:        "inline",
		Description: "Inline program",
		Source:      "p(a). p(b). q(X) <- p(X), X != b. ? q(X).",
		RunID:       "test-run-inline",
		Assertions: []Assertion{
			{Type: AssertRows, Rows: [][]string{{"a"}}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "test-run-inline", result.RunID)
	assert.Equal(t, []string{"p", "q"}, result.Order)
	assert.Equal(t, ir.Relation{{"a"}}, result.Rows)
	require.Len(t, result.Steps, 1)
	assert.Equal(t, 1, result.Steps[0].Rows)
}

func TestRun_DefaultRunID(t *testing.T) {
	scenario := &Scenario{
		Name:        "default-run",
		Description: "No run ID",
		Source:      "p(a). ? p(X).",
		Assertions:  []Assertion{{Type: AssertRowCount, Count: 1}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.Equal(t, "test-run-default", result.RunID)
}

func TestRun_FailedAssertion(t *testing.T) {
	scenario := &Scenario{
		Name:        "failing",
		Description: "Wrong expectation",
		Source:      "p(a). ? p(X).",
		Assertions: []Assertion{
			{Type: AssertRows, Rows: [][]string{{"b"}}},
			{Type: AssertRowCount, Count: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Assertion failed: rows")
	assert.Contains(t, result.Errors[0], "[1] (a)")
}

func TestRun_RuntimeErrorIsPartOfResult(t *testing.T) {
	scenario := &Scenario{
		Name:        "unsafe",
		Description: "Unsafe rule",
		Source:      "p(a). q(X, Y) <- p(X). ? q(X, Y).",
		Assertions: []Assertion{
			{Type: AssertError, Code: "PRECONDITION_FAILED"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "PRECONDITION_FAILED", result.ErrorCode)
	assert.Nil(t, result.Rows)
	assert.True(t, result.Failed())
}

func TestRun_AnswerAssertionsFailOnError(t *testing.T) {
	scenario := &Scenario{
		Name:        "unsafe-rows",
		Description: "Rows asserted on a failing query",
		Source:      "p(a). q(X, Y) <- p(X). ? q(X, Y).",
		Assertions:  []Assertion{{Type: AssertRowCount, Count: 0}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "evaluation failed")
}

func TestRun_BackendAgrees(t *testing.T) {
	scenario := &Scenario{
		Name:        "agree",
		Description: "Both backends agree",
		Source: `
edge(a, b). edge(b, c). edge(c, a). edge(a, a).
two(X, Z) <- edge(X, Y), edge(Y, Z), ~edge(Z, X).
? two(X, Z).`,
		Assertions: []Assertion{{Type: AssertBackendAgrees}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_MissingQuery(t *testing.T) {
	scenario := &Scenario{
		Name:        "no-query",
		Description: "Program without a query",
		Source:      "p(a).",
		Assertions:  []Assertion{{Type: AssertRowCount}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "program has no query")
}

func TestRun_ParseError(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad-syntax",
		Description: "Syntax error",
		Source:      "p(a) ? p(X).",
		Assertions:  []Assertion{{Type: AssertRowCount}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load program")
}

func TestRun_Isolation(t *testing.T) {
	// Same scenario twice gives identical reports.
	scenario := &Scenario{
		Name:        "repeat",
		Description: "Repeatable",
		Source:      "p(a). p(b). q(X) <- p(X). ? q(X).",
		Assertions:  []Assertion{{Type: AssertBackendAgrees}},
	}

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, Report("repeat", first), Report("repeat", second))
}

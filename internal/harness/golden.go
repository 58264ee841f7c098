package harness

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Report renders a scenario result as deterministic text for golden
// comparison:
//
//	scenario: grandparents
//	run: test-run-family
//	order: parent, grandparent
//	step 1: grandparent(X, Z) ← parent(X, Y), parent(Y, Z). [2 rows]
//	answer: 1 rows
//	  (adam, enoch)
//
// A failed evaluation renders its error code in place of the order, steps
// and answer. Assertion outcomes are not part of the report.
func Report(name string, r *Result) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "scenario: %s\n", name)
	fmt.Fprintf(&b, "run: %s\n", r.RunID)

	if r.Failed() {
		code := r.ErrorCode
		if code == "" {
			code = r.Error
		}
		fmt.Fprintf(&b, "error: %s\n", code)
		return b.Bytes()
	}

	fmt.Fprintf(&b, "order: %s\n", strings.Join(r.Order, ", "))
	for _, s := range r.Steps {
		fmt.Fprintf(&b, "step %d: %s [%d rows]\n", s.Step, s.Rule, s.Rows)
	}
	fmt.Fprintf(&b, "answer: %d rows\n", len(r.Rows))
	for _, row := range r.Rows {
		fmt.Fprintf(&b, "  %s\n", row)
	}
	return b.Bytes()
}

// RunWithGolden executes a scenario and compares its report against a
// golden file. The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the report doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares the report of an existing result against a golden
// file without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, Report(scenarioName, result))
}

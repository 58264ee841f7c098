package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/datalogq/internal/ir"
)

// scenariosDir holds the shared scenario files at the project root.
const scenariosDir = "../../testdata/scenarios"

func TestGoldenScenarios(t *testing.T) {
	tests := []string{
		"grandparents",
		"roots",
		"colleagues",
		"drinks",
		"recursive-path",
	}

	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join(scenariosDir, name+".yaml"))
			require.NoError(t, err)
			assert.Equal(t, name, scenario.Name)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestReport_Answer(t *testing.T) {
	result := NewResult("run-1")
	result.Order = []string{"p", "q"}
	result.Rows = ir.Relation{{"a", "Big Co"}}

	want := "scenario: demo\n" +
		"run: run-1\n" +
		"order: p, q\n" +
		"answer: 1 rows\n" +
		"  (a, 'Big Co')\n"
	assert.Equal(t, want, string(Report("demo", result)))
}

func TestReport_Error(t *testing.T) {
	result := NewResult("run-1")
	result.ErrorCode = "PRECONDITION_FAILED"
	result.Error = "PRECONDITION_FAILED: query failed static validation"

	want := "scenario: demo\nrun: run-1\nerror: PRECONDITION_FAILED\n"
	assert.Equal(t, want, string(Report("demo", result)))
}

func TestReport_ErrorWithoutCode(t *testing.T) {
	result := NewResult("run-1")
	result.Error = "context canceled"

	assert.Contains(t, string(Report("demo", result)), "error: context canceled\n")
}

package harness

import (
	"github.com/roach88/datalogq/internal/engine"
	"github.com/roach88/datalogq/internal/ir"
)

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if all assertions hold.
	Pass bool `json:"pass"`

	// RunID identifies the evaluation.
	RunID string `json:"run_id"`

	// Order is the evaluation order of the predicates the goal depends on.
	Order []string `json:"order,omitempty"`

	// Steps describe each derived rule in evaluation order.
	Steps []engine.RuleStat `json:"steps,omitempty"`

	// Rows is the answer relation. Nil when evaluation failed.
	Rows ir.Relation `json:"rows,omitempty"`

	// ErrorCode is the runtime error code when evaluation failed.
	ErrorCode string `json:"error_code,omitempty"`

	// Error is the evaluation error message, if any.
	Error string `json:"error,omitempty"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult(runID string) *Result {
	return &Result{
		Pass:   true,
		RunID:  runID,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Failed reports whether evaluation returned an error.
func (r *Result) Failed() bool {
	return r.ErrorCode != "" || r.Error != ""
}

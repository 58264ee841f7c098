package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines a query test scenario.
// Scenarios evaluate a program and assert on the answer, the evaluation
// order or the error.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Program is the path to a program file (.dl, .cue, .yaml).
	// Relative paths are resolved against the scenario's base path.
	Program string `yaml:"program,omitempty"`

	// Source is an inline program in text syntax. Exactly one of Program
	// and Source is set.
	Source string `yaml:"source,omitempty"`

	// Dedup removes duplicate answer rows.
	Dedup bool `yaml:"dedup,omitempty"`

	// RunID is an optional fixed run ID for deterministic reports.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// Assertions validate the evaluation outcome.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates the answer, the order or the error of a run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "rows": answer equals Rows as a multiset
	// - "contains": answer has Row
	// - "excludes": answer does not have Row
	// - "row_count": answer has exactly Count rows
	// - "order": evaluation order equals Predicates
	// - "error": evaluation failed with Code
	// - "backend_agrees": the SQLite backend returns the same multiset
	Type string `yaml:"type"`

	// Rows are the expected answer rows (used by rows).
	Rows [][]string `yaml:"rows,omitempty"`

	// Row is a single answer row (used by contains and excludes).
	Row []string `yaml:"row,omitempty"`

	// Count is the expected number of rows (used by row_count).
	Count int `yaml:"count,omitempty"`

	// Predicates is the expected evaluation order (used by order).
	Predicates []string `yaml:"predicates,omitempty"`

	// Code is the expected runtime error code (used by error).
	Code string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertRows          = "rows"
	AssertContains      = "contains"
	AssertExcludes      = "excludes"
	AssertRowCount      = "row_count"
	AssertOrder         = "order"
	AssertError         = "error"
	AssertBackendAgrees = "backend_agrees"
)

// LoadScenario reads and parses a scenario YAML file.
// Program paths are resolved relative to the scenario file's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the program path relative to the provided base path.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Resolve the program path BEFORE validation
	if scenario.Program != "" && !filepath.IsAbs(scenario.Program) && basePath != "" {
		scenario.Program = filepath.Join(basePath, scenario.Program)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Program == "" && s.Source == "":
		return fmt.Errorf("one of program or source is required")
	case s.Program != "" && s.Source != "":
		return fmt.Errorf("program and source are mutually exclusive")
	}

	if s.Program != "" {
		if _, err := os.Stat(s.Program); os.IsNotExist(err) {
			return fmt.Errorf("program file not found: %s", s.Program)
		}
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertRows, AssertBackendAgrees:
	case AssertContains, AssertExcludes:
		if a.Row == nil {
			return fmt.Errorf("assertions[%d]: row is required for %s", index, a.Type)
		}
	case AssertRowCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for row_count", index)
		}
	case AssertOrder:
		if len(a.Predicates) == 0 {
			return fmt.Errorf("assertions[%d]: predicates list is required for order", index)
		}
	case AssertError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

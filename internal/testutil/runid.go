package testutil

// FixedRunID returns the same run ID every time.
//
// This enables deterministic scenario reports and golden snapshot comparison.
// The harness evaluates a scenario once per backend, and both runs carry the
// same ID.
//
// Unlike engine.FixedGenerator which returns IDs in sequence and panics when
// they run out, this generator never runs out.
//
// Thread-safety: FixedRunID is stateless and safe for concurrent use.
type FixedRunID struct {
	id string
}

// NewFixedRunID creates a fixed run ID generator.
//
// The ID is typically set in the scenario YAML:
//
//	run_id: "test-run-00000000-0000-0000-0000-000000000001"
//
// If id is empty, Generate() returns "test-run-default".
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed run ID.
//
// Implements engine.RunIDGenerator.
func (g *FixedRunID) Generate() string {
	return g.id
}

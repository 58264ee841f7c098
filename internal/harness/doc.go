// Package harness runs query scenarios and checks their answers.
//
// A scenario names a program (a file or inline text), evaluates it and
// checks assertions against the answer rows, the evaluation order or the
// error. The SQLite backend can be asked to reproduce the answer.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: grandparents
//	description: "Two-step join over parent facts"
//	program: programs/family.dl   # relative to the scenario file
//	dedup: true
//	run_id: test-run-family
//	assertions:
//	  - type: rows
//	    rows: [[adam, enoch]]
//	  - type: contains
//	    row: [adam, enoch]
//	  - type: excludes
//	    row: [adam, cain]
//	  - type: row_count
//	    count: 1
//	  - type: order
//	    predicates: [parent, grandparent]
//	  - type: backend_agrees
//
// Instead of program, source holds the program text inline. A scenario that
// expects evaluation to fail uses an error assertion:
//
//	  - type: error
//	    code: RECURSION_DETECTED
//
// # Assertion Types
//
//   - rows: the answer equals the listed rows as a multiset
//   - contains: the answer has the row
//   - excludes: the answer does not have the row
//   - row_count: the answer has exactly count rows
//   - order: the evaluation order is exactly the listed predicates
//   - error: evaluation failed with the runtime error code
//   - backend_agrees: the SQLite backend returns the same multiset
//
// # Deterministic Testing
//
// Each run uses a fixed run ID (scenario.run_id or "test-run-default") and a
// fresh in-memory SQLite database, so reports are byte-identical across runs
// and can be compared against golden files.
package harness

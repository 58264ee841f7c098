// Package ir provides the term, clause and rule types for datalogq.
//
// This package contains type definitions and rendering only. All other
// internal packages import ir; ir imports nothing internal. This keeps IR the
// foundational layer with no circular dependencies.
//
// Key design constraints:
//   - Term and BodyElement are sealed interfaces; switch on them exhaustively
//   - Terms are comparable value types (variant + name)
//   - Rules are never mutated by analysis; rewrites return new rules
//   - Wildcards carry no identity and never equal each other
package ir

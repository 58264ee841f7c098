// Package store provides SQLite-backed storage for predicate relations.
//
// The store holds one table per predicate plus a catalog:
//   - relations: predicate name → arity and table name
//   - one relation table per predicate with columns c0..c<n-1> (TEXT) and an
//     _seq INTEGER PRIMARY KEY recording insertion order
//
// It serves two purposes: the SQL reference evaluator in internal/querysql
// materializes derived relations here, and fact bases can be kept in a file
// and imported into a query as ground rules.
//
// # Ordering
//
// Every read is ORDER BY _seq so rows come back in insertion order, matching
// the in-memory evaluator.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes (file databases)
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store

// Package queryir provides a relational-algebra intermediate representation
// for a single datalogq rule.
//
// A rule body compiles to a plan made of scans over predicate relations,
// inner joins, anti-joins (for negated literals) and a final projection onto
// the head arguments:
//
//	[rule] → [Query IR] → [SQL backend]
//
// The in-memory engine evaluates rules directly; the IR exists so that the
// same rule can be evaluated by an independent backend and the answers
// compared.
//
// SEALED INTERFACES:
//
// Query, Predicate and Operand are sealed interfaces using the marker method
// pattern. Only types in this package implement them, which enables
// exhaustive type switches in backends:
//
//	switch q := query.(type) {
//	case Scan:
//	case Join:
//	case Select:
//	}
//
// Backends switch on value types only.
//
// COLUMN ADDRESSING:
//
// Every Scan has an alias unique within its plan. Columns are addressed by
// (alias, index) through ColumnRef; relations are positional, so there are
// no column names.
//
// DETERMINISM:
//
// Plans are built in body order. Backends must produce rows in a
// deterministic order for a given plan and input.
package queryir

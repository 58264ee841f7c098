package queryir

// Query represents a relational plan node.
//
// This is a sealed interface - only types in this package implement it.
//
// Query types:
//   - Scan: all rows of one predicate relation
//   - Join: inner join (or cross product) of two plans
//   - Select: filter and projection over a plan
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Predicate represents a filter condition.
//
// Predicate types:
//   - Equals: two operands are equal
//   - NotEquals: two operands differ
//   - And: all predicates hold (empty = always true)
//   - NotExists: no row of a scan satisfies a filter (anti-join)
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Operand is a value position inside a predicate or projection.
//
// Operand types:
//   - ColumnRef: a column of a scanned relation
//   - Value: a constant
type Operand interface {
	operandNode() // Marker method - seals interface to this package
}

// Scan reads every row of a predicate relation under an alias.
//
// Semantics:
//
//	SELECT * FROM <relation> AS <alias>
type Scan struct {
	Relation string // Predicate name
	Alias    string // Unique within the plan (e.g., "t0")
	Arity    int    // Number of columns
}

func (Scan) queryNode() {}

// Join combines two plans. A nil On is a cross product.
//
// Semantics:
//
//	<left> JOIN <right> ON <on>
//	<left> CROSS JOIN <right>        (On == nil)
//
// Only inner joins exist; negation is expressed with NotExists.
type Join struct {
	Left  Query
	Right Query
	On    Predicate
}

func (Join) queryNode() {}

// Select filters a plan and projects it onto Outputs.
//
// Semantics:
//
//	SELECT <outputs> FROM <from> WHERE <filter>
//
// A nil From stands for the relation with a single empty row; it is used for
// rules whose body has no positive literal. A nil Filter keeps every row. An
// empty Outputs produces nullary rows.
type Select struct {
	From    Query
	Filter  Predicate
	Outputs []Operand
}

func (Select) queryNode() {}

// ColumnRef addresses column Index of the scan aliased Alias.
type ColumnRef struct {
	Alias string
	Index int
}

func (ColumnRef) operandNode() {}

// Value is a constant operand.
type Value struct {
	Text string
}

func (Value) operandNode() {}

// Equals holds when both operands denote the same value.
type Equals struct {
	Left  Operand
	Right Operand
}

func (Equals) predicateNode() {}

// NotEquals holds when the operands denote different values.
type NotEquals struct {
	Left  Operand
	Right Operand
}

func (NotEquals) predicateNode() {}

// And represents a conjunction of predicates (all must be true).
// An empty Predicates slice is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// NotExists holds when no row of Source satisfies Filter. Filter may refer
// to Source's alias and to any alias of the enclosing plan.
//
// Semantics:
//
//	NOT EXISTS (SELECT 1 FROM <source> WHERE <filter>)
type NotExists struct {
	Source Scan
	Filter Predicate
}

func (NotExists) predicateNode() {}

// Conjoin builds an And from preds, unwrapping the single-predicate case and
// returning nil for none.
func Conjoin(preds ...Predicate) Predicate {
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	default:
		return And{Predicates: preds}
	}
}

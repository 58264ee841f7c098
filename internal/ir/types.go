package ir

// Term is a sealed interface over the three term variants.
//
// Only Wildcard, Variable and Constant implement Term. Consumers switch on
// the concrete type:
//
//	switch t := term.(type) {
//	case Wildcard:
//	case Variable:
//	case Constant:
//	}
type Term interface {
	termNode() // Sealed - only types in this package implement it
	String() string
}

// Wildcard is the anonymous term "_". It matches anything and has no
// identity: two wildcards are never the same term (see SameTerm).
type Wildcard struct{}

func (Wildcard) termNode() {}

// Variable is a named logic variable. Two variables are the same iff their
// names match.
type Variable struct {
	Name string
}

func (Variable) termNode() {}

// Constant is a named ground value. Two constants are the same iff their
// names match.
type Constant struct {
	Name string
}

func (Constant) termNode() {}

// TermKind identifies a Term variant.
type TermKind int

const (
	KindWildcard TermKind = iota
	KindVariable
	KindConstant
)

// TermKey is a comparable identity for a non-wildcard term.
type TermKey struct {
	Kind TermKind
	Name string
}

// KeyOf returns the identity of t. The second result is false for
// wildcards, which have no identity.
func KeyOf(t Term) (TermKey, bool) {
	switch v := t.(type) {
	case Variable:
		return TermKey{Kind: KindVariable, Name: v.Name}, true
	case Constant:
		return TermKey{Kind: KindConstant, Name: v.Name}, true
	default:
		return TermKey{}, false
	}
}

// Term converts the key back into the term it identifies.
func (k TermKey) Term() Term {
	if k.Kind == KindConstant {
		return Constant{Name: k.Name}
	}
	return Variable{Name: k.Name}
}

// SameTerm reports whether a and b denote the same term.
// Wildcards are never the same as anything, including other wildcards.
func SameTerm(a, b Term) bool {
	ka, ok := KeyOf(a)
	if !ok {
		return false
	}
	kb, ok := KeyOf(b)
	return ok && ka == kb
}

// BodyElement is a sealed interface over the things a rule body may contain:
// Literal, Equality and Disequality.
type BodyElement interface {
	bodyNode() // Sealed - only types in this package implement it
	String() string
}

// Literal is an occurrence of a predicate with argument terms and a
// polarity. Positive is false for negated literals.
type Literal struct {
	Predicate string
	Args      []Term
	Positive  bool
}

func (Literal) bodyNode() {}

// Equality constrains Left and Right to be the same value.
type Equality struct {
	Left  Term
	Right Term
}

func (Equality) bodyNode() {}

// Disequality constrains Left and Right to be different values.
type Disequality struct {
	Left  Term
	Right Term
}

func (Disequality) bodyNode() {}

// Rule is a head literal and an ordered body.
// A rule with an empty body is a fact and must have a ground head.
type Rule struct {
	Head Literal
	Body []BodyElement
}

// Program is a non-empty ordered sequence of rules. Order carries no
// meaning until the dependency sorter imposes one.
type Program struct {
	Rules []Rule
}

// Query is a program plus the goal literal whose extension is requested.
type Query struct {
	Program Program
	Goal    Literal
}

// Row is one tuple of a relation: constant names in column order.
type Row []string

// Relation is an ordered sequence of rows of equal width.
type Relation []Row

package ir

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// bareName matches constant and predicate names that render without quotes.
var bareName = regexp.MustCompile(`^[a-z][a-zA-Z0-9\-_]*$`)

// barePredicate matches predicate names that render without quotes.
// Predicates may also start with an uppercase letter.
var barePredicate = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9\-_]*$`)

// rowSeparator joins canonical names in CanonicalRow. It cannot occur in a
// rendered name because rendered names quote anything outside bareName.
const rowSeparator = "\x00"

// CanonicalName returns the NFC-normalized form of a constant or predicate
// name. Two names that differ only in Unicode composition are the same
// canonical name.
func CanonicalName(name string) string {
	return norm.NFC.String(name)
}

// CanonicalRow returns the textual key of a row used for deduplication.
// Rows with equal canonical keys are duplicates.
func CanonicalRow(row Row) string {
	parts := make([]string, len(row))
	for i, v := range row {
		parts[i] = CanonicalName(v)
	}
	return strings.Join(parts, rowSeparator)
}

// CanonicalQuery returns a copy of q in which every predicate, variable and
// constant name is in canonical form. Evaluation compares names byte for
// byte, so queries are canonicalized once before they are evaluated.
func CanonicalQuery(q Query) Query {
	rules := make([]Rule, len(q.Program.Rules))
	for i, r := range q.Program.Rules {
		rules[i] = canonicalRule(r)
	}
	return Query{Program: Program{Rules: rules}, Goal: canonicalLiteral(q.Goal)}
}

func canonicalRule(r Rule) Rule {
	var body []BodyElement
	if r.Body != nil {
		body = make([]BodyElement, len(r.Body))
	}
	for i, el := range r.Body {
		switch b := el.(type) {
		case Literal:
			body[i] = canonicalLiteral(b)
		case Equality:
			body[i] = Equality{Left: canonicalTerm(b.Left), Right: canonicalTerm(b.Right)}
		case Disequality:
			body[i] = Disequality{Left: canonicalTerm(b.Left), Right: canonicalTerm(b.Right)}
		default:
			body[i] = el
		}
	}
	return Rule{Head: canonicalLiteral(r.Head), Body: body}
}

func canonicalLiteral(l Literal) Literal {
	var args []Term
	if l.Args != nil {
		args = make([]Term, len(l.Args))
	}
	for i, a := range l.Args {
		args[i] = canonicalTerm(a)
	}
	return Literal{Predicate: CanonicalName(l.Predicate), Args: args, Positive: l.Positive}
}

func canonicalTerm(t Term) Term {
	switch v := t.(type) {
	case Variable:
		return Variable{Name: CanonicalName(v.Name)}
	case Constant:
		return Constant{Name: CanonicalName(v.Name)}
	default:
		return t
	}
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, "'", `\'`)

// QuoteName renders a name bare when it is a plain lowercase identifier and
// single-quoted otherwise.
func QuoteName(name string) string {
	if bareName.MatchString(name) {
		return name
	}
	return "'" + quoteEscaper.Replace(name) + "'"
}

func (Wildcard) String() string { return "_" }

func (v Variable) String() string { return v.Name }

func (c Constant) String() string { return QuoteName(c.Name) }

func (l Literal) String() string {
	var b strings.Builder
	if !l.Positive {
		b.WriteString("¬")
	}
	if barePredicate.MatchString(l.Predicate) {
		b.WriteString(l.Predicate)
	} else {
		b.WriteString(QuoteName(l.Predicate))
	}
	b.WriteByte('(')
	for i, a := range l.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteByte(')')
	return b.String()
}

func (e Equality) String() string {
	return e.Left.String() + " = " + e.Right.String()
}

func (d Disequality) String() string {
	return d.Left.String() + " ≠ " + d.Right.String()
}

func (r Rule) String() string {
	if r.IsFact() {
		return r.Head.String() + "."
	}
	parts := make([]string, len(r.Body))
	for i, el := range r.Body {
		parts[i] = el.String()
	}
	return r.Head.String() + " ← " + strings.Join(parts, ", ") + "."
}

func (p Program) String() string {
	lines := make([]string, len(p.Rules))
	for i, r := range p.Rules {
		lines[i] = r.String()
	}
	return strings.Join(lines, "\n")
}

func (q Query) String() string {
	return q.Program.String() + "\n? " + q.Goal.String()
}

// String renders a row as a parenthesized tuple, e.g. "(a0, 'Big Co')".
func (r Row) String() string {
	parts := make([]string, len(r))
	for i, v := range r {
		parts[i] = QuoteName(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

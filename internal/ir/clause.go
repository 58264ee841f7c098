package ir

// Var, Const and Any are shorthand constructors used by front ends and tests.
func Var(name string) Variable { return Variable{Name: name} }

// Const builds a constant term.
func Const(name string) Constant { return Constant{Name: name} }

// Any builds a wildcard term.
func Any() Wildcard { return Wildcard{} }

// Pos builds a positive literal.
func Pos(predicate string, args ...Term) Literal {
	return Literal{Predicate: predicate, Args: args, Positive: true}
}

// Neg builds a negated literal.
func Neg(predicate string, args ...Term) Literal {
	return Literal{Predicate: predicate, Args: args, Positive: false}
}

// Eq builds an equality constraint.
func Eq(left, right Term) Equality { return Equality{Left: left, Right: right} }

// Neq builds a disequality constraint.
func Neq(left, right Term) Disequality { return Disequality{Left: left, Right: right} }

// Arity returns the number of arguments.
func (l Literal) Arity() int {
	return len(l.Args)
}

// Vars returns the variables of l in argument order, repeats included.
func (l Literal) Vars() []Variable {
	var vars []Variable
	for _, a := range l.Args {
		if v, ok := a.(Variable); ok {
			vars = append(vars, v)
		}
	}
	return vars
}

// IsGround reports whether every argument is a constant.
func (l Literal) IsGround() bool {
	for _, a := range l.Args {
		if _, ok := a.(Constant); !ok {
			return false
		}
	}
	return true
}

// HasWildcard reports whether any argument is a wildcard.
func (l Literal) HasWildcard() bool {
	for _, a := range l.Args {
		if _, ok := a.(Wildcard); ok {
			return true
		}
	}
	return false
}

// GroundRow returns the constant names of a ground literal.
// The second result is false if any argument is not a constant.
func (l Literal) GroundRow() (Row, bool) {
	row := make(Row, len(l.Args))
	for i, a := range l.Args {
		c, ok := a.(Constant)
		if !ok {
			return nil, false
		}
		row[i] = c.Name
	}
	return row, true
}

// Clone returns a copy of l that shares no argument storage with l.
func (l Literal) Clone() Literal {
	args := make([]Term, len(l.Args))
	copy(args, l.Args)
	return Literal{Predicate: l.Predicate, Args: args, Positive: l.Positive}
}

// NewRule builds a rule from a head and body elements.
func NewRule(head Literal, body ...BodyElement) Rule {
	return Rule{Head: head, Body: body}
}

// NewFact builds a fact rule with a positive head over constants.
func NewFact(predicate string, constants ...string) Rule {
	args := make([]Term, len(constants))
	for i, c := range constants {
		args[i] = Const(c)
	}
	return Rule{Head: Pos(predicate, args...)}
}

// IsFact reports whether r has an empty body.
func (r Rule) IsFact() bool {
	return len(r.Body) == 0
}

// Literals returns the body literals of r in body order.
func (r Rule) Literals() []Literal {
	var lits []Literal
	for _, el := range r.Body {
		if l, ok := el.(Literal); ok {
			lits = append(lits, l)
		}
	}
	return lits
}

// Clone returns a deep copy of r. Terms are values, so copying the argument
// slices is enough to make the copy independent.
func (r Rule) Clone() Rule {
	body := make([]BodyElement, len(r.Body))
	for i, el := range r.Body {
		if l, ok := el.(Literal); ok {
			body[i] = l.Clone()
			continue
		}
		body[i] = el
	}
	return Rule{Head: r.Head.Clone(), Body: body}
}

// HeadVars returns the distinct head variables in first-occurrence order.
func (r Rule) HeadVars() []Variable {
	return distinctVars(r.Head.Vars())
}

// BodyVars returns the distinct variables of the body in first-occurrence
// order, including equality and disequality endpoints.
func (r Rule) BodyVars() []Variable {
	var vars []Variable
	for _, el := range r.Body {
		switch e := el.(type) {
		case Literal:
			vars = append(vars, e.Vars()...)
		case Equality:
			vars = appendVar(vars, e.Left)
			vars = appendVar(vars, e.Right)
		case Disequality:
			vars = appendVar(vars, e.Left)
			vars = appendVar(vars, e.Right)
		}
	}
	return distinctVars(vars)
}

// PositiveVars returns the set of variables occurring in positive body
// literals.
func (r Rule) PositiveVars() map[Variable]bool {
	vars := make(map[Variable]bool)
	for _, l := range r.Literals() {
		if !l.Positive {
			continue
		}
		for _, v := range l.Vars() {
			vars[v] = true
		}
	}
	return vars
}

// Predicates returns the head predicate and body literal predicates in body
// order (repeats included).
func (r Rule) Predicates() (string, []string) {
	var body []string
	for _, l := range r.Literals() {
		body = append(body, l.Predicate)
	}
	return r.Head.Predicate, body
}

func appendVar(vars []Variable, t Term) []Variable {
	if v, ok := t.(Variable); ok {
		return append(vars, v)
	}
	return vars
}

func distinctVars(vars []Variable) []Variable {
	seen := make(map[Variable]bool, len(vars))
	out := make([]Variable, 0, len(vars))
	for _, v := range vars {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// Clone returns a deep copy of p.
func (p Program) Clone() Program {
	rules := make([]Rule, len(p.Rules))
	for i, r := range p.Rules {
		rules[i] = r.Clone()
	}
	return Program{Rules: rules}
}

// RulesFor returns the rules whose head predicate is name, in program order.
func (p Program) RulesFor(name string) []Rule {
	var out []Rule
	for _, r := range p.Rules {
		if r.Head.Predicate == name {
			out = append(out, r)
		}
	}
	return out
}

// Defines reports whether some rule head in p uses predicate name.
func (p Program) Defines(name string) bool {
	for _, r := range p.Rules {
		if r.Head.Predicate == name {
			return true
		}
	}
	return false
}

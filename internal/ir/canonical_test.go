package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleString(t *testing.T) {
	r := NewRule(
		Pos("q", Var("X")),
		Pos("p", Var("X"), Any()),
		Neg("r", Var("X"), Const("Big Co")),
		Eq(Var("X"), Var("Y")),
		Neq(Var("X"), Const("a")),
	)
	assert.Equal(t, "q(X) ← p(X, _), ¬r(X, 'Big Co'), X = Y, X ≠ a.", r.String())
}

func TestFactString(t *testing.T) {
	assert.Equal(t, "actor(a0).", NewFact("actor", "a0").String())
}

func TestQueryString(t *testing.T) {
	q := Query{
		Program: Program{Rules: []Rule{NewFact("p", "a")}},
		Goal:    Pos("p", Var("X")),
	}
	assert.Equal(t, "p(a).\n? p(X)", q.String())
}

func TestQuoteName(t *testing.T) {
	assert.Equal(t, "a0", QuoteName("a0"))
	assert.Equal(t, "'A0'", QuoteName("A0"))
	assert.Equal(t, `'it\'s'`, QuoteName("it's"))
	assert.Equal(t, `'a\\b'`, QuoteName(`a\b`))
}

func TestCanonicalRow_NFC(t *testing.T) {
	composed := Row{"caf\u00e9"}
	decomposed := Row{"cafe\u0301"}
	assert.Equal(t, CanonicalRow(composed), CanonicalRow(decomposed))
	assert.NotEqual(t, CanonicalRow(Row{"a", "bc"}), CanonicalRow(Row{"ab", "c"}))
}

func TestCanonicalQuery(t *testing.T) {
	nfd := "cafe\u0301"
	nfc := "caf\u00e9"
	q := Query{
		Program: Program{Rules: []Rule{
			NewFact(nfd, nfd),
			NewRule(Pos("q", Var("X"+nfd)), Pos(nfd, Var("X"+nfd)), Neq(Var("X"+nfd), Const(nfd)), Eq(Var("Y"), Any())),
		}},
		Goal: Neg("q", Const(nfd)),
	}

	got := CanonicalQuery(q)
	assert.Equal(t, NewFact(nfc, nfc), got.Program.Rules[0])
	assert.Equal(t,
		NewRule(Pos("q", Var("X"+nfc)), Pos(nfc, Var("X"+nfc)), Neq(Var("X"+nfc), Const(nfc)), Eq(Var("Y"), Any())),
		got.Program.Rules[1])
	assert.Equal(t, Neg("q", Const(nfc)), got.Goal)

	// The input is left untouched.
	assert.Equal(t, nfd, q.Program.Rules[0].Head.Predicate)
}

func TestRowString(t *testing.T) {
	assert.Equal(t, "(a0, 'Big Co')", Row{"a0", "Big Co"}.String())
}

func TestLiteralString_PredicateQuoting(t *testing.T) {
	assert.Equal(t, "Parent(X)", Pos("Parent", Var("X")).String())
	assert.Equal(t, "'big co'(X)", Pos("big co", Var("X")).String())
	assert.Equal(t, "raining()", Pos("raining").String())
}

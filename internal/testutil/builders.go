package testutil

import (
	"fmt"
	"testing"

	"github.com/roach88/datalogq/internal/ir"
	"github.com/roach88/datalogq/internal/parser"
)

// Facts builds one fact per row of predicate.
func Facts(predicate string, rows ...[]string) []ir.Rule {
	facts := make([]ir.Rule, len(rows))
	for i, row := range rows {
		facts[i] = ir.NewFact(predicate, row...)
	}
	return facts
}

// Query assembles a query from rule groups and a goal.
func Query(goal ir.Literal, groups ...[]ir.Rule) ir.Query {
	var prog ir.Program
	for _, g := range groups {
		prog.Rules = append(prog.Rules, g...)
	}
	return ir.Query{Program: prog, Goal: goal}
}

// MustParseQuery parses src in text syntax and fails the test on error.
func MustParseQuery(t testing.TB, src string) ir.Query {
	t.Helper()
	q, err := parser.ParseQuery(src)
	if err != nil {
		t.Fatalf("parse query: %v", err)
	}
	return q
}

// Grid returns rows (c<i>, c<j>) for 0 <= i, j < n where (i+j) % mod == 0.
// The result is deterministic and gives joins a mix of matches and misses.
func Grid(n, mod int) [][]string {
	var rows [][]string
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if (i+j)%mod == 0 {
				rows = append(rows, []string{fmt.Sprintf("c%d", i), fmt.Sprintf("c%d", j)})
			}
		}
	}
	return rows
}

// Chain returns rows (c0, c1), (c1, c2), ... of length n.
func Chain(n int) [][]string {
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{fmt.Sprintf("c%d", i), fmt.Sprintf("c%d", i+1)}
	}
	return rows
}

package engine

import "github.com/roach88/datalogq/internal/ir"

// SelectGoal returns the rows of rel that match goal: constant arguments
// must be equal and repeated variables must agree. Wildcards match anything.
// The result is never nil.
func SelectGoal(goal ir.Literal, rel ir.Relation) ir.Relation {
	first := make(map[ir.Variable]int)
	return filterRows(rel, func(row ir.Row) bool {
		clear(first)
		for j, a := range goal.Args {
			switch t := a.(type) {
			case ir.Constant:
				if row[j] != t.Name {
					return false
				}
			case ir.Variable:
				if k, ok := first[t]; ok {
					if row[k] != row[j] {
						return false
					}
					continue
				}
				first[t] = j
			}
		}
		return true
	})
}

// Deduplicate keeps the first occurrence of every distinct row, comparing
// rows by their canonical (NFC) text. Order among the kept rows is the
// order of first occurrence.
func Deduplicate(rows ir.Relation) ir.Relation {
	seen := make(map[string]bool, len(rows))
	out := ir.Relation{}
	for _, row := range rows {
		key := ir.CanonicalRow(row)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
	}
	return out
}

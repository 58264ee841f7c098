package engine

import "github.com/roach88/datalogq/internal/ir"

// joinSpace tracks the working tables of one rule evaluation.
//
// Every positive body literal starts as its own table. Joining two tables
// appends the columns of one root to the other and makes it a child; a
// literal's columns are then found in its root's rows at the sum of the
// offsets along its parent chain.
type joinSpace struct {
	parent []int
	offset []int         // column offset relative to parent
	width  []int         // column count, valid at roots
	rows   []ir.Relation // table contents, valid at roots
}

func newJoinSpace(tables []ir.Relation, widths []int) *joinSpace {
	s := &joinSpace{
		parent: make([]int, len(tables)),
		offset: make([]int, len(tables)),
		width:  append([]int(nil), widths...),
		rows:   tables,
	}
	for i := range s.parent {
		s.parent[i] = i
	}
	return s
}

// find returns the root table of literal i and the offset of i's first
// column inside the root.
func (s *joinSpace) find(i int) (root, off int) {
	for s.parent[i] != i {
		off += s.offset[i]
		i = s.parent[i]
	}
	return i, off
}

// column locates column col of literal i.
func (s *joinSpace) column(i, col int) (root, abs int) {
	root, off := s.find(i)
	return root, off + col
}

// join replaces root a with the join of roots a and b on a[leftCol] ==
// b[rightCol], or with their cartesian product when leftCol is negative.
// Rows keep left-major order. b becomes a child of a.
func (s *joinSpace) join(a, b, leftCol, rightCol int) {
	left, right := s.rows[a], s.rows[b]
	out := ir.Relation{}

	if leftCol < 0 {
		for _, l := range left {
			for _, r := range right {
				out = append(out, concatRows(l, r))
			}
		}
	} else {
		index := make(map[string][]ir.Row, len(right))
		for _, r := range right {
			index[r[rightCol]] = append(index[r[rightCol]], r)
		}
		for _, l := range left {
			for _, r := range index[l[leftCol]] {
				out = append(out, concatRows(l, r))
			}
		}
	}

	s.parent[b] = a
	s.offset[b] = s.width[a]
	s.width[a] += s.width[b]
	s.rows[a] = out
	s.rows[b] = nil
}

// filter keeps the rows of root a for which keep returns true.
func (s *joinSpace) filter(a int, keep func(ir.Row) bool) {
	s.rows[a] = filterRows(s.rows[a], keep)
}

func filterRows(rows ir.Relation, keep func(ir.Row) bool) ir.Relation {
	out := ir.Relation{}
	for _, row := range rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return out
}

func concatRows(l, r ir.Row) ir.Row {
	row := make(ir.Row, 0, len(l)+len(r))
	row = append(row, l...)
	return append(row, r...)
}

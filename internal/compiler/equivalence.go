package compiler

import "github.com/roach88/datalogq/internal/ir"

// Equivalence partitions the terms of a rule into equivalence classes.
//
// Every non-wildcard term appearing as a head or body argument, or as an
// endpoint of an equality or disequality, seeds a singleton class. Each
// equality merges the classes of its endpoints. Wildcards have no identity
// and are never placed in a class.
//
// Classes and their members are kept in first-occurrence order, so the
// partition and the representatives are deterministic for a given rule.
type Equivalence struct {
	terms  []ir.TermKey       // arena, first-occurrence order
	index  map[ir.TermKey]int // term → arena slot
	parent []int
	size   []int
}

// ComputeEquivalence builds the equivalence classes of r.
func ComputeEquivalence(r ir.Rule) *Equivalence {
	e := &Equivalence{index: make(map[ir.TermKey]int)}

	for _, a := range r.Head.Args {
		e.add(a)
	}
	for _, el := range r.Body {
		switch b := el.(type) {
		case ir.Literal:
			for _, a := range b.Args {
				e.add(a)
			}
		case ir.Equality:
			e.add(b.Left)
			e.add(b.Right)
		case ir.Disequality:
			e.add(b.Left)
			e.add(b.Right)
		}
	}

	for _, el := range r.Body {
		if eq, ok := el.(ir.Equality); ok {
			e.union(eq.Left, eq.Right)
		}
	}

	return e
}

// add registers t as a singleton class if it has not been seen.
func (e *Equivalence) add(t ir.Term) {
	k, ok := ir.KeyOf(t)
	if !ok {
		return
	}
	if _, seen := e.index[k]; seen {
		return
	}
	e.index[k] = len(e.terms)
	e.terms = append(e.terms, k)
	e.parent = append(e.parent, len(e.parent))
	e.size = append(e.size, 1)
}

// find returns the root slot of i with path halving.
func (e *Equivalence) find(i int) int {
	for e.parent[i] != i {
		e.parent[i] = e.parent[e.parent[i]]
		i = e.parent[i]
	}
	return i
}

// union merges the classes of a and b. Wildcard endpoints are ignored.
func (e *Equivalence) union(a, b ir.Term) {
	ka, okA := ir.KeyOf(a)
	kb, okB := ir.KeyOf(b)
	if !okA || !okB {
		return
	}
	ra, rb := e.find(e.index[ka]), e.find(e.index[kb])
	if ra == rb {
		return
	}
	if e.size[ra] < e.size[rb] {
		ra, rb = rb, ra
	}
	e.parent[rb] = ra
	e.size[ra] += e.size[rb]
}

// Same reports whether a and b are in the same class.
// Terms that are wildcards or absent from the rule are never in a class.
func (e *Equivalence) Same(a, b ir.Term) bool {
	ka, okA := ir.KeyOf(a)
	kb, okB := ir.KeyOf(b)
	if !okA || !okB {
		return false
	}
	ia, inA := e.index[ka]
	ib, inB := e.index[kb]
	return inA && inB && e.find(ia) == e.find(ib)
}

// Classes returns the disjoint, non-empty term classes. Classes are ordered
// by their earliest member; members keep first-occurrence order.
func (e *Equivalence) Classes() [][]ir.Term {
	slot := make(map[int]int) // root → position in result
	var classes [][]ir.Term
	for i, k := range e.terms {
		root := e.find(i)
		pos, ok := slot[root]
		if !ok {
			pos = len(classes)
			slot[root] = pos
			classes = append(classes, nil)
		}
		classes[pos] = append(classes[pos], k.Term())
	}
	return classes
}

// Representatives maps every term key to the representative of its class.
//
// A class containing a constant is represented by its first constant.
// Otherwise the first member in occurrence order represents the class.
func (e *Equivalence) Representatives() map[ir.TermKey]ir.Term {
	reps := make(map[ir.TermKey]ir.Term, len(e.terms))
	for _, class := range e.Classes() {
		rep := class[0]
		for _, t := range class {
			if _, ok := t.(ir.Constant); ok {
				rep = t
				break
			}
		}
		for _, t := range class {
			k, _ := ir.KeyOf(t)
			reps[k] = rep
		}
	}
	return reps
}

// constantsIn returns the distinct constants of a class.
func constantsIn(class []ir.Term) []ir.Constant {
	var consts []ir.Constant
	for _, t := range class {
		if c, ok := t.(ir.Constant); ok {
			consts = append(consts, c)
		}
	}
	return consts
}

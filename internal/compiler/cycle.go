package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/datalogq/internal/ir"
)

// RecursionError reports a predicate that depends on itself, directly or
// transitively. Recursive programs are rejected rather than evaluated to a
// fixpoint.
type RecursionError struct {
	// Path is the dependency cycle, starting and ending at the same
	// predicate: ["p", "q", "p"] means p depends on q which depends on p.
	Path []string
}

// Error implements the error interface.
func (e *RecursionError) Error() string {
	return fmt.Sprintf("recursive dependency detected: %s", strings.Join(e.Path, " → "))
}

// CycleWarning describes one recursive component of a program.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["p", "q", "p"]
	Message string   `json:"message"` // Human-readable description
	Code    string   `json:"code"`    // Always ErrRecursiveDependency
}

// dependencyGraph maps a head predicate to the predicates its rule bodies
// use. Edges keep first-occurrence order and are not repeated.
type dependencyGraph struct {
	nodes []string // predicates in first-occurrence order
	edges map[string][]string
}

// buildDependencyGraph constructs the predicate dependency graph of p.
//
// For each rule, every body literal adds an edge head → body predicate,
// regardless of polarity: negated predicates must be complete before the
// head can be evaluated.
func buildDependencyGraph(p ir.Program) *dependencyGraph {
	g := &dependencyGraph{edges: make(map[string][]string)}
	seenNode := make(map[string]bool)
	seenEdge := make(map[[2]string]bool)

	addNode := func(name string) {
		if !seenNode[name] {
			seenNode[name] = true
			g.nodes = append(g.nodes, name)
		}
	}

	for _, r := range p.Rules {
		head, body := r.Predicates()
		addNode(head)
		for _, dep := range body {
			addNode(dep)
			edge := [2]string{head, dep}
			if seenEdge[edge] {
				continue
			}
			seenEdge[edge] = true
			g.edges[head] = append(g.edges[head], dep)
		}
	}
	return g
}

// DFS colours.
const (
	white = iota // unvisited
	grey         // in progress
	black        // finished
)

// SortedPredicateOrder returns an evaluation order for the predicates the
// goal of q depends on, goal last. Every predicate appears after all of its
// dependencies.
//
// The order is the post-order of a depth-first traversal from the goal
// predicate. Reaching a predicate that is still in progress means the
// program is recursive; a *RecursionError carrying the cycle is returned.
func SortedPredicateOrder(q ir.Query) ([]string, error) {
	g := buildDependencyGraph(q.Program)
	colour := make(map[string]int)
	var stack []string
	var order []string

	var visit func(string) error
	visit = func(node string) error {
		colour[node] = grey
		stack = append(stack, node)

		for _, dep := range g.edges[node] {
			switch colour[dep] {
			case grey:
				return &RecursionError{Path: cyclePath(stack, dep)}
			case white:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		stack = stack[:len(stack)-1]
		colour[node] = black
		order = append(order, node)
		return nil
	}

	if err := visit(q.Goal.Predicate); err != nil {
		return nil, err
	}
	return order, nil
}

// cyclePath extracts the cycle closed by an edge back to target from the
// current DFS stack.
func cyclePath(stack []string, target string) []string {
	start := 0
	for i, n := range stack {
		if n == target {
			start = i
			break
		}
	}
	path := append([]string{}, stack[start:]...)
	return append(path, target)
}

// SortRules returns the rules of q in evaluation order along with the
// predicate order they were derived from.
//
// For each predicate in SortedPredicateOrder, all rules whose head is that
// predicate are emitted in their original relative order. Rules for
// predicates the goal does not depend on are dropped.
func SortRules(q ir.Query) ([]ir.Rule, []string, error) {
	order, err := SortedPredicateOrder(q)
	if err != nil {
		return nil, nil, err
	}
	var rules []ir.Rule
	for _, name := range order {
		rules = append(rules, q.Program.RulesFor(name)...)
	}
	return rules, order, nil
}

// AnalyzeCycles reports every recursive component of p, whether or not a
// goal depends on it.
//
// The algorithm:
//  1. Build the predicate dependency graph
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-loop as a CycleWarning
//
// A non-recursive program returns an empty list.
func AnalyzeCycles(p ir.Program) []CycleWarning {
	g := buildDependencyGraph(p)
	warnings := []CycleWarning{}

	for _, scc := range tarjanSCC(g) {
		if len(scc) > 1 || (len(scc) == 1 && hasSelfLoop(scc[0], g)) {
			warnings = append(warnings, sccToWarning(scc, g))
		}
	}
	return warnings
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, g *dependencyGraph) bool {
	for _, neighbor := range g.edges[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Nodes are visited in first-occurrence order so output is deterministic.
func tarjanSCC(g *dependencyGraph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// Root of an SCC: pop it off the stack.
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range g.nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// sccToWarning converts an SCC to a CycleWarning with a reconstructed path.
func sccToWarning(scc []string, g *dependencyGraph) CycleWarning {
	if len(scc) == 1 {
		name := scc[0]
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("predicate depends on itself: %s → %s", name, name),
			Code:    ErrRecursiveDependency,
		}
	}

	path := reconstructCyclePath(scc, g)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("recursive predicates: %s", strings.Join(path, " → ")),
		Code:    ErrRecursiveDependency,
	}
}

// reconstructCyclePath follows edges inside the SCC from its last-popped
// member until it returns to the start.
func reconstructCyclePath(scc []string, g *dependencyGraph) []string {
	members := make(map[string]bool, len(scc))
	for _, n := range scc {
		members[n] = true
	}

	start := scc[len(scc)-1]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range g.edges[current] {
			if members[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}
	return path
}

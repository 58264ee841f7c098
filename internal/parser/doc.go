// Package parser builds ir programs and queries from source text and from
// structured CUE or YAML documents.
//
// # Text syntax
//
//	% comments run to the end of the line
//	parent(adam, cain).
//	ancestor(X, Y) :- parent(X, Z), parent(Z, Y), X != Y.
//	orphan(X) <- person(X), ~parent(_, X).
//	? ancestor(adam, Who).
//
// Implication is any of <- <= ← :-. Negation is any of ~ ¬ !. Disequality
// is any of <> ~= != ≠, or a negated equality (~ X = Y). Commas between
// arguments and between body elements are optional. Variables start with an
// uppercase letter, names with a lowercase letter or are quoted with single
// or double quotes; _ is the wildcard. The query (? or ?-) comes last and
// its trailing dot is optional.
//
// # Documents
//
// A document lists rules and an optional query as plain data:
//
//	rules:
//	  - head: {pred: result, args: [X]}
//	    body:
//	      - {pred: actor, args: [X]}
//	      - {neq: [X, a0]}
//	query: {pred: result, args: [X]}
//
// Term strings use the text syntax for a single term.
package parser

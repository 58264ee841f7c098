// Package engine evaluates validated, non-recursive Datalog queries over an
// in-memory fact base.
//
// EVALUATION PIPELINE:
//
// 1. Preconditions: the query must pass every static validator in
// compiler.Check. Any failure aborts with a PRECONDITION_FAILED error
// before a single rule runs.
//
// 2. Preparation: equalities are eliminated (the input query is never
// modified), rules are sorted by predicate dependency starting from the
// goal, and facts are partitioned from derived rules.
//
// 3. Facts: every ground head row is appended to its predicate's relation.
// Every reachable head predicate starts with an empty relation so an empty
// derivation propagates instead of failing.
//
// 4. Rules, in dependency order. Each positive body literal becomes a table
// filtered by its constants and by constant disequalities. Tables are
// folded together one variable at a time with equality joins; a small
// union-find records which table every literal now lives in and at which
// column offset. Tables sharing no variable are combined by cartesian
// product. Variable disequalities then filter the joined rows, negative
// literals are applied as anti-joins, and the head is projected.
//
// 5. Answer: the goal relation, filtered by the goal's constants and
// repeated variables, optionally deduplicated.
//
// Evaluation is single-threaded and deterministic: the same query always
// yields the same rows in the same order.
package engine

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/datalogq/internal/compiler"
	"github.com/roach88/datalogq/internal/ir"
)

// Engine evaluates queries against the facts they carry.
//
// An Engine holds only configuration; every call to Evaluate starts from an
// empty fact base, so one Engine may be reused for many queries.
type Engine struct {
	dedup  bool
	runIDs RunIDGenerator
	logger *slog.Logger
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithDeduplicate controls whether the answer keeps only the first
// occurrence of every distinct row.
//
// Default: false (one row per derivation).
func WithDeduplicate(dedup bool) EngineOption {
	return func(e *Engine) {
		e.dedup = dedup
	}
}

// WithRunIDGenerator sets the generator used to stamp each Result.
//
// Default: UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) EngineOption {
	return func(e *Engine) {
		e.runIDs = g
	}
}

// WithLogger sets the logger for evaluation progress.
//
// Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine configured by opts.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		runIDs: UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate is shorthand for New(opts...).Evaluate(ctx, q).
func Evaluate(ctx context.Context, q ir.Query, opts ...EngineOption) (*Result, error) {
	return New(opts...).Evaluate(ctx, q)
}

// Result is the outcome of one evaluation.
type Result struct {
	// RunID identifies this evaluation in logs and reports.
	RunID string `json:"run_id"`

	// Order is the predicate evaluation order, goal last.
	Order []string `json:"order"`

	// Rows is the goal relation after goal selection and optional
	// deduplication. Never nil.
	Rows ir.Relation `json:"rows"`

	// Stats has one entry per derived rule, in evaluation order.
	Stats []RuleStat `json:"stats"`
}

// RuleStat records what one derived rule produced.
type RuleStat struct {
	Step int    `json:"step"` // 1-based position in evaluation order
	Rule string `json:"rule"` // rule after equality elimination
	Head string `json:"head"` // head predicate
	Rows int    `json:"rows"` // rows appended to the head relation
}

// Prepared is a query made ready for evaluation: names canonicalized,
// equalities eliminated, rules sorted, facts separated from derived rules.
type Prepared struct {
	Program ir.Program // canonical program before elimination
	Goal    ir.Literal
	Order   []string  // predicate order, goal last
	Facts   []ir.Rule // ground rules, in sorted order
	Rules   []ir.Rule // derived rules, in sorted order
}

// Prepare validates q and rewrites it for evaluation. q is not modified.
//
// Errors:
//   - PRECONDITION_FAILED if compiler.Check reports anything
//   - RECURSION_DETECTED if the goal depends on a cycle
func Prepare(q ir.Query) (*Prepared, error) {
	q = ir.CanonicalQuery(q)
	if errs := compiler.Check(q); len(errs) > 0 {
		return nil, NewPreconditionError(errs)
	}

	program, err := compiler.EliminateProgram(q.Program)
	if err != nil {
		return nil, &RuntimeError{
			Code:    ErrCodePreconditionFailed,
			Message: "equality elimination failed",
			Err:     err,
		}
	}

	rules, order, err := compiler.SortRules(ir.Query{Program: program, Goal: q.Goal})
	if err != nil {
		var rec *compiler.RecursionError
		if errors.As(err, &rec) {
			return nil, NewRecursionError(rec)
		}
		return nil, fmt.Errorf("sort rules: %w", err)
	}

	p := &Prepared{Program: q.Program, Goal: q.Goal, Order: order}
	for _, r := range rules {
		if r.IsFact() {
			p.Facts = append(p.Facts, r)
		} else {
			p.Rules = append(p.Rules, r)
		}
	}
	return p, nil
}

// Evaluate checks the preconditions of q, evaluates its rules in dependency
// order and returns the goal relation.
//
// Nothing is evaluated if a precondition fails. Cancellation of ctx is
// checked between rules.
func (e *Engine) Evaluate(ctx context.Context, q ir.Query) (*Result, error) {
	runID := e.runIDs.Generate()
	log := e.logger.With("run_id", runID)

	p, err := Prepare(q)
	if err != nil {
		log.Warn("query rejected", "goal", q.Goal.String(), "error", err)
		return nil, err
	}
	log.Debug("query prepared",
		"goal", q.Goal.String(),
		"order", p.Order,
		"facts", len(p.Facts),
		"rules", len(p.Rules),
	)

	relations := make(map[string]ir.Relation, len(p.Order))
	for _, name := range p.Order {
		if p.Program.Defines(name) {
			relations[name] = ir.Relation{}
		}
	}
	for _, f := range p.Facts {
		row, ok := f.Head.GroundRow()
		if !ok {
			return nil, &RuntimeError{
				Code:    ErrCodePreconditionFailed,
				Message: "fact head is not ground",
				Rule:    f.String(),
			}
		}
		relations[f.Head.Predicate] = append(relations[f.Head.Predicate], row)
	}

	stats := make([]RuleStat, 0, len(p.Rules))
	for i, r := range p.Rules {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("evaluation cancelled before rule %d: %w", i+1, err)
		}

		rows, err := evaluateRule(r, relations)
		if err != nil {
			log.Error("rule evaluation failed", "rule", r.String(), "error", err)
			return nil, err
		}
		relations[r.Head.Predicate] = append(relations[r.Head.Predicate], rows...)

		stats = append(stats, RuleStat{
			Step: i + 1,
			Rule: r.String(),
			Head: r.Head.Predicate,
			Rows: len(rows),
		})
		log.Debug("rule evaluated", "step", i+1, "rule", r.String(), "rows", len(rows))
	}

	answer := SelectGoal(p.Goal, relations[p.Goal.Predicate])
	if e.dedup {
		answer = Deduplicate(answer)
	}

	log.Info("query evaluated",
		"goal", p.Goal.String(),
		"rows", len(answer),
		"dedup", e.dedup,
	)

	return &Result{
		RunID: runID,
		Order: p.Order,
		Rows:  answer,
		Stats: stats,
	}, nil
}

package querysql

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/roach88/datalogq/internal/compiler"
	"github.com/roach88/datalogq/internal/engine"
	"github.com/roach88/datalogq/internal/ir"
	"github.com/roach88/datalogq/internal/store"
)

// DefaultCacheSize is the default number of compiled rule statements kept.
const DefaultCacheSize = 256

// statement is a compiled INSERT ... SELECT for one rule.
type statement struct {
	sql    string
	params []any
}

// Backend evaluates queries by materializing every relation in SQLite and
// deriving each rule with one INSERT ... SELECT. It is the reference
// evaluator the in-memory engine is checked against.
//
// Evaluate replaces the store's relations; give each Backend its own
// store, usually store.Open(store.Memory).
type Backend struct {
	store    *store.Store
	compiler *SQLCompiler
	cache    *lru.Cache[string, statement]
	runIDs   engine.RunIDGenerator
	logger   *slog.Logger

	hits, misses int
}

// BackendOption allows configuration of backend parameters.
type BackendOption func(*backendConfig)

type backendConfig struct {
	cacheSize int
	runIDs    engine.RunIDGenerator
	logger    *slog.Logger
}

// WithCacheSize sets how many compiled rule statements are cached, keyed
// by rule hash.
//
// Default: 256 (DefaultCacheSize)
func WithCacheSize(n int) BackendOption {
	return func(c *backendConfig) {
		c.cacheSize = n
	}
}

// WithBackendRunIDGenerator sets the generator used to stamp each Result.
func WithBackendRunIDGenerator(g engine.RunIDGenerator) BackendOption {
	return func(c *backendConfig) {
		c.runIDs = g
	}
}

// WithBackendLogger sets the logger for evaluation progress.
func WithBackendLogger(l *slog.Logger) BackendOption {
	return func(c *backendConfig) {
		c.logger = l
	}
}

// NewBackend creates a Backend over s.
func NewBackend(s *store.Store, opts ...BackendOption) (*Backend, error) {
	cfg := backendConfig{
		cacheSize: DefaultCacheSize,
		runIDs:    engine.UUIDv7Generator{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	b := &Backend{
		store:    s,
		compiler: NewSQLCompiler(),
		runIDs:   cfg.runIDs,
		logger:   cfg.logger,
	}
	cache, err := lru.NewWithEvict[string, statement](cfg.cacheSize, b.handleEviction)
	if err != nil {
		return nil, fmt.Errorf("create statement cache: %w", err)
	}
	b.cache = cache
	return b, nil
}

func (b *Backend) handleEviction(key string, _ statement) {
	b.logger.Debug("compiled statement evicted", "rule_hash", key)
}

// CacheStats returns the statement cache hit and miss counts.
func (b *Backend) CacheStats() (hits, misses int) {
	return b.hits, b.misses
}

// Evaluate checks the preconditions of q, evaluates it in SQLite and returns
// the goal relation. Preconditions and errors match engine.Evaluate.
func (b *Backend) Evaluate(ctx context.Context, q ir.Query, dedup bool) (*engine.Result, error) {
	runID := b.runIDs.Generate()
	log := b.logger.With("run_id", runID, "backend", "sqlite")

	p, err := engine.Prepare(q)
	if err != nil {
		log.Warn("query rejected", "goal", q.Goal.String(), "error", err)
		return nil, err
	}

	if err := b.store.DropRelations(ctx); err != nil {
		return nil, fmt.Errorf("reset store: %w", err)
	}
	if err := b.createRelations(ctx, p); err != nil {
		return nil, err
	}

	facts := make(map[string]ir.Relation)
	var factOrder []string
	for _, f := range p.Facts {
		row, _ := f.Head.GroundRow()
		if _, seen := facts[f.Head.Predicate]; !seen {
			factOrder = append(factOrder, f.Head.Predicate)
		}
		facts[f.Head.Predicate] = append(facts[f.Head.Predicate], row)
	}
	for _, name := range factOrder {
		if err := b.store.Insert(ctx, name, facts[name]); err != nil {
			return nil, fmt.Errorf("load facts: %w", err)
		}
	}

	stats := make([]engine.RuleStat, 0, len(p.Rules))
	for i, r := range p.Rules {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("evaluation cancelled before rule %d: %w", i+1, err)
		}

		stmt, err := b.statementFor(r)
		if err != nil {
			return nil, err
		}
		res, err := b.store.Exec(ctx, stmt.sql, stmt.params...)
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", r, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", r, err)
		}

		stats = append(stats, engine.RuleStat{
			Step: i + 1,
			Rule: r.String(),
			Head: r.Head.Predicate,
			Rows: int(n),
		})
		log.Debug("rule evaluated", "step", i+1, "rule", r.String(), "rows", n)
	}

	rows, err := b.goalRows(ctx, p.Goal)
	if err != nil {
		return nil, err
	}
	if dedup {
		rows = engine.Deduplicate(rows)
	}

	log.Info("query evaluated", "goal", p.Goal.String(), "rows", len(rows), "dedup", dedup)

	return &engine.Result{
		RunID: runID,
		Order: p.Order,
		Rows:  rows,
		Stats: stats,
	}, nil
}

// createRelations creates an empty table for every predicate the prepared
// query reaches.
func (b *Backend) createRelations(ctx context.Context, p *engine.Prepared) error {
	arity := make(map[string]int)
	note := func(l ir.Literal) {
		if _, ok := arity[l.Predicate]; !ok {
			arity[l.Predicate] = l.Arity()
		}
	}
	for _, r := range append(append([]ir.Rule{}, p.Facts...), p.Rules...) {
		note(r.Head)
		for _, l := range r.Literals() {
			note(l)
		}
	}

	for _, name := range p.Order {
		n, ok := arity[name]
		if !ok {
			return engine.NewMissingPredicateError(name, "")
		}
		if err := b.store.CreateRelation(ctx, name, n); err != nil {
			return fmt.Errorf("create relation: %w", err)
		}
	}
	return nil
}

// statementFor returns the compiled INSERT ... SELECT for r, from the cache
// when r has been compiled before.
func (b *Backend) statementFor(r ir.Rule) (statement, error) {
	key := ir.RuleHash(r)
	if stmt, ok := b.cache.Get(key); ok {
		b.hits++
		return stmt, nil
	}
	b.misses++

	plan, err := compiler.PlanRule(r)
	if err != nil {
		return statement{}, fmt.Errorf("plan %s: %w", r, err)
	}
	sel, params, err := b.compiler.Compile(plan)
	if err != nil {
		return statement{}, fmt.Errorf("compile %s: %w", r, err)
	}

	target := "_seq"
	if n := r.Head.Arity(); n > 0 {
		cols := make([]string, n)
		for i := range cols {
			cols[i] = store.Column(i)
		}
		target = strings.Join(cols, ", ")
	}
	stmt := statement{
		sql:    fmt.Sprintf("INSERT INTO %s (%s) %s", store.TableName(r.Head.Predicate), target, sel),
		params: params,
	}
	b.cache.Add(key, stmt)
	return stmt, nil
}

// goalRows selects the goal relation in insertion order.
func (b *Backend) goalRows(ctx context.Context, goal ir.Literal) (ir.Relation, error) {
	sel, params, err := b.compiler.Compile(compiler.PlanGoal(goal))
	if err != nil {
		return nil, fmt.Errorf("compile goal: %w", err)
	}
	rows, err := b.store.Query(ctx, sel, params...)
	if err != nil {
		return nil, fmt.Errorf("query goal: %w", err)
	}
	defer rows.Close()

	return store.ScanRelation(rows, goal.Arity())
}

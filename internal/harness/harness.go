package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/datalogq/internal/engine"
	"github.com/roach88/datalogq/internal/ir"
	"github.com/roach88/datalogq/internal/parser"
	"github.com/roach88/datalogq/internal/querysql"
	"github.com/roach88/datalogq/internal/store"
	"github.com/roach88/datalogq/internal/testutil"
)

// Harness is the test execution engine.
// It runs scenarios with a fixed run ID and an isolated SQLite store.
type Harness struct {
	store   *store.Store
	engine  *engine.Engine
	backend *querysql.Backend
	logger  *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Create fresh in-memory database
// 2. Load the scenario program and its query
// 3. Evaluate the query with the in-memory engine
// 4. Evaluate assertions, using the SQLite backend where asked
//
// A runtime error from evaluation is part of the result, not an error of
// Run; error assertions check it. Run fails only when the scenario cannot
// be executed at all.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(store.Memory)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	runIDs := testutil.NewFixedRunID(scenario.RunID)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	backend, err := querysql.NewBackend(st,
		querysql.WithBackendRunIDGenerator(runIDs),
		querysql.WithBackendLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite backend: %w", err)
	}

	h := &Harness{
		store: st,
		engine: engine.New(
			engine.WithDeduplicate(scenario.Dedup),
			engine.WithRunIDGenerator(runIDs),
			engine.WithLogger(logger),
		),
		backend: backend,
		logger:  logger,
	}

	q, err := loadQuery(scenario)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	result := h.evaluate(ctx, q, runIDs.Generate())

	actx := &AssertionContext{
		Ctx:     ctx,
		Query:   q,
		Dedup:   scenario.Dedup,
		Backend: h.backend,
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(errMsg)
	}

	h.logger.Info("scenario completed",
		"scenario", scenario.Name,
		"pass", result.Pass,
		"rows", len(result.Rows),
	)
	return result, nil
}

// evaluate runs q on the in-memory engine and records the outcome.
func (h *Harness) evaluate(ctx context.Context, q ir.Query, runID string) *Result {
	result := NewResult(runID)

	out, err := h.engine.Evaluate(ctx, q)
	if err != nil {
		result.Error = err.Error()
		var rerr *engine.RuntimeError
		if errors.As(err, &rerr) {
			result.ErrorCode = string(rerr.Code)
		}
		return result
	}

	result.Order = out.Order
	result.Steps = out.Stats
	result.Rows = out.Rows
	return result
}

// loadQuery parses the scenario program and requires a query.
func loadQuery(s *Scenario) (ir.Query, error) {
	var (
		q   ir.Query
		ok  bool
		err error
	)
	if s.Program != "" {
		q, ok, err = parser.ParseFile(s.Program)
	} else {
		q, ok, err = parser.ParseSource(s.Source)
	}
	if err != nil {
		return ir.Query{}, fmt.Errorf("failed to load program: %w", err)
	}
	if !ok {
		return ir.Query{}, fmt.Errorf("scenario %q: program has no query", s.Name)
	}
	return q, nil
}

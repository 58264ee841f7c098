package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/datalogq/internal/engine"
	"github.com/roach88/datalogq/internal/ir"
	"github.com/roach88/datalogq/internal/querysql"
	"github.com/roach88/datalogq/internal/store"
)

// Evaluation backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// ValidBackends defines the allowed --backend values.
var ValidBackends = []string{BackendMemory, BackendSQLite}

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	Dedup   bool
	Backend string
	FactsDB string

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs engine.RunIDGenerator
}

// EvalResult is the answer to a query.
type EvalResult struct {
	RunID   string            `json:"run_id"`
	Backend string            `json:"backend"`
	Order   []string          `json:"order"`
	Steps   []engine.RuleStat `json:"steps"`
	Rows    ir.Relation       `json:"rows"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <program>",
		Short: "Evaluate a query and print its answer",
		Long: `Evaluate the query of a program and print the answer rows.

The in-memory engine is used by default; --backend sqlite evaluates the
same rules through SQL against an in-memory SQLite database. Facts stored
in an existing SQLite database can be added to the program with --facts-db.

Example:
  datalogq eval ./family.dl
  datalogq eval ./family.dl --dedup
  datalogq eval ./rules.yaml --facts-db ./facts.db --backend sqlite`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Dedup, "dedup", false, "keep only the first occurrence of each answer row")
	cmd.Flags().StringVar(&opts.Backend, "backend", BackendMemory, "evaluation backend (memory|sqlite)")
	cmd.Flags().StringVar(&opts.FactsDB, "facts-db", "", "SQLite database whose stored facts are added to the program")

	return cmd
}

func runEval(opts *EvalOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if !isValidBackend(opts.Backend) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid backend %q: must be one of %v", opts.Backend, ValidBackends))
	}

	ctx := commandContext(cmd)
	q, err := loadQuery(ctx, formatter, path, opts.FactsDB)
	if err != nil {
		return err
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	res, err := evaluateWith(ctx, opts.Backend, q, opts.Dedup, runIDGenerator(opts.RunIDs), logger)
	if err != nil {
		return outputEvalError(formatter, err)
	}

	result := EvalResult{
		RunID:   res.RunID,
		Backend: opts.Backend,
		Order:   res.Order,
		Steps:   res.Stats,
		Rows:    res.Rows,
	}

	if opts.Format == "json" {
		return formatter.Result(result.RunID, result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "run: %s\n", result.RunID)
	fmt.Fprintf(w, "order: %s\n", strings.Join(result.Order, ", "))
	for _, step := range result.Steps {
		formatter.VerboseLog("step %d: %s [%d rows]", step.Step, step.Rule, step.Rows)
	}
	fmt.Fprintf(w, "answer: %d rows\n", len(result.Rows))
	for _, row := range result.Rows {
		fmt.Fprintf(w, "  %s\n", row)
	}
	return nil
}

// loadQuery loads the program at path, requires a query, and merges facts
// from factsDB when it is set. Errors have already been reported through
// formatter.
func loadQuery(ctx context.Context, formatter *OutputFormatter, path, factsDB string) (ir.Query, error) {
	loaded, err := LoadProgram(path)
	if err != nil {
		return ir.Query{}, outputLoadError(formatter, err)
	}
	q, err := loaded.RequireQuery()
	if err != nil {
		return ir.Query{}, outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded %d rule(s) from %s (%s)", len(q.Program.Rules), path, loaded.Format)

	if factsDB == "" {
		return q, nil
	}
	merged, n, err := MergeFacts(ctx, q, factsDB)
	if err != nil {
		return ir.Query{}, outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Added %d fact(s) from %s", n, factsDB)
	return merged, nil
}

// evaluateWith evaluates q on the named backend.
func evaluateWith(ctx context.Context, backend string, q ir.Query, dedup bool, runIDs engine.RunIDGenerator, logger *slog.Logger) (*engine.Result, error) {
	switch backend {
	case BackendMemory:
		eng := engine.New(
			engine.WithDeduplicate(dedup),
			engine.WithRunIDGenerator(runIDs),
			engine.WithLogger(logger),
		)
		return eng.Evaluate(ctx, q)
	case BackendSQLite:
		st, err := store.Open(store.Memory)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open sqlite backend", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		b, err := querysql.NewBackend(st,
			querysql.WithBackendRunIDGenerator(runIDs),
			querysql.WithBackendLogger(logger),
		)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to create sqlite backend", err)
		}
		return b.Evaluate(ctx, q, dedup)
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}

// outputEvalError reports an evaluation failure. Queries rejected for a
// precondition or recursion are validation failures (exit 1); anything else
// is a command error.
func outputEvalError(formatter *OutputFormatter, err error) error {
	var rtErr *engine.RuntimeError
	if !errors.As(err, &rtErr) {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			_ = formatter.Error(ErrCodeBackendError, exitErr.Error(), nil)
			return exitErr
		}
		return outputCommandError(formatter, ErrCodeGeneric, err.Error())
	}

	_ = formatter.Error(string(rtErr.Code), rtErr.Message, rtErr.Details)
	code := ExitCommandError
	if rtErr.Code == engine.ErrCodePreconditionFailed || rtErr.Code == engine.ErrCodeRecursionDetected {
		code = ExitFailure
	}
	return WrapExitError(code, "evaluation failed", err)
}

// newLogger builds the evaluation logger: warnings only, debug with --verbose.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func runIDGenerator(g engine.RunIDGenerator) engine.RunIDGenerator {
	if g == nil {
		return engine.UUIDv7Generator{}
	}
	return g
}

// commandContext returns the command's context, or Background when run
// outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func isValidBackend(backend string) bool {
	for _, b := range ValidBackends {
		if b == backend {
			return true
		}
	}
	return false
}

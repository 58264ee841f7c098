package cli

import (
	"errors"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/datalogq/internal/engine"
	"github.com/roach88/datalogq/internal/ir"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Dedup   bool
	FactsDB string

	// RunIDs allows overriding the run ID generator (for testing).
	RunIDs engine.RunIDGenerator
}

// CheckResult compares the answers of both backends.
type CheckResult struct {
	Agree      bool        `json:"agree"`
	MemoryRows int         `json:"memory_rows"`
	SQLiteRows int         `json:"sqlite_rows"`
	OnlyMemory ir.Relation `json:"only_memory,omitempty"` // rows the sqlite answer lacks
	OnlySQLite ir.Relation `json:"only_sqlite,omitempty"` // rows the memory answer lacks
	Rejected   string      `json:"rejected,omitempty"`    // error code when both backends reject the query
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <program>",
		Short: "Cross-check the in-memory engine against SQLite",
		Long: `Evaluate a query with both the in-memory engine and the SQLite backend
and compare the answers as multisets of rows.

Exit codes:
  0 - Both backends agree (or both reject the query with the same error)
  1 - The answers differ
  2 - Command error (unreadable program, no query, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Dedup, "dedup", false, "deduplicate both answers before comparing")
	cmd.Flags().StringVar(&opts.FactsDB, "facts-db", "", "SQLite database whose stored facts are added to the program")

	return cmd
}

func runCheck(opts *CheckOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	ctx := commandContext(cmd)
	q, err := loadQuery(ctx, formatter, path, opts.FactsDB)
	if err != nil {
		return err
	}

	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())
	runIDs := runIDGenerator(opts.RunIDs)

	memRes, memErr := evaluateWith(ctx, BackendMemory, q, opts.Dedup, runIDs, logger)
	sqlRes, sqlErr := evaluateWith(ctx, BackendSQLite, q, opts.Dedup, runIDs, logger)

	var (
		result CheckResult
		runID  string
	)
	switch {
	case memErr != nil && sqlErr != nil:
		memCode, sqlCode := runtimeCode(memErr), runtimeCode(sqlErr)
		if memCode == "" || memCode != sqlCode {
			return outputEvalError(formatter, memErr)
		}
		result = CheckResult{Agree: true, Rejected: memCode}
	case memErr != nil:
		return outputEvalError(formatter, memErr)
	case sqlErr != nil:
		return outputEvalError(formatter, sqlErr)
	default:
		result = compareAnswers(memRes.Rows, sqlRes.Rows)
		runID = memRes.RunID
	}

	return outputCheckResult(formatter, runID, result)
}

// runtimeCode returns the RuntimeError code of err, or "".
func runtimeCode(err error) string {
	var rtErr *engine.RuntimeError
	if errors.As(err, &rtErr) {
		return string(rtErr.Code)
	}
	return ""
}

// compareAnswers compares two answers as multisets of canonical rows.
func compareAnswers(memory, sqlite ir.Relation) CheckResult {
	return CheckResult{
		Agree:      slices.Equal(canonicalKeys(memory), canonicalKeys(sqlite)),
		MemoryRows: len(memory),
		SQLiteRows: len(sqlite),
		OnlyMemory: multisetDifference(memory, sqlite),
		OnlySQLite: multisetDifference(sqlite, memory),
	}
}

func canonicalKeys(rows ir.Relation) []string {
	keys := make([]string, len(rows))
	for i, row := range rows {
		keys[i] = ir.CanonicalRow(row)
	}
	slices.Sort(keys)
	return keys
}

// multisetDifference returns the rows of a left over after removing one
// occurrence per row of b, in the order of a.
func multisetDifference(a, b ir.Relation) ir.Relation {
	counts := make(map[string]int, len(b))
	for _, row := range b {
		counts[ir.CanonicalRow(row)]++
	}
	var out ir.Relation
	for _, row := range a {
		key := ir.CanonicalRow(row)
		if counts[key] > 0 {
			counts[key]--
			continue
		}
		out = append(out, row)
	}
	return out
}

// outputCheckResult reports the comparison. runID is the in-memory run.
func outputCheckResult(formatter *OutputFormatter, runID string, result CheckResult) error {
	if formatter.Format == "json" {
		if result.Agree {
			return formatter.Result(runID, result)
		}
		if err := formatter.Failure("E_BACKEND_MISMATCH", "backends disagree", result); err != nil {
			return err
		}
		return NewExitError(ExitFailure, "backends disagree")
	}

	w := formatter.Writer
	if result.Rejected != "" {
		fmt.Fprintf(w, "✓ Both backends reject the query: %s\n", result.Rejected)
		return nil
	}
	if result.Agree {
		fmt.Fprintf(w, "✓ Backends agree (%d rows)\n", result.MemoryRows)
		return nil
	}

	fmt.Fprintln(w, "✗ Backends disagree")
	fmt.Fprintf(w, "  memory: %d rows, sqlite: %d rows\n", result.MemoryRows, result.SQLiteRows)
	for _, row := range result.OnlyMemory {
		fmt.Fprintf(w, "  only memory: %s\n", row)
	}
	for _, row := range result.OnlySQLite {
		fmt.Fprintf(w, "  only sqlite: %s\n", row)
	}
	return NewExitError(ExitFailure, "backends disagree")
}

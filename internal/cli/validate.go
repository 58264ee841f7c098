package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/datalogq/internal/compiler"
	"github.com/roach88/datalogq/internal/ir"
)

// PredicateResult is the outcome of one whole-program property check.
type PredicateResult struct {
	Name  string `json:"name"`
	Holds bool   `json:"holds"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid      bool                       `json:"valid"`
	Rules      int                        `json:"rules"`
	Hash       string                     `json:"hash"`
	Predicates []PredicateResult          `json:"predicates"`
	Errors     []compiler.ValidationError `json:"errors,omitempty"`
	Warnings   []compiler.CycleWarning    `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <program>",
		Short: "Check a program without evaluating it",
		Long: `Check a program's static properties without evaluating it.

Reports whether the program is a conjunctive query, safe, satisfiable,
uses every predicate with one arity, and keeps wildcards out of negation.
Every validation error is listed with its code; recursive predicates are
reported as warnings, or as an error when the query's goal depends on them.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	loaded, err := LoadProgram(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	formatter.VerboseLog("Loaded %d rule(s) from %s (%s)", len(loaded.Query.Program.Rules), path, loaded.Format)

	result := validateLoaded(loaded)
	if !result.Valid {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// validateLoaded runs every validator over a loaded program.
func validateLoaded(loaded *LoadResult) ValidationResult {
	p := loaded.Query.Program
	result := ValidationResult{
		Rules: len(p.Rules),
		Hash:  ir.ProgramHash(p),
		Warnings: compiler.AnalyzeCycles(p),
	}

	if loaded.HasGoal {
		q := loaded.Query
		result.Predicates = []PredicateResult{
			{Name: "conjunctive query", Holds: compiler.QueryIsConjunctive(q)},
			{Name: "safe", Holds: compiler.QueryIsSafe(q)},
			{Name: "satisfiable", Holds: compiler.QueryIsSatisfiable(q)},
			{Name: "consistent arity", Holds: compiler.QueryHasConsistentPredicateArity(q)},
			{Name: "no negated wildcard", Holds: compiler.QueryHasNoNegatedWildcard(q)},
		}
		result.Errors = compiler.Check(q)
		result.Errors = append(result.Errors, goalRecursionErrors(q)...)
	} else {
		result.Predicates = []PredicateResult{
			{Name: "conjunctive query", Holds: compiler.IsConjunctiveQuery(p)},
			{Name: "safe", Holds: compiler.IsSafe(p)},
			{Name: "satisfiable", Holds: compiler.IsSatisfiable(p)},
			{Name: "consistent arity", Holds: compiler.HasConsistentPredicateArity(p)},
			{Name: "no negated wildcard", Holds: compiler.HasNoNegatedWildcard(p)},
		}
		result.Errors = compiler.CheckProgram(p)
	}

	result.Valid = len(result.Errors) == 0
	return result
}

// goalRecursionErrors reports a cycle the goal depends on.
func goalRecursionErrors(q ir.Query) []compiler.ValidationError {
	_, err := compiler.SortedPredicateOrder(q)
	var recErr *compiler.RecursionError
	if !errors.As(err, &recErr) {
		return nil
	}
	return []compiler.ValidationError{{
		Field:   "goal",
		Message: recErr.Error(),
		Code:    compiler.ErrRecursiveDependency,
	}}
}

// outputLoadError reports a program that could not be loaded.
func outputLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return outputCommandError(formatter, loadErr.Code, loadErr.Error())
	}
	return outputCommandError(formatter, ErrCodeGeneric, err.Error())
}

// outputCommandError outputs a single command-level error.
func outputCommandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	// Load errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	writeValidationText(formatter, result)
	fmt.Fprintln(formatter.Writer, "✓ Program valid")
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	if formatter.Format == "json" {
		if err := formatter.Failure(errs[0].Code, errs[0].Message, result); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	writeValidationText(formatter, result)
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "%s\n", err.Field)
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}

func writeValidationText(formatter *OutputFormatter, result ValidationResult) {
	w := formatter.Writer
	fmt.Fprintf(w, "rules: %d\n", result.Rules)
	fmt.Fprintf(w, "hash: %s\n", result.Hash)
	for _, p := range result.Predicates {
		mark := "yes"
		if !p.Holds {
			mark = "no"
		}
		fmt.Fprintf(w, "  %s: %s\n", p.Name, mark)
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "warning: %s: %s\n", warning.Code, warning.Message)
	}
}

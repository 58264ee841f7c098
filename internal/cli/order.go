package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/datalogq/internal/compiler"
)

// OrderResult is the evaluation order of a query.
type OrderResult struct {
	Goal  string   `json:"goal"`
	Order []string `json:"order"`
	Rules []string `json:"rules"`
}

// NewOrderCommand creates the order command.
func NewOrderCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order <program>",
		Short: "Print the predicate evaluation order",
		Long: `Print the order in which the query's predicates are evaluated.

Every predicate appears after all predicates it depends on, and the goal
predicate comes last. Predicates the goal does not depend on are omitted.
With --verbose the rules are listed in evaluation order as well.

Example:
  datalogq order ./family.dl
  datalogq order ./family.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrder(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runOrder(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loaded, err := LoadProgram(path)
	if err != nil {
		return outputLoadError(formatter, err)
	}
	q, err := loaded.RequireQuery()
	if err != nil {
		return outputLoadError(formatter, err)
	}

	rules, order, err := compiler.SortRules(q)
	if err != nil {
		var recErr *compiler.RecursionError
		if errors.As(err, &recErr) {
			_ = formatter.Error(compiler.ErrRecursiveDependency, recErr.Error(), recErr.Path)
			return WrapExitError(ExitFailure, "cannot order a recursive query", err)
		}
		return outputCommandError(formatter, ErrCodeGeneric, err.Error())
	}

	result := OrderResult{Goal: q.Goal.String(), Order: order, Rules: make([]string, len(rules))}
	for i, r := range rules {
		result.Rules[i] = r.String()
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	for i, name := range order {
		fmt.Fprintf(w, "%d. %s\n", i+1, name)
	}
	for _, r := range result.Rules {
		formatter.VerboseLog("  %s", r)
	}
	return nil
}

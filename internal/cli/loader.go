package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/datalogq/internal/ir"
	"github.com/roach88/datalogq/internal/parser"
	"github.com/roach88/datalogq/internal/store"
)

// LoadResult contains a program file parsed into the IR.
type LoadResult struct {
	Path    string
	Format  parser.Format
	Query   ir.Query // Goal is zero when HasGoal is false
	HasGoal bool
}

// LoadError represents an error that occurred while loading a program.
type LoadError struct {
	Code    string
	Message string
	Path    string
	Pos     parser.Pos // text syntax position if available
}

func (e *LoadError) Error() string {
	if e.Pos.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Path, e.Pos.Line, e.Pos.Column, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeUnsupported  = "E002" // Unsupported program file extension
	ErrCodeReadFailed   = "E004" // Program could not be read
	ErrCodeNotFound     = "E005" // Path not found
	ErrCodeParseFailed  = "E006" // Text syntax error
	ErrCodeDocument     = "E007" // CUE or YAML document error
	ErrCodeNoQuery      = "E008" // Command needs a goal the program lacks
	ErrCodeFactsDB      = "E009" // Facts database could not be read
	ErrCodeBackendError = "E010" // Backend setup failed
)

// LoadProgram reads a program file, choosing the syntax from its extension.
func LoadProgram(path string) (*LoadResult, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("program file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing program file: %v", err)}
	}
	if info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a file: %s", path)}
	}

	format, err := parser.FormatOf(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeUnsupported, Message: err.Error()}
	}

	q, hasGoal, err := parser.ParseFile(path)
	if err != nil {
		return nil, convertParseError(path, err)
	}
	return &LoadResult{Path: path, Format: format, Query: q, HasGoal: hasGoal}, nil
}

// RequireQuery returns the loaded query, or a LoadError when the file only
// holds rules.
func (r *LoadResult) RequireQuery() (ir.Query, error) {
	if !r.HasGoal {
		return ir.Query{}, &LoadError{
			Code:    ErrCodeNoQuery,
			Message: fmt.Sprintf("%s has no query: add '? goal' or a query section", r.Path),
		}
	}
	return r.Query, nil
}

// convertParseError converts a parser error to a LoadError with position info.
func convertParseError(path string, err error) *LoadError {
	var parseErr *parser.ParseError
	if errors.As(err, &parseErr) {
		return &LoadError{
			Code:    ErrCodeParseFailed,
			Message: parseErr.Message,
			Path:    path,
			Pos:     parseErr.Pos,
		}
	}
	var docErr *parser.DocumentError
	if errors.As(err, &docErr) {
		return &LoadError{Code: ErrCodeDocument, Message: fmt.Sprintf("%s: %s", path, docErr.Error())}
	}
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
		return &LoadError{Code: ErrCodeReadFailed, Message: err.Error()}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// MergeFacts appends every fact stored in the SQLite database at dbPath to
// the program of q. Stored facts follow the program's own rules. q is not
// modified. Returns the number of facts added.
func MergeFacts(ctx context.Context, q ir.Query, dbPath string) (ir.Query, int, error) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return ir.Query{}, 0, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("facts database not found: %s", dbPath)}
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return ir.Query{}, 0, &LoadError{Code: ErrCodeFactsDB, Message: fmt.Sprintf("open facts database: %v", err)}
	}
	defer st.Close()

	facts, err := st.LoadFacts(ctx)
	if err != nil {
		return ir.Query{}, 0, &LoadError{Code: ErrCodeFactsDB, Message: err.Error()}
	}

	out := ir.Query{Program: q.Program.Clone(), Goal: q.Goal.Clone()}
	out.Program.Rules = append(out.Program.Rules, facts...)
	return out, len(facts), nil
}

package cli

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/datalogq/internal/ir"
	"github.com/roach88/datalogq/internal/parser"
	"github.com/roach88/datalogq/internal/store"
)

func TestLoadProgram_Formats(t *testing.T) {
	tests := []struct {
		file   string
		format parser.Format
		goal   string
	}{
		{"family.dl", parser.FormatText, "grandparent"},
		{"colleagues.yaml", parser.FormatYAML, "colleague"},
		{"path.cue", parser.FormatCUE, "path"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			loaded, err := LoadProgram(filepath.Join(programsDir, tt.file))
			require.NoError(t, err)
			assert.Equal(t, tt.format, loaded.Format)
			assert.True(t, loaded.HasGoal)

			q, err := loaded.RequireQuery()
			require.NoError(t, err)
			assert.Equal(t, tt.goal, q.Goal.Predicate)
		})
	}
}

func TestLoadProgram_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		code string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.dl") }, ErrCodeNotFound},
		{"directory", func(t *testing.T) string { return t.TempDir() }, ErrCodeNotFound},
		{"unsupported extension", func(t *testing.T) string { return writeProgram(t, "p.txt", "p(a).") }, ErrCodeUnsupported},
		{"syntax error", func(t *testing.T) string { return writeProgram(t, "p.dl", "p(a)\n? p(X).") }, ErrCodeParseFailed},
		{"document error", func(t *testing.T) string {
			return writeProgram(t, "p.yaml", "rules:\n  - head: {pred: p, args: [a]}\n    body: [{eq: [X]}]\n")
		}, ErrCodeDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadProgram(tt.path(t))
			require.Error(t, err)

			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr), "got %T: %v", err, err)
			assert.Equal(t, tt.code, loadErr.Code)
		})
	}
}

func TestLoadError_Position(t *testing.T) {
	path := writeProgram(t, "p.dl", "p(a)\n? p(X).")
	_, err := LoadProgram(path)
	require.Error(t, err)

	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, 2, loadErr.Pos.Line)
	assert.Contains(t, err.Error(), path+":2:")
	assert.Contains(t, err.Error(), ErrCodeParseFailed)
}

func TestRequireQuery_RulesOnly(t *testing.T) {
	loaded, err := LoadProgram(writeProgram(t, "rules.dl", "p(a)."))
	require.NoError(t, err)
	assert.False(t, loaded.HasGoal)

	_, err = loaded.RequireQuery()
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeNoQuery, loadErr.Code)
}

func TestMergeFacts(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "facts.db")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	n, err := st.SaveFacts(ctx, ir.Program{Rules: []ir.Rule{
		ir.NewFact("parent", "irad", "mehujael"),
	}})
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.NoError(t, st.Close())

	loaded, err := LoadProgram(filepath.Join(programsDir, "family.dl"))
	require.NoError(t, err)
	before := len(loaded.Query.Program.Rules)

	merged, added, err := MergeFacts(ctx, loaded.Query, dbPath)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	require.Len(t, merged.Program.Rules, before+1)
	assert.Equal(t, "parent(irad, mehujael).", merged.Program.Rules[before].String())
	assert.Len(t, loaded.Query.Program.Rules, before, "input query must not change")
}

func TestMergeFacts_MissingDatabase(t *testing.T) {
	_, _, err := MergeFacts(context.Background(), ir.Query{}, filepath.Join(t.TempDir(), "none.db"))
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrCodeNotFound, loadErr.Code)
}

package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/datalogq/internal/compiler"
)

func TestOrderText(t *testing.T) {
	out, err := executeRoot(t, "order", filepath.Join(programsDir, "family.dl"))
	require.NoError(t, err)
	assert.Equal(t, "1. parent\n2. grandparent\n", out)
}

func TestOrderDropsUnusedPredicates(t *testing.T) {
	path := writeProgram(t, "p.dl", `
person(adam). parent(adam, cain). unused(x).
child(X) <- parent(_, X).
root(X) <- person(X), ~child(X).
? root(Who).
`)
	out, err := executeRoot(t, "order", path)
	require.NoError(t, err)
	assert.Equal(t, "1. person\n2. parent\n3. child\n4. root\n", out)
}

func TestOrderJSON(t *testing.T) {
	out, err := executeRoot(t, "--format", "json", "order", filepath.Join(programsDir, "colleagues.yaml"))
	require.NoError(t, err)

	var result OrderResult
	resp := decodeResponse(t, []byte(out), &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "colleague(ann, Y)", result.Goal)
	assert.Equal(t, []string{"employee", "colleague"}, result.Order)
	assert.Equal(t, []string{
		"employee(ann, sales).",
		"employee(bob, sales).",
		"employee(cat, ops).",
		"colleague(X, Y) ← employee(X, D), employee(Y, E), D = E, X ≠ Y.",
	}, result.Rules)
}

func TestOrderRecursive(t *testing.T) {
	out, err := executeRoot(t, "order", filepath.Join(programsDir, "path.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error ["+compiler.ErrRecursiveDependency+"]")
	assert.Contains(t, out, "path → path")
}

func TestOrderRequiresQuery(t *testing.T) {
	out, err := executeRoot(t, "order", writeProgram(t, "rules.dl", "p(a)."))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNoQuery)
}

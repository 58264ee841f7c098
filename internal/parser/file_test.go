package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/datalogq/internal/ir"
)

func TestFormatOf(t *testing.T) {
	tests := map[string]Format{
		"a.dl":      FormatText,
		"a.query":   FormatText,
		"a.datalog": FormatText,
		"dir/a.CUE": FormatCUE,
		"a.yaml":    FormatYAML,
		"a.yml":     FormatYAML,
	}
	for path, want := range tests {
		got, err := FormatOf(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatOf("a.json")
	assert.Error(t, err)
}

func TestParseFile_AllFormatsAgree(t *testing.T) {
	text, ok, err := ParseFile("testdata/family.dl")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, ir.Pos("grandparent", ir.Const("adam"), ir.Var("Who")), text.Goal)
	assert.Len(t, text.Program.Rules, 4)

	for _, path := range []string{"testdata/family.yaml", "testdata/family.cue"} {
		t.Run(path, func(t *testing.T) {
			q, ok, err := ParseFile(path)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, text, q)
		})
	}
}

func TestParseFile_WithoutQuery(t *testing.T) {
	q, ok, err := ParseFile("testdata/rules-only.yaml")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, q.Program.Rules, 1)
}

func TestParseFile_Errors(t *testing.T) {
	_, _, err := ParseFile("testdata/missing.dl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read program")

	_, _, err = ParseFile("testdata/family.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported")
}

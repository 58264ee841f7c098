package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/datalogq/internal/ir"
)

// Format identifies a program file syntax.
type Format string

const (
	FormatText Format = "text"
	FormatCUE  Format = "cue"
	FormatYAML Format = "yaml"
)

// FormatOf chooses a syntax from the file extension.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".dl", ".query", ".datalog":
		return FormatText, nil
	case ".cue":
		return FormatCUE, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported program file extension %q", ext)
	}
}

// ParseBytes parses data in the given format. The second result reports
// whether a query was present; the program alone is returned otherwise.
func ParseBytes(format Format, name string, data []byte) (ir.Query, bool, error) {
	var doc Document
	var err error

	switch format {
	case FormatText:
		return ParseSource(string(data))
	case FormatCUE:
		doc, err = DecodeCUE(name, data)
	case FormatYAML:
		doc, err = DecodeYAML(data)
	default:
		return ir.Query{}, false, fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return ir.Query{}, false, err
	}

	if doc.Query == nil {
		prog, err := doc.ToProgram()
		return ir.Query{Program: prog}, false, err
	}
	q, err := doc.ToQuery()
	return q, err == nil, err
}

// ParseFile reads and parses a program file, choosing the syntax from its
// extension.
func ParseFile(path string) (ir.Query, bool, error) {
	format, err := FormatOf(path)
	if err != nil {
		return ir.Query{}, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ir.Query{}, false, fmt.Errorf("read program: %w", err)
	}
	q, ok, err := ParseBytes(format, path, data)
	if err != nil {
		return ir.Query{}, false, fmt.Errorf("%s: %w", path, err)
	}
	return q, ok, nil
}

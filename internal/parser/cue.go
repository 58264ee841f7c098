package parser

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// DecodeCUE evaluates a CUE document and decodes it into a Document.
// filename is used in error positions only.
func DecodeCUE(filename string, data []byte) (Document, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(filename))
	if err := value.Err(); err != nil {
		return Document{}, fmt.Errorf("building CUE value: %w", err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return Document{}, fmt.Errorf("validating CUE value: %w", err)
	}

	var doc Document
	if err := value.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decoding CUE document: %w", err)
	}
	return doc, nil
}

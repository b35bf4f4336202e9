// Package format writes parse values and grammars for people and tools.
package format

import (
	"encoding"
	"fmt"
	"io"

	"github.com/dhamidi/eslif/grammar"
	"github.com/dhamidi/eslif/value"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(tree *value.Tree) error
	EncodeGrammar(g *grammar.Grammar) error
}

// Names lists the encoders New knows.
var Names = []string{"sexp", "json", "line"}

// New returns the encoder called name.
func New(name string, w io.Writer) (Encoder, error) {
	switch name {
	case "sexp":
		return NewSexpEncoder(w), nil
	case "json":
		return NewJSONEncoder(w), nil
	case "line":
		return NewLineEncoder(w), nil
	}
	return nil, fmt.Errorf("unknown format: %s (expected sexp, json, or line)", name)
}

// SexpEncoder writes trees as one s-expression per line and grammars in the
// native syntax.
type SexpEncoder struct {
	w       io.Writer
	tree    *value.Tree
	grammar *grammar.Grammar
}

func NewSexpEncoder(w io.Writer) *SexpEncoder {
	return &SexpEncoder{w: w}
}

func (e *SexpEncoder) Encode(tree *value.Tree) error {
	e.tree, e.grammar = tree, nil
	return write(e.w, e)
}

func (e *SexpEncoder) EncodeGrammar(g *grammar.Grammar) error {
	e.tree, e.grammar = nil, g
	return write(e.w, e)
}

func (e *SexpEncoder) MarshalText() ([]byte, error) {
	if e.grammar != nil {
		return []byte(e.grammar.Show()), nil
	}
	return []byte(e.tree.String() + "\n"), nil
}

func write(w io.Writer, m encoding.TextMarshaler) error {
	text, err := m.MarshalText()
	if err != nil {
		return err
	}
	_, err = w.Write(text)
	return err
}

// Package eslif ties the grammar compiler, the recognizer and the
// valuation engine together.
//
//	e := eslif.New()
//	defer e.Close()
//	g, err := e.NewGrammar("calc", strings.NewReader(src))
//	...
//	values, err := g.ParseString("1 + 2", &value.Options{})
package eslif

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/eslif/ebnf"
	"github.com/dhamidi/eslif/grammar"
	"github.com/dhamidi/eslif/recognizer"
	"github.com/dhamidi/eslif/value"
)

// ErrClosed is returned by an engine after Close.
var ErrClosed = errors.New("eslif: engine closed")

// ESLIF is an engine context. It owns the logger handed to every grammar
// and recognizer it creates.
type ESLIF struct {
	log    commonlog.Logger
	ebnf   ebnf.Options
	closed bool
}

// Option configures an ESLIF.
type Option func(*ESLIF)

// WithLogger replaces the default "eslif" logger.
func WithLogger(log commonlog.Logger) Option {
	return func(e *ESLIF) { e.log = log }
}

// WithEBNF sets the options used for grammars loaded from .ebnf files.
func WithEBNF(opts ebnf.Options) Option {
	return func(e *ESLIF) { e.ebnf = opts }
}

// New returns an engine.
func New(opts ...Option) *ESLIF {
	e := &ESLIF{log: commonlog.GetLogger("eslif")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Close releases the engine. Grammars it created keep their introspection
// but no longer create recognizers. Closing twice is a no-op.
func (e *ESLIF) Close() error {
	e.closed = true
	return nil
}

// NewGrammar compiles a grammar in the native syntax.
func (e *ESLIF) NewGrammar(filename string, r io.Reader) (*Grammar, error) {
	if e.closed {
		return nil, ErrClosed
	}
	g, err := grammar.Compile(filename, r)
	if err != nil {
		return nil, err
	}
	return e.wrap(filename, g), nil
}

// NewGrammarFromDefinition builds a grammar assembled in code.
func (e *ESLIF) NewGrammarFromDefinition(def *grammar.Definition) (*Grammar, error) {
	if e.closed {
		return nil, ErrClosed
	}
	g, err := grammar.Build(def)
	if err != nil {
		return nil, err
	}
	return e.wrap(def.Filename, g), nil
}

// LoadGrammar compiles the grammar file at path. The front end is chosen by
// extension: .ebnf, .yaml and .yml have their own; anything else is native
// syntax.
func (e *ESLIF) LoadGrammar(path string) (*Grammar, error) {
	if e.closed {
		return nil, ErrClosed
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open grammar: %w", err)
	}
	defer f.Close()

	var g *grammar.Grammar
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ebnf":
		g, err = ebnf.Compile(path, f, e.ebnf)
	case ".yaml", ".yml":
		var def *grammar.Definition
		def, err = grammar.ParseYAML(path, f)
		if err == nil {
			g, err = grammar.Build(def)
		}
	default:
		g, err = grammar.Compile(path, f)
	}
	if err != nil {
		return nil, err
	}
	return e.wrap(path, g), nil
}

func (e *ESLIF) wrap(name string, g *grammar.Grammar) *Grammar {
	e.log.Debugf("grammar %s: %d levels, start %s", name, g.LevelCount(), g.Start())
	return &Grammar{Grammar: g, engine: e}
}

// Grammar is a compiled grammar bound to the engine that created it. It
// can be shared by any number of recognizers.
type Grammar struct {
	*grammar.Grammar
	engine *ESLIF
}

// Recognizer returns a recognizer over r that logs through the engine.
func (g *Grammar) Recognizer(r recognizer.Reader, opts ...recognizer.Option) (*recognizer.Recognizer, error) {
	if g.engine.closed {
		return nil, ErrClosed
	}
	opts = append([]recognizer.Option{recognizer.WithLogger(g.engine.log)}, opts...)
	return recognizer.New(g.Grammar, r, opts...)
}

// Parse recognizes the input of r and values the resulting forest. A nil
// builder produces *value.Tree values.
func (g *Grammar) Parse(r recognizer.Reader, p value.Policy, b value.Builder, opts ...recognizer.Option) ([]any, error) {
	rec, err := g.Recognizer(r, opts...)
	if err != nil {
		return nil, err
	}
	if err := rec.Recognize(); err != nil {
		return nil, err
	}
	f, err := rec.Forest()
	if err != nil {
		return nil, err
	}
	return value.Value(f, p, b)
}

// ParseString parses s as a character stream with line counting.
func (g *Grammar) ParseString(s string, p value.Policy) ([]any, error) {
	return g.Parse(recognizer.NewStringReader(s, recognizer.ReaderConfig{Newline: true}), p, nil)
}

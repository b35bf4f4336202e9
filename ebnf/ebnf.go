// Package ebnf compiles grammars written in the EBNF dialect of
// golang.org/x/exp/ebnf.
//
// Productions whose name starts with a lowercase letter are lexical and
// compile to level 1; every other production compiles to level 0. Options,
// repetitions and groups become helper rules named after the production
// they appear in.
package ebnf

import (
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"
	"text/scanner"
	"unicode"
	"unicode/utf8"

	xebnf "golang.org/x/exp/ebnf"

	"github.com/dhamidi/eslif/grammar"
)

// Options configures the conversion.
type Options struct {
	// Start is the level 0 start production. It defaults to the first
	// non-lexical production of the source.
	Start string
	// Discard names productions whose matches are skipped between level 0
	// tokens.
	Discard []string
}

// Parse reads an EBNF grammar and converts it to a grammar definition.
func Parse(filename string, r io.Reader, opts Options) (*grammar.Definition, error) {
	g, err := xebnf.Parse(filename, r)
	if err != nil {
		return nil, fmt.Errorf("parse grammar: %w", err)
	}
	return Convert(filename, g, opts)
}

// Compile parses an EBNF grammar and builds it.
func Compile(filename string, r io.Reader, opts Options) (*grammar.Grammar, error) {
	def, err := Parse(filename, r, opts)
	if err != nil {
		return nil, err
	}
	return grammar.Build(def)
}

// Convert verifies g and turns it into a grammar definition.
func Convert(filename string, g xebnf.Grammar, opts Options) (*grammar.Definition, error) {
	prods := ordered(g)
	start := opts.Start
	if start == "" {
		for _, p := range prods {
			if !isLexical(p.Name.String) {
				start = p.Name.String
				break
			}
		}
		if start == "" {
			return nil, fmt.Errorf("%s: no non-lexical production to start from", filename)
		}
	}
	if err := verify(g, start, opts.Discard); err != nil {
		return nil, fmt.Errorf("verify grammar: %w", err)
	}

	c := &converter{
		def:     &grammar.Definition{Filename: filename},
		helpers: make(map[string]int),
	}
	c.def.Starts = append(c.def.Starts, grammar.StartDefinition{Name: start})
	for _, name := range opts.Discard {
		loc := location(g[name].Name.StringPos)
		c.def.AddRule(0, grammar.DiscardName, 0, loc, grammar.NewReference(name, loc))
	}
	for _, p := range prods {
		c.production(p)
	}
	return c.def, nil
}

// Errors splits the error list returned by golang.org/x/exp/ebnf into its
// elements. Other errors are returned as a single element.
func Errors(err error) []error {
	for e := err; e != nil; {
		v := reflect.ValueOf(e)
		if v.Kind() == reflect.Slice {
			out := make([]error, 0, v.Len())
			for i := 0; i < v.Len(); i++ {
				if item, ok := v.Index(i).Interface().(error); ok {
					out = append(out, item)
				}
			}
			return out
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = u.Unwrap()
	}
	if err == nil {
		return nil
	}
	return []error{err}
}

func ordered(g xebnf.Grammar) []*xebnf.Production {
	prods := make([]*xebnf.Production, 0, len(g))
	for _, p := range g {
		prods = append(prods, p)
	}
	sort.Slice(prods, func(i, j int) bool {
		return prods[i].Name.StringPos.Offset < prods[j].Name.StringPos.Offset
	})
	return prods
}

// verify runs xebnf.Verify from a synthetic root so that discard
// productions count as used.
func verify(g xebnf.Grammar, start string, discard []string) error {
	root := "Root"
	for g[root] != nil {
		root += "_"
	}
	alts := xebnf.Alternative{&xebnf.Name{String: start}}
	for _, name := range discard {
		if g[name] == nil {
			return fmt.Errorf("discard production %s is undefined", name)
		}
		alts = append(alts, &xebnf.Name{String: name})
	}
	withRoot := make(xebnf.Grammar, len(g)+1)
	for name, p := range g {
		withRoot[name] = p
	}
	withRoot[root] = &xebnf.Production{Name: &xebnf.Name{String: root}, Expr: alts}
	return xebnf.Verify(withRoot, root)
}

func isLexical(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsLower(r)
}

func levelOf(name string) int {
	if isLexical(name) {
		return 1
	}
	return 0
}

func location(pos scanner.Position) grammar.Location {
	return grammar.Location{Filename: pos.Filename, Line: pos.Line, Column: pos.Column}
}

type converter struct {
	def     *grammar.Definition
	helpers map[string]int
}

func (c *converter) production(p *xebnf.Production) {
	name := p.Name.String
	c.rules(name, name, levelOf(name), location(p.Name.StringPos), p.Expr, false)
}

// rules adds one rule per alternative of e. A recursive LHS is prepended to
// every alternative.
func (c *converter) rules(owner, lhs string, level int, loc grammar.Location, e xebnf.Expression, recursive bool) {
	for _, alt := range alternatives(e) {
		var rhs []grammar.TermDefinition
		if recursive {
			rhs = append(rhs, grammar.NewReference(lhs, loc))
		}
		rhs = append(rhs, c.sequence(owner, level, alt)...)
		c.def.AddRule(level, lhs, 0, loc, rhs...)
	}
}

func alternatives(e xebnf.Expression) []xebnf.Expression {
	if alt, ok := e.(xebnf.Alternative); ok {
		return alt
	}
	return []xebnf.Expression{e}
}

func (c *converter) sequence(owner string, level int, e xebnf.Expression) []grammar.TermDefinition {
	switch e := e.(type) {
	case nil:
		return nil
	case xebnf.Sequence:
		var out []grammar.TermDefinition
		for _, x := range e {
			out = append(out, c.sequence(owner, level, x)...)
		}
		return out
	case *xebnf.Token:
		if e.String == "" {
			return nil
		}
	}
	return []grammar.TermDefinition{c.term(owner, level, e)}
}

func (c *converter) term(owner string, level int, e xebnf.Expression) grammar.TermDefinition {
	loc := location(e.Pos())
	switch e := e.(type) {
	case *xebnf.Name:
		return grammar.NewReference(e.String, loc)
	case *xebnf.Token:
		return grammar.NewTerminal(grammar.StringPattern, e.String, "", loc)
	case *xebnf.Range:
		return grammar.NewTerminal(grammar.ClassPattern, classEscape(e.Begin.String)+"-"+classEscape(e.End.String), "", loc)
	case *xebnf.Option:
		h := c.helper(owner)
		c.def.AddRule(level, h, 0, loc)
		c.rules(owner, h, level, loc, e.Body, false)
		return grammar.NewReference(h, loc)
	case *xebnf.Repetition:
		h := c.helper(owner)
		c.def.AddRule(level, h, 0, loc)
		c.rules(owner, h, level, loc, e.Body, true)
		return grammar.NewReference(h, loc)
	case *xebnf.Group:
		h := c.helper(owner)
		c.rules(owner, h, level, loc, e.Body, false)
		return grammar.NewReference(h, loc)
	default:
		h := c.helper(owner)
		c.rules(owner, h, level, loc, e, false)
		return grammar.NewReference(h, loc)
	}
}

func (c *converter) helper(owner string) string {
	c.helpers[owner]++
	return fmt.Sprintf("%s$%d", owner, c.helpers[owner])
}

func classEscape(s string) string {
	if strings.ContainsAny(s, `\]^-[`) {
		return `\` + s
	}
	return s
}

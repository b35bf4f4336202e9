package value

import (
	"strconv"
	"strings"

	"github.com/dhamidi/eslif/grammar"
)

// Builder turns derivations into values. Rule receives the values of the
// children in RHS order.
type Builder interface {
	Rule(rule *grammar.Rule, children []any) (any, error)
	Lexeme(symbol *grammar.Symbol, data []byte) (any, error)
}

// Tree is the value produced by TreeBuilder.
type Tree struct {
	Symbol   string  `json:"symbol"`
	Rule     string  `json:"rule,omitempty"`
	Text     string  `json:"text,omitempty"`
	Children []*Tree `json:"children,omitempty"`
}

// IsLexeme reports whether t is a leaf built from input.
func (t *Tree) IsLexeme() bool { return t.Rule == "" }

// String renders t as an s-expression: (S (A "a") (A "a")).
func (t *Tree) String() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t *Tree) write(sb *strings.Builder) {
	if t.IsLexeme() {
		sb.WriteString(strconv.Quote(t.Text))
		return
	}
	sb.WriteByte('(')
	sb.WriteString(t.Symbol)
	for _, c := range t.Children {
		sb.WriteByte(' ')
		c.write(sb)
	}
	sb.WriteByte(')')
}

// Lexemes returns the input covered by t.
func (t *Tree) Lexemes() string {
	if t.IsLexeme() {
		return t.Text
	}
	var sb strings.Builder
	for _, c := range t.Children {
		sb.WriteString(c.Lexemes())
	}
	return sb.String()
}

// TreeBuilder builds a *Tree per derivation.
type TreeBuilder struct{}

func (TreeBuilder) Rule(rule *grammar.Rule, children []any) (any, error) {
	t := &Tree{Symbol: rule.LHS.Display(), Rule: rule.Display()}
	for _, c := range children {
		t.Children = append(t.Children, c.(*Tree))
	}
	return t, nil
}

func (TreeBuilder) Lexeme(symbol *grammar.Symbol, data []byte) (any, error) {
	return &Tree{Symbol: symbol.Display(), Text: string(data)}, nil
}

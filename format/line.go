package format

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dhamidi/eslif/grammar"
	"github.com/dhamidi/eslif/value"
)

// LineEncoder writes one tab separated record per line. Trees are written
// depth first, indented by depth.
type LineEncoder struct {
	w       io.Writer
	tree    *value.Tree
	grammar *grammar.Grammar
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(tree *value.Tree) error {
	e.tree, e.grammar = tree, nil
	return write(e.w, e)
}

func (e *LineEncoder) EncodeGrammar(g *grammar.Grammar) error {
	e.tree, e.grammar = nil, g
	return write(e.w, e)
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	if e.grammar != nil {
		e.writeGrammar(&sb)
	} else {
		writeTree(&sb, e.tree, 0)
	}
	return []byte(sb.String()), nil
}

func writeTree(sb *strings.Builder, t *value.Tree, depth int) {
	indent := strings.Repeat("  ", depth)
	if t.IsLexeme() {
		fmt.Fprintf(sb, "%slexeme\t%s\t%s\n", indent, t.Symbol, strconv.Quote(t.Text))
		return
	}
	fmt.Fprintf(sb, "%srule\t%s\n", indent, t.Rule)
	for _, c := range t.Children {
		writeTree(sb, c, depth+1)
	}
}

func (e *LineEncoder) writeGrammar(sb *strings.Builder) {
	g := e.grammar
	for i := 0; i < g.LevelCount(); i++ {
		l, _ := g.Level(i)
		fmt.Fprintf(sb, "level\t%d\t%s\n", i, strconv.Quote(l.Description()))
		for _, s := range l.Symbols() {
			fmt.Fprintf(sb, "symbol\t%d\t%d\t%s\t%s\t%s\n",
				i,
				s.ID,
				s.Kind,
				s.Display(),
				symbolFlagsStr(s),
			)
		}
		for _, r := range l.Rules() {
			fmt.Fprintf(sb, "rule\t%d\t%d\t%d\t%s\n",
				i,
				r.ID,
				r.Rank,
				r.Display(),
			)
		}
	}
}

func symbolFlagsStr(s *grammar.Symbol) string {
	var flags []string
	if s.Lexeme {
		flags = append(flags, "lexeme")
	}
	if s.Nullable {
		flags = append(flags, "nullable")
	}
	if s.IsDiscard() {
		flags = append(flags, "discard")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}

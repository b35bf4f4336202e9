package recognizer

import (
	"fmt"
	"strings"

	"github.com/dhamidi/eslif/grammar"
)

// Forest is a shared packed parse forest. Nodes live in arenas and refer to
// each other by index, so cycles of cyclic grammars are representable.
type Forest struct {
	input   []byte
	offsets []int
	ors     []OrNode
	ands    []AndNode
	leaves  []Leaf
	root    int
}

// OrNode groups every derivation of Symbol between two Earley sets.
type OrNode struct {
	Symbol *grammar.Symbol
	// Start and End are Earley set indexes.
	Start, End   int
	Alternatives []int
}

// AndNode is one derivation: a rule and one child per RHS symbol.
type AndNode struct {
	Rule     *grammar.Rule
	Children []Child
}

// Child refers either to a leaf or to an OR-node.
type Child struct {
	Leaf  bool
	Index int
}

// Leaf is a scanned terminal or lexeme. Start and End are byte offsets.
type Leaf struct {
	Symbol     *grammar.Symbol
	Start, End int
}

func (f *Forest) Root() int { return f.root }
func (f *Forest) Or(i int) *OrNode { return &f.ors[i] }
func (f *Forest) And(i int) *AndNode { return &f.ands[i] }
func (f *Forest) Leaf(i int) *Leaf { return &f.leaves[i] }
func (f *Forest) Size() (ors, ands, leaves int) { return len(f.ors), len(f.ands), len(f.leaves) }

// Bytes returns the input matched by a leaf.
func (f *Forest) Bytes(l *Leaf) []byte { return f.input[l.Start:l.End] }

// Offsets returns the byte offsets of the Earley sets an OR-node spans.
func (f *Forest) Offsets(or int) (start, end int) {
	n := &f.ors[or]
	return f.offsets[n.Start], f.offsets[n.End]
}

// IsNull reports whether the root derives the empty input.
func (f *Forest) IsNull() bool {
	root := &f.ors[f.root]
	return root.Start == root.End
}

// String renders the forest one OR-node per line, for debugging.
func (f *Forest) String() string {
	var sb strings.Builder
	for i, or := range f.ors {
		fmt.Fprintf(&sb, "or%d %s [%d,%d]\n", i, or.Symbol, or.Start, or.End)
		for _, a := range or.Alternatives {
			and := &f.ands[a]
			fmt.Fprintf(&sb, "  and%d %s:", a, and.Rule)
			for _, c := range and.Children {
				if c.Leaf {
					l := &f.leaves[c.Index]
					fmt.Fprintf(&sb, " %s=%q", l.Symbol, f.Bytes(l))
				} else {
					fmt.Fprintf(&sb, " or%d", c.Index)
				}
			}
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

type orKey struct {
	symbol     *grammar.Symbol
	start, end int
}

type pathKey struct {
	set, item int
}

// forestBuilder walks the links of a frame's chart top-down from the root.
type forestBuilder struct {
	frame  *frame
	forest *Forest
	ors    map[orKey]int
	leaves map[int]int
	paths  map[pathKey][][]Child
}

func buildForest(f *frame, end int, input []byte) *Forest {
	forest := &Forest{input: input}
	for _, s := range f.chart[:end+1] {
		forest.offsets = append(forest.offsets, s.offset)
	}
	b := &forestBuilder{
		frame:  f,
		forest: forest,
		ors:    make(map[orKey]int),
		leaves: make(map[int]int),
		paths:  make(map[pathKey][][]Child),
	}
	forest.root = b.or(f.start, 0, end)
	return forest
}

func (b *forestBuilder) or(sym *grammar.Symbol, start, end int) int {
	key := orKey{sym, start, end}
	if idx, ok := b.ors[key]; ok {
		return idx
	}
	idx := len(b.forest.ors)
	b.forest.ors = append(b.forest.ors, OrNode{Symbol: sym, Start: start, End: end})
	b.ors[key] = idx

	s := b.frame.chart[end]
	for i, it := range s.items {
		if !it.complete() || it.origin != start || it.rule.LHS != sym {
			continue
		}
		for _, children := range b.childPaths(end, i) {
			and := len(b.forest.ands)
			b.forest.ands = append(b.forest.ands, AndNode{Rule: it.rule, Children: children})
			b.forest.ors[idx].Alternatives = append(b.forest.ors[idx].Alternatives, and)
		}
	}
	return idx
}

func (b *forestBuilder) leaf(t int) int {
	if idx, ok := b.leaves[t]; ok {
		return idx
	}
	tok := b.frame.tokens[t]
	idx := len(b.forest.leaves)
	b.forest.leaves = append(b.forest.leaves, Leaf{Symbol: tok.symbol, Start: tok.start, End: tok.end})
	b.leaves[t] = idx
	return idx
}

// childPaths returns every child sequence that leads to the item.
func (b *forestBuilder) childPaths(setIdx, itemIdx int) [][]Child {
	key := pathKey{setIdx, itemIdx}
	if p, ok := b.paths[key]; ok {
		return p
	}
	it := b.frame.chart[setIdx].items[itemIdx]
	if it.dot == 0 {
		p := [][]Child{{}}
		b.paths[key] = p
		return p
	}
	var out [][]Child
	for _, l := range it.links {
		var child Child
		if l.token >= 0 {
			child = Child{Leaf: true, Index: b.leaf(l.token)}
		} else {
			child = Child{Index: b.or(it.rule.RHS[it.dot-1], l.predSet, setIdx)}
		}
		for _, prefix := range b.childPaths(l.predSet, l.pred) {
			path := make([]Child, len(prefix), len(prefix)+1)
			copy(path, prefix)
			out = append(out, append(path, child))
		}
	}
	b.paths[key] = out
	return out
}

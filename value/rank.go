package value

import (
	"github.com/dhamidi/eslif/grammar"
	"github.com/dhamidi/eslif/recognizer"
)

// ranker compares derivations. An AND-node outranks another when its rule
// has a higher rank, or on equal rank when the best derivations of its
// OR-node children outrank the other's, compared left to right. Two
// derivations of the same rule are first ordered by its null ranking.
type ranker struct {
	forest *recognizer.Forest
	best   map[int]int
	busy   map[int]bool
}

func newRanker(f *recognizer.Forest) *ranker {
	return &ranker{forest: f, best: make(map[int]int), busy: make(map[int]bool)}
}

// bestOf returns the best alternative of an OR-node. It fails on nodes that
// are being ranked already, which only happens in cyclic forests.
func (r *ranker) bestOf(or int) (int, bool) {
	if b, ok := r.best[or]; ok {
		return b, true
	}
	alts := r.forest.Or(or).Alternatives
	if r.busy[or] || len(alts) == 0 {
		return 0, false
	}
	r.busy[or] = true
	b := alts[0]
	for _, a := range alts[1:] {
		if r.compareAnd(a, b) > 0 {
			b = a
		}
	}
	delete(r.busy, or)
	r.best[or] = b
	return b, true
}

func (r *ranker) compareAnd(a, b int) int {
	if a == b {
		return 0
	}
	x, y := r.forest.And(a), r.forest.And(b)
	switch {
	case x.Rule.Rank > y.Rule.Rank:
		return 1
	case x.Rule.Rank < y.Rule.Rank:
		return -1
	}
	if x.Rule == y.Rule {
		if c := r.compareNulled(x, y); c != 0 {
			return c
		}
	}
	n := len(x.Children)
	if len(y.Children) < n {
		n = len(y.Children)
	}
	for i := 0; i < n; i++ {
		cx, cy := x.Children[i], y.Children[i]
		if cx.Leaf || cy.Leaf {
			continue
		}
		if c := r.compareOr(cx.Index, cy.Index); c != 0 {
			return c
		}
	}
	return 0
}

func (r *ranker) compareOr(a, b int) int {
	if a == b {
		return 0
	}
	ba, ok := r.bestOf(a)
	if !ok {
		return 0
	}
	bb, ok := r.bestOf(b)
	if !ok {
		return 0
	}
	return r.compareAnd(ba, bb)
}

// compareNulled orders two derivations of one rule by how many of their
// children derive the empty string.
func (r *ranker) compareNulled(x, y *recognizer.AndNode) int {
	nx, ny := r.nulled(x), r.nulled(y)
	if nx == ny {
		return 0
	}
	more := 1
	if nx < ny {
		more = -1
	}
	if x.Rule.NullRanking == grammar.NullRanksHigh {
		return more
	}
	return -more
}

func (r *ranker) nulled(and *recognizer.AndNode) int {
	n := 0
	for _, c := range and.Children {
		if c.Leaf {
			continue
		}
		if or := r.forest.Or(c.Index); or.Start == or.End {
			n++
		}
	}
	return n
}

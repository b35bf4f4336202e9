package recognizer

import (
	"github.com/dhamidi/eslif/grammar"
)

// item is an Earley item: a rule with a dot position and the set where it
// started. links record every way the item was reached.
type item struct {
	rule   *grammar.Rule
	dot    int
	origin int
	links  []link
}

// link points at the predecessor item (dot one position to the left) and at
// the child that was stepped over. token is -1 when the child is a completed
// non-terminal spanning [predSet, this set].
type link struct {
	predSet int
	pred    int
	token   int
}

func (it *item) complete() bool { return it.dot == len(it.rule.RHS) }

func (it *item) next() *grammar.Symbol {
	if it.complete() {
		return nil
	}
	return it.rule.RHS[it.dot]
}

type itemKey struct {
	rule, dot, origin int
}

// set is one Earley set. offset is the input position right after the token
// that created the set.
type set struct {
	index   int
	offset  int
	items   []*item
	keys    map[itemKey]int
	waiting map[*grammar.Symbol][]int
}

func newSet(index, offset int) *set {
	return &set{
		index:   index,
		offset:  offset,
		keys:    make(map[itemKey]int),
		waiting: make(map[*grammar.Symbol][]int),
	}
}

// add inserts an item, or records an additional link on an existing one.
func (s *set) add(rule *grammar.Rule, dot, origin int, l *link) {
	key := itemKey{rule.ID, dot, origin}
	if idx, ok := s.keys[key]; ok {
		if l != nil {
			s.items[idx].addLink(*l)
		}
		return
	}
	it := &item{rule: rule, dot: dot, origin: origin}
	if l != nil {
		it.links = append(it.links, *l)
	}
	s.keys[key] = len(s.items)
	if sym := it.next(); sym != nil {
		s.waiting[sym] = append(s.waiting[sym], len(s.items))
	}
	s.items = append(s.items, it)
}

func (it *item) addLink(l link) {
	for _, existing := range it.links {
		if existing == l {
			return
		}
	}
	it.links = append(it.links, l)
}

// scannables returns the distinct terminals and lexeme symbols expected
// after a dot, in item order.
func (s *set) scannables() []*grammar.Symbol {
	var out []*grammar.Symbol
	seen := make(map[*grammar.Symbol]bool)
	for _, it := range s.items {
		sym := it.next()
		if sym == nil || seen[sym] {
			continue
		}
		if sym.Kind == grammar.Terminal || sym.Lexeme {
			seen[sym] = true
			out = append(out, sym)
		}
	}
	return out
}

// completes reports whether start was recognized from set 0 to s.
func (s *set) completes(start *grammar.Symbol) bool {
	for _, it := range s.items {
		if it.origin == 0 && it.rule.LHS == start && it.complete() {
			return true
		}
	}
	return false
}

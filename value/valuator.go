package value

import (
	"errors"
	"fmt"
	"sort"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/eslif/recognizer"
)

var (
	// ErrAmbiguousParse is returned when the forest holds more than one
	// derivation and the policy does not accept ambiguity.
	ErrAmbiguousParse = errors.New("ambiguous parse rejected")
	// ErrNullParse is returned for a parse of the empty input when the
	// policy does not accept null parses.
	ErrNullParse = errors.New("null parse rejected")
)

// Valuator walks a forest depth first and produces one value per
// derivation. Values of shared sub-forests are computed once.
type Valuator struct {
	forest  *recognizer.Forest
	policy  Policy
	builder Builder
	log     commonlog.Logger
	ranks   *ranker
	sccs    *components

	alternatives map[int][]int
	streams      map[nodeKey]*stream
	leaves       map[int]any
	counts       map[nodeKey]int

	// path holds the OR-nodes being expanded, outermost first. A derivation
	// never expands an OR-node inside itself.
	path   []int
	onPath map[int]bool

	checked bool
	emitted int
	err     error
}

// stream holds the values of one OR-node produced so far and the position
// of the enumeration: the current alternative and one value index per child.
type stream struct {
	values  []any
	alt     int
	idx     []int
	started bool
	done    bool
}

// New returns a Valuator. A nil builder builds *Tree values.
func New(forest *recognizer.Forest, policy Policy, builder Builder) *Valuator {
	if builder == nil {
		builder = TreeBuilder{}
	}
	return &Valuator{
		forest:       forest,
		policy:       policy,
		builder:      builder,
		log:          commonlog.GetLogger("eslif.value"),
		alternatives: make(map[int][]int),
		streams:      make(map[nodeKey]*stream),
		leaves:       make(map[int]any),
		counts:       make(map[nodeKey]int),
		onPath:       make(map[int]bool),
	}
}

// Value produces every value allowed by the policy.
func Value(forest *recognizer.Forest, policy Policy, builder Builder) ([]any, error) {
	return New(forest, policy, builder).All()
}

// All drains the valuator.
func (v *Valuator) All() ([]any, error) {
	var out []any
	for {
		val, ok, err := v.Next()
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, val)
	}
}

// Emitted is the number of values produced so far.
func (v *Valuator) Emitted() int { return v.emitted }

// Next produces the next value. It returns false when the policy's bound
// is reached or every derivation has been produced.
func (v *Valuator) Next() (any, bool, error) {
	if !v.checked {
		v.checked = true
		v.err = v.check()
	}
	if v.err != nil {
		return nil, false, v.err
	}
	if max := v.policy.MaxParses(); max > 0 && v.emitted >= max {
		return nil, false, nil
	}
	val, ok, err := v.orValue(v.forest.Root(), v.emitted)
	if err != nil {
		v.err = err
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	v.emitted++
	v.policy.SetResult(val)
	v.log.Debugf("value %d produced", v.emitted)
	return val, true, nil
}

func (v *Valuator) check() error {
	if v.forest == nil {
		return recognizer.ErrNoParse
	}
	v.ranks = newRanker(v.forest)
	v.sccs = newComponents(v.forest)
	if v.forest.IsNull() && !v.policy.WithNull() {
		return ErrNullParse
	}
	switch n := v.countOr(v.forest.Root()); {
	case n == 0:
		return fmt.Errorf("forest has only cyclic derivations: %w", recognizer.ErrNoParse)
	case n > 1 && !v.policy.WithAmbiguous():
		return ErrAmbiguousParse
	}
	return nil
}

// alternativesOf returns the AND-nodes of an OR-node that take part in
// enumeration, in enumeration order.
func (v *Valuator) alternativesOf(or int) []int {
	if alts, ok := v.alternatives[or]; ok {
		return alts
	}
	alts := append([]int(nil), v.forest.Or(or).Alternatives...)
	sort.SliceStable(alts, func(i, j int) bool { return v.declaredBefore(alts[i], alts[j]) })
	if len(alts) > 1 && v.policy.WithHighRankOnly() {
		if best, ok := v.ranks.bestOf(or); ok {
			kept := alts[:0:0]
			for _, a := range alts {
				if v.ranks.compareAnd(a, best) == 0 {
					kept = append(kept, a)
				}
			}
			alts = kept
		}
	}
	if len(alts) > 1 && v.policy.WithOrderByRank() {
		sort.SliceStable(alts, func(i, j int) bool { return v.ranks.compareAnd(alts[i], alts[j]) > 0 })
	}
	v.alternatives[or] = alts
	return alts
}

// declaredBefore orders AND-nodes by rule declaration, then by where their
// children start.
func (v *Valuator) declaredBefore(a, b int) bool {
	x, y := v.forest.And(a), v.forest.And(b)
	if x.Rule.ID != y.Rule.ID {
		return x.Rule.ID < y.Rule.ID
	}
	for i := 0; i < len(x.Children) && i < len(y.Children); i++ {
		sx, sy := v.childStart(x.Children[i]), v.childStart(y.Children[i])
		if sx != sy {
			return sx < sy
		}
	}
	return false
}

func (v *Valuator) childStart(c recognizer.Child) int {
	if c.Leaf {
		return v.forest.Leaf(c.Index).Start
	}
	start, _ := v.forest.Offsets(c.Index)
	return start
}

// countOr counts the derivations of an OR-node, saturating at 2.
func (v *Valuator) countOr(or int) int {
	if v.onPath[or] {
		return 0
	}
	k := v.key(or)
	if n, ok := v.counts[k]; ok {
		return n
	}
	v.enter(or)
	total := 0
	for _, a := range v.alternativesOf(or) {
		total += v.countAnd(a)
		if total >= 2 {
			total = 2
			break
		}
	}
	v.leave(or)
	v.counts[k] = total
	return total
}

func (v *Valuator) countAnd(and int) int {
	n := 1
	for _, c := range v.forest.And(and).Children {
		if c.Leaf {
			continue
		}
		m := v.countOr(c.Index)
		if m == 0 {
			return 0
		}
		n *= m
		if n > 2 {
			n = 2
		}
	}
	return n
}

func (v *Valuator) stream(k nodeKey) *stream {
	s, ok := v.streams[k]
	if !ok {
		s = &stream{}
		v.streams[k] = s
	}
	return s
}

// orValue returns the i-th value of an OR-node, producing values lazily.
// An OR-node already being expanded has no values.
func (v *Valuator) orValue(or, i int) (any, bool, error) {
	if v.onPath[or] {
		return nil, false, nil
	}
	s := v.stream(v.key(or))
	for len(s.values) <= i && !s.done {
		v.enter(or)
		val, ok, err := v.nextValue(or, s)
		v.leave(or)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			s.done = true
			break
		}
		s.values = append(s.values, val)
	}
	if i < len(s.values) {
		return s.values[i], true, nil
	}
	return nil, false, nil
}

// nextValue advances the enumeration of one OR-node. Within an alternative
// the last child varies fastest.
func (v *Valuator) nextValue(or int, s *stream) (any, bool, error) {
	alts := v.alternativesOf(or)
	for s.alt < len(alts) {
		and := v.forest.And(alts[s.alt])
		var ok bool
		var err error
		if !s.started {
			s.started = true
			s.idx = make([]int, len(and.Children))
			ok, err = v.first(and)
		} else {
			ok, err = v.advance(and, s.idx)
		}
		if err != nil {
			return nil, false, err
		}
		if !ok {
			s.alt++
			s.started = false
			continue
		}
		val, err := v.build(and, s.idx)
		if err != nil {
			return nil, false, err
		}
		return val, true, nil
	}
	return nil, false, nil
}

func (v *Valuator) first(and *recognizer.AndNode) (bool, error) {
	for _, c := range and.Children {
		if c.Leaf {
			continue
		}
		_, ok, err := v.orValue(c.Index, 0)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func (v *Valuator) advance(and *recognizer.AndNode, idx []int) (bool, error) {
	for i := len(and.Children) - 1; i >= 0; i-- {
		c := and.Children[i]
		if c.Leaf {
			continue
		}
		idx[i]++
		_, ok, err := v.orValue(c.Index, idx[i])
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
		idx[i] = 0
	}
	return false, nil
}

func (v *Valuator) build(and *recognizer.AndNode, idx []int) (any, error) {
	children := make([]any, len(and.Children))
	for i, c := range and.Children {
		if c.Leaf {
			val, err := v.leaf(c.Index)
			if err != nil {
				return nil, err
			}
			children[i] = val
			continue
		}
		val, _, err := v.orValue(c.Index, idx[i])
		if err != nil {
			return nil, err
		}
		children[i] = val
	}
	val, err := v.builder.Rule(and.Rule, children)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", and.Rule, err)
	}
	return val, nil
}

func (v *Valuator) leaf(i int) (any, error) {
	if val, ok := v.leaves[i]; ok {
		return val, nil
	}
	l := v.forest.Leaf(i)
	val, err := v.builder.Lexeme(l.Symbol, v.forest.Bytes(l))
	if err != nil {
		return nil, fmt.Errorf("build lexeme %s: %w", l.Symbol, err)
	}
	v.leaves[i] = val
	return val, nil
}

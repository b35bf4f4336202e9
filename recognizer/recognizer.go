// Package recognizer implements a pull-based Earley recognizer for stacked
// grammars.
//
// The recognizer works on the syntactic level of a grammar. Whenever a
// lexeme symbol is expected it runs a sub-recognition of the next level on
// an explicit frame stack and feeds the longest complete match back as a
// single token. All alternatives of the longest length are kept, so lexical
// ambiguity surfaces in the parse forest.
package recognizer

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/eslif/grammar"
)

// State is the lifecycle state of a Recognizer.
type State int

const (
	Ready State = iota
	Reading
	Exhausted
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Reading:
		return "reading"
	case Exhausted:
		return "exhausted"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Option configures a Recognizer.
type Option func(*Recognizer)

// WithLogger sets the logger used for tracing.
func WithLogger(log commonlog.Logger) Option {
	return func(r *Recognizer) { r.log = log }
}

// WithThreshold bounds terminal read-ahead in bytes.
func WithThreshold(n int) Option {
	return func(r *Recognizer) {
		if n > 0 {
			r.threshold = n
		}
	}
}

// Recognizer recognizes the input of one Reader against a Grammar. It is
// not safe for concurrent use; the grammar may be shared.
type Recognizer struct {
	id        string
	grammar   *grammar.Grammar
	reader    Reader
	log       commonlog.Logger
	threshold int
	warned    bool

	in     *input
	lines  lineCounter
	state  State
	frames []*frame
	root   *frame

	exhaustion *Exhaustion
	err        error
	forest     *Forest

	events  []Event
	onEvent func(Event)
}

type token struct {
	symbol     *grammar.Symbol
	start, end int
}

// frame is the state of the recognition of one level starting at one
// input offset.
type frame struct {
	level   *grammar.Level
	start   *grammar.Symbol
	discard bool
	// top is set on the level-0 frame of the whole input.
	top     bool

	chart  []*set
	tokens []token
	offset int

	expected     []*grammar.Symbol
	lengths      []int
	next         int
	scanned      bool
	triedDiscard bool

	// last is the latest set where start was completed from set 0, or -1.
	last int
}

func (f *frame) current() *set { return f.chart[len(f.chart)-1] }

func (f *frame) canDiscard() bool {
	return !f.discard && f.level.Discard() != nil
}

type action int

const (
	needInput action = iota
	push
	pop
)

// New returns a Recognizer in the Ready state.
func New(g *grammar.Grammar, r Reader, opts ...Option) (*Recognizer, error) {
	in, err := newInput(r)
	if err != nil {
		return nil, err
	}
	rec := &Recognizer{
		id:        uuid.NewString(),
		grammar:   g,
		reader:    r,
		log:       commonlog.GetLogger("eslif.recognizer"),
		threshold: DefaultThreshold,
		in:        in,
		lines: lineCounter{
			enabled:   r.WithNewline(),
			character: r.CharacterStream(),
			line:      1,
		},
	}
	for _, opt := range opts {
		opt(rec)
	}
	return rec, nil
}

// ID identifies the recognizer in log output.
func (r *Recognizer) ID() string { return r.id }

func (r *Recognizer) State() State { return r.state }

// Grammar returns a view of the grammar at the level being recognized.
func (r *Recognizer) Grammar() *grammar.Grammar {
	g, err := r.grammar.AtLevel(r.CurrentLevel())
	if err != nil {
		return r.grammar
	}
	return g
}

// CurrentLevel is the level of the innermost active frame.
func (r *Recognizer) CurrentLevel() int {
	if len(r.frames) == 0 {
		return 0
	}
	return r.frames[len(r.frames)-1].level.Index()
}

// Position is the furthest position reached at level 0.
func (r *Recognizer) Position() Position {
	if r.root == nil {
		return r.lines.position(r.in.buf, 0)
	}
	return r.lines.position(r.in.buf, r.root.offset)
}

// Lines returns the number of newlines consumed so far. It is 0 unless the
// reader enabled newline counting.
func (r *Recognizer) Lines() int {
	if !r.lines.enabled {
		return 0
	}
	return r.Position().Line - 1
}

// Exhaustion is set when the recognizer stopped in the Exhausted state.
func (r *Recognizer) Exhaustion() *Exhaustion { return r.exhaustion }

// Err returns the error that moved the recognizer to Failed.
func (r *Recognizer) Err() error { return r.err }

// Expected returns the symbols scannable at the current level-0 position.
func (r *Recognizer) Expected() []*grammar.Symbol {
	if r.root == nil {
		return nil
	}
	return r.root.current().scannables()
}

// Recognize runs the recognizer until it stops.
func (r *Recognizer) Recognize() error {
	for {
		more, err := r.Step()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// Step advances recognition until it has pulled one more unit of input or
// stopped. It returns false once the recognizer is Completed, Exhausted or
// Failed.
func (r *Recognizer) Step() (bool, error) {
	switch r.state {
	case Ready:
		r.root = r.newFrame(r.grammar.Start(), 0, 0, false)
		r.frames = []*frame{r.root}
		r.state = Reading
		r.log.Debugf("%s: start %s", r.id, r.grammar.Start())
	case Reading:
	default:
		return false, r.err
	}

	for {
		f := r.frames[len(r.frames)-1]
		act, child := r.run(f)
		switch act {
		case needInput:
			if err := r.in.pull(); err != nil {
				r.state = Failed
				r.err = err
				r.frames = nil
				r.log.Errorf("%s: %v", r.id, err)
				return false, err
			}
			return true, nil
		case push:
			r.log.Debugf("%s: level %d: match %s at offset %d", r.id, child.level.Index(), child.start, child.offset)
			r.frames = append(r.frames, child)
		case pop:
			r.frames = r.frames[:len(r.frames)-1]
			if len(r.frames) == 0 {
				r.finish(f)
				return false, r.err
			}
			r.deliver(r.frames[len(r.frames)-1], f)
		}
	}
}

func (r *Recognizer) newFrame(start *grammar.Symbol, level, offset int, discard bool) *frame {
	l, err := r.grammar.Level(level)
	if err != nil {
		panic(fmt.Sprintf("recognizer: symbol %s refers to missing level %d", start, level))
	}
	f := &frame{level: l, start: start, discard: discard, offset: offset, last: -1}
	f.top = r.root == nil && level == 0 && !discard
	s := newSet(0, offset)
	for _, rule := range l.RulesFor(start) {
		s.add(rule, 0, 0, nil)
	}
	f.chart = append(f.chart, s)
	r.closure(f, s)
	return f
}

// run drives f until it needs input, needs a sub-match, or is done.
func (r *Recognizer) run(f *frame) (action, *frame) {
	for {
		if !f.scanned {
			f.expected = f.current().scannables()
			f.lengths = make([]int, len(f.expected))
			f.next = 0
			f.scanned = true
		}
		for f.next < len(f.expected) {
			sym := f.expected[f.next]
			if sym.Lexeme {
				if f.offset >= len(r.in.buf) {
					if !r.in.eof {
						return needInput, nil
					}
					f.next++
					continue
				}
				return push, r.newFrame(sym.Target(), f.level.Index()+1, f.offset, false)
			}
			n, res := r.match(sym.Pattern, f.offset)
			if res == matchAgain {
				return needInput, nil
			}
			f.lengths[f.next] = n
			f.next++
		}

		best := 0
		for _, n := range f.lengths {
			if n > best {
				best = n
			}
		}
		if best > 0 {
			r.scan(f, best)
			continue
		}

		if f.canDiscard() && !f.triedDiscard {
			if f.offset < len(r.in.buf) {
				return push, r.newFrame(f.level.Discard(), f.level.Index(), f.offset, true)
			}
			if !r.in.eof {
				return needInput, nil
			}
		}
		if f == r.root && f.offset >= len(r.in.buf) && !r.in.eof {
			return needInput, nil
		}
		return pop, nil
	}
}

func (r *Recognizer) match(p *grammar.Pattern, offset int) (int, matchResult) {
	data := r.in.buf[offset:]
	more := !r.in.eof
	if more && !r.reader.WithDisableThreshold() && len(data) >= r.threshold {
		if !r.warned {
			r.log.Warningf("%s: read-ahead threshold of %d bytes reached at offset %d", r.id, r.threshold, offset)
			r.warned = true
		}
		more = false
	}
	return matchPattern(p, data, more)
}

// scan moves every item expecting a symbol matched with length best into a
// new set, then closes the set.
func (r *Recognizer) scan(f *frame, best int) {
	cur := f.current()
	tokens := make(map[*grammar.Symbol]int)
	for i, sym := range f.expected {
		if f.lengths[i] != best {
			continue
		}
		tokens[sym] = len(f.tokens)
		f.tokens = append(f.tokens, token{symbol: sym, start: f.offset, end: f.offset + best})
		if f == r.root {
			r.log.Debugf("%s: scan %s %q at offset %d", r.id, sym, r.in.buf[f.offset:f.offset+best], f.offset)
		}
	}
	next := newSet(len(f.chart), f.offset+best)
	for j, it := range cur.items {
		sym := it.next()
		if sym == nil {
			continue
		}
		if t, ok := tokens[sym]; ok {
			next.add(it.rule, it.dot+1, it.origin, &link{predSet: cur.index, pred: j, token: t})
		}
	}
	f.chart = append(f.chart, next)
	f.offset += best
	f.scanned = false
	f.triedDiscard = false
	r.closure(f, next)
	if f == r.root && r.lines.enabled {
		r.lines.position(r.in.buf, f.offset)
	}
}

// closure runs prediction and completion on s until no item is added.
// Nullable symbols are stepped over at prediction time.
func (r *Recognizer) closure(f *frame, s *set) {
	events := r.newEventLog(f, s)
	for j := 0; j < len(s.items); j++ {
		it := s.items[j]
		if it.complete() {
			origin := f.chart[it.origin]
			lhs := it.rule.LHS
			if it.origin == s.index {
				events.add(SymbolNulled, lhs)
			} else {
				events.add(SymbolCompleted, lhs)
			}
			for k := 0; k < len(origin.waiting[lhs]); k++ {
				idx := origin.waiting[lhs][k]
				p := origin.items[idx]
				s.add(p.rule, p.dot+1, p.origin, &link{predSet: origin.index, pred: idx, token: -1})
			}
			continue
		}
		sym := it.next()
		if sym.Kind != grammar.Nonterminal {
			continue
		}
		events.add(SymbolPredicted, sym)
		if sym.Lexeme {
			continue
		}
		for _, rule := range f.level.RulesFor(sym) {
			s.add(rule, 0, s.index, nil)
		}
		if sym.Nullable {
			events.add(SymbolNulled, sym)
			s.add(it.rule, it.dot+1, it.origin, &link{predSet: s.index, pred: j, token: -1})
		}
	}
	if s.completes(f.start) {
		f.last = s.index
	}
}

// deliver hands the result of a finished sub-frame to its parent.
func (r *Recognizer) deliver(parent, child *frame) {
	n := 0
	if child.last > 0 {
		n = child.chart[child.last].offset - child.chart[0].offset
	}
	if child.discard {
		if n > 0 {
			r.log.Debugf("%s: level %d: discard %d bytes at offset %d", r.id, parent.level.Index(), n, parent.offset)
			parent.offset += n
			parent.scanned = false
			parent.triedDiscard = false
		} else {
			parent.triedDiscard = true
		}
		return
	}
	parent.lengths[parent.next] = n
	parent.next++
}

func (r *Recognizer) finish(f *frame) {
	atEnd := f.offset >= len(r.in.buf) && r.in.eof
	pos := r.lines.position(r.in.buf, f.offset)
	switch {
	case atEnd && f.last == len(f.chart)-1:
		r.state = Completed
		r.log.Debugf("%s: completed at %s", r.id, pos)
	case !atEnd && r.reader.WithExhaustion():
		r.state = Exhausted
		r.exhaustion = &Exhaustion{
			Position: pos,
			Expected: displayAll(f.expected),
			Complete: f.last >= 0,
		}
		cur := f.current()
		r.emit(Event{Kind: ParseExhausted, Set: cur.index, Offset: cur.offset})
		r.log.Infof("%s: %s", r.id, r.exhaustion)
	default:
		r.state = Failed
		perr := &ParseError{Position: pos, Expected: displayAll(f.expected)}
		if !atEnd {
			perr.Found = excerpt(r.in.buf[f.offset:])
		}
		r.err = perr
		r.log.Debugf("%s: %v", r.id, perr)
	}
}

func displayAll(syms []*grammar.Symbol) []string {
	out := make([]string, len(syms))
	for i, s := range syms {
		out[i] = s.Display()
	}
	return out
}

func excerpt(data []byte) string {
	const limit = 16
	if len(data) > limit {
		data = data[:limit]
	}
	return string(data)
}

// Forest returns the parse forest of a Completed recognizer, or of the
// longest recognized prefix of an Exhausted one.
func (r *Recognizer) Forest() (*Forest, error) {
	if r.forest != nil {
		return r.forest, nil
	}
	switch {
	case r.state == Completed:
	case r.state == Exhausted && r.root.last >= 0:
	default:
		return nil, fmt.Errorf("recognizer is %s: %w", r.state, ErrNoParse)
	}
	r.forest = buildForest(r.root, r.root.last, r.in.buf)
	return r.forest, nil
}

// Progress lists the dotted items of one level-0 Earley set.
func (r *Recognizer) Progress(set int) ([]string, error) {
	if r.root == nil || set < 0 || set >= len(r.root.chart) {
		return nil, fmt.Errorf("no Earley set %d", set)
	}
	s := r.root.chart[set]
	out := make([]string, len(s.items))
	for i, it := range s.items {
		out[i] = fmt.Sprintf("[%d] %s (%d)", s.index, it.rule.Dotted(it.dot), it.origin)
	}
	return out, nil
}

// Sets returns the number of level-0 Earley sets built so far.
func (r *Recognizer) Sets() int {
	if r.root == nil {
		return 0
	}
	return len(r.root.chart)
}

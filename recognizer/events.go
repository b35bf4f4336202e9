package recognizer

import (
	"fmt"

	"github.com/dhamidi/eslif/grammar"
)

// EventKind is what happened to a symbol in a level-0 Earley set.
type EventKind int

const (
	// SymbolCompleted: a rule of the symbol was completed over a non-empty span.
	SymbolCompleted EventKind = iota
	// SymbolNulled: the symbol derived the empty string at this set.
	SymbolNulled
	// SymbolPredicted: the symbol is expected after this set.
	SymbolPredicted
	// ParseExhausted: recognition stopped before the end of the input.
	ParseExhausted
)

func (k EventKind) String() string {
	switch k {
	case SymbolCompleted:
		return "completed"
	case SymbolNulled:
		return "nulled"
	case SymbolPredicted:
		return "predicted"
	case ParseExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event reports a change in a level-0 Earley set. Symbol is nil for
// ParseExhausted.
type Event struct {
	Kind   EventKind
	Symbol *grammar.Symbol
	Set    int
	Offset int
}

func (e Event) String() string {
	if e.Symbol == nil {
		return fmt.Sprintf("%s at set %d", e.Kind, e.Set)
	}
	return fmt.Sprintf("%s %s at set %d", e.Kind, e.Symbol.Display(), e.Set)
}

// WithEvents calls fn for every event as it happens.
func WithEvents(fn func(Event)) Option {
	return func(r *Recognizer) { r.onEvent = fn }
}

// Events returns the events of the latest level-0 Earley set, in the order
// they happened. Each symbol appears at most once per kind.
func (r *Recognizer) Events() []Event {
	return append([]Event(nil), r.events...)
}

type eventKey struct {
	kind   EventKind
	symbol *grammar.Symbol
}

// eventLog collects the events of one set.
type eventLog struct {
	r    *Recognizer
	set  *set
	seen map[eventKey]bool
}

// newEventLog starts the events of s. It returns nil for sets that are not
// part of the level-0 chart.
func (r *Recognizer) newEventLog(f *frame, s *set) *eventLog {
	if !f.top {
		return nil
	}
	r.events = r.events[:0]
	return &eventLog{r: r, set: s, seen: make(map[eventKey]bool)}
}

func (l *eventLog) add(kind EventKind, sym *grammar.Symbol) {
	if l == nil {
		return
	}
	k := eventKey{kind, sym}
	if l.seen[k] {
		return
	}
	l.seen[k] = true
	l.r.emit(Event{Kind: kind, Symbol: sym, Set: l.set.index, Offset: l.set.offset})
}

func (r *Recognizer) emit(e Event) {
	r.events = append(r.events, e)
	r.log.Debugf("%s: %s", r.id, e)
	if r.onEvent != nil {
		r.onEvent(e)
	}
}

// Package grammar compiles stacked grammar descriptions into immutable,
// introspectable grammars.
//
// Level 0 is the syntactic grammar. A non-terminal without rules at level n
// is a lexeme: the recognizer matches it with a sub-parse at level n+1.
package grammar

import (
	"fmt"
)

// Level is one context-free grammar of a stacked grammar.
type Level struct {
	index       int
	description string
	symbols     []*Symbol
	rules       []*Rule
	byName      map[string]*Symbol
	byLHS       map[int][]*Rule
	start       *Symbol
	discard     *Symbol
}

func newLevel(index int) *Level {
	return &Level{
		index:  index,
		byName: make(map[string]*Symbol),
		byLHS:  make(map[int][]*Rule),
	}
}

func (l *Level) Index() int { return l.index }

// Description returns the :desc text of the level, or a generated label.
func (l *Level) Description() string {
	if l.description != "" {
		return l.description
	}
	return fmt.Sprintf("Grammar level %d", l.index)
}

func (l *Level) Rules() []*Rule { return l.rules }

func (l *Level) Symbols() []*Symbol { return l.symbols }

// Symbol looks up a non-terminal by name.
func (l *Level) Symbol(name string) (*Symbol, bool) {
	sym, ok := l.byName[name]
	if !ok || sym.Kind != Nonterminal {
		return nil, false
	}
	return sym, true
}

// RulesFor returns the rules whose LHS is sym, in declaration order.
func (l *Level) RulesFor(sym *Symbol) []*Rule {
	if sym.Level != l.index {
		return nil
	}
	return l.byLHS[sym.ID]
}

// Start is the start symbol. It is only set on level 0.
func (l *Level) Start() *Symbol { return l.start }

// Discard is the :discard symbol of the level, or nil.
func (l *Level) Discard() *Symbol { return l.discard }

// Grammar is an immutable stack of levels plus a current-level cursor.
// Values returned by AtLevel share the levels with their parent, so views
// are cheap and safe to use from several goroutines.
type Grammar struct {
	levels  []*Level
	current int
}

func (g *Grammar) LevelCount() int { return len(g.levels) }

func (g *Grammar) CurrentLevel() int { return g.current }

// AtLevel returns a view of g whose current level is level.
func (g *Grammar) AtLevel(level int) (*Grammar, error) {
	if _, err := g.Level(level); err != nil {
		return nil, err
	}
	return &Grammar{levels: g.levels, current: level}, nil
}

// Level returns one level of the grammar.
func (g *Grammar) Level(level int) (*Level, error) {
	if level < 0 || level >= len(g.levels) {
		return nil, fmt.Errorf("%w: %d (grammar has %d levels)", ErrUnsupportedLevel, level, len(g.levels))
	}
	return g.levels[level], nil
}

// Start returns the level-0 start symbol.
func (g *Grammar) Start() *Symbol { return g.levels[0].start }

func (g *Grammar) RulesAt(level int) ([]*Rule, error) {
	l, err := g.Level(level)
	if err != nil {
		return nil, err
	}
	return l.rules, nil
}

func (g *Grammar) SymbolsAt(level int) ([]*Symbol, error) {
	l, err := g.Level(level)
	if err != nil {
		return nil, err
	}
	return l.symbols, nil
}

// RuleIDs lists the rule ids of a level in declaration order.
func (g *Grammar) RuleIDs(level int) ([]int, error) {
	l, err := g.Level(level)
	if err != nil {
		return nil, err
	}
	ids := make([]int, len(l.rules))
	for i, r := range l.rules {
		ids[i] = r.ID
	}
	return ids, nil
}

// CurrentRuleIDs is RuleIDs for the current level.
func (g *Grammar) CurrentRuleIDs() []int {
	ids, _ := g.RuleIDs(g.current)
	return ids
}

// Rule returns the rule with the given id at level.
func (g *Grammar) Rule(level, id int) (*Rule, error) {
	l, err := g.Level(level)
	if err != nil {
		return nil, err
	}
	if id < 0 || id >= len(l.rules) {
		return nil, fmt.Errorf("%w: %d at level %d", ErrUnknownRule, id, level)
	}
	return l.rules[id], nil
}

func (g *Grammar) DisplayRule(level, id int) (string, error) {
	r, err := g.Rule(level, id)
	if err != nil {
		return "", err
	}
	return r.Display(), nil
}

func (g *Grammar) ShowRule(level, id int) (string, error) {
	r, err := g.Rule(level, id)
	if err != nil {
		return "", err
	}
	return r.Show(), nil
}

func (g *Grammar) DisplayCurrentRule(id int) (string, error) { return g.DisplayRule(g.current, id) }

func (g *Grammar) ShowCurrentRule(id int) (string, error) { return g.ShowRule(g.current, id) }

// Description returns the short label of a level.
func (g *Grammar) Description(level int) (string, error) {
	l, err := g.Level(level)
	if err != nil {
		return "", err
	}
	return l.Description(), nil
}

func (g *Grammar) CurrentDescription() string { return g.levels[g.current].Description() }

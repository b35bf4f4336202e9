package grammar

import (
	"io"
	"strconv"
	"strings"
)

// Compile reads a native grammar description and builds it.
func Compile(filename string, r io.Reader) (*Grammar, error) {
	def, err := Parse(filename, r)
	if err != nil {
		return nil, err
	}
	return Build(def)
}

// CompileString is Compile for in-memory sources.
func CompileString(src string) (*Grammar, error) {
	def, err := ParseString("", src)
	if err != nil {
		return nil, err
	}
	return Build(def)
}

// MustCompile is CompileString that panics on error. It is meant for
// grammars embedded in programs and tests.
func MustCompile(src string) *Grammar {
	g, err := CompileString(src)
	if err != nil {
		panic(err)
	}
	return g
}

type builder struct {
	def    *Definition
	defs   []RuleDefinition
	levels []*Level
	seen   map[*Symbol]Location
}

// Build validates a definition and produces an immutable Grammar.
func Build(def *Definition) (*Grammar, error) {
	b := &builder{def: def, seen: make(map[*Symbol]Location)}
	if err := b.build(); err != nil {
		return nil, err
	}
	return &Grammar{levels: b.levels}, nil
}

func (b *builder) build() error {
	if len(b.def.Rules) == 0 {
		return errorf(SyntaxError, Location{Filename: b.def.Filename}, "grammar has no rules")
	}
	defs, err := rewrite(b.def.Rules)
	if err != nil {
		return err
	}
	b.defs = defs
	if err := b.allocateLevels(); err != nil {
		return err
	}
	if err := b.symbols(); err != nil {
		return err
	}
	if err := b.rules(); err != nil {
		return err
	}
	if err := b.resolveLexemes(); err != nil {
		return err
	}
	if err := b.start(); err != nil {
		return err
	}
	for i := len(b.levels) - 1; i >= 0; i-- {
		b.nullable(b.levels[i])
	}
	return b.productive()
}

func (b *builder) allocateLevels() error {
	top := 0
	for _, r := range b.defs {
		if r.Level > top {
			top = r.Level
		}
	}
	b.levels = make([]*Level, top+1)
	for i := range b.levels {
		b.levels[i] = newLevel(i)
	}
	used := make([]bool, top+1)
	for _, r := range b.defs {
		used[r.Level] = true
	}
	for i, ok := range used {
		if ok {
			continue
		}
		for _, r := range b.defs {
			if r.Level > i {
				return errorf(MissingLevel, r.Location, "level %d is used but level %d has no rules", r.Level, i)
			}
		}
	}
	for _, d := range b.def.Descriptions {
		if d.Level > top {
			return errorf(MissingLevel, d.Location, "description for level %d which has no rules", d.Level)
		}
		b.levels[d.Level].description = d.Text
	}
	return nil
}

func (b *builder) addSymbol(l *Level, sym *Symbol, key string, loc Location) *Symbol {
	sym.ID = len(l.symbols)
	sym.Level = l.index
	l.symbols = append(l.symbols, sym)
	l.byName[key] = sym
	b.seen[sym] = loc
	return sym
}

func (b *builder) symbols() error {
	for _, r := range b.defs {
		l := b.levels[r.Level]
		if _, ok := l.byName[r.LHS]; !ok {
			b.addSymbol(l, &Symbol{Kind: Nonterminal, Name: r.LHS}, r.LHS, r.Location)
		}
	}
	for _, r := range b.defs {
		l := b.levels[r.Level]
		for _, t := range r.RHS {
			if t.Pattern != nil {
				key := terminalKey(t.Pattern)
				if _, ok := l.byName[key]; ok {
					continue
				}
				p := &Pattern{Kind: t.Pattern.Kind, Literal: t.Pattern.Literal, Flags: t.Pattern.Flags}
				if err := p.compile(); err != nil {
					return errorf(SyntaxError, t.Location, "%v", err)
				}
				b.addSymbol(l, &Symbol{Kind: Terminal, Name: p.Source(), Pattern: p}, key, t.Location)
				continue
			}
			if t.Name == "" {
				return errorf(SyntaxError, t.Location, "empty symbol name")
			}
			if _, ok := l.byName[t.Name]; !ok {
				b.addSymbol(l, &Symbol{Kind: Nonterminal, Name: t.Name, Lexeme: true}, t.Name, t.Location)
			}
		}
	}
	return nil
}

func terminalKey(p *Pattern) string {
	return "\x00" + p.key()
}

func (b *builder) rules() error {
	dups := make(map[string]bool)
	for _, r := range b.defs {
		l := b.levels[r.Level]
		rule := &Rule{
			ID:          len(l.rules),
			Level:       r.Level,
			LHS:         l.byName[r.LHS],
			Rank:        r.Rank,
			NullRanking: r.NullRanking,
			Location:    r.Location,
		}
		keys := []string{r.LHS}
		for _, t := range r.RHS {
			key := t.Name
			if t.Pattern != nil {
				key = terminalKey(t.Pattern)
			}
			rule.RHS = append(rule.RHS, l.byName[key])
			keys = append(keys, key)
		}
		dup := strconv.Itoa(r.Level) + "\x01" + strings.Join(keys, "\x01")
		if dups[dup] {
			return errorf(DuplicateRule, r.Location, "rule %s is declared twice", rule.Display())
		}
		dups[dup] = true
		l.rules = append(l.rules, rule)
		l.byLHS[rule.LHS.ID] = append(l.byLHS[rule.LHS.ID], rule)
		if rule.LHS.IsDiscard() {
			l.discard = rule.LHS
		}
	}
	return nil
}

func (b *builder) resolveLexemes() error {
	for _, l := range b.levels {
		for _, sym := range l.symbols {
			if !sym.Lexeme {
				continue
			}
			loc := b.seen[sym]
			if l.index+1 >= len(b.levels) {
				return errorf(UndefinedSymbol, loc, "symbol %s has no rule at level %d and there is no level %d",
					sym.Display(), l.index, l.index+1)
			}
			target, ok := b.levels[l.index+1].byName[sym.Name]
			if !ok || target.Kind != Nonterminal || len(b.levels[l.index+1].byLHS[target.ID]) == 0 {
				return errorf(UndefinedSymbol, loc, "symbol %s is not defined at level %d or %d",
					sym.Display(), l.index, l.index+1)
			}
			sym.target = target
		}
	}
	return nil
}

func (b *builder) start() error {
	l := b.levels[0]
	if len(b.def.Starts) == 0 {
		for _, r := range l.rules {
			if !r.LHS.IsDiscard() {
				l.start = r.LHS
				return nil
			}
		}
		return errorf(UndefinedSymbol, Location{Filename: b.def.Filename}, "level 0 has no start symbol candidate")
	}
	first := b.def.Starts[0]
	for _, s := range b.def.Starts[1:] {
		if s.Name != first.Name {
			return errorf(AmbiguousStart, s.Location, "start symbol declared as both %s and %s", first.Name, s.Name)
		}
	}
	sym, ok := l.byName[first.Name]
	if !ok || sym.Kind != Nonterminal || sym.Lexeme || sym.IsDiscard() {
		return errorf(UndefinedSymbol, first.Location, "start symbol %s has no rule at level 0", first.Name)
	}
	l.start = sym
	return nil
}

func (b *builder) nullable(l *Level) {
	for changed := true; changed; {
		changed = false
		for _, r := range l.rules {
			if r.Nullable {
				continue
			}
			all := true
			for _, sym := range r.RHS {
				if !sym.Nullable {
					all = false
					break
				}
			}
			if all {
				r.Nullable = true
				r.LHS.Nullable = true
				changed = true
			}
		}
	}
}

func (b *builder) productive() error {
	productive := make(map[*Symbol]bool)
	for i := len(b.levels) - 1; i >= 0; i-- {
		l := b.levels[i]
		for _, sym := range l.symbols {
			switch {
			case sym.Kind == Terminal:
				productive[sym] = true
			case sym.Lexeme:
				productive[sym] = productive[sym.target]
			}
		}
		for changed := true; changed; {
			changed = false
			for _, r := range l.rules {
				if productive[r.LHS] {
					continue
				}
				all := true
				for _, sym := range r.RHS {
					if !productive[sym] {
						all = false
						break
					}
				}
				if all {
					productive[r.LHS] = true
					changed = true
				}
			}
		}
		for _, r := range l.rules {
			if !productive[r.LHS] {
				return errorf(CycleWithoutBase, r.Location, "symbol %s cannot derive any input at level %d",
					r.LHS.Display(), l.index)
			}
		}
	}
	return nil
}

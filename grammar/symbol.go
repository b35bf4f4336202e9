package grammar

import (
	"fmt"
	"regexp"
	"regexp/syntax"
	"strings"
	"unicode"
)

// SymbolKind distinguishes terminals from non-terminals.
type SymbolKind int

const (
	Terminal SymbolKind = iota
	Nonterminal
)

func (k SymbolKind) String() string {
	if k == Terminal {
		return "terminal"
	}
	return "nonterminal"
}

// DiscardName is the reserved LHS of discard rules.
const DiscardName = ":discard"

// Symbol is an entry of a level's symbol table. Symbols are immutable once
// the grammar is built.
type Symbol struct {
	ID    int
	Level int
	Kind  SymbolKind
	// Name is the bare name of a non-terminal, or the canonical source form of
	// a terminal ('abc', [a-z], /re/i).
	Name    string
	Pattern *Pattern
	// Lexeme is set on non-terminals that have no rule at Level. They are
	// matched by a sub-parse at Level+1.
	Lexeme   bool
	Nullable bool

	target *Symbol
}

// Target returns the level+1 symbol a lexeme symbol is matched with, or nil.
func (s *Symbol) Target() *Symbol { return s.target }

func (s *Symbol) IsTerminal() bool { return s.Kind == Terminal }

// IsDiscard reports whether s is the discard symbol of its level.
func (s *Symbol) IsDiscard() bool { return s.Name == DiscardName }

// Display returns the symbol the way it is written in grammar source.
func (s *Symbol) Display() string {
	if s.Kind == Terminal || isBareName(s.Name) {
		return s.Name
	}
	return "<" + s.Name + ">"
}

func (s *Symbol) String() string { return s.Display() }

func isBareName(name string) bool {
	if name == "" {
		return false
	}
	if strings.HasPrefix(name, ":") {
		return isBareName(name[1:])
	}
	for i, r := range name {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}

// PatternKind is the lexical form of a terminal.
type PatternKind int

const (
	StringPattern PatternKind = iota
	ClassPattern
	RegexPattern
)

// Pattern describes how a terminal matches input.
type Pattern struct {
	Kind PatternKind
	// Literal is the unescaped value of a string pattern, or the raw body
	// (between the delimiters) of a class or regex.
	Literal string
	// Flags holds regex flags; string and class patterns only use "i".
	Flags string

	re   *regexp.Regexp
	prog *syntax.Prog
}

// Fold reports whether matching ignores case.
func (p *Pattern) Fold() bool { return strings.Contains(p.Flags, "i") }

// Regexp returns the anchored, leftmost-longest expression of class and
// regex patterns. It is nil for strings.
func (p *Pattern) Regexp() *regexp.Regexp { return p.re }

// Source renders the pattern in grammar syntax.
func (p *Pattern) Source() string {
	switch p.Kind {
	case StringPattern:
		s := quoteLiteral(p.Literal)
		if p.Fold() {
			s += ":i"
		}
		return s
	case ClassPattern:
		s := "[" + p.Literal + "]"
		if p.Fold() {
			s += ":i"
		}
		return s
	default:
		return "/" + p.Literal + "/" + p.Flags
	}
}

func (p *Pattern) key() string {
	return fmt.Sprintf("%d\x00%s\x00%s", p.Kind, p.Literal, p.Flags)
}

func (p *Pattern) compile() error {
	var expr string
	switch p.Kind {
	case StringPattern:
		if p.Literal == "" {
			return fmt.Errorf("empty string terminal")
		}
		return nil
	case ClassPattern:
		expr = "[" + p.Literal + "]"
	case RegexPattern:
		expr = p.Literal
	}
	var flags string
	for _, f := range p.Flags {
		if !strings.ContainsRune("imsU", f) {
			return fmt.Errorf("unknown regex flag %q in %s", f, p.Source())
		}
		flags += string(f)
	}
	if flags != "" {
		expr = "(?" + flags + ")" + expr
	}
	prog, err := compileProg(expr)
	if err != nil {
		return fmt.Errorf("invalid pattern %s: %w", p.Source(), err)
	}
	p.prog = prog
	p.re = regexp.MustCompile(`^(?:` + expr + `)`)
	p.re.Longest()
	return nil
}

func quoteLiteral(s string) string {
	var sb strings.Builder
	sb.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'':
			sb.WriteString(`\'`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&sb, `\x%02x`, r)
			} else {
				sb.WriteRune(r)
			}
		}
	}
	sb.WriteByte('\'')
	return sb.String()
}

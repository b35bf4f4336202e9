package grammar

// Definition is a grammar description before validation. The native syntax,
// YAML documents and EBNF grammars are all turned into a Definition and then
// compiled by Build.
type Definition struct {
	Filename     string
	Starts       []StartDefinition
	Descriptions []DescriptionDefinition
	Rules        []RuleDefinition
}

// StartDefinition is a `:start ::= name` declaration.
type StartDefinition struct {
	Name     string
	Location Location
}

// DescriptionDefinition is a `:desc` declaration for one level.
type DescriptionDefinition struct {
	Level    int
	Text     string
	Location Location
}

// RuleDefinition is one alternative of a rule. Discard rules use DiscardName
// as their LHS.
type RuleDefinition struct {
	Level       int
	LHS         string
	RHS         []TermDefinition
	Rank        int
	NullRanking NullRanking
	Location    Location

	// Quantifier makes the rule a sequence of its single RHS term.
	Quantifier Quantifier
	// Separator, if set, goes between the items of a sequence. A proper
	// sequence does not accept a trailing separator.
	Separator *TermDefinition
	Proper    bool

	// Priority is the index of the ||-separated group the alternative
	// belongs to; group 0 binds tightest. Assoc applies within the group.
	Priority int
	Assoc    Assoc
}

// Quantifier is the repetition of a sequence rule.
type Quantifier int

const (
	NoQuantifier Quantifier = iota
	// Plus is one or more items, written `B+`.
	Plus
	// Star is zero or more items, written `B*`.
	Star
)

func (q Quantifier) String() string {
	switch q {
	case Plus:
		return "+"
	case Star:
		return "*"
	}
	return ""
}

// Assoc is the associativity of a prioritized alternative.
type Assoc int

const (
	AssocLeft Assoc = iota
	AssocRight
	AssocGroup
)

func (a Assoc) String() string {
	switch a {
	case AssocRight:
		return "right"
	case AssocGroup:
		return "group"
	}
	return "left"
}

// NullRanking orders the derivations of one rule that differ in which
// nullable RHS symbols derive the empty string.
type NullRanking int

const (
	// NullRanksLow prefers derivations with fewer nulled symbols.
	NullRanksLow NullRanking = iota
	// NullRanksHigh prefers derivations with more nulled symbols.
	NullRanksHigh
)

func (n NullRanking) String() string {
	if n == NullRanksHigh {
		return "high"
	}
	return "low"
}

// TermDefinition is one RHS element. Name is set for symbol references,
// Pattern for terminals.
type TermDefinition struct {
	Name     string
	Pattern  *Pattern
	Location Location
}

// NewTerminal returns a term for a terminal pattern.
func NewTerminal(kind PatternKind, literal, flags string, loc Location) TermDefinition {
	return TermDefinition{Pattern: &Pattern{Kind: kind, Literal: literal, Flags: flags}, Location: loc}
}

// NewReference returns a term referring to a symbol by name.
func NewReference(name string, loc Location) TermDefinition {
	return TermDefinition{Name: name, Location: loc}
}

// AddRule appends a rule alternative.
func (d *Definition) AddRule(level int, lhs string, rank int, loc Location, rhs ...TermDefinition) {
	d.Rules = append(d.Rules, RuleDefinition{Level: level, LHS: lhs, RHS: rhs, Rank: rank, Location: loc})
}

package grammar

import (
	"fmt"
	"strings"
)

// Rule is one alternative of a production at one level.
type Rule struct {
	ID          int
	Level       int
	LHS         *Symbol
	RHS         []*Symbol
	Rank        int
	NullRanking NullRanking
	Nullable    bool
	Location    Location
}

// IsEmpty reports whether the rule has no RHS.
func (r *Rule) IsEmpty() bool { return len(r.RHS) == 0 }

// Display renders the rule as grammar source, e.g. `S ::= A A`.
func (r *Rule) Display() string {
	var sb strings.Builder
	sb.WriteString(r.LHS.Display())
	sb.WriteByte(' ')
	sb.WriteString(Operator(r.Level))
	for _, sym := range r.RHS {
		sb.WriteByte(' ')
		sb.WriteString(sym.Display())
	}
	return sb.String()
}

// Show is Display with the ranking adverbs and a nullable marker.
func (r *Rule) Show() string {
	s := fmt.Sprintf("%s rank => %d", r.Display(), r.Rank)
	if r.NullRanking == NullRanksHigh {
		s += " null-ranking => high"
	}
	if r.Nullable {
		s += " # nullable"
	}
	return s
}

// Dotted renders the rule with a dot before RHS position dot.
func (r *Rule) Dotted(dot int) string {
	var sb strings.Builder
	sb.WriteString(r.LHS.Display())
	sb.WriteByte(' ')
	sb.WriteString(Operator(r.Level))
	for i, sym := range r.RHS {
		if i == dot {
			sb.WriteString(" .")
		}
		sb.WriteByte(' ')
		sb.WriteString(sym.Display())
	}
	if dot >= len(r.RHS) {
		sb.WriteString(" .")
	}
	return sb.String()
}

func (r *Rule) String() string { return r.Display() }

// Operator returns the rule operator used in source for level.
func Operator(level int) string {
	switch level {
	case 0:
		return "::="
	case 1:
		return "~"
	default:
		return fmt.Sprintf(":[%d]:=", level)
	}
}

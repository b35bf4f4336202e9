package grammar

import "fmt"

type lhsKey struct {
	level int
	name  string
}

// rewrite turns sequence rules and prioritized alternatives into plain
// rules. Generated symbols are named after the rule they come from:
// `A$seq` holds the items of sequence A and `E[n]` is priority group n of E.
func rewrite(defs []RuleDefinition) ([]RuleDefinition, error) {
	counts := make(map[lhsKey]int)
	groups := make(map[lhsKey]int)
	for _, r := range defs {
		k := lhsKey{r.Level, r.LHS}
		counts[k]++
		if r.Priority+1 > groups[k] {
			groups[k] = r.Priority + 1
		}
	}

	var out []RuleDefinition
	done := make(map[lhsKey]bool)
	for _, r := range defs {
		k := lhsKey{r.Level, r.LHS}
		switch {
		case r.Quantifier != NoQuantifier:
			if counts[k] > 1 {
				return nil, errorf(SyntaxError, r.Location, "sequence rule %s must be the only rule of its symbol", r.LHS)
			}
			seq, err := sequence(r)
			if err != nil {
				return nil, err
			}
			out = append(out, seq...)
		case r.Separator != nil || r.Proper:
			return nil, errorf(SyntaxError, r.Location, "separator and proper only apply to sequence rules")
		case groups[k] > 1:
			if done[k] {
				continue
			}
			done[k] = true
			out = append(out, prioritized(defs, k, groups[k])...)
		default:
			out = append(out, r)
		}
	}
	return out, nil
}

// sequence rewrites `A ::= B+ separator => C` into
//
//	A ::= A$seq
//	A ::= A$seq C          (unless proper)
//	A$seq ::= B
//	A$seq ::= A$seq C B
//
// and adds `A ::=` for `B*`. Every rule keeps the rank of the sequence.
func sequence(r RuleDefinition) ([]RuleDefinition, error) {
	if len(r.RHS) != 1 {
		return nil, errorf(SyntaxError, r.Location, "sequence rule %s must have exactly one item symbol", r.LHS)
	}
	item := r.RHS[0]
	items := NewReference(r.LHS+"$seq", r.Location)
	rule := func(lhs string, rhs ...TermDefinition) RuleDefinition {
		return RuleDefinition{
			Level:       r.Level,
			LHS:         lhs,
			RHS:         rhs,
			Rank:        r.Rank,
			NullRanking: r.NullRanking,
			Location:    r.Location,
		}
	}

	out := []RuleDefinition{rule(r.LHS, items)}
	if r.Separator != nil && !r.Proper {
		out = append(out, rule(r.LHS, items, *r.Separator))
	}
	if r.Quantifier == Star {
		out = append(out, rule(r.LHS))
	}
	out = append(out, rule(items.Name, item))
	if r.Separator != nil {
		out = append(out, rule(items.Name, items, *r.Separator, item))
	} else {
		out = append(out, rule(items.Name, items, item))
	}
	return out, nil
}

// prioritized rewrites the alternatives of one symbol split into n groups
// with ||. Group n-1 keeps the symbol's name, tighter groups get their own
// symbol and each group also derives the next tighter one. In an
// alternative, an occurrence of the symbol at the operand end named by
// the associativity stays at the alternative's group, the other end goes
// one group tighter, and inner occurrences refer to the loosest group.
func prioritized(defs []RuleDefinition, k lhsKey, n int) []RuleDefinition {
	name := func(group int) string {
		if group >= n-1 {
			return k.name
		}
		return fmt.Sprintf("%s[%d]", k.name, group)
	}
	tighter := func(group int) string { return name(max(group-1, 0)) }

	var out []RuleDefinition
	var loc Location
	for _, r := range defs {
		if r.Level == k.level && r.LHS == k.name {
			loc = r.Location
			break
		}
	}
	for g := n - 1; g > 0; g-- {
		out = append(out, RuleDefinition{
			Level:    k.level,
			LHS:      name(g),
			RHS:      []TermDefinition{NewReference(name(g-1), loc)},
			Location: loc,
		})
	}

	for _, r := range defs {
		if r.Level != k.level || r.LHS != k.name {
			continue
		}
		alt := r
		alt.LHS = name(r.Priority)
		alt.Priority = 0
		alt.RHS = make([]TermDefinition, len(r.RHS))
		last := len(r.RHS) - 1
		for i, t := range r.RHS {
			alt.RHS[i] = t
			if t.Pattern != nil || t.Name != k.name {
				continue
			}
			var target string
			switch {
			case last == 0:
				target = tighter(r.Priority)
			case i != 0 && i != last, r.Assoc == AssocGroup:
				target = name(n - 1)
			case i == 0 && r.Assoc == AssocLeft, i == last && r.Assoc == AssocRight:
				target = name(r.Priority)
			default:
				target = tighter(r.Priority)
			}
			alt.RHS[i].Name = target
		}
		out = append(out, alt)
	}
	return out
}

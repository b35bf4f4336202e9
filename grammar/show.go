package grammar

import (
	"fmt"
	"strings"
)

// Describe renders one level as grammar source. Compiling the concatenated
// descriptions of all levels yields a grammar whose rules display the same.
func (g *Grammar) Describe(level int) (string, error) {
	l, err := g.Level(level)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n", l.Description())
	if l.description != "" {
		fmt.Fprintf(&sb, ":desc %s %s\n", Operator(level), quoteLiteral(l.description))
	}
	if l.start != nil {
		fmt.Fprintf(&sb, ":start %s %s\n", Operator(level), l.start.Display())
	}
	for _, r := range l.rules {
		sb.WriteString(r.Show())
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// Show renders every level.
func (g *Grammar) Show() string {
	parts := make([]string, len(g.levels))
	for i := range g.levels {
		parts[i], _ = g.Describe(i)
	}
	return strings.Join(parts, "\n")
}

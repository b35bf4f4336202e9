package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/eslif/grammar"
	"github.com/dhamidi/eslif/value"
)

type JSONEncoder struct {
	w       io.Writer
	tree    *value.Tree
	grammar *grammar.Grammar
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(tree *value.Tree) error {
	e.tree, e.grammar = tree, nil
	return write(e.w, e)
}

func (e *JSONEncoder) EncodeGrammar(g *grammar.Grammar) error {
	e.tree, e.grammar = nil, g
	return write(e.w, e)
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	var data any = e.tree
	if e.grammar != nil {
		data = e.buildGrammarData()
	}
	text, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(text, '\n'), nil
}

type jsonGrammar struct {
	Start  string      `json:"start"`
	Levels []jsonLevel `json:"levels"`
}

type jsonLevel struct {
	Level       int          `json:"level"`
	Description string       `json:"description"`
	Discard     string       `json:"discard,omitempty"`
	Rules       []jsonRule   `json:"rules"`
	Symbols     []jsonSymbol `json:"symbols"`
}

type jsonRule struct {
	ID       int      `json:"id"`
	LHS      string   `json:"lhs"`
	RHS      []string `json:"rhs,omitempty"`
	Rank     int      `json:"rank,omitempty"`
	Nullable bool     `json:"nullable,omitempty"`
	Display  string   `json:"display"`
}

type jsonSymbol struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Lexeme   bool   `json:"lexeme,omitempty"`
	Nullable bool   `json:"nullable,omitempty"`
}

func (e *JSONEncoder) buildGrammarData() jsonGrammar {
	g := e.grammar
	data := jsonGrammar{Start: g.Start().Display()}
	for i := 0; i < g.LevelCount(); i++ {
		l, _ := g.Level(i)
		level := jsonLevel{
			Level:       i,
			Description: l.Description(),
			Rules:       buildRules(l.Rules()),
			Symbols:     buildSymbols(l.Symbols()),
		}
		if d := l.Discard(); d != nil {
			level.Discard = d.Display()
		}
		data.Levels = append(data.Levels, level)
	}
	return data
}

func buildRules(rules []*grammar.Rule) []jsonRule {
	result := make([]jsonRule, len(rules))
	for i, r := range rules {
		result[i] = jsonRule{
			ID:       r.ID,
			LHS:      r.LHS.Display(),
			Rank:     r.Rank,
			Nullable: r.Nullable,
			Display:  r.Display(),
		}
		for _, s := range r.RHS {
			result[i].RHS = append(result[i].RHS, s.Display())
		}
	}
	return result
}

func buildSymbols(symbols []*grammar.Symbol) []jsonSymbol {
	result := make([]jsonSymbol, len(symbols))
	for i, s := range symbols {
		result[i] = jsonSymbol{
			ID:       s.ID,
			Name:     s.Display(),
			Kind:     s.Kind.String(),
			Lexeme:   s.Lexeme,
			Nullable: s.Nullable,
		}
	}
	return result
}

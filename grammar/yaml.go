package grammar

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// yamlDocument is the YAML form of a grammar:
//
//	start: expr
//	levels:
//	  - description: syntax
//	    discard: [ws]
//	    rules:
//	      - {lhs: expr, rhs: "expr '+' number", rank: 1}
//	      - {lhs: expr, rhs: number}
//	  - rules:
//	      - {lhs: number, rhs: "/[0-9]+/"}
//	      - {lhs: ws, rhs: "[\\s]+"}
type yamlDocument struct {
	Start  string      `yaml:"start"`
	Levels []yamlLevel `yaml:"levels"`
}

type yamlLevel struct {
	Description string     `yaml:"description"`
	Discard     []yamlRHS  `yaml:"discard"`
	Rules       []yamlRule `yaml:"rules"`
}

type yamlRule struct {
	LHS  string `yaml:"lhs"`
	RHS  string `yaml:"rhs"`
	Rank int    `yaml:"rank"`

	line   int
	column int
}

func (r *yamlRule) UnmarshalYAML(value *yaml.Node) error {
	type plain yamlRule
	if err := value.Decode((*plain)(r)); err != nil {
		return err
	}
	r.line, r.column = value.Line, value.Column
	return nil
}

type yamlRHS struct {
	text string
	line int
}

func (r *yamlRHS) UnmarshalYAML(value *yaml.Node) error {
	r.line = value.Line
	return value.Decode(&r.text)
}

// ParseYAML reads a grammar written as a YAML document.
func ParseYAML(filename string, r io.Reader) (*Definition, error) {
	var doc yamlDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, errorf(SyntaxError, Location{Filename: filename}, "empty document")
		}
		return nil, errorf(SyntaxError, Location{Filename: filename}, "%v", err)
	}

	def := &Definition{Filename: filename}
	if doc.Start != "" {
		def.Starts = append(def.Starts, StartDefinition{Name: doc.Start, Location: Location{Filename: filename}})
	}
	for level, l := range doc.Levels {
		if l.Description != "" {
			def.Descriptions = append(def.Descriptions, DescriptionDefinition{
				Level:    level,
				Text:     l.Description,
				Location: Location{Filename: filename},
			})
		}
		for _, d := range l.Discard {
			rhs, err := ParseTerms(filename, d.line, d.text)
			if err != nil {
				return nil, err
			}
			def.AddRule(level, DiscardName, 0, Location{Filename: filename, Line: d.line, Column: 1}, rhs...)
		}
		for _, yr := range l.Rules {
			loc := Location{Filename: filename, Line: yr.line, Column: yr.column}
			if yr.LHS == "" {
				return nil, errorf(SyntaxError, loc, "rule without lhs")
			}
			rhs, err := ParseTerms(filename, yr.line, yr.RHS)
			if err != nil {
				return nil, fmt.Errorf("rule %s: %w", yr.LHS, err)
			}
			def.AddRule(level, yr.LHS, yr.Rank, loc, rhs...)
		}
	}
	return def, nil
}

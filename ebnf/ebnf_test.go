package ebnf

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/dhamidi/eslif/grammar"
	"github.com/dhamidi/eslif/recognizer"
	"github.com/dhamidi/eslif/value"
)

const sum = `
Sum = Term { "+" Term } .
Term = number | "(" Sum ")" .
number = digit { digit } .
digit = "0" … "9" .
blank = " " { " " } .
`

func compile(t *testing.T, src string, opts Options) *grammar.Grammar {
	t.Helper()
	g, err := Compile("sum.ebnf", strings.NewReader(src), opts)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return g
}

func TestLevels(t *testing.T) {
	g := compile(t, sum, Options{Discard: []string{"blank"}})
	if g.LevelCount() != 2 {
		t.Fatalf("LevelCount() = %d, want 2", g.LevelCount())
	}
	if g.Start().Name != "Sum" {
		t.Errorf("start = %s, want Sum", g.Start())
	}

	var got []string
	rules, _ := g.RulesAt(0)
	for _, r := range rules {
		got = append(got, r.Display())
	}
	sort.Strings(got)
	want := []string{
		":discard ::= blank",
		"<Sum$1> ::=",
		"<Sum$1> ::= <Sum$1> '+' Term",
		"Sum ::= Term <Sum$1>",
		"Term ::= '(' Sum ')'",
		"Term ::= number",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("level 0 rules:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}

	l1, _ := g.Level(1)
	if _, ok := l1.Symbol("digit"); !ok {
		t.Errorf("digit should be a level 1 symbol")
	}
	if _, ok := l1.Symbol("[0-9]"); !ok {
		t.Errorf("range should compile to the class [0-9]")
	}
}

func TestParseSum(t *testing.T) {
	g := compile(t, sum, Options{Discard: []string{"blank"}})
	r, err := recognizer.New(g, recognizer.NewStringReader("1 + (23 +4)", recognizer.ReaderConfig{}))
	if err != nil {
		t.Fatalf("recognizer.New: %v", err)
	}
	if err := r.Recognize(); err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	f, err := r.Forest()
	if err != nil {
		t.Fatalf("Forest: %v", err)
	}
	values, err := value.Value(f, &value.Options{}, nil)
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if len(values) != 1 {
		t.Fatalf("got %d values, want 1", len(values))
	}
	if got := values[0].(*value.Tree).Lexemes(); got != "1+(23+4)" {
		t.Errorf("lexemes = %q", got)
	}
}

func TestConvertErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts Options
	}{
		{"syntax", "Sum = Term", Options{}},
		{"undefined", "Sum = Term .", Options{}},
		{"lexical references syntax", "Sum = word .\nword = Sum .", Options{}},
		{"unused", "Sum = \"x\" .\nOther = \"y\" .", Options{}},
		{"unknown discard", "Sum = \"x\" .", Options{Discard: []string{"ws"}}},
		{"only lexical", "word = \"x\" .", Options{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse("bad.ebnf", strings.NewReader(tt.src), tt.opts); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}

func TestErrors(t *testing.T) {
	_, err := Parse("bad.ebnf", strings.NewReader("A = B .\nC = D ."), Options{Start: "A"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if n := len(Errors(err)); n < 2 {
		t.Errorf("Errors() returned %d errors, want at least 2: %v", n, err)
	}

	plain := errors.New("plain")
	if got := Errors(plain); len(got) != 1 || got[0] != plain {
		t.Errorf("Errors(plain) = %v", got)
	}
	if Errors(nil) != nil {
		t.Errorf("Errors(nil) should be nil")
	}
}

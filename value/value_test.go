package value

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dhamidi/eslif/grammar"
	"github.com/dhamidi/eslif/recognizer"
)

func forest(t *testing.T, src, input string) *recognizer.Forest {
	t.Helper()
	g, err := grammar.CompileString(src)
	if err != nil {
		t.Fatalf("CompileString: %v", err)
	}
	r, err := recognizer.New(g, recognizer.NewStringReader(input, recognizer.ReaderConfig{}))
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
	return f
}

func render(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.(*Tree).String()
	}
	return out
}

func TestSingleValue(t *testing.T) {
	f := forest(t, "S ::= A A\nA ::= 'a'", "aa")
	opts := &Options{}
	values, err := Value(f, opts, nil)
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	got := render(values)
	if len(got) != 1 || got[0] != `(S (A "a") (A "a"))` {
		t.Errorf("values = %q", got)
	}
	if opts.Result() != values[0] {
		t.Errorf("Result() should be the first value")
	}
	if tree := values[0].(*Tree); tree.Lexemes() != "aa" {
		t.Errorf("Lexemes() = %q", tree.Lexemes())
	}
}

const ranked = `
S ::= B | A
A ::= 'x' rank => 1
B ::= 'x'
`

func TestRankPolicies(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want []string
		err  error
	}{
		{"declaration order", Options{Ambiguous: true}, []string{`(S (B "x"))`, `(S (A "x"))`}, nil},
		{"order by rank", Options{Ambiguous: true, OrderByRank: true}, []string{`(S (A "x"))`, `(S (B "x"))`}, nil},
		{"high rank only", Options{Ambiguous: true, HighRankOnly: true}, []string{`(S (A "x"))`}, nil},
		{"high rank only resolves ambiguity", Options{HighRankOnly: true}, []string{`(S (A "x"))`}, nil},
		{"ambiguity rejected", Options{}, nil, ErrAmbiguousParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			values, err := Value(forest(t, ranked, "x"), &opts, nil)
			if !errors.Is(err, tt.err) {
				t.Fatalf("error = %v, want %v", err, tt.err)
			}
			if got := render(values); strings.Join(got, "\n") != strings.Join(tt.want, "\n") {
				t.Errorf("values = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNestedRank(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts Options
		want []string
		err  error
	}{
		{
			"child rank breaks a tie",
			"S ::= P | Q\nP ::= C\nQ ::= D\nC ::= 'x'\nD ::= 'x' rank => 2",
			Options{HighRankOnly: true},
			[]string{`(S (Q (D "x")))`},
			nil,
		},
		{
			"child rank orders the root",
			"S ::= P | Q\nP ::= C\nQ ::= D\nC ::= 'x'\nD ::= 'x' rank => 2",
			Options{Ambiguous: true, OrderByRank: true},
			[]string{`(S (Q (D "x")))`, `(S (P (C "x")))`},
			nil,
		},
		{
			"inner choice pruned below a tie",
			"S ::= P | Q\nP ::= C\nQ ::= C\nC ::= E | F\nE ::= 'x'\nF ::= 'x' rank => 1",
			Options{Ambiguous: true, HighRankOnly: true},
			[]string{`(S (P (C (F "x"))))`, `(S (Q (C (F "x"))))`},
			nil,
		},
		{
			"tie above the pruned choice stays ambiguous",
			"S ::= P | Q\nP ::= C\nQ ::= C\nC ::= E | F\nE ::= 'x'\nF ::= 'x' rank => 1",
			Options{HighRankOnly: true},
			nil,
			ErrAmbiguousParse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			values, err := Value(forest(t, tt.src, "x"), &opts, nil)
			if !errors.Is(err, tt.err) {
				t.Fatalf("error = %v, want %v", err, tt.err)
			}
			if got := render(values); strings.Join(got, "\n") != strings.Join(tt.want, "\n") {
				t.Errorf("values = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCyclicDerivations(t *testing.T) {
	src := "S ::= A | B\nA ::= B | 'x'\nB ::= A | 'x'"
	values, err := Value(forest(t, src, "x"), &Options{Ambiguous: true}, nil)
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	want := []string{
		`(S (A (B "x")))`,
		`(S (A "x"))`,
		`(S (B (A "x")))`,
		`(S (B "x"))`,
	}
	if got := render(values); strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("values = %q, want %q", got, want)
	}
}

// exprBuilder renders binary operations fully parenthesized and passes
// single children through.
type exprBuilder struct{}

func (exprBuilder) Rule(rule *grammar.Rule, children []any) (any, error) {
	switch len(children) {
	case 1:
		return children[0], nil
	case 3:
		return fmt.Sprintf("(%v%v%v)", children[0], children[1], children[2]), nil
	}
	return fmt.Sprint(children...), nil
}

func (exprBuilder) Lexeme(symbol *grammar.Symbol, data []byte) (any, error) {
	return string(data), nil
}

func TestPriorities(t *testing.T) {
	src := "E ::= [0-9] || E '^' E assoc => right || E '*' E || E '+' E | E '-' E"
	tests := []struct {
		input string
		want  string
	}{
		{"1+2*3", "(1+(2*3))"},
		{"1*2+3", "((1*2)+3)"},
		{"1-2+3", "((1-2)+3)"},
		{"2^3^4", "(2^(3^4))"},
		{"1+2*3^4^5", "(1+(2*(3^(4^5))))"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			values, err := Value(forest(t, src, tt.input), &Options{}, exprBuilder{})
			if err != nil {
				t.Fatalf("Value: %v", err)
			}
			if len(values) != 1 || values[0] != tt.want {
				t.Errorf("values = %v, want [%s]", values, tt.want)
			}
		})
	}
}

func TestSequences(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		input string
		ok    bool
	}{
		{"plus", "L ::= A+\nA ::= 'a'", "aaa", true},
		{"plus needs an item", "L ::= A+\nA ::= 'a'", "", false},
		{"separated", "L ::= A+ separator => ',' proper => 1\nA ::= 'a'", "a,a,a", true},
		{"proper rejects a trailing separator", "L ::= A+ separator => ',' proper => 1\nA ::= 'a'", "a,a,", false},
		{"liberal accepts a trailing separator", "L ::= A+ separator => ','\nA ::= 'a'", "a,a,", true},
		{"separator alone", "L ::= A* separator => ','\nA ::= 'a'", ",", false},
		{"star", "L ::= A*\nA ::= 'a'", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := grammar.CompileString(tt.src)
			if err != nil {
				t.Fatalf("CompileString: %v", err)
			}
			r, err := recognizer.New(g, recognizer.NewStringReader(tt.input, recognizer.ReaderConfig{}))
			if err != nil {
				t.Fatalf("recognizer.New: %v", err)
			}
			err = r.Recognize()
			if !tt.ok {
				if !errors.Is(err, recognizer.ErrNoParse) {
					t.Errorf("Recognize() = %v, want ErrNoParse", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Recognize: %v", err)
			}
			f, err := r.Forest()
			if err != nil {
				t.Fatalf("Forest: %v", err)
			}
			values, err := Value(f, &Options{Null: true}, nil)
			if err != nil {
				t.Fatalf("Value: %v", err)
			}
			if len(values) != 1 || values[0].(*Tree).Lexemes() != tt.input {
				t.Errorf("values = %v", values)
			}
		})
	}
}

func TestNullRanking(t *testing.T) {
	const rules = "X ::= 'a'\nX ::=\nY ::= 'a'\nY ::= 'a' 'a'\nY ::="
	tests := []struct {
		name    string
		ranking string
		want    string
	}{
		{"low", "", `(S (X "a") (Y "a"))`},
		{"explicit low", " null-ranking => low", `(S (X "a") (Y "a"))`},
		{"high", " null-ranking => high", `(S (X) (Y "a" "a"))`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "S ::= X Y" + tt.ranking + "\n" + rules
			values, err := Value(forest(t, src, "aa"), &Options{HighRankOnly: true}, nil)
			if err != nil {
				t.Fatalf("Value: %v", err)
			}
			if got := render(values); len(got) != 1 || got[0] != tt.want {
				t.Errorf("values = %q, want %s", got, tt.want)
			}
		})
	}
}

func TestNullParse(t *testing.T) {
	src := "S ::=\nS ::= 'a'"
	if _, err := Value(forest(t, src, ""), &Options{}, nil); !errors.Is(err, ErrNullParse) {
		t.Errorf("error = %v, want ErrNullParse", err)
	}
	values, err := Value(forest(t, src, ""), &Options{Null: true}, nil)
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if got := render(values); len(got) != 1 || got[0] != "(S)" {
		t.Errorf("values = %q", got)
	}
}

func TestAmbiguousEnumeration(t *testing.T) {
	src := "E ::= E E | 'a'"
	all, err := Value(forest(t, src, "aaaa"), &Options{Ambiguous: true}, nil)
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	got := render(all)
	if len(got) != 5 {
		t.Fatalf("got %d parses, want 5:\n%s", len(got), strings.Join(got, "\n"))
	}
	if want := `(E (E "a") (E (E "a") (E (E "a") (E "a"))))`; got[0] != want {
		t.Errorf("first parse = %s, want %s", got[0], want)
	}
	seen := make(map[string]bool)
	for _, s := range got {
		if seen[s] {
			t.Errorf("duplicate parse %s", s)
		}
		seen[s] = true
	}

	again, _ := Value(forest(t, src, "aaaa"), &Options{Ambiguous: true}, nil)
	if strings.Join(render(again), "\n") != strings.Join(got, "\n") {
		t.Errorf("enumeration order is not deterministic")
	}

	bounded, err := Value(forest(t, src, "aaaa"), &Options{Ambiguous: true, Max: 2}, nil)
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if b := render(bounded); len(b) != 2 || b[0] != got[0] || b[1] != got[1] {
		t.Errorf("bounded parses %q are not a prefix of %q", b, got[:2])
	}
}

var errBuild = errors.New("refused")

type failingBuilder struct{ TreeBuilder }

func (failingBuilder) Lexeme(symbol *grammar.Symbol, data []byte) (any, error) {
	return nil, errBuild
}

type countingBuilder struct {
	TreeBuilder
	lexemes int
}

func (b *countingBuilder) Lexeme(symbol *grammar.Symbol, data []byte) (any, error) {
	b.lexemes++
	return b.TreeBuilder.Lexeme(symbol, data)
}

func TestBuilders(t *testing.T) {
	_, err := Value(forest(t, "S ::= A A\nA ::= 'a'", "aa"), &Options{}, failingBuilder{})
	if !errors.Is(err, errBuild) {
		t.Errorf("error = %v, should wrap errBuild", err)
	}

	b := &countingBuilder{}
	values, err := Value(forest(t, "E ::= E E | 'a'", "aaa"), &Options{Ambiguous: true}, b)
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if len(values) != 2 {
		t.Errorf("got %d parses, want 2", len(values))
	}
	if b.lexemes != 3 {
		t.Errorf("built %d lexemes, want 3 shared leaves", b.lexemes)
	}
}

func TestNext(t *testing.T) {
	v := New(forest(t, "E ::= E E | 'a'", "aaa"), &Options{Ambiguous: true}, nil)
	var got []string
	for {
		val, ok, err := v.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		got = append(got, fmt.Sprint(val))
	}
	if v.Emitted() != 2 || len(got) != 2 {
		t.Errorf("emitted %d values: %q", v.Emitted(), got)
	}
	if _, ok, _ := v.Next(); ok {
		t.Errorf("Next after the last value should report false")
	}
}

package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dhamidi/eslif/grammar"
	"github.com/dhamidi/eslif/recognizer"
	"github.com/dhamidi/eslif/value"
)

const twoA = "S ::= A A\nA ::= 'a'"

func parse(t *testing.T) (*grammar.Grammar, *value.Tree) {
	t.Helper()
	g := grammar.MustCompile(twoA)
	r, err := recognizer.New(g, recognizer.NewStringReader("aa", recognizer.ReaderConfig{}))
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
	return g, values[0].(*value.Tree)
}

func TestEncodeTree(t *testing.T) {
	_, tree := parse(t)
	tests := []struct {
		format string
		want   string
	}{
		{"sexp", "(S (A \"a\") (A \"a\"))\n"},
		{"line", "rule\tS ::= A A\n" +
			"  rule\tA ::= 'a'\n" +
			"    lexeme\t'a'\t\"a\"\n" +
			"  rule\tA ::= 'a'\n" +
			"    lexeme\t'a'\t\"a\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			enc, err := New(tt.format, &buf)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if err := enc.Encode(tree); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("output:\n%s\nwant:\n%s", buf.String(), tt.want)
			}
		})
	}
}

func TestJSONTree(t *testing.T) {
	_, tree := parse(t)
	var buf bytes.Buffer
	if err := NewJSONEncoder(&buf).Encode(tree); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	var back value.Tree
	if err := json.Unmarshal(buf.Bytes(), &back); err != nil {
		t.Fatalf("Unmarshal: %v\n%s", err, buf.String())
	}
	if back.String() != tree.String() {
		t.Errorf("decoded tree %s, want %s", back.String(), tree.String())
	}
	if back.Rule != "S ::= A A" {
		t.Errorf("rule = %q", back.Rule)
	}
}

func TestEncodeGrammar(t *testing.T) {
	g, _ := parse(t)

	var buf bytes.Buffer
	if err := NewJSONEncoder(&buf).EncodeGrammar(g); err != nil {
		t.Fatalf("EncodeGrammar: %v", err)
	}
	var data jsonGrammar
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if data.Start != "S" || len(data.Levels) != 1 {
		t.Fatalf("grammar = %+v", data)
	}
	rules := data.Levels[0].Rules
	if len(rules) != 2 || rules[0].Display != "S ::= A A" || strings.Join(rules[0].RHS, " ") != "A A" {
		t.Errorf("rules = %+v", rules)
	}

	buf.Reset()
	if err := NewLineEncoder(&buf).EncodeGrammar(g); err != nil {
		t.Fatalf("EncodeGrammar: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"level\t0\t\"Grammar level 0\"\n",
		"rule\t0\t0\t0\tS ::= A A\n",
		"rule\t0\t1\t0\tA ::= 'a'\n",
		"\tterminal\t'a'\t-\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("line output is missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := NewSexpEncoder(&buf).EncodeGrammar(g); err != nil {
		t.Fatalf("EncodeGrammar: %v", err)
	}
	if buf.String() != g.Show() {
		t.Errorf("sexp grammar output should be the native source")
	}
}

func TestUnknownFormat(t *testing.T) {
	if _, err := New("xml", &bytes.Buffer{}); err == nil {
		t.Errorf("New(xml) should fail")
	}
}

package lsp

import (
	"strings"
	"testing"

	"github.com/dhamidi/eslif/ebnf"
)

const calc = `:discard ::= ws
expr ::= expr '+' number
expr ::= number
number ~ /[0-9]+/
ws ~ /[ ]+/
`

func TestDiagnostics(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		content   string
		located   bool
		line      uint32
		character uint32
		message   string
	}{
		{"undefined symbol", "calc.eslif", "S ::= A\nA ::= missing", true, 1, 6, "missing"},
		{"syntax", "calc.eslif", "S ::= 'a'\nS ::= 'b", true, 1, 6, "unterminated"},
		{"ebnf", "calc.ebnf", "Sum = Term .", true, 0, 6, "Term"},
		{"yaml", "calc.yaml", "levels:\n  - rules: [", false, 0, 0, "yaml"},
	}
	w := NewWorkspace(ebnf.Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := w.Update(tt.path, tt.content)
			diags := doc.Diagnostics()
			if len(diags) == 0 {
				t.Fatalf("no diagnostics for %q", tt.content)
			}
			d := diags[0]
			if tt.located && (d.Range.Start.Line != tt.line || d.Range.Start.Character != tt.character) {
				t.Errorf("diagnostic at %d:%d, want %d:%d: %s",
					d.Range.Start.Line, d.Range.Start.Character, tt.line, tt.character, d.Message)
			}
			if d.Range.End.Character <= d.Range.Start.Character {
				t.Errorf("empty range %+v", d.Range)
			}
			if !strings.Contains(d.Message, tt.message) {
				t.Errorf("message %q does not mention %q", d.Message, tt.message)
			}
		})
	}
}

func TestLastGoodGrammar(t *testing.T) {
	w := NewWorkspace(ebnf.Options{})
	doc := w.Update("/tmp/calc.eslif", calc)
	if len(doc.Errors) != 0 || doc.Grammar == nil {
		t.Fatalf("calc should compile: %v", doc.Errors)
	}
	doc = w.Update("/tmp/calc.eslif", calc+"bad ::= nowhere\n")
	if len(doc.Errors) == 0 {
		t.Fatalf("expected an error")
	}
	if doc.Grammar == nil {
		t.Errorf("the last good grammar should be kept")
	}
	if w.Get("/tmp/calc.eslif") != doc {
		t.Errorf("Get should return the updated document")
	}
	w.Remove("/tmp/calc.eslif")
	if w.Get("/tmp/calc.eslif") != nil {
		t.Errorf("document should be removed")
	}
}

func TestCompletions(t *testing.T) {
	w := NewWorkspace(ebnf.Options{})
	w.Update("calc.eslif", calc)
	doc := w.Update("calc.eslif", calc+"term ::= nu")

	got := doc.Completions(5, 11)
	if len(got) != 1 || got[0].Label != "number" || !got[0].Lexeme {
		t.Errorf("completions = %+v", got)
	}

	var labels []string
	for _, c := range doc.Completions(5, 9) {
		labels = append(labels, c.Label)
	}
	all := strings.Join(labels, " ")
	for _, want := range []string{":discard", "expr", "number", "ws"} {
		if !strings.Contains(all, want) {
			t.Errorf("completions %q are missing %s", all, want)
		}
	}
}

func TestHover(t *testing.T) {
	w := NewWorkspace(ebnf.Options{})
	doc := w.Update("calc.eslif", calc)

	got := doc.Hover(1, 2)
	want := "expr ::= expr '+' number rank => 0\nexpr ::= number rank => 0\n"
	if got != want {
		t.Errorf("Hover(expr) = %q, want %q", got, want)
	}
	if got := doc.Hover(3, 2); !strings.Contains(got, "number ~ /[0-9]+/") || !strings.Contains(got, "lexeme matched at level 1") {
		t.Errorf("Hover(number) = %q", got)
	}
	if got := doc.Hover(9, 0); got != "" {
		t.Errorf("Hover past the end = %q", got)
	}
}

func TestURIToPath(t *testing.T) {
	tests := []struct{ uri, want string }{
		{"file:///home/me/calc.eslif", "/home/me/calc.eslif"},
		{"file:///home/me/a%20b.ebnf", "/home/me/a b.ebnf"},
		{"untitled:1", "untitled:1"},
	}
	for _, tt := range tests {
		got, err := uriToPath(tt.uri)
		if err != nil || got != tt.want {
			t.Errorf("uriToPath(%q) = %q, %v, want %q", tt.uri, got, err, tt.want)
		}
	}
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

const ranked = `
S ::= B | A
A ::= 'x' rank => 1
B ::= 'x'
`

func run(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd.PersistentFlags().String("config", "", "")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeGrammar(t *testing.T, name, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write grammar: %v", err)
	}
	return path
}

func TestParseCmd(t *testing.T) {
	path := writeGrammar(t, "ranked.eslif", ranked)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"high rank only", []string{"--high-rank-only"}, "(S (A \"x\"))\n"},
		{"ordered", []string{"--ambiguous", "--order-by-rank"}, "(S (A \"x\"))\n(S (B \"x\"))\n"},
		{"bounded", []string{"--ambiguous", "--max", "1"}, "(S (B \"x\"))\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{path}, tt.args...)
			out, err := run(t, newParseCmd(), "x", args...)
			if err != nil {
				t.Fatalf("parse: %v\n%s", err, out)
			}
			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}

	if _, err := run(t, newParseCmd(), "x", path); err == nil {
		t.Errorf("an ambiguous parse without --ambiguous should fail")
	}
}

func TestParseCmdProfile(t *testing.T) {
	path := writeGrammar(t, "ranked.eslif", ranked)
	profile := writeGrammar(t, "profile.toml", "[value]\nambiguous = true\nmax_parses = 1\n")
	input := writeGrammar(t, "input.txt", "x")

	out, err := run(t, newParseCmd(), "", path, input, "--config", profile)
	if err != nil {
		t.Fatalf("parse: %v\n%s", err, out)
	}
	if out != "(S (B \"x\"))\n" {
		t.Errorf("output = %q", out)
	}
}

func TestCheckCmd(t *testing.T) {
	good := writeGrammar(t, "calc.ebnf", "Sum = number { \"+\" number } .\nnumber = \"0\" … \"9\" .\n")
	out, err := run(t, newCheckCmd(), "", good)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Grammar level 1: 1 rules") {
		t.Errorf("output = %q", out)
	}

	bad := writeGrammar(t, "bad.ebnf", "A = B .\nC = \"c\" .\n")
	out, err = run(t, newCheckCmd(), "", bad, "--start", "A")
	if err == nil {
		t.Fatalf("check of a bad grammar should fail")
	}
	if lines := strings.Count(out, "\n"); lines < 2 {
		t.Errorf("expected one line per error, got %q", out)
	}
}

func TestShowCmd(t *testing.T) {
	path := writeGrammar(t, "ranked.eslif", ranked)
	out, err := run(t, newShowCmd(), "", path, "--level", "0")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "A ::= 'x' rank => 1\n") {
		t.Errorf("output = %q", out)
	}

	out, err = run(t, newShowCmd(), "", path, "-f", "line")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "rule\t0\t2\t1\tA ::= 'x'\n") {
		t.Errorf("output = %q", out)
	}
}

package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dhamidi/eslif/recognizer"
)

const profile = `
[grammar]
discard = ["ws"]

[recognizer]
encoding = "ISO-8859-1"
exhaustion = true
threshold = "1MiB"

[value]
ambiguous = true
order_by_rank = true
max_parses = 3

[log]
verbosity = 2
`

func TestDecode(t *testing.T) {
	cfg, err := Decode(strings.NewReader(profile))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	rc := cfg.ReaderConfig()
	if rc.Encoding != "ISO-8859-1" || !rc.Exhaustion || !rc.Newline {
		t.Errorf("reader config = %+v", rc)
	}
	if cfg.Recognizer.Threshold != 1<<20 {
		t.Errorf("threshold = %d, want 1MiB", cfg.Recognizer.Threshold)
	}

	p := cfg.Policy()
	if !p.WithAmbiguous() || !p.WithOrderByRank() || p.WithHighRankOnly() || p.WithNull() || p.MaxParses() != 3 {
		t.Errorf("policy = %+v", p)
	}
	if got := cfg.EBNF().Discard; len(got) != 1 || got[0] != "ws" {
		t.Errorf("EBNF().Discard = %v", got)
	}
	if cfg.Log.Verbosity != 2 {
		t.Errorf("verbosity = %d, want 2", cfg.Log.Verbosity)
	}
	if len(cfg.RecognizerOptions()) != 1 {
		t.Errorf("RecognizerOptions() should set the threshold")
	}
}

func TestDefault(t *testing.T) {
	cfg, err := Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if cfg.Recognizer.Threshold != Size(recognizer.DefaultThreshold) {
		t.Errorf("threshold = %d, want the default", cfg.Recognizer.Threshold)
	}
	if !cfg.Recognizer.Newline || cfg.Recognizer.Encoding != "UTF-8" {
		t.Errorf("recognizer defaults = %+v", cfg.Recognizer)
	}
	if cfg.Value.Ambiguous || cfg.Value.MaxParses != 0 {
		t.Errorf("value defaults = %+v", cfg.Value)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", "[value"},
		{"unknown key", "[value]\nmax = 3"},
		{"bad size", "[recognizer]\nthreshold = \"lots\""},
		{"negative size", "[recognizer]\nchunk_size = \"-1KiB\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(tt.src)); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}

func TestSize(t *testing.T) {
	tests := []struct {
		text string
		want Size
	}{
		{"4096", 4096},
		{"64KiB", 64 << 10},
		{"2 MiB", 2 << 20},
		{"1GiB", 1 << 30},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var s Size
			if err := s.UnmarshalText([]byte(tt.text)); err != nil {
				t.Fatalf("UnmarshalText: %v", err)
			}
			if s != tt.want {
				t.Errorf("size = %d, want %d", s, tt.want)
			}
		})
	}

	text, _ := Size(64 << 10).MarshalText()
	if string(text) != "64KiB" {
		t.Errorf("MarshalText() = %s, want 64KiB", text)
	}
	text, _ = Size(1000).MarshalText()
	if string(text) != "1000" {
		t.Errorf("MarshalText() = %s, want 1000", text)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.toml")
	if err := os.WriteFile(path, []byte(profile), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	t.Setenv(EnvVar, path)
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Value.MaxParses != 3 {
		t.Errorf("max_parses = %d, want 3", cfg.Value.MaxParses)
	}

	var buf bytes.Buffer
	if err := cfg.Encode(&buf); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	again, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode of encoded profile: %v\n%s", err, buf.String())
	}
	if again.Recognizer.Threshold != cfg.Recognizer.Threshold || again.Value != cfg.Value {
		t.Errorf("encoded profile does not decode to the same settings:\n%s", buf.String())
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Errorf("missing file should be an error")
	}
}

// Package config reads run profiles: TOML files holding the recognizer,
// valuation and logging settings of a parse.
//
//	[grammar]
//	discard = ["ws"]
//
//	[recognizer]
//	encoding = "UTF-8"
//	exhaustion = true
//	threshold = "1MiB"
//
//	[value]
//	ambiguous = true
//	order_by_rank = true
//	max_parses = 10
//
//	[log]
//	verbosity = 1
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/dhamidi/eslif/ebnf"
	"github.com/dhamidi/eslif/recognizer"
	"github.com/dhamidi/eslif/value"
)

// EnvVar names the environment variable LoadFromEnv reads.
const EnvVar = "ESLIF_CONFIG"

// Config is a run profile.
type Config struct {
	Grammar    GrammarConfig    `toml:"grammar"`
	Recognizer RecognizerConfig `toml:"recognizer"`
	Value      ValueConfig      `toml:"value"`
	Log        LogConfig        `toml:"log"`
}

// GrammarConfig applies to grammars loaded from EBNF files.
type GrammarConfig struct {
	Start   string   `toml:"start"`
	Discard []string `toml:"discard"`
}

// RecognizerConfig holds the reader flags and the read-ahead threshold.
type RecognizerConfig struct {
	Binary           bool   `toml:"binary"`
	Encoding         string `toml:"encoding"`
	Exhaustion       bool   `toml:"exhaustion"`
	Newline          bool   `toml:"newline"`
	DisableThreshold bool   `toml:"disable_threshold"`
	Threshold        Size   `toml:"threshold"`
	ChunkSize        Size   `toml:"chunk_size"`
}

// ValueConfig holds the valuation policy.
type ValueConfig struct {
	Ambiguous    bool `toml:"ambiguous"`
	Null         bool `toml:"null"`
	HighRankOnly bool `toml:"high_rank_only"`
	OrderByRank  bool `toml:"order_by_rank"`
	MaxParses    int  `toml:"max_parses"`
}

// LogConfig is passed to commonlog.Configure.
type LogConfig struct {
	Verbosity int    `toml:"verbosity"`
	Path      string `toml:"path"`
}

// Size is a byte count written as a plain number or with a KiB, MiB or
// GiB suffix.
type Size int

// UnmarshalText parses a size such as "4096" or "64KiB".
func (s *Size) UnmarshalText(text []byte) error {
	str := strings.TrimSpace(string(text))
	mult := 1
	for _, unit := range []struct {
		suffix string
		mult   int
	}{{"KiB", 1 << 10}, {"MiB", 1 << 20}, {"GiB", 1 << 30}} {
		if strings.HasSuffix(str, unit.suffix) {
			str = strings.TrimSpace(strings.TrimSuffix(str, unit.suffix))
			mult = unit.mult
			break
		}
	}
	n, err := strconv.Atoi(str)
	if err != nil || n < 0 {
		return fmt.Errorf("invalid size %q", text)
	}
	*s = Size(n * mult)
	return nil
}

// MarshalText formats the size with the largest exact unit.
func (s Size) MarshalText() ([]byte, error) {
	n := int(s)
	for _, unit := range []struct {
		suffix string
		mult   int
	}{{"GiB", 1 << 30}, {"MiB", 1 << 20}, {"KiB", 1 << 10}} {
		if n != 0 && n%unit.mult == 0 {
			return []byte(strconv.Itoa(n/unit.mult) + unit.suffix), nil
		}
	}
	return []byte(strconv.Itoa(n)), nil
}

// Default returns the profile used when no file is given.
func Default() *Config {
	return &Config{
		Recognizer: RecognizerConfig{
			Encoding:  "UTF-8",
			Newline:   true,
			Threshold: Size(recognizer.DefaultThreshold),
		},
	}
}

// Load reads a profile from a TOML file. Settings absent from the file keep
// their default.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	cfg, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// LoadFromEnv loads the file named by ESLIF_CONFIG, or returns the default
// profile when the variable is unset.
func LoadFromEnv() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// Decode reads a profile. Unknown keys are rejected.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Recognizer.Threshold == 0 {
		c.Recognizer.Threshold = Size(recognizer.DefaultThreshold)
	}
}

// Encode writes the profile as TOML.
func (c *Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Policy returns a fresh valuation policy.
func (c *Config) Policy() *value.Options {
	return &value.Options{
		Ambiguous:    c.Value.Ambiguous,
		Null:         c.Value.Null,
		HighRankOnly: c.Value.HighRankOnly,
		OrderByRank:  c.Value.OrderByRank,
		Max:          c.Value.MaxParses,
	}
}

// ReaderConfig returns the flags of readers created for this profile.
func (c *Config) ReaderConfig() recognizer.ReaderConfig {
	return recognizer.ReaderConfig{
		Binary:           c.Recognizer.Binary,
		Encoding:         c.Recognizer.Encoding,
		DisableThreshold: c.Recognizer.DisableThreshold,
		Exhaustion:       c.Recognizer.Exhaustion,
		Newline:          c.Recognizer.Newline,
		ChunkSize:        int(c.Recognizer.ChunkSize),
	}
}

// RecognizerOptions returns the options of recognizers created for this
// profile.
func (c *Config) RecognizerOptions() []recognizer.Option {
	return []recognizer.Option{recognizer.WithThreshold(int(c.Recognizer.Threshold))}
}

// EBNF returns the options used to convert EBNF grammars.
func (c *Config) EBNF() ebnf.Options {
	return ebnf.Options{Start: c.Grammar.Start, Discard: c.Grammar.Discard}
}

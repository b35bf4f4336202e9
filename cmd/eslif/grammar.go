package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dhamidi/eslif"
	"github.com/dhamidi/eslif/config"
	"github.com/dhamidi/eslif/ebnf"
)

const configEnvVar = config.EnvVar

// loadConfig reads the profile named by --config, falling back to the
// environment, and applies the EBNF flags of cmd when they were given.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}
	if f := cmd.Flags().Lookup("start"); f != nil && f.Changed {
		cfg.Grammar.Start = f.Value.String()
	}
	if f := cmd.Flags().Lookup("discard"); f != nil && f.Changed {
		cfg.Grammar.Discard, _ = cmd.Flags().GetStringSlice("discard")
	}
	return cfg, nil
}

func addGrammarFlags(cmd *cobra.Command) {
	cmd.Flags().String("start", "", "start production of EBNF grammars")
	cmd.Flags().StringSlice("discard", nil, "productions skipped between tokens of EBNF grammars")
}

func loadGrammar(path string, cfg *config.Config) (*eslif.ESLIF, *eslif.Grammar, error) {
	e := eslif.New(eslif.WithEBNF(cfg.EBNF()))
	g, err := e.LoadGrammar(path)
	if err != nil {
		e.Close()
		return nil, nil, err
	}
	return e, g, nil
}

func printErrors(w io.Writer, err error) {
	for _, e := range ebnf.Errors(err) {
		fmt.Fprintln(w, e)
	}
}

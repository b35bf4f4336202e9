package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dhamidi/eslif/config"
	"github.com/dhamidi/eslif/format"
	"github.com/dhamidi/eslif/recognizer"
	"github.com/dhamidi/eslif/value"
)

func newParseCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "parse <grammar> [input]",
		Short: "Parse a file (or standard input) and print its values",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyParseFlags(cmd.Flags(), cfg)

			enc, err := format.New(outputFormat, cmd.OutOrStdout())
			if err != nil {
				return err
			}

			e, g, err := loadGrammar(args[0], cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			var in io.Reader = cmd.InOrStdin()
			if len(args) == 2 && args[1] != "-" {
				f, err := os.Open(args[1])
				if err != nil {
					return fmt.Errorf("open input: %w", err)
				}
				defer f.Close()
				in = f
			}

			reader := recognizer.NewStreamReader(in, cfg.ReaderConfig())
			values, err := g.Parse(reader, cfg.Policy(), nil, cfg.RecognizerOptions()...)
			if err != nil {
				return err
			}
			for _, v := range values {
				if err := enc.Encode(v.(*value.Tree)); err != nil {
					return fmt.Errorf("encode: %w", err)
				}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&outputFormat, "format", "f", "sexp", "output format (sexp, json, line)")
	flags.Bool("ambiguous", false, "print every derivation of an ambiguous parse")
	flags.Bool("null", false, "accept a parse of the empty input")
	flags.Bool("high-rank-only", false, "keep only the best ranked alternatives")
	flags.Bool("order-by-rank", false, "print derivations best rank first")
	flags.Int("max", 0, "print at most this many derivations (0 means all)")
	flags.Bool("exhaustion", false, "stop at the longest parsable prefix instead of failing")
	flags.Bool("binary", false, "match the input byte for byte")
	flags.String("encoding", "", "character encoding of the input")
	flags.Bool("disable-threshold", false, "let terminals read ahead without limit")
	addGrammarFlags(cmd)

	return cmd
}

// applyParseFlags overrides profile settings with the flags given on the
// command line.
func applyParseFlags(flags *pflag.FlagSet, cfg *config.Config) {
	setBool := func(name string, dst *bool) {
		if flags.Changed(name) {
			*dst, _ = flags.GetBool(name)
		}
	}
	setBool("ambiguous", &cfg.Value.Ambiguous)
	setBool("null", &cfg.Value.Null)
	setBool("high-rank-only", &cfg.Value.HighRankOnly)
	setBool("order-by-rank", &cfg.Value.OrderByRank)
	setBool("exhaustion", &cfg.Recognizer.Exhaustion)
	setBool("binary", &cfg.Recognizer.Binary)
	setBool("disable-threshold", &cfg.Recognizer.DisableThreshold)
	if flags.Changed("max") {
		cfg.Value.MaxParses, _ = flags.GetInt("max")
	}
	if flags.Changed("encoding") {
		cfg.Recognizer.Encoding, _ = flags.GetString("encoding")
	}
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/eslif/format"
)

func newShowCmd() *cobra.Command {
	var outputFormat string
	var level int

	cmd := &cobra.Command{
		Use:   "show <grammar>",
		Short: "Print a compiled grammar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			e, g, err := loadGrammar(args[0], cfg)
			if err != nil {
				return err
			}
			defer e.Close()

			if level >= 0 {
				text, err := g.Describe(level)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), text)
				return nil
			}

			enc, err := format.New(outputFormat, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := enc.EncodeGrammar(g.Grammar); err != nil {
				return fmt.Errorf("encode grammar: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "sexp", "output format (sexp, json, line)")
	cmd.Flags().IntVarP(&level, "level", "l", -1, "only show this level, in grammar syntax")
	addGrammarFlags(cmd)

	return cmd
}

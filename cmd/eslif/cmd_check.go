package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "check <grammar>",
		Short:         "Compile a grammar and report its errors",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			e, g, err := loadGrammar(args[0], cfg)
			if err != nil {
				printErrors(cmd.ErrOrStderr(), err)
				return err
			}
			defer e.Close()

			for i := 0; i < g.LevelCount(); i++ {
				rules, _ := g.RulesAt(i)
				desc, _ := g.Description(i)
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rules\n", desc, len(rules))
			}
			return nil
		},
	}

	addGrammarFlags(cmd)

	return cmd
}

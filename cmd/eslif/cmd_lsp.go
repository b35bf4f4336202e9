package main

import (
	"github.com/spf13/cobra"

	"github.com/dhamidi/eslif/lsp"
)

func newLSPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server for grammar files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			server := lsp.NewServer(version, cfg.EBNF())
			return server.RunStdio()
		},
	}

	addGrammarFlags(cmd)

	return cmd
}

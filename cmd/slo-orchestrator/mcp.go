package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/miradorstack/mirador-slo/internal/mcp"
)

func newMCPCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the query tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// stdout carries the protocol; logs go to stderr.
			a, err := buildApp(cmd.Context(), *configPath, os.Stderr, true)
			if err != nil {
				return err
			}
			a.logger.Info("mcp stdio server starting")
			return mcp.New(a.service, a.logger, version).ServeStdio()
		},
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "slo-orchestrator",
		Short: "Answer natural-language reliability questions from SLO data",
		Long: `slo-orchestrator classifies a reliability question into SLO intents, resolves
its time window and service, queries the error-budget statistics API and the
learned behaviour-pattern store, and returns one aggregated JSON document.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file (default $MIRADOR_SLO_CONFIG)")

	root.AddCommand(
		newServeCommand(&configPath),
		newAskCommand(&configPath),
		newMCPCommand(&configPath),
		newServicesCommand(&configPath),
		newResolveTimeCommand(&configPath),
	)
	return root
}

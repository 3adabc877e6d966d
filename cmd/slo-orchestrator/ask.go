package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/miradorstack/mirador-slo/internal/models"
)

func newAskCommand(configPath *string) *cobra.Command {
	var service string
	var compact bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question and print the aggregated JSON",
		Example: `  slo-orchestrator ask "why did payments degrade yesterday?"
  slo-orchestrator ask --service checkout "how much error budget is left this week?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context(), *configPath, os.Stderr, true)
			if err != nil {
				return err
			}
			resp, err := a.service.Query(cmd.Context(), models.QueryRequest{
				Query:   strings.Join(args, " "),
				Service: service,
			})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			if !compact {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(resp)
		},
	}
	cmd.Flags().StringVar(&service, "service", "", "service name; overrides any service mentioned in the question")
	cmd.Flags().BoolVar(&compact, "compact", false, "print single-line JSON")
	return cmd
}

package main

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/miradorstack/mirador-slo/internal/utils"
)

func newResolveTimeCommand(configPath *string) *cobra.Command {
	var nowMS int64

	cmd := &cobra.Command{
		Use:   "resolve-time <expression>",
		Short: "Show the window a time expression resolves to",
		Example: `  slo-orchestrator resolve-time past_3_days
  slo-orchestrator resolve-time --now 1705492800000 "from 2024-01-01 to 2024-01-07"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context(), *configPath, os.Stderr, false)
			if err != nil {
				return err
			}
			expression := strings.Join(args, " ")
			resolution, err := a.service.ResolveWindow(expression, nowMS)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"expression":      expression,
				"time_resolution": resolution,
				"start":           utils.FromMillis(resolution.StartTime).Format(time.RFC3339),
				"end":             utils.FromMillis(resolution.EndTime).Format(time.RFC3339),
			})
		},
	}
	cmd.Flags().Int64Var(&nowMS, "now", 0, "anchor time in epoch milliseconds (default: current time)")
	return cmd
}

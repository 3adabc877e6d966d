package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/miradorstack/mirador-slo/internal/tables"
)

func newServicesCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "services",
		Short: "Manage and inspect the service catalog",
	}
	cmd.AddCommand(newServicesSyncCommand(configPath), newServicesMatchCommand(configPath))
	return cmd
}

func newServicesSyncCommand(configPath *string) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Rebuild the services file from the pattern store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd.Context(), *configPath, os.Stderr, false)
			if err != nil {
				return err
			}
			target := output
			if target == "" {
				target = a.cfg.Tables.Services
			}

			discovered, err := a.patterns.FetchServices(cmd.Context(), a.cfg.App.ID)
			if err != nil {
				return err
			}
			catalog := tables.Catalog{ApplicationID: a.cfg.App.ID, Services: discovered}
			if err := tables.WriteCatalog(target, catalog, time.Now()); err != nil {
				return err
			}
			a.logger.Info("service catalog written", slog.String("path", target), slog.Int("services", len(discovered)))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d services for application %d to %s\n", len(discovered), a.cfg.App.ID, target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default tables.services)")
	return cmd
}

func newServicesMatchCommand(configPath *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "match <name>",
		Short: "Rank catalog services against a name",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(cmd.Context(), *configPath, os.Stderr, false)
			if err != nil {
				return err
			}
			name := strings.Join(args, " ")
			matches := a.service.MatchServices(name, limit)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"name":    name,
				"found":   len(matches) > 0,
				"matches": matches,
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 5, "maximum number of matches")
	return cmd
}

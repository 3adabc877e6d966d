package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/miradorstack/mirador-slo/internal/classifier"
	"github.com/miradorstack/mirador-slo/internal/config"
	"github.com/miradorstack/mirador-slo/internal/engine"
	"github.com/miradorstack/mirador-slo/internal/models"
	"github.com/miradorstack/mirador-slo/internal/repo"
	"github.com/miradorstack/mirador-slo/internal/services"
	"github.com/miradorstack/mirador-slo/internal/tables"
	"github.com/miradorstack/mirador-slo/internal/utils"
)

// app holds the wired components shared by the subcommands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	tables   *tables.Tables
	patterns *repo.ClickHouseRepo
	service  *services.QueryService
}

// buildApp loads configuration and wires the pipeline. Commands that never
// classify pass withClassifier=false so they run without model credentials.
func buildApp(ctx context.Context, configPath string, logSink io.Writer, withClassifier bool) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := utils.NewLoggerTo(logSink, cfg.Logging.Level, cfg.Logging.JSON)

	tbl, err := tables.Load(tables.Paths{
		Categories: cfg.Tables.Categories,
		Enrichment: cfg.Tables.Enrichment,
		Services:   cfg.Tables.Services,
	})
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}

	var cls engine.Classifier
	if withClassifier {
		c, err := classifier.New(ctx, cfg.Classifier, tbl.Categories(), logger)
		if err != nil {
			return nil, fmt.Errorf("create classifier: %w", err)
		}
		cls = c
	}

	patterns := repo.NewClickHouseRepo(
		cfg.Clients.Patterns.URL,
		cfg.Clients.Patterns.Database,
		cfg.Clients.Patterns.Table,
		cfg.Clients.Patterns.FeaturesTable,
		cfg.Clients.Patterns.Username,
		cfg.Clients.Patterns.Password,
		cfg.Clients.Patterns.Timeout,
	)
	stats := repo.NewStatsAPIClient(
		cfg.Clients.Stats.BaseURL,
		cfg.Clients.Stats.TransactionsPath,
		cfg.Clients.Stats.TokenURL,
		cfg.Clients.Stats.ClientID,
		cfg.Clients.Stats.Username,
		cfg.Clients.Stats.Password,
		cfg.Clients.Stats.PageSize,
		cfg.Clients.Stats.Timeout,
	)

	matcher := engine.NewServiceMatcher(tbl.Catalog().Services, cfg.Matcher.Threshold, cfg.Matcher.MaxResults)
	resolver := engine.NewTimeRangeResolver(nil)
	aggregator := engine.NewAggregator(logger, cfg.Dispatch.AdapterTimeout, map[models.DataSourceID]engine.SourceExecutor{
		models.SourcePatterns: engine.NewPatternExecutor(patterns, cfg.App.ID),
		models.SourceStatsAPI: engine.NewPointMetricsExecutor(stats, cfg.App.ID),
	}).WithConcurrency(cfg.Dispatch.MaxConcurrency)
	pipeline := engine.NewPipeline(logger, cls, tbl, resolver, matcher, aggregator, cfg.App.ID)

	logger.Debug("pipeline wired",
		slog.Int64("app_id", cfg.App.ID),
		slog.Int("services", matcher.Size()),
		slog.String("classifier", cfg.Classifier.Provider),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		tables:   tbl,
		patterns: patterns,
		service:  services.NewQueryService(logger, pipeline, matcher, resolver),
	}, nil
}

package foundry

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/siherrmann/foundry/core/pipeline"
	"github.com/siherrmann/foundry/database"
	"github.com/siherrmann/foundry/helper"
	"github.com/siherrmann/foundry/model"
)

// Foundry turns raw game export snapshots into a property graph. One Ingest
// call runs the full pipeline (normalize, resolve, taxonomy) and writes the
// result through the configured store, returning a report of what happened.
type Foundry struct {
	DB       *helper.Database
	Store    database.GraphStore
	Pipeline *pipeline.Pipeline
	// Logging
	log *slog.Logger
}

// NewFoundry creates a new Foundry instance backed by PostgreSQL
func NewFoundry(config *helper.DatabaseConfiguration) (*Foundry, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("foundry", config, logger)

	// force=false to not reload if functions already exist
	store, err := database.NewPostgresStore(db, false)
	if err != nil {
		return nil, helper.NewError("create postgres store", err)
	}

	return &Foundry{
		DB:       db,
		Store:    store,
		Pipeline: pipeline.NewPipeline(),
		log:      logger,
	}, nil
}

// NewFoundryWithStore creates a Foundry instance on top of an existing store.
// Useful for the in-memory store in tests or a Neo4j store configured from
// the environment.
func NewFoundryWithStore(store database.GraphStore) (*Foundry, error) {
	if store == nil {
		return nil, helper.NewError("store validation", fmt.Errorf("store is nil"))
	}

	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	return &Foundry{
		Store:    store,
		Pipeline: pipeline.NewPipeline(),
		log:      logger,
	}, nil
}

// Ingest runs one snapshot through the full pipeline and upserts the result.
// Malformed records and unresolvable references never abort the run; they
// are collected as diagnostics in the returned report. The report is always
// non-nil, also on failure, so callers can see which stage broke.
func (f *Foundry) Ingest(ctx context.Context, snapshot *model.Snapshot) (*model.Report, error) {
	report := model.NewReport()

	result, err := f.Pipeline.Run(ctx, snapshot)
	if err != nil {
		report.FailedStage = "pipeline"
		report.Finish()
		return report, helper.NewError("run pipeline", err)
	}
	report.AddDiagnostics(result.Diagnostics...)

	f.log.Info("Pipeline finished",
		slog.String("run_id", report.RunID.String()),
		slog.Int("weapons", len(result.Weapons)),
		slog.Int("resources", len(result.Resources)),
		slog.Int("recipes", len(result.Recipes)),
		slog.Int("categories", len(result.Categories)),
		slog.Int("edges", len(result.Edges)),
		slog.Int("diagnostics", len(result.Diagnostics)),
	)

	coordinator := database.NewCoordinator(f.Store, f.log)
	err = coordinator.Apply(ctx, result.Nodes(), result.Edges, report)
	report.Finish()
	if err != nil {
		return report, helper.NewError("apply graph", err)
	}

	f.log.Info("Ingest finished",
		slog.String("run_id", report.RunID.String()),
		slog.String("status", string(report.Status)),
	)

	return report, nil
}

// Close closes the underlying store connection
func (f *Foundry) Close(ctx context.Context) error {
	if f.Store != nil {
		return f.Store.Close(ctx)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/siherrmann/foundry"
	"github.com/siherrmann/foundry/database"
	"github.com/siherrmann/foundry/export"
	"github.com/siherrmann/foundry/helper"
	"github.com/siherrmann/foundry/model"
)

// Downloads the live export index, fetches the weapon, resource and recipe
// manifests and ingests them. With NEO4J_URI set the graph goes to Neo4j,
// otherwise it stays in memory.
func main() {
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	var store database.GraphStore
	if os.Getenv("NEO4J_URI") != "" {
		neo4jStore, err := database.NewNeo4jStoreFromEnv(logger)
		if err != nil {
			log.Fatalf("Failed to connect to Neo4j: %v", err)
		}
		store = neo4jStore
	} else {
		store = database.NewMemoryStore()
	}

	f, err := foundry.NewFoundryWithStore(store)
	if err != nil {
		log.Fatalf("Failed to create foundry: %v", err)
	}
	defer f.Close(context.Background())

	downloader := export.NewDownloader("en", logger)

	fmt.Println("Downloading export snapshot...")
	snapshot, err := downloader.FetchSnapshot(context.Background())
	if err != nil {
		log.Fatalf("Failed to download snapshot: %v", err)
	}

	fmt.Printf("Ingesting %d weapons, %d resources, %d recipes...\n",
		len(snapshot.Weapons), len(snapshot.Resources), len(snapshot.Recipes))

	report, err := f.Ingest(context.Background(), snapshot)
	if err != nil {
		log.Fatalf("Failed to ingest snapshot (stage %s): %v", report.FailedStage, err)
	}

	fmt.Printf("Run %s finished with status %s\n", report.RunID, report.Status)
	for _, kind := range model.NodeKinds {
		stats := report.NodeCounts[kind]
		fmt.Printf("  %s nodes: %d created, %d updated\n", kind, stats.Created, stats.Updated)
	}
	for _, kind := range model.EdgeKinds {
		stats := report.EdgeCounts[kind]
		fmt.Printf("  %s edges: %d created, %d updated\n", kind, stats.Created, stats.Updated)
	}
	fmt.Printf("Diagnostics: %d\n", len(report.Diagnostics))
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/siherrmann/foundry"
	"github.com/siherrmann/foundry/export"
	"github.com/siherrmann/foundry/helper"
	"github.com/siherrmann/foundry/model"
)

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	f, err := foundry.NewFoundry(dbConfig)
	if err != nil {
		log.Fatalf("Failed to create foundry: %v", err)
	}
	defer f.Close(context.Background())

	// Read manifest files (ExportWeapons_en.json etc.) from a local
	// directory, e.g. one filled by the downloader example.
	manifestDir := "data_raw"
	if len(os.Args) > 1 {
		manifestDir = os.Args[1]
	}

	snapshot, err := export.ReadSnapshotDir(manifestDir)
	if err != nil {
		log.Fatalf("Failed to read manifests from %s: %v", manifestDir, err)
	}
	if snapshot.Empty() {
		log.Fatalf("No manifest files found in %s", manifestDir)
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

	if len(report.Diagnostics) > 0 {
		fmt.Printf("Collected %d diagnostics, first ones:\n", len(report.Diagnostics))
		for i, diagnostic := range report.Diagnostics {
			if i == 10 {
				fmt.Println("  ...")
				break
			}
			fmt.Printf("  [%s/%s] %s: %s\n", diagnostic.Stage, diagnostic.Kind, diagnostic.Identifier, diagnostic.Detail)
		}
	}
}

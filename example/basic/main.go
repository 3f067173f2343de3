package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/foundry"
	"github.com/siherrmann/foundry/database"
	"github.com/siherrmann/foundry/model"
)

func main() {
	// In-memory store, no database needed
	store := database.NewMemoryStore()
	f, err := foundry.NewFoundryWithStore(store)
	if err != nil {
		log.Fatalf("Failed to create foundry: %v", err)
	}
	defer f.Close(context.Background())

	// A tiny hand-written snapshot: one weapon, one resource and the
	// recipe connecting them.
	snapshot := &model.Snapshot{
		Weapons: []model.RawRecord{
			{
				"uniqueName":      "/Weapons/Pistols/Lato",
				"name":            "Lato",
				"totalDamage":     30.0,
				"criticalChance":  0.1,
				"procChance":      0.05,
				"productCategory": "Pistols",
			},
		},
		Resources: []model.RawRecord{
			{
				"uniqueName": "/Items/MiscItems/Ferrite",
				"name":       "Ferrite",
			},
		},
		Recipes: []model.RawRecord{
			{
				"uniqueName": "/Recipes/Weapons/LatoBlueprint",
				"resultType": "/Weapons/Pistols/Lato",
				"buildPrice": 1500,
				"ingredients": []interface{}{
					map[string]interface{}{
						"ItemType":  "/Items/MiscItems/Ferrite",
						"ItemCount": 5,
					},
				},
			},
		},
	}

	fmt.Println("Ingesting snapshot...")
	report, err := f.Ingest(context.Background(), snapshot)
	if err != nil {
		log.Fatalf("Failed to ingest snapshot: %v", err)
	}

	fmt.Printf("Run %s finished with status %s\n", report.RunID, report.Status)
	for kind, stats := range report.NodeCounts {
		fmt.Printf("  %s nodes: %d created, %d updated\n", kind, stats.Created, stats.Updated)
	}
	for kind, stats := range report.EdgeCounts {
		fmt.Printf("  %s edges: %d created, %d updated\n", kind, stats.Created, stats.Updated)
	}

	// The recipe yields one Lato and consumes five Ferrite
	if properties, ok := store.Edge(model.EdgeKindRequires, "/Recipes/Weapons/LatoBlueprint", "/Items/MiscItems/Ferrite"); ok {
		fmt.Printf("LatoBlueprint requires %v Ferrite\n", properties["quantity"])
	}

	// A second ingest of the same snapshot only updates
	report, err = f.Ingest(context.Background(), snapshot)
	if err != nil {
		log.Fatalf("Failed to re-ingest snapshot: %v", err)
	}
	fmt.Printf("Re-ingest finished with status %s (weapons: %d created, %d updated)\n",
		report.Status,
		report.NodeCounts[model.NodeKindWeapon].Created,
		report.NodeCounts[model.NodeKindWeapon].Updated,
	)
}

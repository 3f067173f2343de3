package database

import (
	"context"
	"testing"

	_ "github.com/lib/pq"
	"github.com/siherrmann/foundry/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPostgresStore(t *testing.T) {
	t.Run("Valid call NewPostgresStore", func(t *testing.T) {
		database := initDB(t)
		store, err := NewPostgresStore(database, true)
		assert.NoError(t, err, "Expected NewPostgresStore to not return an error")
		require.NotNil(t, store, "Expected NewPostgresStore to return a non-nil instance")
		require.NotNil(t, store.db, "Expected NewPostgresStore to have a non-nil database instance")
		require.NotNil(t, store.db.Instance, "Expected NewPostgresStore to have a non-nil database connection instance")
	})

	t.Run("Invalid call NewPostgresStore with nil database", func(t *testing.T) {
		_, err := NewPostgresStore(nil, false)
		assert.Error(t, err, "Expected error when creating PostgresStore with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestPostgresUpsertNodes(t *testing.T) {
	ctx := context.Background()
	store := initStore(t)

	t.Run("Insert and update a node batch", func(t *testing.T) {
		nodes := []*model.Node{
			{Kind: model.NodeKindWeapon, Identifier: "/Weapons/Lato", Properties: model.Properties{"name": "Lato", "totalDamage": 30.0}},
			{Kind: model.NodeKindWeapon, Identifier: "/Weapons/Braton", Properties: model.Properties{"name": "Braton"}},
		}

		stats, err := store.UpsertNodes(ctx, model.NodeKindWeapon, nodes)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Created)
		assert.Equal(t, 0, stats.Updated)

		stats, err = store.UpsertNodes(ctx, model.NodeKindWeapon, nodes)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Created)
		assert.Equal(t, 2, stats.Updated)

		count, err := store.CountNodes(ctx, model.NodeKindWeapon)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count, "Expected re-upsert to not create duplicate rows")
	})

	t.Run("Upsert fully replaces the property bag", func(t *testing.T) {
		first := []*model.Node{
			{Kind: model.NodeKindResource, Identifier: "/Items/Ferrite", Properties: model.Properties{"name": "Ferrite", "old": true}},
		}
		_, err := store.UpsertNodes(ctx, model.NodeKindResource, first)
		require.NoError(t, err)

		second := []*model.Node{
			{Kind: model.NodeKindResource, Identifier: "/Items/Ferrite", Properties: model.Properties{"name": "Ferrite Prime"}},
		}
		_, err = store.UpsertNodes(ctx, model.NodeKindResource, second)
		require.NoError(t, err)

		node, err := store.SelectNode(ctx, model.NodeKindResource, "/Items/Ferrite")
		require.NoError(t, err)
		assert.Equal(t, "Ferrite Prime", node.Properties["name"])
		assert.NotContains(t, node.Properties, "old", "Expected full replace, not merge")
	})

	t.Run("Empty batch is a no-op", func(t *testing.T) {
		stats, err := store.UpsertNodes(ctx, model.NodeKindRecipe, nil)
		assert.NoError(t, err)
		assert.Equal(t, model.UpsertStats{}, stats)
	})
}

func TestPostgresUpsertEdges(t *testing.T) {
	ctx := context.Background()
	store := initStore(t)

	t.Run("Insert edge and overwrite its weight", func(t *testing.T) {
		edges := []*model.Edge{
			{
				Kind:       model.EdgeKindRequires,
				SourceKind: model.NodeKindRecipe,
				SourceID:   "/Recipes/LatoBlueprint",
				TargetKind: model.NodeKindResource,
				TargetID:   "/Items/Ferrite",
				Quantity:   5,
			},
		}

		stats, err := store.UpsertEdges(ctx, model.EdgeKindRequires, edges)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Created)

		edges[0].Quantity = 7
		stats, err = store.UpsertEdges(ctx, model.EdgeKindRequires, edges)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Updated)

		edge, properties, err := store.SelectEdge(ctx, model.EdgeKindRequires, "/Recipes/LatoBlueprint", "/Items/Ferrite")
		require.NoError(t, err)
		assert.Equal(t, int64(7), edge.Quantity, "Expected weight overwrite, not parallel edges")
		assert.Contains(t, properties, "quantity")

		count, err := store.CountEdges(ctx, model.EdgeKindRequires)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("Membership edges carry no properties", func(t *testing.T) {
		edges := []*model.Edge{
			{
				Kind:       model.EdgeKindBelongsTo,
				SourceKind: model.NodeKindWeapon,
				SourceID:   "/Weapons/Lato",
				TargetKind: model.NodeKindCategory,
				TargetID:   "Pistols",
			},
		}

		_, err := store.UpsertEdges(ctx, model.EdgeKindBelongsTo, edges)
		require.NoError(t, err)

		_, properties, err := store.SelectEdge(ctx, model.EdgeKindBelongsTo, "/Weapons/Lato", "Pistols")
		require.NoError(t, err)
		assert.Empty(t, properties, "Expected membership edges to be propertyless")
	})
}

func TestPostgresSelectIdentifiers(t *testing.T) {
	ctx := context.Background()
	store := initStore(t)

	t.Run("Identifiers are returned sorted per kind", func(t *testing.T) {
		nodes := []*model.Node{
			{Kind: model.NodeKindCategory, Identifier: "Rifles", Properties: model.Properties{"name": "Rifles"}},
			{Kind: model.NodeKindCategory, Identifier: "Pistols", Properties: model.Properties{"name": "Pistols"}},
		}
		_, err := store.UpsertNodes(ctx, model.NodeKindCategory, nodes)
		require.NoError(t, err)

		identifiers, err := store.SelectIdentifiers(ctx, model.NodeKindCategory)
		require.NoError(t, err)
		assert.Equal(t, []string{"Pistols", "Rifles"}, identifiers)
	})

	t.Run("Kind without nodes yields empty list", func(t *testing.T) {
		identifiers, err := store.SelectIdentifiers(ctx, model.NodeKind("Unknown"))
		assert.NoError(t, err)
		assert.Empty(t, identifiers)
	})
}

func TestPostgresClear(t *testing.T) {
	ctx := context.Background()
	store := initStore(t)

	t.Run("Removes all nodes and edges", func(t *testing.T) {
		_, err := store.UpsertNodes(ctx, model.NodeKindWeapon, []*model.Node{
			{Kind: model.NodeKindWeapon, Identifier: "/Weapons/Clearable", Properties: model.Properties{"name": "Clearable"}},
		})
		require.NoError(t, err)
		_, err = store.UpsertEdges(ctx, model.EdgeKindBuilds, []*model.Edge{
			{
				Kind:       model.EdgeKindBuilds,
				SourceKind: model.NodeKindRecipe,
				SourceID:   "/Recipes/Clearable",
				TargetKind: model.NodeKindWeapon,
				TargetID:   "/Weapons/Clearable",
				Quantity:   1,
			},
		})
		require.NoError(t, err)

		require.NoError(t, store.Clear(ctx))

		count, err := store.CountNodes(ctx, model.NodeKindWeapon)
		require.NoError(t, err)
		assert.Zero(t, count)

		count, err = store.CountEdges(ctx, model.EdgeKindBuilds)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("Cleared store accepts fresh writes as created", func(t *testing.T) {
		nodes := []*model.Node{
			{Kind: model.NodeKindWeapon, Identifier: "/Weapons/Clearable", Properties: model.Properties{"name": "Clearable"}},
		}

		_, err := store.UpsertNodes(ctx, model.NodeKindWeapon, nodes)
		require.NoError(t, err)
		require.NoError(t, store.Clear(ctx))

		stats, err := store.UpsertNodes(ctx, model.NodeKindWeapon, nodes)
		require.NoError(t, err)
		assert.Equal(t, model.UpsertStats{Created: 1}, stats)
	})
}

func TestPostgresCoordinator(t *testing.T) {
	ctx := context.Background()

	t.Run("Full apply is idempotent end to end", func(t *testing.T) {
		store := initStore(t)
		_, err := store.db.Instance.Exec(`TRUNCATE nodes, edges;`)
		require.NoError(t, err)
		coordinator := testCoordinator(store)

		require.NoError(t, coordinator.Apply(ctx, testNodes(), testEdges(), model.NewReport()))

		report := model.NewReport()
		require.NoError(t, coordinator.Apply(ctx, testNodes(), testEdges(), report))

		assert.Equal(t, model.UpsertStats{Updated: 1}, report.NodeCounts[model.NodeKindWeapon])
		assert.Equal(t, model.UpsertStats{Updated: 1}, report.EdgeCounts[model.EdgeKindBuilds])
		assert.Empty(t, report.Stale)
	})
}

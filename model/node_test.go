package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeProperties(t *testing.T) {
	node := &Node{
		Kind:       NodeKindWeapon,
		Identifier: "/Lotus/Weapons/Tenno/Pistol/Pistol",
		Properties: Properties{
			"name":           "Lato",
			"totalDamage":    float64(30),
			"magazineSize":   int64(15),
			"codexSecret":    false,
			"criticalChance": 0.1,
		},
	}

	t.Run("String property", func(t *testing.T) {
		assert.Equal(t, "Lato", node.StringProperty("name"))
		assert.Equal(t, "", node.StringProperty("missing"), "Expected missing property to default to empty string")
		assert.Equal(t, "", node.StringProperty("magazineSize"), "Expected wrong-typed property to default to empty string")
	})

	t.Run("Float property", func(t *testing.T) {
		assert.Equal(t, float64(30), node.FloatProperty("totalDamage"))
		assert.Equal(t, float64(15), node.FloatProperty("magazineSize"), "Expected int property to convert to float")
		assert.Equal(t, float64(0), node.FloatProperty("missing"))
	})

	t.Run("Int property", func(t *testing.T) {
		assert.Equal(t, int64(15), node.IntProperty("magazineSize"))
		assert.Equal(t, int64(30), node.IntProperty("totalDamage"), "Expected float property to convert to int")
		assert.Equal(t, int64(0), node.IntProperty("missing"))
	})

	t.Run("Bool property", func(t *testing.T) {
		assert.False(t, node.BoolProperty("codexSecret"))
		assert.False(t, node.BoolProperty("missing"))
	})
}

func TestEdgeProperties(t *testing.T) {
	t.Run("Quantity is carried as edge property", func(t *testing.T) {
		edge := &Edge{
			Kind:       EdgeKindRequires,
			SourceKind: NodeKindRecipe,
			SourceID:   "/Lotus/Types/Recipes/WeaponBlueprint",
			TargetKind: NodeKindResource,
			TargetID:   "/Lotus/Types/Items/MiscItems/Ferrite",
			Quantity:   500,
		}

		props := edge.EdgeProperties()
		assert.Equal(t, int64(500), props["quantity"], "Expected quantity to be carried as edge property")
	})
}

func TestSnapshotEmpty(t *testing.T) {
	t.Run("Empty snapshot", func(t *testing.T) {
		snap := &Snapshot{}
		assert.True(t, snap.Empty())
	})

	t.Run("Snapshot with one record", func(t *testing.T) {
		snap := &Snapshot{Recipes: []RawRecord{{"uniqueName": "x"}}}
		assert.False(t, snap.Empty())
	})
}

package pipeline

import (
	"fmt"
	"strings"

	"github.com/siherrmann/foundry/model"
)

// identifierIndex maps identifiers to the kind of node carrying them.
// When an identifier exists in several kinds, the earliest given set wins,
// so the set order of buildIndex decides the lookup precedence.
type identifierIndex map[string]model.NodeKind

func buildIndex(sets ...[]*model.Node) identifierIndex {
	index := identifierIndex{}
	for _, set := range sets {
		for _, node := range set {
			if _, ok := index[node.Identifier]; !ok {
				index[node.Identifier] = node.Kind
			}
		}
	}
	return index
}

// ResolveReferences resolves every declared reference of the normalized node
// sets into a directed edge candidate:
//   - a recipe's resultType is looked up Weapon-first in the union of the
//     Weapon and Resource identifier spaces and yields one BUILDS edge
//     weighted by the recipe's output quantity (defaulting to 1),
//   - each ingredient is looked up Resource-first with a cross-kind fallback
//     and yields one REQUIRES edge weighted by its declared quantity.
//
// A reference to a non-existent identifier yields a dangling-reference
// diagnostic and no edge; one bad ingredient never invalidates the rest of
// the recipe. Duplicate (recipe, target) ingredient pairs are merged by
// summing quantities. The output order is deterministic in the input order,
// so re-runs on unchanged input produce identical edge sets.
func ResolveReferences(weapons, resources, recipes []*model.Node) ([]*model.Edge, []model.Diagnostic) {
	buildsIndex := buildIndex(weapons, resources, recipes)
	requiresIndex := buildIndex(resources, weapons, recipes)

	var edges []*model.Edge
	var diagnostics []model.Diagnostic

	for _, recipe := range recipes {
		if edge, diagnostic := resolveBuilds(buildsIndex, recipe); diagnostic != nil {
			diagnostics = append(diagnostics, *diagnostic)
		} else if edge != nil {
			edges = append(edges, edge)
		}

		requires, requiresDiags := resolveRequires(requiresIndex, recipe)
		edges = append(edges, requires...)
		diagnostics = append(diagnostics, requiresDiags...)
	}

	return edges, diagnostics
}

// resolveBuilds resolves the recipe's resultType into a BUILDS edge.
// Lookup order is Weapon then Resource; a recipe without a resultType or
// with an unresolvable one is a dangling reference.
func resolveBuilds(index identifierIndex, recipe *model.Node) (*model.Edge, *model.Diagnostic) {
	resultType := strings.TrimSpace(recipe.StringProperty("resultType"))
	if resultType == "" {
		return nil, &model.Diagnostic{
			Stage:      model.StageResolve,
			Kind:       model.DiagnosticDanglingReference,
			Identifier: recipe.Identifier,
			Detail:     "recipe has no resultType",
		}
	}

	kind, ok := index[resultType]
	if !ok || (kind != model.NodeKindWeapon && kind != model.NodeKindResource) {
		return nil, &model.Diagnostic{
			Stage:      model.StageResolve,
			Kind:       model.DiagnosticDanglingReference,
			Identifier: recipe.Identifier,
			Detail:     fmt.Sprintf("resultType %s does not resolve to a weapon or resource", resultType),
		}
	}

	quantity := recipe.IntProperty("num")
	if quantity <= 0 {
		quantity = 1
	}

	return &model.Edge{
		Kind:       model.EdgeKindBuilds,
		SourceKind: model.NodeKindRecipe,
		SourceID:   recipe.Identifier,
		TargetKind: kind,
		TargetID:   resultType,
		Quantity:   quantity,
	}, nil
}

// resolveRequires resolves the recipe's ingredient list into REQUIRES edges,
// merging duplicate targets by summing quantities in first-seen order.
func resolveRequires(index identifierIndex, recipe *model.Node) ([]*model.Edge, []model.Diagnostic) {
	var edges []*model.Edge
	var diagnostics []model.Diagnostic
	merged := map[string]*model.Edge{}

	for _, ingredient := range recipe.Ingredients {
		if existing, ok := merged[ingredient.ItemType]; ok {
			existing.Quantity += ingredient.ItemCount
			continue
		}

		kind, ok := index[ingredient.ItemType]
		if !ok {
			diagnostics = append(diagnostics, model.Diagnostic{
				Stage:      model.StageResolve,
				Kind:       model.DiagnosticDanglingReference,
				Identifier: recipe.Identifier,
				Detail:     fmt.Sprintf("ingredient %s does not resolve to any node", ingredient.ItemType),
			})
			continue
		}

		edge := &model.Edge{
			Kind:       model.EdgeKindRequires,
			SourceKind: model.NodeKindRecipe,
			SourceID:   recipe.Identifier,
			TargetKind: kind,
			TargetID:   ingredient.ItemType,
			Quantity:   ingredient.ItemCount,
		}
		merged[ingredient.ItemType] = edge
		edges = append(edges, edge)
	}

	return edges, diagnostics
}

package pipeline

import (
	"context"
	"fmt"

	"github.com/siherrmann/foundry/model"
	"golang.org/x/sync/errgroup"
)

// NormalizeFunc maps raw per-category records into canonical nodes.
// It never fails as a whole: bad records become diagnostics.
type NormalizeFunc func(kind model.NodeKind, records []model.RawRecord) ([]*model.Node, []model.Diagnostic)

// ResolveFunc resolves string-keyed references across the full normalized
// node sets into edge candidates plus diagnostics for dangling references.
type ResolveFunc func(weapons, resources, recipes []*model.Node) ([]*model.Edge, []model.Diagnostic)

// TaxonomyFunc derives Category nodes and BELONGS_TO edges from the category
// labels of the given item nodes.
type TaxonomyFunc func(items []*model.Node) ([]*model.Node, []*model.Edge, []model.Diagnostic)

// Pipeline combines the normalization, resolution and taxonomy stages
type Pipeline struct {
	Normalizer NormalizeFunc
	Resolver   ResolveFunc
	Taxonomy   TaxonomyFunc
}

// NewPipeline creates a pipeline with the default stage implementations
func NewPipeline() *Pipeline {
	return &Pipeline{
		Normalizer: NormalizeRecords,
		Resolver:   ResolveReferences,
		Taxonomy:   BuildTaxonomy,
	}
}

// Result contains the normalized node sets, the resolved edge set and all
// diagnostics collected across the stages.
type Result struct {
	Weapons    []*model.Node
	Resources  []*model.Node
	Recipes    []*model.Node
	Categories []*model.Node
	Edges      []*model.Edge
	// Diagnostics from all stages in stable order:
	// normalize (weapons, resources, recipes), resolve, taxonomy.
	Diagnostics []model.Diagnostic
}

// Nodes returns all nodes of the result grouped by kind, in store write order.
func (r *Result) Nodes() map[model.NodeKind][]*model.Node {
	return map[model.NodeKind][]*model.Node{
		model.NodeKindCategory: r.Categories,
		model.NodeKindWeapon:   r.Weapons,
		model.NodeKindResource: r.Resources,
		model.NodeKindRecipe:   r.Recipes,
	}
}

// Run executes the full pipeline on one snapshot. The three categories are
// normalized concurrently since they share no state; resolution waits for
// all three sets before any edge is emitted.
func (p *Pipeline) Run(ctx context.Context, snapshot *model.Snapshot) (*Result, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("snapshot is nil")
	}

	result := &Result{}
	var weaponDiags, resourceDiags, recipeDiags []model.Diagnostic

	group, _ := errgroup.WithContext(ctx)
	group.Go(func() error {
		result.Weapons, weaponDiags = p.Normalizer(model.NodeKindWeapon, snapshot.Weapons)
		return nil
	})
	group.Go(func() error {
		result.Resources, resourceDiags = p.Normalizer(model.NodeKindResource, snapshot.Resources)
		return nil
	})
	group.Go(func() error {
		result.Recipes, recipeDiags = p.Normalizer(model.NodeKindRecipe, snapshot.Recipes)
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result.Diagnostics = append(result.Diagnostics, weaponDiags...)
	result.Diagnostics = append(result.Diagnostics, resourceDiags...)
	result.Diagnostics = append(result.Diagnostics, recipeDiags...)

	edges, resolveDiags := p.Resolver(result.Weapons, result.Resources, result.Recipes)
	result.Edges = append(result.Edges, edges...)
	result.Diagnostics = append(result.Diagnostics, resolveDiags...)

	categories, belongsTo, taxonomyDiags := p.Taxonomy(result.Weapons)
	result.Categories = categories
	result.Edges = append(result.Edges, belongsTo...)
	result.Diagnostics = append(result.Diagnostics, taxonomyDiags...)

	return result, nil
}

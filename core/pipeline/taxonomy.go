package pipeline

import (
	"fmt"
	"strings"

	"github.com/siherrmann/foundry/model"
)

// categoryField is the property Category nodes are derived from
const categoryField = "productCategory"

// NormalizeCategoryName returns the canonical display form of a category
// label (trimmed, inner whitespace collapsed) and its case-folded key used
// for deduplication.
func NormalizeCategoryName(raw string) (display string, key string) {
	display = strings.Join(strings.Fields(raw), " ")
	key = strings.ToLower(display)
	return display, key
}

// BuildTaxonomy derives one Category node per distinct normalized category
// label across the given item nodes, plus a BELONGS_TO edge from every item
// to its category. The display form of a category is the first one observed.
// Items without a category label are excluded from taxonomy linking and
// reported as a warning; the item node itself stays valid.
func BuildTaxonomy(items []*model.Node) ([]*model.Node, []*model.Edge, []model.Diagnostic) {
	var categories []*model.Node
	var edges []*model.Edge
	var diagnostics []model.Diagnostic
	byKey := map[string]*model.Node{}

	for _, item := range items {
		display, key := NormalizeCategoryName(item.StringProperty(categoryField))
		if key == "" {
			diagnostics = append(diagnostics, model.Diagnostic{
				Stage:      model.StageTaxonomy,
				Kind:       model.DiagnosticMissingCategory,
				Identifier: item.Identifier,
				Detail:     fmt.Sprintf("%s %s has no %s, not linked to any category", item.Kind, item.Identifier, categoryField),
			})
			continue
		}

		category, ok := byKey[key]
		if !ok {
			category = &model.Node{
				Kind:       model.NodeKindCategory,
				Identifier: display,
				Properties: model.Properties{"name": display},
			}
			byKey[key] = category
			categories = append(categories, category)
		}

		edges = append(edges, &model.Edge{
			Kind:       model.EdgeKindBelongsTo,
			SourceKind: item.Kind,
			SourceID:   item.Identifier,
			TargetKind: model.NodeKindCategory,
			TargetID:   category.Identifier,
		})
	}

	return categories, edges, diagnostics
}

package pipeline

import (
	"fmt"
	"strings"

	"github.com/siherrmann/foundry/model"
)

// fieldType is the canonical type a declared field is coerced to
type fieldType int

const (
	fieldString fieldType = iota
	fieldFloat
	fieldInt
	fieldBool
	// fieldChance is a float expected to lie in [0,1]. Out-of-range values
	// are kept as-is and reported as a warning.
	fieldChance
)

// fieldSpec declares one field of a node kind with its coercion target.
// Absent or wrong-typed fields default to the zero value of the type.
type fieldSpec struct {
	name string
	typ  fieldType
}

// kindFields is the per-kind defaulting/coercion table. Adding a node kind
// is a data change here, not a control-flow change.
var kindFields = map[model.NodeKind][]fieldSpec{
	model.NodeKindWeapon: {
		{"name", fieldString},
		{"description", fieldString},
		{"totalDamage", fieldFloat},
		{"criticalChance", fieldChance},
		{"criticalMultiplier", fieldFloat},
		{"procChance", fieldChance},
		{"fireRate", fieldFloat},
		{"masteryReq", fieldInt},
		{"magazineSize", fieldInt},
		{"reloadTime", fieldFloat},
		{"accuracy", fieldFloat},
		{"codexSecret", fieldBool},
		{"productCategory", fieldString},
	},
	model.NodeKindResource: {
		{"name", fieldString},
		{"description", fieldString},
		{"parentName", fieldString},
		{"codexSecret", fieldBool},
		{"showInInventory", fieldBool},
	},
	model.NodeKindRecipe: {
		{"resultType", fieldString},
		{"buildPrice", fieldInt},
		{"buildTime", fieldInt},
		{"skipBuildTimePrice", fieldInt},
		{"consumeOnUse", fieldBool},
		{"num", fieldInt},
		{"codexSecret", fieldBool},
	},
}

// identifierField is the stable external key of every item record
const identifierField = "uniqueName"

// NormalizeRecords maps raw records of one category into canonical nodes.
// Records with a missing or empty identifier are rejected and reported.
// Duplicate identifiers within the category are reported; the last record
// wins, matching the full-replace upsert semantics of the store.
func NormalizeRecords(kind model.NodeKind, records []model.RawRecord) ([]*model.Node, []model.Diagnostic) {
	specs := kindFields[kind]

	var nodes []*model.Node
	var diagnostics []model.Diagnostic
	seen := map[string]int{}

	for _, record := range records {
		identifier := strings.TrimSpace(coerceString(record[identifierField]))
		if identifier == "" {
			diagnostics = append(diagnostics, model.Diagnostic{
				Stage:      model.StageNormalize,
				Kind:       model.DiagnosticRejectedRecord,
				Identifier: coerceString(record["name"]),
				Detail:     fmt.Sprintf("%s record with missing or empty %s", kind, identifierField),
			})
			continue
		}

		node := &model.Node{
			Kind:       kind,
			Identifier: identifier,
			Properties: model.Properties{},
		}

		for _, spec := range specs {
			value, diagnostic := coerceField(kind, identifier, spec, record[spec.name])
			node.Properties[spec.name] = value
			if diagnostic != nil {
				diagnostics = append(diagnostics, *diagnostic)
			}
		}

		if kind == model.NodeKindRecipe {
			node.Ingredients = coerceIngredients(record["ingredients"])
		}

		if index, ok := seen[identifier]; ok {
			diagnostics = append(diagnostics, model.Diagnostic{
				Stage:      model.StageNormalize,
				Kind:       model.DiagnosticDuplicateIdentifier,
				Identifier: identifier,
				Detail:     fmt.Sprintf("duplicate %s identifier, last record wins", kind),
			})
			nodes[index] = node
			continue
		}

		seen[identifier] = len(nodes)
		nodes = append(nodes, node)
	}

	return nodes, diagnostics
}

// coerceField coerces one raw value to its declared type and validates the
// numeric domain. Out-of-range values are kept as-is, not clamped.
func coerceField(kind model.NodeKind, identifier string, spec fieldSpec, raw interface{}) (interface{}, *model.Diagnostic) {
	switch spec.typ {
	case fieldString:
		return coerceString(raw), nil
	case fieldBool:
		return coerceBool(raw), nil
	case fieldInt:
		value := coerceInt(raw)
		if value < 0 {
			return value, outOfRange(identifier, fmt.Sprintf("%s %s.%s is negative (%d)", kind, identifier, spec.name, value))
		}
		return value, nil
	case fieldFloat:
		value := coerceFloat(raw)
		if value < 0 {
			return value, outOfRange(identifier, fmt.Sprintf("%s %s.%s is negative (%g)", kind, identifier, spec.name, value))
		}
		return value, nil
	case fieldChance:
		value := coerceFloat(raw)
		if value < 0 || value > 1 {
			return value, outOfRange(identifier, fmt.Sprintf("%s %s.%s outside [0,1] (%g)", kind, identifier, spec.name, value))
		}
		return value, nil
	}
	return nil, nil
}

func outOfRange(identifier, detail string) *model.Diagnostic {
	return &model.Diagnostic{
		Stage:      model.StageNormalize,
		Kind:       model.DiagnosticOutOfRange,
		Identifier: identifier,
		Detail:     detail,
	}
}

// coerceIngredients parses the loosely typed ingredient list of a recipe
// record. Entries without an ItemType are dropped, matching the export data
// where such entries carry no resolvable reference.
func coerceIngredients(raw interface{}) []model.Ingredient {
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	var ingredients []model.Ingredient
	for _, entry := range list {
		fields, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		itemType := strings.TrimSpace(coerceString(fields["ItemType"]))
		if itemType == "" {
			continue
		}
		count := coerceInt(fields["ItemCount"])
		if count == 0 {
			count = 1
		}
		ingredients = append(ingredients, model.Ingredient{
			ItemType:  itemType,
			ItemCount: count,
		})
	}

	return ingredients
}

func coerceString(raw interface{}) string {
	if s, ok := raw.(string); ok {
		return s
	}
	return ""
}

func coerceBool(raw interface{}) bool {
	if b, ok := raw.(bool); ok {
		return b
	}
	return false
}

func coerceFloat(raw interface{}) float64 {
	switch v := raw.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func coerceInt(raw interface{}) int64 {
	switch v := raw.(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	case float32:
		return int64(v)
	}
	return 0
}

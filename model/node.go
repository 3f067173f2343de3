package model

// NodeKind represents the kind (label) of a graph node
type NodeKind string

const (
	NodeKindWeapon   NodeKind = "Weapon"
	NodeKindResource NodeKind = "Resource"
	NodeKindRecipe   NodeKind = "Recipe"
	NodeKindCategory NodeKind = "Category"
)

// NodeKinds lists all node kinds in the order they are written to the store.
// Categories go first so taxonomy edges never reference a missing endpoint.
var NodeKinds = []NodeKind{
	NodeKindCategory,
	NodeKindWeapon,
	NodeKindResource,
	NodeKindRecipe,
}

// Ingredient represents one entry of a recipe's ingredient list.
// Field names follow the export format (ItemType, ItemCount).
type Ingredient struct {
	ItemType  string `json:"ItemType"`
	ItemCount int64  `json:"ItemCount"`
}

// Node is the canonical representation of a graph node: a kind, a stable
// identifier unique within that kind, and a flat property bag.
// Ingredients are only set on Recipe nodes; they are resolved into REQUIRES
// edges and never stored as node properties.
type Node struct {
	Kind        NodeKind     `json:"kind"`
	Identifier  string       `json:"identifier"`
	Properties  Properties   `json:"properties,omitempty"`
	Ingredients []Ingredient `json:"ingredients,omitempty"`
}

// StringProperty returns the named property as a string, or "" if absent or
// of a different type.
func (n *Node) StringProperty(key string) string {
	if v, ok := n.Properties[key].(string); ok {
		return v
	}
	return ""
}

// FloatProperty returns the named property as a float64, or 0 if absent.
func (n *Node) FloatProperty(key string) float64 {
	switch v := n.Properties[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	}
	return 0
}

// IntProperty returns the named property as an int64, or 0 if absent.
func (n *Node) IntProperty(key string) int64 {
	switch v := n.Properties[key].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

// BoolProperty returns the named property as a bool, or false if absent.
func (n *Node) BoolProperty(key string) bool {
	if v, ok := n.Properties[key].(bool); ok {
		return v
	}
	return false
}

package model

// EdgeKind represents the type of relationship between nodes
type EdgeKind string

const (
	// EdgeKindRequires is an ingredient dependency (Recipe -> Resource).
	EdgeKindRequires EdgeKind = "REQUIRES"
	// EdgeKindBuilds is what a recipe yields (Recipe -> Weapon/Resource).
	EdgeKindBuilds EdgeKind = "BUILDS"
	// EdgeKindBelongsTo is taxonomy membership (item -> Category).
	EdgeKindBelongsTo EdgeKind = "BELONGS_TO"
)

// EdgeKinds lists all edge kinds in a stable order.
var EdgeKinds = []EdgeKind{
	EdgeKindRequires,
	EdgeKindBuilds,
	EdgeKindBelongsTo,
}

// Edge represents a directed, weighted relationship between two nodes.
// An edge is identified by (Kind, SourceID, TargetID); re-applying an edge
// with the same identity overwrites its quantity.
type Edge struct {
	Kind       EdgeKind `json:"kind"`
	SourceKind NodeKind `json:"source_kind"`
	SourceID   string   `json:"source_id"`
	TargetKind NodeKind `json:"target_kind"`
	TargetID   string   `json:"target_id"`
	Quantity   int64    `json:"quantity"`
}

// EdgeProperties returns the stored property bag for the edge.
// BELONGS_TO edges are plain membership edges and carry no weight.
func (e *Edge) EdgeProperties() Properties {
	if e.Kind == EdgeKindBelongsTo {
		return Properties{}
	}
	return Properties{"quantity": e.Quantity}
}

package database

import (
	"context"

	"github.com/siherrmann/foundry/model"
)

// GraphStore is the transactional upsert interface the ingestion engine
// writes through. A batch is atomic: an error means no row of the batch may
// be assumed durable. Both upserts are idempotent, keyed by (kind,
// identifier) for nodes and (kind, source, target) for edges, with the
// uniqueness of those keys guaranteed by the store.
type GraphStore interface {
	// EnsureSchema declares tables, constraints and uniqueness guarantees.
	EnsureSchema(ctx context.Context) error
	// UpsertNodes applies one node batch of a single kind. Existing node
	// properties are fully replaced by the latest values, not merged.
	UpsertNodes(ctx context.Context, kind model.NodeKind, nodes []*model.Node) (model.UpsertStats, error)
	// UpsertEdges applies one edge batch of a single kind. An existing edge
	// gets its properties overwritten.
	UpsertEdges(ctx context.Context, kind model.EdgeKind, edges []*model.Edge) (model.UpsertStats, error)
	// SelectIdentifiers returns all stored identifiers of a kind in stable
	// (sorted) order.
	SelectIdentifiers(ctx context.Context, kind model.NodeKind) ([]string, error)
	// Clear removes every stored node and edge. An operational reset for
	// rebuilding a graph from scratch; ingestion never calls it, stale
	// nodes are flagged and kept instead.
	Clear(ctx context.Context) error
	// Close releases the underlying connection.
	Close(ctx context.Context) error
}

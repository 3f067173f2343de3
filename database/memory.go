package database

import (
	"context"
	"sort"
	"sync"

	"github.com/siherrmann/foundry/model"
)

type edgeKey struct {
	kind     model.EdgeKind
	sourceID string
	targetID string
}

// MemoryStore is an in-memory GraphStore used by tests and dry runs.
// It enforces the same key semantics as the persistent stores: nodes are
// unique per (kind, identifier), edges per (kind, source, target).
type MemoryStore struct {
	mu    sync.RWMutex
	nodes map[model.NodeKind]map[string]model.Properties
	edges map[edgeKey]model.Properties
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nodes: map[model.NodeKind]map[string]model.Properties{},
		edges: map[edgeKey]model.Properties{},
	}
}

// EnsureSchema is a no-op for the in-memory store
func (s *MemoryStore) EnsureSchema(ctx context.Context) error {
	return ctx.Err()
}

// UpsertNodes applies a node batch, replacing existing properties in full
func (s *MemoryStore) UpsertNodes(ctx context.Context, kind model.NodeKind, nodes []*model.Node) (model.UpsertStats, error) {
	if err := ctx.Err(); err != nil {
		return model.UpsertStats{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	byID, ok := s.nodes[kind]
	if !ok {
		byID = map[string]model.Properties{}
		s.nodes[kind] = byID
	}

	stats := model.UpsertStats{}
	for _, node := range nodes {
		if _, exists := byID[node.Identifier]; exists {
			stats.Updated++
		} else {
			stats.Created++
		}
		byID[node.Identifier] = cloneProperties(node.Properties)
	}

	return stats, nil
}

// UpsertEdges applies an edge batch, overwriting existing edge properties
func (s *MemoryStore) UpsertEdges(ctx context.Context, kind model.EdgeKind, edges []*model.Edge) (model.UpsertStats, error) {
	if err := ctx.Err(); err != nil {
		return model.UpsertStats{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stats := model.UpsertStats{}
	for _, edge := range edges {
		key := edgeKey{kind: kind, sourceID: edge.SourceID, targetID: edge.TargetID}
		if _, exists := s.edges[key]; exists {
			stats.Updated++
		} else {
			stats.Created++
		}
		s.edges[key] = cloneProperties(edge.EdgeProperties())
	}

	return stats, nil
}

// SelectIdentifiers returns the stored identifiers of a kind, sorted
func (s *MemoryStore) SelectIdentifiers(ctx context.Context, kind model.NodeKind) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	identifiers := make([]string, 0, len(s.nodes[kind]))
	for identifier := range s.nodes[kind] {
		identifiers = append(identifiers, identifier)
	}
	sort.Strings(identifiers)

	return identifiers, nil
}

// Clear removes every stored node and edge
func (s *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nodes = map[model.NodeKind]map[string]model.Properties{}
	s.edges = map[edgeKey]model.Properties{}

	return nil
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// Node returns the stored properties of a node, for assertions in tests
func (s *MemoryStore) Node(kind model.NodeKind, identifier string) (model.Properties, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	properties, ok := s.nodes[kind][identifier]
	return properties, ok
}

// Edge returns the stored properties of an edge, for assertions in tests
func (s *MemoryStore) Edge(kind model.EdgeKind, sourceID, targetID string) (model.Properties, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	properties, ok := s.edges[edgeKey{kind: kind, sourceID: sourceID, targetID: targetID}]
	return properties, ok
}

// NodeCount returns the number of stored nodes of a kind
func (s *MemoryStore) NodeCount(kind model.NodeKind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.nodes[kind])
}

// EdgeCount returns the number of stored edges of a kind
func (s *MemoryStore) EdgeCount(kind model.EdgeKind) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for key := range s.edges {
		if key.kind == kind {
			count++
		}
	}
	return count
}

func cloneProperties(properties model.Properties) model.Properties {
	clone := make(model.Properties, len(properties))
	for key, value := range properties {
		clone[key] = value
	}
	return clone
}

// Ensure MemoryStore satisfies GraphStore.
var _ GraphStore = &MemoryStore{}

package database

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/siherrmann/foundry/helper"
	"github.com/siherrmann/foundry/model"
	"golang.org/x/sync/errgroup"
)

// Coordinator applies normalized nodes and resolved edges to a GraphStore.
// Nodes are written first and are durable before any edge referencing them
// is applied. Edge batches of different kinds target disjoint relationship
// namespaces and run in parallel. A failed batch fails the whole run; there
// is no partial recovery within a run.
type Coordinator struct {
	store GraphStore
	log   *slog.Logger
}

// NewCoordinator creates a coordinator writing through the given store
func NewCoordinator(store GraphStore, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		store: store,
		log:   logger,
	}
}

// Apply writes all nodes, then all edges, recording per-kind upsert counts
// and stale identifiers into the report. On failure the report's FailedStage
// names the batch that could not commit.
func (c *Coordinator) Apply(ctx context.Context, nodes map[model.NodeKind][]*model.Node, edges []*model.Edge, report *model.Report) error {
	if err := c.store.EnsureSchema(ctx); err != nil {
		report.FailedStage = "schema"
		return helper.NewError("ensure schema", err)
	}

	// Pre-run identifiers, diffed into stale flags once the run committed.
	stored := c.collectIdentifiers(ctx)

	for _, kind := range model.NodeKinds {
		batch := nodes[kind]
		stats, err := c.store.UpsertNodes(ctx, kind, batch)
		if err != nil {
			report.FailedStage = fmt.Sprintf("node batch %s", kind)
			return helper.NewError(fmt.Sprintf("upsert %s nodes", kind), err)
		}
		report.NodeCounts[kind] = stats
		c.log.Info("Upserted node batch",
			slog.String("kind", string(kind)),
			slog.Int("created", stats.Created),
			slog.Int("updated", stats.Updated),
		)
	}

	byKind := GroupEdges(edges)
	edgeStats := map[model.EdgeKind]model.UpsertStats{}
	edgeErrs := map[model.EdgeKind]error{}
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	for _, kind := range model.EdgeKinds {
		group.Go(func() error {
			stats, err := c.store.UpsertEdges(groupCtx, kind, byKind[kind])
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				edgeErrs[kind] = err
				return err
			}
			edgeStats[kind] = stats
			return nil
		})
	}

	if group.Wait() != nil {
		// Deterministic batch identity when several kinds failed together.
		for _, kind := range model.EdgeKinds {
			if err := edgeErrs[kind]; err != nil {
				report.FailedStage = fmt.Sprintf("edge batch %s", kind)
				return helper.NewError(fmt.Sprintf("upsert %s edges", kind), err)
			}
		}
	}

	for kind, stats := range edgeStats {
		report.EdgeCounts[kind] = stats
		c.log.Info("Upserted edge batch",
			slog.String("kind", string(kind)),
			slog.Int("created", stats.Created),
			slog.Int("updated", stats.Updated),
		)
	}

	c.flagStaleNodes(stored, nodes, report)

	return nil
}

// collectIdentifiers reads the stored identifiers of every node kind.
// The scan is best-effort: a kind it cannot read is skipped with a warning
// and simply yields no stale flags.
func (c *Coordinator) collectIdentifiers(ctx context.Context) map[model.NodeKind][]string {
	stored := map[model.NodeKind][]string{}
	for _, kind := range model.NodeKinds {
		identifiers, err := c.store.SelectIdentifiers(ctx, kind)
		if err != nil {
			c.log.Warn("Stale scan failed", slog.String("kind", string(kind)), slog.String("error", err.Error()))
			continue
		}
		stored[kind] = identifiers
	}
	return stored
}

// flagStaleNodes records identifiers present in the store before the run but
// absent from the latest snapshot. Stale nodes are never deleted, only
// reported, and only for runs that committed: a failed run never carries
// stale flags.
func (c *Coordinator) flagStaleNodes(stored map[model.NodeKind][]string, nodes map[model.NodeKind][]*model.Node, report *model.Report) {
	for _, kind := range model.NodeKinds {
		if len(stored[kind]) == 0 {
			continue
		}

		incoming := make(map[string]struct{}, len(nodes[kind]))
		for _, node := range nodes[kind] {
			incoming[node.Identifier] = struct{}{}
		}

		var stale []string
		for _, identifier := range stored[kind] {
			if _, ok := incoming[identifier]; !ok {
				stale = append(stale, identifier)
			}
		}
		if len(stale) == 0 {
			continue
		}

		sort.Strings(stale)
		report.Stale[kind] = stale
		for _, identifier := range stale {
			report.AddDiagnostics(model.Diagnostic{
				Stage:      model.StageUpsert,
				Kind:       model.DiagnosticStaleNode,
				Identifier: identifier,
				Detail:     fmt.Sprintf("%s node is absent from the latest export, kept pending reconciliation", kind),
			})
		}
	}
}

// GroupEdges groups edges by kind, preserving their order within each kind
func GroupEdges(edges []*model.Edge) map[model.EdgeKind][]*model.Edge {
	byKind := map[model.EdgeKind][]*model.Edge{}
	for _, edge := range edges {
		byKind[edge.Kind] = append(byKind[edge.Kind], edge)
	}
	return byKind
}

package database

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/siherrmann/foundry/helper"
	"github.com/siherrmann/foundry/model"
)

// Neo4jStore is a GraphStore backed by Neo4j. Node kinds map to labels,
// edge kinds to relationship types; batches are written with UNWIND+MERGE
// inside one managed write transaction, so a batch is all-or-nothing.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
	log      *slog.Logger
}

// NewNeo4jStore creates a graph store on an existing driver
func NewNeo4jStore(driver neo4j.DriverWithContext, database string, logger *slog.Logger) *Neo4jStore {
	return &Neo4jStore{
		driver:   driver,
		database: database,
		log:      logger,
	}
}

// NewNeo4jStoreFromEnv connects to Neo4j using NEO4J_URI, NEO4J_USER,
// NEO4J_PASSWORD and NEO4J_DATABASE and verifies connectivity.
func NewNeo4jStoreFromEnv(logger *slog.Logger) (*Neo4jStore, error) {
	uri := strings.TrimSpace(os.Getenv("NEO4J_URI"))
	if uri == "" {
		return nil, helper.NewError("neo4j configuration", fmt.Errorf("NEO4J_URI is not set"))
	}

	user := strings.TrimSpace(os.Getenv("NEO4J_USER"))
	if user == "" {
		user = "neo4j"
	}
	password := strings.TrimSpace(os.Getenv("NEO4J_PASSWORD"))
	database := strings.TrimSpace(os.Getenv("NEO4J_DATABASE"))

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, helper.NewError("init neo4j driver", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, helper.NewError("verify neo4j connectivity", err)
	}

	logger.Info("Connected to Neo4j", slog.String("uri", uri), slog.String("database", database))

	return NewNeo4jStore(driver, database, logger), nil
}

// keyProperty returns the node property carrying the identifier of a kind
func keyProperty(kind model.NodeKind) string {
	if kind == model.NodeKindCategory {
		return "name"
	}
	return "uniqueName"
}

// EnsureSchema declares the per-kind uniqueness constraints
func (s *Neo4jStore) EnsureSchema(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	for _, kind := range model.NodeKinds {
		statement := fmt.Sprintf(
			`CREATE CONSTRAINT %s_%s_unique IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE`,
			strings.ToLower(string(kind)), keyProperty(kind), kind, keyProperty(kind),
		)
		result, err := session.Run(ctx, statement, nil)
		if err != nil {
			return helper.NewError(fmt.Sprintf("create %s constraint", kind), err)
		}
		if _, err := result.Consume(ctx); err != nil {
			return helper.NewError(fmt.Sprintf("create %s constraint", kind), err)
		}
	}

	s.log.Info("Ensured Neo4j uniqueness constraints")

	return nil
}

// UpsertNodes applies one node batch in a single managed write transaction.
// SET n = row.props replaces all node properties, so re-ingesting converges
// to the latest export instead of accumulating stale fields.
func (s *Neo4jStore) UpsertNodes(ctx context.Context, kind model.NodeKind, nodes []*model.Node) (model.UpsertStats, error) {
	stats := model.UpsertStats{}
	if len(nodes) == 0 {
		return stats, nil
	}

	rows := make([]map[string]any, 0, len(nodes))
	for _, node := range nodes {
		rows = append(rows, map[string]any{
			"identifier": node.Identifier,
			"props":      map[string]any(node.Properties),
		})
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	query := fmt.Sprintf(`
UNWIND $rows AS row
MERGE (n:%s {%s: row.identifier})
SET n = row.props, n.%s = row.identifier
`, kind, keyProperty(kind), keyProperty(kind))

	created, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, map[string]any{"rows": rows})
		if err != nil {
			return nil, err
		}
		summary, err := result.Consume(ctx)
		if err != nil {
			return nil, err
		}
		return summary.Counters().NodesCreated(), nil
	})
	if err != nil {
		return model.UpsertStats{}, helper.NewError(fmt.Sprintf("upsert %s nodes", kind), err)
	}

	stats.Created = created.(int)
	stats.Updated = len(nodes) - stats.Created

	return stats, nil
}

// UpsertEdges applies one edge batch in a single managed write transaction.
// Rows are grouped by endpoint kinds since labels cannot be parameterized.
func (s *Neo4jStore) UpsertEdges(ctx context.Context, kind model.EdgeKind, edges []*model.Edge) (model.UpsertStats, error) {
	stats := model.UpsertStats{}
	if len(edges) == 0 {
		return stats, nil
	}

	type endpoints struct {
		sourceKind model.NodeKind
		targetKind model.NodeKind
	}
	grouped := map[endpoints][]map[string]any{}
	var order []endpoints
	for _, edge := range edges {
		key := endpoints{sourceKind: edge.SourceKind, targetKind: edge.TargetKind}
		if _, ok := grouped[key]; !ok {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], map[string]any{
			"source_id": edge.SourceID,
			"target_id": edge.TargetID,
			"props":     map[string]any(edge.EdgeProperties()),
		})
	}

	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	created, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		createdTotal := 0
		for _, key := range order {
			query := fmt.Sprintf(`
UNWIND $rows AS row
MATCH (a:%s {%s: row.source_id})
MATCH (b:%s {%s: row.target_id})
MERGE (a)-[e:%s]->(b)
SET e = row.props
`, key.sourceKind, keyProperty(key.sourceKind), key.targetKind, keyProperty(key.targetKind), kind)

			result, err := tx.Run(ctx, query, map[string]any{"rows": grouped[key]})
			if err != nil {
				return nil, err
			}
			summary, err := result.Consume(ctx)
			if err != nil {
				return nil, err
			}
			createdTotal += summary.Counters().RelationshipsCreated()
		}
		return createdTotal, nil
	})
	if err != nil {
		return model.UpsertStats{}, helper.NewError(fmt.Sprintf("upsert %s edges", kind), err)
	}

	stats.Created = created.(int)
	stats.Updated = len(edges) - stats.Created

	return stats, nil
}

// Clear removes every stored node and edge. Deletion is scoped to the known
// node labels, so unrelated data in a shared database survives.
func (s *Neo4jStore) Clear(ctx context.Context) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, kind := range model.NodeKinds {
			result, err := tx.Run(ctx, fmt.Sprintf(`MATCH (n:%s) DETACH DELETE n`, kind), nil)
			if err != nil {
				return nil, err
			}
			if _, err := result.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return helper.NewError("clear graph", err)
	}

	s.log.Info("Cleared all nodes and edges")

	return nil
}

// SelectIdentifiers retrieves all stored identifiers of a node kind, sorted
func (s *Neo4jStore) SelectIdentifiers(ctx context.Context, kind model.NodeKind) ([]string, error) {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.database,
	})
	defer session.Close(ctx)

	query := fmt.Sprintf(`MATCH (n:%s) RETURN n.%s AS identifier ORDER BY identifier`, kind, keyProperty(kind))

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}

		var identifiers []string
		for result.Next(ctx) {
			if value, ok := result.Record().Get("identifier"); ok {
				if identifier, ok := value.(string); ok {
					identifiers = append(identifiers, identifier)
				}
			}
		}
		return identifiers, result.Err()
	})
	if err != nil {
		return nil, helper.NewError(fmt.Sprintf("select %s identifiers", kind), err)
	}

	return records.([]string), nil
}

// Close closes the underlying driver
func (s *Neo4jStore) Close(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Close(ctx)
}

// Ensure Neo4jStore satisfies GraphStore.
var _ GraphStore = &Neo4jStore{}

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/siherrmann/foundry/helper"
	"github.com/siherrmann/foundry/model"
	loadSql "github.com/siherrmann/foundry/sql"
)

// PostgresStore is a GraphStore backed by PostgreSQL. Nodes and edges live
// in two tables with JSONB property bags; all access goes through SQL
// functions loaded from the embedded schema. Every batch runs in one
// transaction, so a mid-batch failure leaves no partial writes.
type PostgresStore struct {
	db *helper.Database
}

// NewPostgresStore creates a new Postgres-backed graph store.
// It loads the node and edge SQL functions and initializes the schema.
// If force is true, it will reload the SQL functions even if they already exist.
func NewPostgresStore(db *helper.Database, force bool) (*PostgresStore, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	store := &PostgresStore{
		db: db,
	}

	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database helpers", err)
	}

	err = loadSql.LoadNodesSql(db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load nodes sql", err)
	}

	err = loadSql.LoadEdgesSql(db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load edges sql", err)
	}

	err = store.EnsureSchema(context.Background())
	if err != nil {
		return nil, helper.NewError("ensure schema", err)
	}

	db.Logger.Info("Initialized PostgresStore")

	return store, nil
}

// EnsureSchema creates the 'nodes' and 'edges' tables with their uniqueness
// keys and indexes. Existing tables are left untouched.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := s.db.Instance.ExecContext(ctx, `SELECT init_nodes();`)
	if err != nil {
		return helper.NewError("initialize nodes table", err)
	}

	_, err = s.db.Instance.ExecContext(ctx, `SELECT init_edges();`)
	if err != nil {
		return helper.NewError("initialize edges table", err)
	}

	s.db.Logger.Info("Checked/created tables nodes and edges")

	return nil
}

// UpsertNodes applies one node batch inside a single transaction
func (s *PostgresStore) UpsertNodes(ctx context.Context, kind model.NodeKind, nodes []*model.Node) (model.UpsertStats, error) {
	stats := model.UpsertStats{}
	if len(nodes) == 0 {
		return stats, nil
	}

	tx, err := s.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return stats, helper.NewError("begin transaction", err)
	}
	defer tx.Rollback()

	for _, node := range nodes {
		row := tx.QueryRowContext(
			ctx,
			`SELECT * FROM upsert_node($1, $2, $3)`,
			string(kind),
			node.Identifier,
			node.Properties,
		)

		var created bool
		err := row.Scan(&created)
		if err != nil {
			return model.UpsertStats{}, helper.NewError("scan", err)
		}

		if created {
			stats.Created++
		} else {
			stats.Updated++
		}
	}

	err = tx.Commit()
	if err != nil {
		return model.UpsertStats{}, helper.NewError("commit", err)
	}

	return stats, nil
}

// UpsertEdges applies one edge batch inside a single transaction
func (s *PostgresStore) UpsertEdges(ctx context.Context, kind model.EdgeKind, edges []*model.Edge) (model.UpsertStats, error) {
	stats := model.UpsertStats{}
	if len(edges) == 0 {
		return stats, nil
	}

	tx, err := s.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return stats, helper.NewError("begin transaction", err)
	}
	defer tx.Rollback()

	for _, edge := range edges {
		row := tx.QueryRowContext(
			ctx,
			`SELECT * FROM upsert_edge($1, $2, $3, $4, $5, $6)`,
			string(kind),
			string(edge.SourceKind),
			edge.SourceID,
			string(edge.TargetKind),
			edge.TargetID,
			edge.EdgeProperties(),
		)

		var created bool
		err := row.Scan(&created)
		if err != nil {
			return model.UpsertStats{}, helper.NewError("scan", err)
		}

		if created {
			stats.Created++
		} else {
			stats.Updated++
		}
	}

	err = tx.Commit()
	if err != nil {
		return model.UpsertStats{}, helper.NewError("commit", err)
	}

	return stats, nil
}

// SelectIdentifiers retrieves all stored identifiers of a node kind, sorted
func (s *PostgresStore) SelectIdentifiers(ctx context.Context, kind model.NodeKind) ([]string, error) {
	rows, err := s.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_identifiers($1)`,
		string(kind),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var identifiers []string
	for rows.Next() {
		var identifier string
		err := rows.Scan(&identifier)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		identifiers = append(identifiers, identifier)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return identifiers, nil
}

// SelectNode retrieves one stored node with its properties
func (s *PostgresStore) SelectNode(ctx context.Context, kind model.NodeKind, identifier string) (*model.Node, error) {
	row := s.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_node($1, $2)`,
		string(kind),
		identifier,
	)

	node := &model.Node{}
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&node.Kind,
		&node.Identifier,
		&node.Properties,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return node, nil
}

// SelectEdge retrieves one stored edge with its properties
func (s *PostgresStore) SelectEdge(ctx context.Context, kind model.EdgeKind, sourceID, targetID string) (*model.Edge, model.Properties, error) {
	row := s.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_edge($1, $2, $3)`,
		string(kind),
		sourceID,
		targetID,
	)

	edge := &model.Edge{}
	properties := model.Properties{}
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&edge.Kind,
		&edge.SourceKind,
		&edge.SourceID,
		&edge.TargetKind,
		&edge.TargetID,
		&properties,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, nil, helper.NewError("scan", err)
	}

	if quantity, ok := properties["quantity"].(float64); ok {
		edge.Quantity = int64(quantity)
	}

	return edge, properties, nil
}

// Clear removes every stored node and edge in one transaction
func (s *PostgresStore) Clear(ctx context.Context) error {
	tx, err := s.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `SELECT clear_edges();`)
	if err != nil {
		return helper.NewError("clear edges", err)
	}

	_, err = tx.ExecContext(ctx, `SELECT clear_nodes();`)
	if err != nil {
		return helper.NewError("clear nodes", err)
	}

	if err := tx.Commit(); err != nil {
		return helper.NewError("commit transaction", err)
	}

	s.db.Logger.Info("Cleared all nodes and edges")

	return nil
}

// CountNodes returns the number of stored nodes of a kind
func (s *PostgresStore) CountNodes(ctx context.Context, kind model.NodeKind) (int64, error) {
	var count int64
	err := s.db.Instance.QueryRowContext(
		ctx,
		`SELECT count_nodes($1)`,
		string(kind),
	).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// CountEdges returns the number of stored edges of a kind
func (s *PostgresStore) CountEdges(ctx context.Context, kind model.EdgeKind) (int64, error) {
	var count int64
	err := s.db.Instance.QueryRowContext(
		ctx,
		`SELECT count_edges($1)`,
		string(kind),
	).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// Close closes the underlying database connection
func (s *PostgresStore) Close(ctx context.Context) error {
	if s.db != nil && s.db.Instance != nil {
		return s.db.Instance.Close()
	}
	return nil
}

// Ensure PostgresStore satisfies GraphStore.
var _ GraphStore = &PostgresStore{}

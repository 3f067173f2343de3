package sql

import (
	"testing"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	db := initDB(t)
	defer db.Instance.Close()

	t.Run("Initialize database helpers", func(t *testing.T) {
		err := Init(db.Instance)
		assert.NoError(t, err)

		// Verify the updated_at trigger function is created
		var exists bool
		err = db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = 'set_updated_at');").Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "set_updated_at function should be created")
	})

	t.Run("Initialize database helpers is idempotent", func(t *testing.T) {
		// Running Init multiple times should not error
		err := Init(db.Instance)
		assert.NoError(t, err)

		err = Init(db.Instance)
		assert.NoError(t, err)
	})
}

func TestLoadNodesSql(t *testing.T) {
	db := initDB(t)
	defer db.Instance.Close()

	t.Run("Load nodes SQL functions", func(t *testing.T) {
		err := LoadNodesSql(db.Instance, false)
		assert.NoError(t, err)

		// Verify all functions exist
		for _, funcName := range NodesFunctions {
			var exists bool
			err = db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);", funcName).Scan(&exists)
			require.NoError(t, err)
			assert.True(t, exists, "Function %s should exist", funcName)
		}
	})

	t.Run("Load nodes SQL is idempotent without force", func(t *testing.T) {
		// Loading again without force should be a no-op
		err := LoadNodesSql(db.Instance, false)
		assert.NoError(t, err)
	})

	t.Run("Load nodes SQL with force reloads", func(t *testing.T) {
		// Loading with force should reload
		err := LoadNodesSql(db.Instance, true)
		assert.NoError(t, err)

		// Verify functions still exist
		for _, funcName := range NodesFunctions {
			var exists bool
			err = db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);", funcName).Scan(&exists)
			require.NoError(t, err)
			assert.True(t, exists, "Function %s should exist after force reload", funcName)
		}
	})
}

func TestLoadEdgesSql(t *testing.T) {
	db := initDB(t)
	defer db.Instance.Close()

	t.Run("Load edges SQL functions", func(t *testing.T) {
		err := LoadEdgesSql(db.Instance, false)
		assert.NoError(t, err)

		// Verify all functions exist
		for _, funcName := range EdgesFunctions {
			var exists bool
			err = db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);", funcName).Scan(&exists)
			require.NoError(t, err)
			assert.True(t, exists, "Function %s should exist", funcName)
		}
	})

	t.Run("Load edges SQL is idempotent without force", func(t *testing.T) {
		err := LoadEdgesSql(db.Instance, false)
		assert.NoError(t, err)
	})

	t.Run("Load edges SQL with force reloads", func(t *testing.T) {
		err := LoadEdgesSql(db.Instance, true)
		assert.NoError(t, err)
	})
}

func TestLoadAllSql(t *testing.T) {
	db := initDB(t)
	defer db.Instance.Close()

	t.Run("Load all SQL functions", func(t *testing.T) {
		err := LoadAllSql(db.Instance, false)
		assert.NoError(t, err)

		// Verify all nodes functions exist
		for _, funcName := range NodesFunctions {
			var exists bool
			err = db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);", funcName).Scan(&exists)
			require.NoError(t, err)
			assert.True(t, exists, "Nodes function %s should exist", funcName)
		}

		// Verify all edges functions exist
		for _, funcName := range EdgesFunctions {
			var exists bool
			err = db.Instance.QueryRow("SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);", funcName).Scan(&exists)
			require.NoError(t, err)
			assert.True(t, exists, "Edges function %s should exist", funcName)
		}
	})

	t.Run("Load all SQL is idempotent without force", func(t *testing.T) {
		err := LoadAllSql(db.Instance, false)
		assert.NoError(t, err)
	})

	t.Run("Load all SQL with force reloads", func(t *testing.T) {
		err := LoadAllSql(db.Instance, true)
		assert.NoError(t, err)
	})
}

func TestCheckFunctions(t *testing.T) {
	db := initDB(t)
	defer db.Instance.Close()

	t.Run("Check functions returns false when functions don't exist", func(t *testing.T) {
		exists, err := checkFunctions(db.Instance, []string{"nonexistent_function"})
		assert.NoError(t, err)
		assert.False(t, exists, "Should return false for nonexistent function")
	})

	t.Run("Check functions returns true when all functions exist", func(t *testing.T) {
		// Load nodes SQL first
		err := LoadNodesSql(db.Instance, false)
		require.NoError(t, err)

		exists, err := checkFunctions(db.Instance, NodesFunctions)
		assert.NoError(t, err)
		assert.True(t, exists, "Should return true when all functions exist")
	})

	t.Run("Check functions returns false when some functions don't exist", func(t *testing.T) {
		// Mix of existing and non-existing functions
		mixedFunctions := append([]string{"init_nodes"}, "nonexistent_function")
		exists, err := checkFunctions(db.Instance, mixedFunctions)
		assert.NoError(t, err)
		assert.False(t, exists, "Should return false when some functions don't exist")
	})
}

func TestEmbeddedSQL(t *testing.T) {
	t.Run("Init SQL is embedded", func(t *testing.T) {
		assert.NotEmpty(t, initSQL, "initSQL should be embedded")
		assert.Contains(t, initSQL, "set_updated_at", "Should contain the updated_at trigger function")
	})

	t.Run("Nodes SQL is embedded", func(t *testing.T) {
		assert.NotEmpty(t, nodesSQL, "nodesSQL should be embedded")
		assert.Contains(t, nodesSQL, "CREATE", "Should contain CREATE statements")
	})

	t.Run("Edges SQL is embedded", func(t *testing.T) {
		assert.NotEmpty(t, edgesSQL, "edgesSQL should be embedded")
		assert.Contains(t, edgesSQL, "CREATE", "Should contain CREATE statements")
	})
}

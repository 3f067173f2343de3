package helper

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewError(t *testing.T) {
	t.Run("Error message contains context and cause", func(t *testing.T) {
		cause := fmt.Errorf("connection refused")
		err := NewError("upsert node batch", cause)

		assert.Contains(t, err.Error(), "upsert node batch", "Expected error to contain the context")
		assert.Contains(t, err.Error(), "connection refused", "Expected error to contain the cause")
	})

	t.Run("Unwrap returns the cause", func(t *testing.T) {
		cause := fmt.Errorf("boom")
		err := NewError("stage", cause)

		assert.True(t, errors.Is(err, cause), "Expected errors.Is to find the wrapped cause")
	})
}

func TestNewDatabaseConfiguration(t *testing.T) {
	t.Run("Missing required variables returns error", func(t *testing.T) {
		t.Setenv("DB_HOST", "")
		t.Setenv("DB_PORT", "")
		t.Setenv("DB_DATABASE", "")
		t.Setenv("DB_USERNAME", "")
		t.Setenv("DB_PASSWORD", "")

		_, err := NewDatabaseConfiguration()
		assert.Error(t, err, "Expected missing envs to return an error")
	})

	t.Run("Defaults applied for schema and sslmode", func(t *testing.T) {
		t.Setenv("DB_HOST", "localhost")
		t.Setenv("DB_PORT", "5432")
		t.Setenv("DB_DATABASE", "database")
		t.Setenv("DB_USERNAME", "user")
		t.Setenv("DB_PASSWORD", "password")
		t.Setenv("DB_SCHEMA", "")
		t.Setenv("DB_SSLMODE", "")

		config, err := NewDatabaseConfiguration()
		assert.NoError(t, err, "Expected configuration to be created")
		assert.Equal(t, "public", config.Schema, "Expected default schema")
		assert.Equal(t, "disable", config.SSLMode, "Expected default sslmode")
	})

	t.Run("Connection string contains all parts", func(t *testing.T) {
		config := &DatabaseConfiguration{
			Host:     "localhost",
			Port:     "5432",
			Database: "database",
			Username: "user",
			Password: "password",
			Schema:   "public",
			SSLMode:  "disable",
		}

		connStr := config.ConnectionString()
		assert.Contains(t, connStr, "host=localhost")
		assert.Contains(t, connStr, "port=5432")
		assert.Contains(t, connStr, "dbname=database")
		assert.Contains(t, connStr, "sslmode=disable")
	})
}

package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/siherrmann/foundry/helper"
)

// Properties represents a flat node or edge property bag stored as JSONB in
// PostgreSQL and as plain properties in Neo4j.
type Properties map[string]interface{}

// Value implements the driver.Valuer interface for database storage
func (p Properties) Value() (driver.Value, error) {
	return p.Marshal()
}

// Scan implements the sql.Scanner interface for database retrieval
func (p *Properties) Scan(value interface{}) error {
	return p.Unmarshal(value)
}

// Marshal converts Properties to JSON bytes
func (p Properties) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// Unmarshal converts JSON bytes or Properties to Properties
func (p *Properties) Unmarshal(value interface{}) error {
	if value == nil {
		*p = Properties{}
		return nil
	}

	if s, ok := value.(Properties); ok {
		*p = Properties(s)
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return helper.NewError("byte assertion", errors.New("type assertion to []byte failed"))
	}

	return json.Unmarshal(b, p)
}

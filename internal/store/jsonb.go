package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB maps a jsonb column to a Go value. NULL scans to the zero value.
type JSONB[T any] struct {
	V T
}

// NewJSONB wraps v for storage.
func NewJSONB[T any](v T) JSONB[T] {
	return JSONB[T]{V: v}
}

// Value implements the driver.Valuer interface
func (j JSONB[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(j.V)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal jsonb value: %w", err)
	}
	return b, nil
}

// Scan implements the sql.Scanner interface
func (j *JSONB[T]) Scan(value interface{}) error {
	var zero T
	if value == nil {
		j.V = zero
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSONB", value)
	}

	out := zero
	if err := json.Unmarshal(bytes, &out); err != nil {
		return fmt.Errorf("failed to unmarshal jsonb value: %w", err)
	}
	j.V = out
	return nil
}

// MarshalJSON encodes the wrapped value.
func (j JSONB[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(j.V)
}

// UnmarshalJSON decodes into the wrapped value.
func (j *JSONB[T]) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &j.V)
}

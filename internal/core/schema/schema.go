// Package schema holds the JSON schemas for documents read by applypatch.
package schema

import (
	"encoding/json"
	"fmt"
)

// snapshotSchemaJSON describes a snapshot document: a flat object mapping relative
// file paths to their full text content.
const snapshotSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "Snapshot",
  "description": "Mapping of relative file paths to complete file contents.",
  "type": "object",
  "propertyNames": {
    "type": "string",
    "minLength": 1,
    "not": {"pattern": "^\\s|\\s$"}
  },
  "additionalProperties": {
    "type": "string"
  }
}`

// SnapshotSchema returns a fresh copy of the snapshot schema as a generic map.
func SnapshotSchema() (map[string]any, error) {
	var schemaMap map[string]any
	if err := json.Unmarshal([]byte(snapshotSchemaJSON), &schemaMap); err != nil {
		return nil, fmt.Errorf("schema: decode snapshot schema: %w", err)
	}
	return schemaMap, nil
}

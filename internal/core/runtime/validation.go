package runtime

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/xeipuuv/gojsonschema"

	"github.com/asynkron/applypatch/internal/core/schema"
)

var (
	snapshotSchemaLoader     gojsonschema.JSONLoader
	snapshotSchemaLoaderErr  error
	snapshotSchemaLoaderOnce sync.Once
)

// SnapshotValidationError lists every schema violation found in a snapshot document.
type SnapshotValidationError struct {
	Issues []string
}

func (e SnapshotValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "snapshot failed schema validation"
	}
	return "snapshot failed schema validation: " + strings.Join(e.Issues, "; ")
}

// DecodeSnapshot validates raw against the snapshot schema and decodes it into a
// path to content map.
func DecodeSnapshot(raw []byte) (map[string]string, error) {
	if err := validateSnapshotAgainstSchema(raw); err != nil {
		return nil, err
	}
	var files map[string]string
	if err := json.Unmarshal(raw, &files); err != nil {
		return nil, fmt.Errorf("runtime: decode snapshot: %w", err)
	}
	if files == nil {
		files = map[string]string{}
	}
	return files, nil
}

// DecodeSnapshotYAML converts a YAML snapshot document to JSON and decodes it with
// DecodeSnapshot, so both formats share one schema.
func DecodeSnapshotYAML(raw []byte) (map[string]string, error) {
	converted, err := yaml.YAMLToJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("runtime: convert yaml snapshot: %w", err)
	}
	return DecodeSnapshot(converted)
}

func validateSnapshotAgainstSchema(raw []byte) error {
	loader, err := loadSnapshotSchema()
	if err != nil {
		return fmt.Errorf("runtime: load snapshot schema: %w", err)
	}

	result, err := gojsonschema.Validate(loader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("runtime: schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}

	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return SnapshotValidationError{Issues: issues}
}

func loadSnapshotSchema() (gojsonschema.JSONLoader, error) {
	snapshotSchemaLoaderOnce.Do(func() {
		schemaMap, err := schema.SnapshotSchema()
		if err != nil {
			snapshotSchemaLoaderErr = err
			return
		}
		snapshotSchemaLoader = gojsonschema.NewGoLoader(schemaMap)
	})
	if snapshotSchemaLoaderErr != nil {
		return nil, snapshotSchemaLoaderErr
	}
	return snapshotSchemaLoader, nil
}

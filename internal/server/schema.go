package server

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonschema"
)

//go:embed schemas/*.schema.json
var schemaFiles embed.FS

const (
	schemaExecute = "execute"
	schemaBatch   = "batch"
	schemaAnalyze = "analyze"
)

// A requestError is a request rejected before it reached the engine.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func compileSchemas() (map[string]*jsonschema.Schema, error) {
	schemas := map[string]*jsonschema.Schema{}
	for _, name := range []string{schemaExecute, schemaBatch, schemaAnalyze} {
		data, err := schemaFiles.ReadFile("schemas/" + name + ".schema.json")
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		schema, err := compiler.Compile(data)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		schemas[name] = schema
	}
	return schemas, nil
}

func validateJSON(schema *jsonschema.Schema, data []byte) error {
	result := schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	paths := make([]string, 0, len(result.Errors))
	for path := range result.Errors {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	parts := make([]string, len(paths))
	for i, path := range paths {
		parts[i] = fmt.Sprintf("%s: %v", path, result.Errors[path])
	}
	return &requestError{msg: "schema validation failed: " + strings.Join(parts, "; ")}
}

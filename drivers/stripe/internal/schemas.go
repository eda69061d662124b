package driver

import (
	"embed"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

//go:embed schemas
var schemaFS embed.FS

// loadSchemas reads every stream schema and resolves shared sub-schema
// references of the form {"$ref": "shared/<file>.json"}.
func loadSchemas() (map[string]map[string]any, error) {
	shared := map[string]any{}
	sharedEntries, err := schemaFS.ReadDir("schemas/shared")
	if err != nil {
		return nil, fmt.Errorf("failed to read shared schemas: %s", err)
	}
	for _, entry := range sharedEntries {
		raw, err := schemaFS.ReadFile("schemas/shared/" + entry.Name())
		if err != nil {
			return nil, err
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("invalid shared schema %s: %s", entry.Name(), err)
		}
		shared["shared/"+entry.Name()] = doc
	}

	schemas := map[string]map[string]any{}
	entries, err := schemaFS.ReadDir("schemas")
	if err != nil {
		return nil, fmt.Errorf("failed to read schemas: %s", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		raw, err := schemaFS.ReadFile("schemas/" + entry.Name())
		if err != nil {
			return nil, err
		}
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("invalid schema %s: %s", entry.Name(), err)
		}
		resolved, err := resolveRefs(doc, shared)
		if err != nil {
			return nil, fmt.Errorf("schema %s: %s", entry.Name(), err)
		}
		schemas[strings.TrimSuffix(entry.Name(), ".json")] = resolved.(map[string]any)
	}

	return schemas, nil
}

func resolveRefs(node any, shared map[string]any) (any, error) {
	switch typed := node.(type) {
	case map[string]any:
		if ref, ok := typed["$ref"].(string); ok && len(typed) == 1 {
			resolved, found := shared[ref]
			if !found {
				return nil, fmt.Errorf("unresolved schema reference %q", ref)
			}
			return resolveRefs(resolved, shared)
		}
		out := map[string]any{}
		for key, value := range typed {
			resolved, err := resolveRefs(value, shared)
			if err != nil {
				return nil, err
			}
			out[key] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(typed))
		for idx, value := range typed {
			resolved, err := resolveRefs(value, shared)
			if err != nil {
				return nil, err
			}
			out[idx] = resolved
		}
		return out, nil
	default:
		return node, nil
	}
}

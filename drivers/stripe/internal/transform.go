package driver

import (
	"strings"

	"github.com/singer-io/tap-stripe/types"
)

// Transformer coerces a normalized record into schema-conformant output:
// fields outside the schema are dropped unless whitelisted, automatic fields
// are always kept, and integer-typed epoch fields are emitted as integers.
type Transformer struct {
	properties map[string]any
	automatic  map[string]bool
	whitelist  map[string]bool
}

func NewTransformer(schema map[string]any, automaticFields, whitelist []string) *Transformer {
	properties, _ := schema["properties"].(map[string]any)
	if properties == nil {
		properties = map[string]any{}
	}

	automatic := map[string]bool{}
	for _, field := range automaticFields {
		automatic[field] = true
	}

	retained := map[string]bool{}
	for _, breadcrumb := range whitelist {
		// nested breadcrumbs retain their top-level field
		retained[strings.SplitN(breadcrumb, ".", 2)[0]] = true
	}

	return &Transformer{properties: properties, automatic: automatic, whitelist: retained}
}

func (t *Transformer) Transform(record types.Record) types.Record {
	out := types.Record{}
	for field, value := range record {
		property, inSchema := t.properties[field]
		if !inSchema && !t.automatic[field] && !t.whitelist[field] {
			continue
		}
		if inSchema {
			value = coerce(property, value)
		}
		out[field] = value
	}
	return out
}

func coerce(property, value any) any {
	spec, ok := property.(map[string]any)
	if !ok {
		return value
	}
	if float, ok := value.(float64); ok && hasType(spec, "integer") {
		return int64(float)
	}
	return value
}

func hasType(spec map[string]any, want string) bool {
	switch typed := spec["type"].(type) {
	case string:
		return typed == want
	case []any:
		for _, elem := range typed {
			if elem == want {
				return true
			}
		}
	}
	return false
}

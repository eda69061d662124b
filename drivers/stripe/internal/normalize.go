package driver

import (
	"github.com/goccy/go-json"
	"github.com/singer-io/tap-stripe/constants"
	"github.com/singer-io/tap-stripe/types"
)

// The API embeds paginated sub-collections inline as
// {"object": "list", "url": ..., "data": [...]}. Only the first page is ever
// embedded; completeness comes from the dedicated child-stream sync.

func isListContainer(value map[string]any) bool {
	object, _ := value["object"].(string)
	_, hasData := value["data"]
	return object == "list" && hasData
}

// unwrapListContainers replaces list containers with their inner array at any
// nesting depth. Applying it to an already-unwrapped record is a no-op.
func unwrapListContainers(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		if isListContainer(typed) {
			if data, ok := typed["data"].([]any); ok {
				unwrapped := make([]any, len(data))
				for idx, elem := range data {
					unwrapped[idx] = unwrapListContainers(elem)
				}
				return unwrapped
			}
			return unwrapListContainers(typed["data"])
		}
		for key, elem := range typed {
			typed[key] = unwrapListContainers(elem)
		}
		return typed
	case []any:
		for idx, elem := range typed {
			typed[idx] = unwrapListContainers(elem)
		}
		return typed
	default:
		return value
	}
}

// reduceForeignKeys swaps an embedded array of full child objects for an array
// of their ids (nil when empty), so full-fidelity child data lives only in the
// child stream. Applies to the three parent streams in foreignKeyFields.
func reduceForeignKeys(record types.Record, stream string) types.Record {
	field, found := foreignKeyFields[stream]
	if !found {
		return record
	}

	embedded, ok := record[field].([]any)
	if !ok || len(embedded) == 0 {
		if _, present := record[field]; present {
			record[field] = nil
		}
		return record
	}

	ids := make([]any, 0, len(embedded))
	for _, elem := range embedded {
		if child, ok := elem.(map[string]any); ok {
			if id, ok := child["id"].(string); ok {
				ids = append(ids, id)
				continue
			}
		}
		ids = append(ids, elem)
	}
	record[field] = ids
	return record
}

// synthesizeChildID gives child records a stable identity. The native id field
// of some child types is not unique across the dataset; the API-provided
// stable id under child.UniqueIDField is preferred. When absent the literal id
// is kept and the relationship pointer is backfilled from it so it is never
// left null. The owning parent's id is always attached as a foreign key.
// Fallback precedence is tied to the pinned upstream API version.
func synthesizeChildID(record types.Record, child ChildDef, parentID string) types.Record {
	if child.UniqueIDField != "" {
		if stable, ok := record[child.UniqueIDField].(string); ok && stable != "" {
			record["id"] = stable
		} else if id, ok := record["id"].(string); ok && id != "" && child.RefField != "" {
			if record[child.RefField] == nil {
				record[child.RefField] = id
			}
		}
	}

	record[child.ParentFK] = parentID
	return record
}

// stampUpdated sets the synthetic updated field; created == updated marks a
// record the update pass has not touched yet.
func stampUpdated(record types.Record, epoch int64) types.Record {
	record[constants.UpdatedField] = epoch
	return record
}

// epochValue reads an integer epoch field, tolerating the numeric types a
// JSON decode can produce.
func epochValue(record types.Record, key string) (int64, bool) {
	switch value := record[key].(type) {
	case int64:
		return value, true
	case int:
		return int64(value), true
	case float64:
		return int64(value), true
	case json.Number:
		parsed, err := value.Int64()
		return parsed, err == nil
	default:
		return 0, false
	}
}

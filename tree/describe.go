package tree

import (
	"fmt"
	"sort"
)

// Field describes one leaf of a tree and the type of its value.
type Field struct {
	Path string `json:"path" yaml:"path"`
	Type string `json:"type" yaml:"type"`
}

// Describe lists the leaves of v with their types in path order. Empty
// mappings are reported as "map" and ordered collections as "[]<type of the
// first element>".
func Describe(v any) []Field {
	fields := describe(v, "")
	if fields == nil {
		return []Field{}
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Path < fields[j].Path })
	return fields
}

func describe(value any, prefix string) []Field {
	switch typed := value.(type) {
	case map[string]any:
		if len(typed) == 0 {
			if prefix == "" {
				return nil
			}
			return []Field{{Path: prefix, Type: "map"}}
		}
		var fields []Field
		for _, key := range SortedKeys(typed) {
			fields = append(fields, describe(typed[key], joinPrefix(prefix, key))...)
		}
		return fields
	case []any:
		elementType := "any"
		if len(typed) > 0 {
			elementType = typeName(typed[0])
		}
		return []Field{{Path: prefix, Type: "[]" + elementType}}
	default:
		if prefix == "" {
			return nil
		}
		return []Field{{Path: prefix, Type: typeName(typed)}}
	}
}

func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "integer"
	case float32, float64:
		return "number"
	case map[string]any:
		return "map"
	default:
		return fmt.Sprintf("%T", value)
	}
}

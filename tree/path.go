package tree

import (
	"sort"
	"strings"
)

// Separator joins path segments in dotted paths.
const Separator = "."

// SplitPath converts a dotted path ("main.networks.ethereum") into segments.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, Separator)
}

// JoinPath converts segments back into a dotted path.
func JoinPath(segments ...string) string {
	return strings.Join(segments, Separator)
}

// Lookup returns the node found at path. Missing intermediate nodes and
// intermediate nodes that are not mappings report ok=false.
func Lookup(root any, path ...string) (any, bool) {
	current := root
	for _, segment := range path {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Map returns the mapping found at path, or ok=false when the node is absent
// or is not a mapping.
func Map(root any, path ...string) (map[string]any, bool) {
	value, ok := Lookup(root, path...)
	if !ok {
		return nil, false
	}
	node, ok := value.(map[string]any)
	if !ok || node == nil {
		return nil, false
	}
	return node, true
}

// String returns the string found at path.
func String(root any, path ...string) (string, bool) {
	value, ok := Lookup(root, path...)
	if !ok {
		return "", false
	}
	s, ok := value.(string)
	return s, ok
}

// EnsureMap walks path from root and returns the mapping at its end. Absent
// nodes and nodes that are not mappings are replaced by empty mappings along
// the way. root must not be nil.
func EnsureMap(root map[string]any, path ...string) map[string]any {
	current := root
	for _, segment := range path {
		next, ok := current[segment].(map[string]any)
		if !ok || next == nil {
			next = map[string]any{}
			current[segment] = next
		}
		current = next
	}
	return current
}

// Set stores value at path, creating intermediate mappings as needed.
func Set(root map[string]any, value any, path ...string) {
	if len(path) == 0 {
		return
	}
	parent := EnsureMap(root, path[:len(path)-1]...)
	parent[path[len(path)-1]] = value
}

// SortedKeys returns the keys of m in ascending order.
func SortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

package tree

import (
	"reflect"
	"sort"
	"strings"
)

// Delta lists the leaf paths that differ between two trees.
type Delta struct {
	Added   []string `json:"added,omitempty"`
	Changed []string `json:"changed,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// Empty reports whether the trees were equal.
func (d Delta) Empty() bool {
	return len(d.Added) == 0 && len(d.Changed) == 0 && len(d.Removed) == 0
}

// LeafPaths returns the dotted path of every leaf under v in sorted order.
// Empty mappings and ordered collections count as leaves.
func LeafPaths(v any) []string {
	leaves := Leaves(v)
	paths := make([]string, 0, len(leaves))
	for path := range leaves {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Leaves flattens v into a map from dotted leaf path to leaf value.
func Leaves(v any) map[string]any {
	out := map[string]any{}
	collectLeaves(v, "", out)
	return out
}

func collectLeaves(value any, prefix string, out map[string]any) {
	switch typed := value.(type) {
	case map[string]any:
		if len(typed) == 0 {
			if prefix != "" {
				out[prefix] = typed
			}
			return
		}
		for key, child := range typed {
			collectLeaves(child, joinPrefix(prefix, key), out)
		}
	default:
		if prefix == "" {
			return
		}
		out[prefix] = typed
	}
}

// Diff compares the leaves of before and after. A leaf that only disappeared
// because an empty mapping was filled in is not reported as removed.
func Diff(before, after any) Delta {
	oldLeaves := Leaves(before)
	newLeaves := Leaves(after)

	var delta Delta
	for path, value := range newLeaves {
		previous, ok := oldLeaves[path]
		switch {
		case !ok:
			delta.Added = append(delta.Added, path)
		case !reflect.DeepEqual(previous, value):
			delta.Changed = append(delta.Changed, path)
		}
	}
	for path := range oldLeaves {
		if _, ok := newLeaves[path]; ok {
			continue
		}
		if hasDescendant(delta.Added, path) {
			continue
		}
		delta.Removed = append(delta.Removed, path)
	}

	sort.Strings(delta.Added)
	sort.Strings(delta.Changed)
	sort.Strings(delta.Removed)
	return delta
}

func hasDescendant(paths []string, prefix string) bool {
	for _, path := range paths {
		if strings.HasPrefix(path, prefix+Separator) {
			return true
		}
	}
	return false
}

func joinPrefix(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + Separator + segment
}

// Package tree holds the generic helpers used to inspect and upgrade a state
// tree: the nested map[string]any document decoded from persisted JSON or
// YAML. Nodes are mappings (map[string]any), ordered collections ([]any) or
// scalars. Every helper tolerates missing or mistyped intermediate nodes and
// treats them as absent.
package tree

package hydrate

import (
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-state-migrate/tree"
)

// Context identifies the tree node being decoded.
type Context struct {
	// Path is the dotted path of the node, e.g. "main.networks.ethereum.137".
	Path string
	// Key is the last segment of Path.
	Key string
}

// PreHook lets callers mutate or normalise the node before decoding.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook lets callers adjust or validate the decoded value.
type PostHook[T any] func(Context, *T) error

// DecoderOption configures a Decoder instance.
type DecoderOption[T any] func(*Decoder[T])

// Decoder converts state tree nodes into typed values.
type Decoder[T any] struct {
	preHooks  []PreHook
	postHooks []PostHook[T]
}

// WithPreHook applies hook prior to decoding.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// NewDecoder returns a Decoder configured with opts.
func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts node into T, running pre hooks on a copy of node and post
// hooks on the result. node itself is never modified.
func (d *Decoder[T]) Decode(ctx Context, node map[string]any) (T, error) {
	var zero T

	if node == nil {
		return zero, fmt.Errorf("hydrate: node %q is nil", ctx.Path)
	}

	current := tree.CloneMap(node)
	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: pre-hook for %q failed: %w", ctx.Path, err)
		}
		if next != nil {
			current = next
		}
	}

	buffer, err := json.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("hydrate: marshal %q: %w", ctx.Path, err)
	}
	var result T
	if err := json.Unmarshal(buffer, &result); err != nil {
		return zero, fmt.Errorf("hydrate: decode %q: %w", ctx.Path, err)
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: post-hook for %q failed: %w", ctx.Path, err)
		}
	}

	return result, nil
}

// DecodeChildren decodes every mapping child of the node at path under root,
// in key order. Children that are not mappings are skipped. A missing node
// yields no results.
func (d *Decoder[T]) DecodeChildren(root map[string]any, path ...string) ([]T, error) {
	parent, ok := tree.Map(root, path...)
	if !ok {
		return nil, nil
	}
	var out []T
	for _, key := range tree.SortedKeys(parent) {
		child, ok := parent[key].(map[string]any)
		if !ok || child == nil {
			continue
		}
		childPath := append(append([]string(nil), path...), key)
		value, err := d.Decode(Context{Path: tree.JoinPath(childPath...), Key: key}, child)
		if err != nil {
			return nil, err
		}
		out = append(out, value)
	}
	return out, nil
}

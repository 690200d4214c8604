package tree

import "fmt"

// Normalize rewrites decoder output into the node shapes the rest of the
// package expects. YAML decoders produce map[any]any for mappings with
// numeric keys such as chain ids; those become map[string]any with keys
// formatted by fmt. map[string]any and []any are walked so nested mappings
// are converted too. Every other value, typed containers included, is
// returned as it is.
func Normalize(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		if typed == nil {
			return typed
		}
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			out[key] = Normalize(value)
		}
		return out
	case map[any]any:
		if typed == nil {
			return map[string]any(nil)
		}
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			out[fmt.Sprint(key)] = Normalize(value)
		}
		return out
	case []any:
		if typed == nil {
			return typed
		}
		out := make([]any, len(typed))
		for i, value := range typed {
			out[i] = Normalize(value)
		}
		return out
	default:
		return v
	}
}

// NormalizeMap normalizes v and returns it as a root mapping. Anything that
// is not a mapping yields an empty one.
func NormalizeMap(v any) map[string]any {
	if m, ok := Normalize(v).(map[string]any); ok && m != nil {
		return m
	}
	return map[string]any{}
}

package tree

import (
	"encoding/json"
	"reflect"
)

// FillDefaults returns a copy of node where every leaf that is absent (or
// nil) takes its value from defaults. Leaves already present in node are kept
// as they are. When defaults holds a mapping at a path where node holds
// something else, the node value is malformed and the default mapping wins.
func FillDefaults(node, defaults map[string]any) map[string]any {
	var strong any
	if node != nil {
		strong = node
	}
	merged, ok := mergeNode(strong, defaults).(map[string]any)
	if !ok || merged == nil {
		return map[string]any{}
	}
	return merged
}

func mergeNode(strong, weak any) any {
	if isNil(strong) {
		return Clone(weak)
	}

	strongMap, strongIsMap := strong.(map[string]any)
	weakMap, weakIsMap := weak.(map[string]any)
	if weakIsMap && weakMap == nil {
		weakIsMap = false
	}

	switch {
	case strongIsMap && weakIsMap:
		result := make(map[string]any, len(strongMap)+len(weakMap))
		for key, value := range weakMap {
			result[key] = Clone(value)
		}
		for key, value := range strongMap {
			if existing, ok := result[key]; ok {
				result[key] = mergeNode(value, existing)
				continue
			}
			result[key] = Clone(value)
		}
		return result
	case weakIsMap && !strongIsMap:
		return Clone(weak)
	default:
		return Clone(strong)
	}
}

// Clone returns a deep copy of v. Mappings and ordered collections produced
// by JSON or YAML decoding take a fast path; typed maps, slices, arrays and
// pointers are copied through reflection. Structs such as time.Time are
// opaque leaves and are returned as they are.
func Clone(v any) any {
	switch typed := v.(type) {
	case nil:
		return nil
	case map[string]any:
		if typed == nil {
			return typed
		}
		out := make(map[string]any, len(typed))
		for key, value := range typed {
			out[key] = Clone(value)
		}
		return out
	case []any:
		if typed == nil {
			return typed
		}
		out := make([]any, len(typed))
		for i, value := range typed {
			out[i] = Clone(value)
		}
		return out
	case string, bool, int, int32, int64, uint, uint32, uint64, float32, float64, json.Number:
		return typed
	}

	cloned := cloneValue(reflect.ValueOf(v))
	if !cloned.IsValid() {
		return nil
	}
	return cloned.Interface()
}

// CloneMap is Clone for the common case of a root mapping.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return Clone(m).(map[string]any)
}

func cloneValue(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.New(v.Type().Elem())
		clone.Elem().Set(cloneValue(v.Elem()))
		return clone
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := cloneValue(v.Elem())
		if !elem.IsValid() {
			return reflect.Zero(v.Type())
		}
		return elem.Convert(v.Type())
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			value := cloneValue(iter.Value())
			if !value.IsValid() {
				value = reflect.Zero(v.Type().Elem())
			}
			clone.SetMapIndex(iter.Key(), value)
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	case reflect.Array:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	default:
		clone := reflect.New(v.Type()).Elem()
		clone.Set(v)
		return clone
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

package loader

import (
	"fmt"
	"reflect"
	"strings"
)

// maxDecodeDepth bounds RecursiveDecode on pathological inputs.
const maxDecodeDepth = 20

// TryDecode parses a string leaf that holds an embedded document, such as a ConfigMap value
// carrying YAML or a JSON annotation. Only results that are mappings or sequences count;
// single-line strings must open a JSON object or array to be considered.
func TryDecode(value string) (any, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return nil, false
	}
	if !strings.Contains(s, "\n") && !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "[") {
		return nil, false
	}
	doc, err := Load([]byte(s), Options{})
	if err != nil {
		return nil, false
	}
	root := doc.Root()
	if !isStructured(root) {
		return nil, false
	}
	return root, true
}

// RecursiveDecode returns a copy of node with every decodable string leaf replaced by its
// decoded value. Typed maps and slices come back as map[string]any and []any.
func RecursiveDecode(node any) any {
	return recursiveDecode(node, 0)
}

func recursiveDecode(node any, depth int) any {
	if depth > maxDecodeDepth {
		return node
	}
	switch v := node.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = recursiveDecode(val, depth+1)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = recursiveDecode(val, depth+1)
		}
		return out
	case string:
		if decoded, ok := TryDecode(v); ok {
			return recursiveDecode(decoded, depth+1)
		}
		return v
	}

	rv := reflect.ValueOf(node)
	//exhaustive:ignore
	switch rv.Kind() {
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key()
			key := fmt.Sprint(k.Interface())
			if k.Kind() == reflect.String {
				key = k.String()
			}
			out[key] = recursiveDecode(iter.Value().Interface(), depth+1)
		}
		return out
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return node
		}
		out := make([]any, rv.Len())
		for i := range rv.Len() {
			out[i] = recursiveDecode(rv.Index(i).Interface(), depth+1)
		}
		return out
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return recursiveDecode(rv.Elem().Interface(), depth+1)
	}
	return node
}

func isStructured(v any) bool {
	switch v.(type) {
	case nil:
		return false
	case map[string]any, []any:
		return true
	}
	k := reflect.ValueOf(v).Kind()
	return k == reflect.Map || k == reflect.Slice
}

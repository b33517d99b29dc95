// Package navigator reads values out of semi-structured external data (decoded YAML, JSON or
// API objects) using '#'-separated paths such as "status#containerStatuses#0#ready".
package navigator

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/oakwood-commons/cmtui/internal/formatter"
)

// Separator splits path segments.
const Separator = "#"

// ErrNotFound is returned, wrapped, when a path leads nowhere.
var ErrNotFound = errors.New("path not found")

// SplitPath splits a path into segments. Empty segments are dropped, so "a##b" is "a#b".
func SplitPath(path string) []string {
	var out []string
	for _, p := range strings.Split(path, Separator) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinPath is the inverse of SplitPath.
func JoinPath(segments ...string) string {
	return strings.Join(segments, Separator)
}

// DeepGet follows path into obj. Map segments are keys; slice segments are indices, negative
// ones counting from the end. An empty path returns obj.
func DeepGet(obj any, path string) (any, error) {
	cur := obj
	for i, seg := range SplitPath(path) {
		next, err := step(cur, seg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", JoinPath(SplitPath(path)[:i+1]...), err)
		}
		cur = next
	}
	return cur, nil
}

// DeepGetWithFallback is DeepGet returning fallback when the path cannot be followed or ends
// in nil.
func DeepGetWithFallback(obj any, path string, fallback any) any {
	v, err := DeepGet(obj, path)
	if err != nil || v == nil {
		return fallback
	}
	return v
}

// DeepGetString is DeepGetWithFallback rendered as a single-line string.
func DeepGetString(obj any, path, fallback string) string {
	v, err := DeepGet(obj, path)
	if err != nil || v == nil {
		return fallback
	}
	return formatter.Stringify(v)
}

func step(cur any, seg string) (any, error) {
	switch t := cur.(type) {
	case map[string]any:
		v, ok := t[seg]
		if !ok {
			return nil, fmt.Errorf("key %q: %w", seg, ErrNotFound)
		}
		return v, nil
	case []any:
		i, err := index(seg, len(t))
		if err != nil {
			return nil, err
		}
		return t[i], nil
	case nil:
		return nil, fmt.Errorf("descending into nil at %q: %w", seg, ErrNotFound)
	}

	rv := reflect.ValueOf(cur)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, fmt.Errorf("descending into nil at %q: %w", seg, ErrNotFound)
		}
		rv = rv.Elem()
	}
	switch rv.Kind() { //nolint:exhaustive // only container kinds can be descended into
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("cannot descend into %T at %q", cur, seg)
		}
		v := rv.MapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, fmt.Errorf("key %q: %w", seg, ErrNotFound)
		}
		return v.Interface(), nil
	case reflect.Slice, reflect.Array:
		i, err := index(seg, rv.Len())
		if err != nil {
			return nil, err
		}
		return rv.Index(i).Interface(), nil
	case reflect.Struct:
		if v, ok := structField(rv, seg); ok {
			return v, nil
		}
		return nil, fmt.Errorf("field %q: %w", seg, ErrNotFound)
	}
	return nil, fmt.Errorf("cannot descend into %T at %q", cur, seg)
}

func index(seg string, n int) (int, error) {
	i, err := strconv.Atoi(seg)
	if err != nil {
		return 0, fmt.Errorf("expected numeric index but got %q", seg)
	}
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("index %s out of range: %w", seg, ErrNotFound)
	}
	return i, nil
}

// structField matches a segment against the json tag, then the Go field name.
func structField(rv reflect.Value, key string) (any, bool) {
	typ := rv.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := strings.Split(f.Tag.Get("json"), ",")[0]
		if tag == "-" {
			continue
		}
		if tag == key || (tag == "" && f.Name == key) || strings.EqualFold(f.Name, key) {
			return rv.Field(i).Interface(), true
		}
	}
	return nil, false
}

// Field is one key/value pair of a node.
type Field struct {
	Key   string
	Value any
}

// Fields lists the direct children of node: sorted keys for maps, "[i]" for sequences and a
// single "(value)" entry for scalars and empty containers.
func Fields(node any) []Field {
	switch t := node.(type) {
	case map[string]any:
		if len(t) == 0 {
			break
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]Field, len(keys))
		for i, k := range keys {
			out[i] = Field{Key: k, Value: t[k]}
		}
		return out
	case []any:
		if len(t) == 0 {
			break
		}
		out := make([]Field, len(t))
		for i, v := range t {
			out[i] = Field{Key: fmt.Sprintf("[%d]", i), Value: v}
		}
		return out
	default:
		if m, ok := toStringKeyMap(node); ok && len(m) > 0 {
			return Fields(m)
		}
		rv := reflect.ValueOf(node)
		if rv.IsValid() && rv.Kind() == reflect.Slice && rv.Len() > 0 {
			items := make([]any, rv.Len())
			for i := range items {
				items[i] = rv.Index(i).Interface()
			}
			return Fields(items)
		}
	}
	return []Field{{Key: "(value)", Value: node}}
}

// Paths walks node depth-first and returns every leaf path in sorted key order, for path
// completion and for the info pane.
func Paths(node any) []string {
	var out []string
	var walk func(prefix []string, v any)
	walk = func(prefix []string, v any) {
		switch t := v.(type) {
		case map[string]any:
			if len(t) == 0 {
				out = append(out, JoinPath(prefix...))
				return
			}
			keys := make([]string, 0, len(t))
			for k := range t {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walk(append(append([]string{}, prefix...), k), t[k])
			}
		case []any:
			if len(t) == 0 {
				out = append(out, JoinPath(prefix...))
				return
			}
			for i, item := range t {
				walk(append(append([]string{}, prefix...), strconv.Itoa(i)), item)
			}
		default:
			out = append(out, JoinPath(prefix...))
		}
	}
	walk(nil, node)
	return out
}

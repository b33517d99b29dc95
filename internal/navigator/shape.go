package navigator

import (
	"reflect"
	"slices"
	"sort"
)

// ShapeKind describes the general structure of a document.
type ShapeKind string

const (
	ShapeScalar ShapeKind = "scalar"
	ShapeMap    ShapeKind = "map"
	ShapeArray  ShapeKind = "array"
	// ShapeRecords is a sequence whose items are all mappings; it renders as a list pane.
	ShapeRecords ShapeKind = "records"
)

// ShapeInfo describes a document for picking a view.
type ShapeInfo struct {
	Kind ShapeKind
	// Fields is the union of record keys, sorted, for ShapeRecords.
	Fields []string
	Length int
}

// DetectShape classifies data.
func DetectShape(data any) ShapeInfo {
	if data == nil {
		return ShapeInfo{Kind: ShapeScalar}
	}
	rv := reflect.ValueOf(data)
	switch rv.Kind() { //nolint:exhaustive // only map and slice are structurally relevant
	case reflect.Map:
		return ShapeInfo{Kind: ShapeMap, Length: rv.Len()}
	case reflect.Slice, reflect.Array:
		if recs, ok := Records(data); ok {
			return ShapeInfo{Kind: ShapeRecords, Fields: Columns(recs, nil), Length: len(recs)}
		}
		return ShapeInfo{Kind: ShapeArray, Length: rv.Len()}
	}
	return ShapeInfo{Kind: ShapeScalar}
}

// Records returns the items of a non-empty sequence of mappings.
func Records(data any) ([]map[string]any, bool) {
	rv := reflect.ValueOf(data)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) || rv.Len() == 0 {
		return nil, false
	}
	out := make([]map[string]any, rv.Len())
	for i := range out {
		m, ok := toStringKeyMap(rv.Index(i).Interface())
		if !ok {
			return nil, false
		}
		out[i] = m
	}
	return out, true
}

// Columns returns the keys used by records: the keys named in order first, when present, then
// the remaining keys sorted.
func Columns(records []map[string]any, order []string) []string {
	seen := map[string]bool{}
	for _, r := range records {
		for k := range r {
			seen[k] = true
		}
	}
	var out []string
	for _, k := range order {
		if seen[k] && !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	var rest []string
	for k := range seen {
		if !slices.Contains(out, k) {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// IsHomogeneous reports whether every record has exactly the same keys.
func IsHomogeneous(records []map[string]any) bool {
	if len(records) == 0 {
		return false
	}
	for _, r := range records[1:] {
		if len(r) != len(records[0]) {
			return false
		}
		for k := range records[0] {
			if _, ok := r[k]; !ok {
				return false
			}
		}
	}
	return true
}

// toStringKeyMap converts maps with string-kinded keys to map[string]any.
func toStringKeyMap(v any) (map[string]any, bool) {
	if v == nil {
		return nil, false
	}
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	result := make(map[string]any, rv.Len())
	for _, key := range rv.MapKeys() {
		result[key.String()] = rv.MapIndex(key).Interface()
	}
	return result, true
}

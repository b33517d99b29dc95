// Package limiter restricts which records reach a list pane: skip the first N, keep the next
// M, or keep only the last N.
package limiter

import (
	"fmt"
	"reflect"
	"sort"
)

// Config holds the record-limiting parameters.
type Config struct {
	Limit  int // keep this many records (0 = unlimited)
	Offset int // skip the first N records
	Tail   int // keep only the last N records; excludes Limit and overrides Offset
}

// Validate rejects negative values and Limit combined with Tail.
func (c Config) Validate() error {
	if c.Limit < 0 {
		return fmt.Errorf("--limit must be non-negative, got %d", c.Limit)
	}
	if c.Offset < 0 {
		return fmt.Errorf("--offset must be non-negative, got %d", c.Offset)
	}
	if c.Tail < 0 {
		return fmt.Errorf("--tail must be non-negative, got %d", c.Tail)
	}
	if c.Limit > 0 && c.Tail > 0 {
		return fmt.Errorf("--limit and --tail are mutually exclusive")
	}
	return nil
}

// IsActive reports whether any limiting is configured.
func (c Config) IsActive() bool {
	return c.Limit > 0 || c.Offset > 0 || c.Tail > 0
}

// Bounds returns the half-open range of n records that survive.
func (c Config) Bounds(n int) (start, end int) {
	if c.Tail > 0 {
		return max(n-c.Tail, 0), n
	}
	start = min(c.Offset, n)
	end = n
	if c.Limit > 0 {
		end = min(start+c.Limit, n)
	}
	return start, end
}

// Apply limits a slice of records.
func Apply[T any](c Config, records []T) []T {
	if !c.IsActive() {
		return records
	}
	start, end := c.Bounds(len(records))
	return records[start:end]
}

// ApplyDocument limits a decoded document: sequences by position, mappings by sorted key.
// Other values are returned unchanged.
func (c Config) ApplyDocument(data any) any {
	if !c.IsActive() {
		return data
	}
	switch v := data.(type) {
	case []any:
		return Apply(c, v)
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]any)
		for _, k := range Apply(c, keys) {
			out[k] = v[k]
		}
		return out
	}
	rv := reflect.ValueOf(data)
	if rv.Kind() == reflect.Slice {
		start, end := c.Bounds(rv.Len())
		return rv.Slice(start, end).Interface()
	}
	return data
}

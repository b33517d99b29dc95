package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xlab/treeprint"
)

// TreeOptions controls FormatTree.
type TreeOptions struct {
	// MaxDepth stops descending below this many levels (0 = unlimited).
	MaxDepth int
	// MaxInline is the longest scalar list shown on one line (default 3).
	MaxInline int
	// MaxStringLen truncates scalars to this many runes (0 = unlimited).
	MaxStringLen int
}

// FormatTree renders a decoded document as an outline. Mappings become branches labelled by
// key, sequences branches labelled by index, and short scalar lists stay on their key's line.
func FormatTree(node any, opts TreeOptions) string {
	if opts.MaxInline == 0 {
		opts.MaxInline = 3
	}
	t := treeprint.New()
	switch v := node.(type) {
	case map[string]any, []any:
		addChildren(t, v, opts, 0)
	default:
		t.AddNode(scalar(v, opts))
	}
	return t.String()
}

func addChildren(branch treeprint.Tree, node any, opts TreeOptions, depth int) {
	switch v := node.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			addValue(branch, k, v[k], opts, depth)
		}
	case []any:
		for i, item := range v {
			addValue(branch, fmt.Sprintf("[%d]", i), item, opts, depth)
		}
	}
}

func addValue(branch treeprint.Tree, key string, val any, opts TreeOptions, depth int) {
	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		branch.AddNode(key + ": ...")
		return
	}
	switch v := val.(type) {
	case map[string]any:
		if len(v) == 0 {
			branch.AddNode(key + ": {}")
			return
		}
		addChildren(branch.AddBranch(key), v, opts, depth+1)
	case []any:
		switch {
		case len(v) == 0:
			branch.AddNode(key + ": []")
		case scalars(v) && len(v) <= opts.MaxInline:
			parts := make([]string, len(v))
			for i, item := range v {
				parts[i] = scalar(item, opts)
			}
			branch.AddNode(key + ": [" + strings.Join(parts, ", ") + "]")
		case scalars(v):
			branch.AddNode(fmt.Sprintf("%s: [%d items]", key, len(v)))
		default:
			addChildren(branch.AddBranch(key), v, opts, depth+1)
		}
	default:
		branch.AddNode(key + ": " + scalar(v, opts))
	}
}

func scalars(items []any) bool {
	for _, item := range items {
		switch item.(type) {
		case map[string]any, []any:
			return false
		}
	}
	return true
}

func scalar(v any, opts TreeOptions) string {
	s := Stringify(v)
	if v == nil {
		s = "null"
	}
	r := []rune(s)
	if opts.MaxStringLen > 0 && len(r) > opts.MaxStringLen {
		if opts.MaxStringLen <= 3 {
			return "..."
		}
		return string(r[:opts.MaxStringLen-3]) + "..."
	}
	return s
}

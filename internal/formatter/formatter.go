// Package formatter turns raw values into themed text for list and info panes. Every
// formatter produces a themes.ThemeArray and finishes in AlignAndPad.
package formatter

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/oakwood-commons/cmtui/internal/themes"
)

// Options are the per-field formatting options a view can set.
type Options struct {
	// FieldColors are applied positionally, e.g. numeric then unit, or per list item.
	// The last entry repeats.
	FieldColors []themes.ThemeAttr
	// FieldSeparators join the sub-fields of tuple-shaped items.
	FieldSeparators []themes.ThemeRef
	FieldPrefixes   []themes.ThemeArray
	FieldSuffixes   []themes.ThemeArray
	// ItemSeparator joins list items; nil means separators/list.
	ItemSeparator *themes.ThemeRef
	// Ellipsise cuts lists after this many items; 0 keeps everything.
	Ellipsise int
	// Ellipsis is appended when a list is cut; zero value means separators/ellipsis.
	Ellipsis themes.ThemeRef
	Mapping  *Mapping
	// ExtraNumeric adds characters that count as numeric to numerical_with_units.
	ExtraNumeric string
}

// FieldContext carries everything a formatter needs besides the value.
type FieldContext struct {
	Name       string
	Width      int
	Pad        int
	RightAlign bool
	Selected   bool
	Options    Options
	// Resolver measures theme references; nil uses the default theme.
	Resolver themes.RefResolver
	// Now anchors ages; zero means time.Now().
	Now time.Time
}

func (c FieldContext) resolver() themes.RefResolver {
	if c.Resolver == nil {
		return themes.Default()
	}
	return c.Resolver
}

func (c FieldContext) now() time.Time {
	if c.Now.IsZero() {
		return time.Now()
	}
	return c.Now
}

// color returns FieldColors[i], repeating the last entry, or fallback.
func (c FieldContext) color(i int, fallback themes.ThemeAttr) themes.ThemeAttr {
	colors := c.Options.FieldColors
	if len(colors) == 0 {
		return fallback
	}
	if i >= len(colors) {
		i = len(colors) - 1
	}
	return colors[i]
}

func (c FieldContext) str(text string, attr themes.ThemeAttr) themes.ThemeString {
	return themes.ThemeString{Text: text, Attr: attr, Selected: c.Selected}
}

func (c FieldContext) ref(r themes.ThemeRef) themes.ThemeRef {
	r.Selected = c.Selected
	return r
}

func pick(arrays []themes.ThemeArray, i int) themes.ThemeArray {
	if len(arrays) == 0 {
		return nil
	}
	if i >= len(arrays) {
		i = len(arrays) - 1
	}
	return arrays[i]
}

// withAffixes wraps a with the i-th prefix and suffix.
func (c FieldContext) withAffixes(a themes.ThemeArray, i int) themes.ThemeArray {
	pre := pick(c.Options.FieldPrefixes, i)
	suf := pick(c.Options.FieldSuffixes, i)
	if len(pre) == 0 && len(suf) == 0 {
		return a
	}
	return themes.Concat(pre.Select(c.Selected), a, suf.Select(c.Selected))
}

// ColumnRef separates columns in list rows.
var ColumnRef = themes.ThemeRef{Context: "separators", Key: "column"}

// AlignAndPad pads a to the field width, on the left when right-aligned, then appends Pad
// column separators. Content wider than the field is left alone.
func AlignAndPad(a themes.ThemeArray, ctx FieldContext) themes.ThemeArray {
	out := a
	if n := a.Len(ctx.resolver()); ctx.Width > n {
		pad := ctx.str(strings.Repeat(" ", ctx.Width-n), themes.DefaultAttr)
		if ctx.RightAlign {
			out = themes.Concat(themes.ThemeArray{pad}, a)
		} else {
			out = a.Append(pad)
		}
	}
	for i := 0; i < ctx.Pad; i++ {
		out = out.Append(ctx.ref(ColumnRef))
	}
	return out
}

// Stringify returns a compact single-line string for an arbitrary value.
func Stringify(v any) string {
	if v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return escapeScalarString(t)
	case fmt.Stringer:
		return escapeScalarString(t.String())
	case bool, int, int32, int64, uint, uint32, uint64:
		return fmt.Sprint(t)
	case float64:
		return formatFloat(t, -1)
	case float32:
		return formatFloat(float64(t), -1)
	case map[string]any, []any:
		if b, err := json.Marshal(t); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", t)
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() { //nolint:exhaustive // only complex types need JSON marshaling
		case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
			if b, err := json.Marshal(v); err == nil {
				return string(b)
			}
		case reflect.Ptr:
			if rv.IsNil() {
				return ""
			}
			return Stringify(rv.Elem().Interface())
		}
		return fmt.Sprintf("%v", v)
	}
}

// StringifyPreserveNewlines keeps real line breaks in strings, for the info pane.
func StringifyPreserveNewlines(v any) string {
	if s, ok := v.(string); ok {
		return normalizeScalarString(s, false, true)
	}
	return Stringify(v)
}

func escapeScalarString(s string) string {
	return normalizeScalarString(s, true, false)
}

// normalizeScalarString folds CRLF and CR into LF. escapeNewlines renders LF as a literal
// "\n"; expandEscapedNewlines turns literal "\n" sequences into real line breaks.
func normalizeScalarString(s string, escapeNewlines bool, expandEscapedNewlines bool) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	if expandEscapedNewlines {
		s = strings.ReplaceAll(s, "\\r\\n", "\n")
		s = strings.ReplaceAll(s, "\\r", "\n")
		s = strings.ReplaceAll(s, "\\n", "\n")
	}
	if escapeNewlines {
		s = strings.ReplaceAll(s, "\n", "\\n")
	}
	return s
}

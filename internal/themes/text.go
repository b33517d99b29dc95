// Package themes holds the themed text model (styled fragments and arrays of them), the theme
// mapping loaded from YAML, and the resolver that turns a theme attribute into a concrete style.
package themes

import (
	"fmt"
	"strings"

	runewidth "github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/cmtui/internal/errs"
)

const facility = "themes"

// ThemeAttr points at a style in the loaded theme.
type ThemeAttr struct {
	Context string
	Key     string
}

func (a ThemeAttr) String() string { return a.Context + "/" + a.Key }

// Fragment is either a ThemeString or a ThemeRef.
type Fragment interface {
	isFragment()
}

// ThemeString is literal text with a style.
type ThemeString struct {
	Text     string
	Attr     ThemeAttr
	Selected bool
}

func (ThemeString) isFragment() {}

// ThemeRef is a pre-authored fragment list stored in the theme under Context/Key.
type ThemeRef struct {
	Context  string
	Key      string
	Selected bool
}

func (ThemeRef) isFragment() {}

func (r ThemeRef) String() string { return r.Context + "/" + r.Key }

// RefResolver expands theme references into literal fragments.
type RefResolver interface {
	Fragments(ref ThemeRef) ([]ThemeString, error)
}

// ThemeArray is an ordered sequence of fragments.
type ThemeArray []Fragment

// Str is shorthand for a single unselected ThemeString.
func Str(text string, ctx, key string) ThemeString {
	return ThemeString{Text: text, Attr: ThemeAttr{Context: ctx, Key: key}}
}

// NewArray builds a ThemeArray, rejecting nil elements.
func NewArray(parts ...Fragment) (ThemeArray, error) {
	out := make(ThemeArray, 0, len(parts))
	for i, p := range parts {
		if p == nil {
			return nil, errs.Programming(facility, "element %d of themed array is nil", i)
		}
		out = append(out, p)
	}
	return out, nil
}

// ArrayFrom builds a ThemeArray from untyped values, as produced by data-driven callers.
// Pointers to fragments are dereferenced; anything else is a defect.
func ArrayFrom(values ...any) (ThemeArray, error) {
	out := make(ThemeArray, 0, len(values))
	for i, v := range values {
		switch f := v.(type) {
		case ThemeString:
			out = append(out, f)
		case ThemeRef:
			out = append(out, f)
		case *ThemeString:
			if f == nil {
				return nil, errs.Programming(facility, "element %d of themed array is a nil *ThemeString", i)
			}
			out = append(out, *f)
		case *ThemeRef:
			if f == nil {
				return nil, errs.Programming(facility, "element %d of themed array is a nil *ThemeRef", i)
			}
			out = append(out, *f)
		default:
			return nil, errs.Programming(facility, "element %d of themed array has type %T; want ThemeString or ThemeRef", i, v)
		}
	}
	return out, nil
}

// Concat joins arrays into a new array.
func Concat(arrays ...ThemeArray) ThemeArray {
	n := 0
	for _, a := range arrays {
		n += len(a)
	}
	out := make(ThemeArray, 0, n)
	for _, a := range arrays {
		out = append(out, a...)
	}
	return out
}

// Append returns a copy of a with parts added.
func (a ThemeArray) Append(parts ...Fragment) ThemeArray {
	return Concat(a, parts)
}

// Flatten replaces every reference with the fragments it resolves to. A reference inherits
// the selected flag it was created with.
func (a ThemeArray) Flatten(r RefResolver) ([]ThemeString, error) {
	out := make([]ThemeString, 0, len(a))
	for i, f := range a {
		switch v := f.(type) {
		case ThemeString:
			out = append(out, v)
		case ThemeRef:
			if r == nil {
				return nil, errs.Programming(facility, "cannot resolve %s without a theme", v)
			}
			frags, err := r.Fragments(v)
			if err != nil {
				return nil, err
			}
			for _, fs := range frags {
				fs.Selected = v.Selected
				out = append(out, fs)
			}
		default:
			return nil, errs.Programming(facility, "element %d of themed array has type %T", i, f)
		}
	}
	return out, nil
}

// MustFlatten is Flatten for callers where an unresolvable reference is a defect.
func (a ThemeArray) MustFlatten(r RefResolver) []ThemeString {
	out, err := a.Flatten(r)
	if err != nil {
		panic(err)
	}
	return out
}

// Strings converts flattened fragments back into an array.
func Strings(frags []ThemeString) ThemeArray {
	out := make(ThemeArray, len(frags))
	for i, f := range frags {
		out[i] = f
	}
	return out
}

// SingleFragment resolves a reference that is used as a marker and must expand to exactly
// one fragment.
func SingleFragment(r RefResolver, ref ThemeRef) (ThemeString, error) {
	frags, err := r.Fragments(ref)
	if err != nil {
		return ThemeString{}, err
	}
	if len(frags) != 1 {
		return ThemeString{}, errs.Programming(facility, "%s resolves to %d fragments; expected exactly one", ref, len(frags))
	}
	f := frags[0]
	f.Selected = ref.Selected
	return f, nil
}

// Width is the display width of s in terminal cells.
func Width(s string) int {
	return runewidth.StringWidth(s)
}

// Len is the display width of the flattened array, ignoring style.
func (a ThemeArray) Len(r RefResolver) int {
	n := 0
	for _, f := range a.MustFlatten(r) {
		n += Width(f.Text)
	}
	return n
}

// Measure is the display width the array takes on a surface drawing with r. References r
// cannot resolve take no cells, matching how surfaces skip them.
func (a ThemeArray) Measure(r RefResolver) int {
	n := 0
	for _, f := range a {
		switch v := f.(type) {
		case ThemeString:
			n += Width(v.Text)
		case ThemeRef:
			if r == nil {
				continue
			}
			frags, err := r.Fragments(v)
			if err != nil {
				continue
			}
			n += FragmentsLen(frags)
		}
	}
	return n
}

// FragmentsLen sums the display width of already flattened fragments.
func FragmentsLen(frags []ThemeString) int {
	n := 0
	for _, f := range frags {
		n += Width(f.Text)
	}
	return n
}

// PlainText is the unstyled text of the flattened array.
func (a ThemeArray) PlainText(r RefResolver) string {
	var b strings.Builder
	for _, f := range a.MustFlatten(r) {
		b.WriteString(f.Text)
	}
	return b.String()
}

// Text is the unstyled text of literal fragments only; references are skipped.
func (a ThemeArray) Text() string {
	var b strings.Builder
	for _, f := range a {
		if s, ok := f.(ThemeString); ok {
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

// OverrideStyle clones every fragment with its style replaced by attr. References are
// flattened first so their glyphs take the override too.
func (a ThemeArray) OverrideStyle(r RefResolver, attr ThemeAttr) ThemeArray {
	frags := a.MustFlatten(r)
	out := make(ThemeArray, len(frags))
	for i, f := range frags {
		f.Attr = attr
		out[i] = f
	}
	return out
}

// Select returns a copy of a with every fragment's selected flag set to selected.
func (a ThemeArray) Select(selected bool) ThemeArray {
	out := make(ThemeArray, len(a))
	for i, f := range a {
		switch v := f.(type) {
		case ThemeString:
			v.Selected = selected
			out[i] = v
		case ThemeRef:
			v.Selected = selected
			out[i] = v
		default:
			out[i] = f
		}
	}
	return out
}

// cutWidth splits s so that the head is at most w cells wide.
func cutWidth(s string, w int) (head, tail string) {
	width := 0
	for i, r := range s {
		rw := runewidth.RuneWidth(r)
		if width+rw > w {
			return s[:i], s[i:]
		}
		width += rw
	}
	return s, ""
}

// Truncate cuts the array to n cells. Styles are never split; only the text of the last
// fragment that fits is shortened. If a double-width rune straddles the cut, a space keeps
// the result exactly n cells wide.
func (a ThemeArray) Truncate(r RefResolver, n int) ThemeArray {
	frags := a.MustFlatten(r)
	if FragmentsLen(frags) <= n {
		return a
	}
	out := make(ThemeArray, 0, len(frags))
	remaining := n
	for _, f := range frags {
		if remaining <= 0 {
			break
		}
		w := Width(f.Text)
		if w <= remaining {
			out = append(out, f)
			remaining -= w
			continue
		}
		head, _ := cutWidth(f.Text, remaining)
		if pad := remaining - Width(head); pad > 0 {
			head += strings.Repeat(" ", pad)
		}
		f.Text = head
		out = append(out, f)
		remaining = 0
	}
	return out
}

// LineBreakRef is the continuation glyph appended to wrapped lines.
var LineBreakRef = ThemeRef{Context: "separators", Key: "line_break"}

// Wrap splits the array into lines of width cells. With a marker, every line but the last
// ends in the line-break glyph and the text budget shrinks by the glyph's width. Every line
// but the last is exactly width cells; a double-width rune that does not fit moves to the
// next line and a space fills the gap it leaves.
func (a ThemeArray) Wrap(r RefResolver, width int, withMarker bool) []ThemeArray {
	frags := a.MustFlatten(r)
	budget := width
	var marker ThemeString
	if withMarker {
		m, err := SingleFragment(r, LineBreakRef)
		if err != nil {
			panic(err)
		}
		marker = m
		budget -= Width(marker.Text)
	}
	if budget < 1 {
		budget = 1
	}

	var lines []ThemeArray
	var cur ThemeArray
	used := 0
	flush := func() {
		if withMarker {
			cur = append(cur, marker)
		}
		lines = append(lines, cur)
		cur = nil
		used = 0
	}
	for _, f := range frags {
		text := f.Text
		for text != "" {
			if used == budget {
				flush()
			}
			head, tail := cutWidth(text, budget-used)
			if head == "" {
				// a double-width rune does not fit on what is left of this line
				if used == 0 {
					head, tail = firstRune(text)
				} else {
					pad := f
					pad.Text = strings.Repeat(" ", budget-used)
					cur = append(cur, pad)
					flush()
					continue
				}
			}
			part := f
			part.Text = head
			cur = append(cur, part)
			used += Width(head)
			text = tail
		}
	}
	lines = append(lines, cur)
	return lines
}

func firstRune(s string) (string, string) {
	for i := range s {
		if i > 0 {
			return s[:i], s[i:]
		}
	}
	return s, ""
}

// GoString helps test failure output.
func (s ThemeString) GoString() string {
	return fmt.Sprintf("ThemeString{%q, %s, %t}", s.Text, s.Attr, s.Selected)
}

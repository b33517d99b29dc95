package themes

import (
	"errors"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/go-logr/logr"
	"github.com/muesli/termenv"

	"github.com/oakwood-commons/cmtui/internal/errs"
)

// ErrPairsExhausted is returned when no color-pair slot is left for a new (fg, bg) combination.
var ErrPairsExhausted = errors.New("color pairs exhausted")

// Style is a resolved style: concrete colors, attributes and the color-pair slot they use.
type Style struct {
	FG    Color
	BG    Color
	Attrs AttrMask
	Pair  int
}

// ProfileCapacity maps a terminal color profile to the number of color-pair slots.
func ProfileCapacity(p termenv.Profile) int {
	switch p {
	case termenv.TrueColor, termenv.ANSI256:
		return 256
	case termenv.ANSI:
		return 64
	default:
		return 0
	}
}

// DetectCapacity inspects the environment for the color profile of the terminal.
func DetectCapacity() int {
	return ProfileCapacity(termenv.EnvColorProfile())
}

// PairCache hands out color-pair indices lazily, one per distinct (fg, bg). Index 0 is the
// terminal default and is never handed out. Indices are never reused.
type PairCache struct {
	capacity int
	next     int
	index    map[[2]Color]int
}

// NewPairCache creates a cache with room for capacity-1 pairs.
func NewPairCache(capacity int) *PairCache {
	return &PairCache{capacity: capacity, next: 1, index: map[[2]Color]int{}}
}

// Pair returns the index for (fg, bg), allocating one on first use.
func (c *PairCache) Pair(fg, bg Color) (int, error) {
	key := [2]Color{fg, bg}
	if idx, ok := c.index[key]; ok {
		return idx, nil
	}
	if c.next >= c.capacity {
		return 0, ErrPairsExhausted
	}
	idx := c.next
	c.next++
	c.index[key] = idx
	return idx, nil
}

// Len is the number of allocated pairs.
func (c *PairCache) Len() int { return len(c.index) }

// Resolver turns theme attributes into styles. It is owned by the UI goroutine.
type Resolver struct {
	theme   *Theme
	pairs   *PairCache
	log     logr.Logger
	noColor bool
	missing map[ThemeAttr]struct{}
	styles  map[styleKey]lipgloss.Style
}

type styleKey struct {
	attr     ThemeAttr
	selected bool
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger used to report missing theme entries.
func WithLogger(log logr.Logger) ResolverOption {
	return func(r *Resolver) { r.log = log }
}

// WithPairCache replaces the color-pair cache.
func WithPairCache(c *PairCache) ResolverOption {
	return func(r *Resolver) { r.pairs = c }
}

// WithNoColor renders attributes only.
func WithNoColor(noColor bool) ResolverOption {
	return func(r *Resolver) { r.noColor = noColor }
}

// NewResolver creates a resolver over th. A nil theme uses Default().
func NewResolver(th *Theme, opts ...ResolverOption) *Resolver {
	if th == nil {
		th = Default()
	}
	r := &Resolver{
		theme:   th,
		log:     logr.Discard(),
		missing: map[ThemeAttr]struct{}{},
		styles:  map[styleKey]lipgloss.Style{},
	}
	for _, o := range opts {
		o(r)
	}
	if r.pairs == nil {
		r.pairs = NewPairCache(DetectCapacity())
	}
	return r
}

// Theme returns the theme behind the resolver.
func (r *Resolver) Theme() *Theme { return r.theme }

// Fragments resolves a theme reference; the resolver can be passed anywhere a RefResolver is needed.
func (r *Resolver) Fragments(ref ThemeRef) ([]ThemeString, error) {
	return r.theme.Fragments(ref)
}

// Resolve looks up attr. A missing entry falls back to the default style and is logged once.
// The only error is running out of color pairs.
func (r *Resolver) Resolve(attr ThemeAttr, selected bool) (Style, error) {
	e, ok := r.theme.Lookup(attr.Context, attr.Key)
	if !ok || e.IsFragments() {
		if _, seen := r.missing[attr]; !seen {
			r.missing[attr] = struct{}{}
			r.log.V(1).Info("theme entry missing, using default", "context", attr.Context, "key", attr.Key)
		}
		e, _ = r.theme.Lookup(DefaultAttr.Context, DefaultAttr.Key)
	}
	spec := e.Style(selected)
	st := Style{FG: spec.FG, BG: spec.BG, Attrs: spec.Attrs}

	pair, err := r.pairs.Pair(st.FG, st.BG)
	if err != nil && st.FG == BrightBlack {
		st.FG = Blue
		pair, err = r.pairs.Pair(st.FG, st.BG)
	}
	if err != nil {
		return st, err
	}
	st.Pair = pair
	return st, nil
}

func (r *Resolver) color(c Color) string {
	if rgb, ok := r.theme.Palette[c]; ok {
		return rgb.Hex()
	}
	return strconv.Itoa(c.ANSI())
}

// Lipgloss converts a resolved style into a lipgloss style.
func (r *Resolver) Lipgloss(st Style) lipgloss.Style {
	ls := lipgloss.NewStyle()
	if !r.noColor {
		ls = ls.Foreground(lipgloss.Color(r.color(st.FG))).Background(lipgloss.Color(r.color(st.BG)))
	}
	if st.Attrs&AttrBold != 0 {
		ls = ls.Bold(true)
	}
	if st.Attrs&AttrDim != 0 {
		ls = ls.Faint(true)
	}
	if st.Attrs&AttrUnderline != 0 {
		ls = ls.Underline(true)
	}
	return ls
}

// StyleFor resolves attr and converts it, falling back to an unstyled lipgloss style when no
// pair is available.
func (r *Resolver) StyleFor(attr ThemeAttr, selected bool) lipgloss.Style {
	key := styleKey{attr: attr, selected: selected}
	if ls, ok := r.styles[key]; ok {
		return ls
	}
	st, err := r.Resolve(attr, selected)
	var ls lipgloss.Style
	if err != nil {
		ls = lipgloss.NewStyle()
	} else {
		ls = r.Lipgloss(st)
	}
	r.styles[key] = ls
	return ls
}

// Render styles a themed array for direct terminal output.
func (r *Resolver) Render(a ThemeArray) (string, error) {
	frags, err := a.Flatten(r)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, f := range frags {
		b.WriteString(r.StyleFor(f.Attr, f.Selected).Render(f.Text))
	}
	return b.String(), nil
}

// RenderLines renders each line on its own row.
func (r *Resolver) RenderLines(lines []ThemeArray) (string, error) {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		s, err := r.Render(l)
		if err != nil {
			return "", err
		}
		out = append(out, s)
	}
	return strings.Join(out, "\n"), nil
}

// Explain renders a configuration error as themed text: the category plain, the identifier
// emphasized and the explanation plain.
func Explain(err *errs.ConfigError) ThemeArray {
	a := ThemeArray{Str(err.Category, "main", "default")}
	if err.Identifier != "" {
		a = append(a, Str(" ", "main", "default"), Str(err.Identifier, "main", "highlight"))
	}
	if err.Explanation != "" {
		a = append(a, Str(": "+err.Explanation, "main", "default"))
	}
	if err.Err != nil {
		a = append(a, Str(": "+err.Err.Error(), "main", "dim"))
	}
	return a
}

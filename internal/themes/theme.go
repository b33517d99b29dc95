package themes

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/cmtui/internal/errs"
)

//go:embed default_theme.yaml
var embeddedDefaultTheme []byte

// DefaultAttr is the fallback for any attribute missing from the theme.
var DefaultAttr = ThemeAttr{Context: "main", Key: "default"}

// StyleSpec is a foreground/background pair plus text attributes.
type StyleSpec struct {
	FG    Color
	BG    Color
	Attrs AttrMask
}

// Entry is one theme[context][key] value: either a style or a list of pre-styled
// fragments, each with an unselected and a selected variant.
type Entry struct {
	fragments bool
	styles    [2]StyleSpec
	frags     [2][]ThemeString
}

func variant(selected bool) int {
	if selected {
		return 1
	}
	return 0
}

// IsFragments reports whether the entry holds fragments rather than a style.
func (e Entry) IsFragments() bool { return e.fragments }

// Style returns the style variant for the selection state.
func (e Entry) Style(selected bool) StyleSpec { return e.styles[variant(selected)] }

// Fragments returns a copy of the fragment variant for the selection state.
func (e Entry) Fragments(selected bool) []ThemeString {
	src := e.frags[variant(selected)]
	out := make([]ThemeString, len(src))
	copy(out, src)
	return out
}

type pairDef [2]StyleSpec

// Theme is the loaded, validated theme mapping. It is not modified after Load.
type Theme struct {
	Name     string
	Palette  map[Color]RGB
	pairs    map[string]pairDef
	contexts map[string]map[string]Entry
}

// Lookup returns theme[context][key].
func (t *Theme) Lookup(context, key string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	keys, ok := t.contexts[context]
	if !ok {
		return Entry{}, false
	}
	e, ok := keys[key]
	return e, ok
}

// Contexts lists the context names in sorted order.
func (t *Theme) Contexts() []string {
	out := make([]string, 0, len(t.contexts))
	for c := range t.contexts {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Keys lists the keys of a context in sorted order.
func (t *Theme) Keys(context string) []string {
	keys := t.contexts[context]
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Fragments resolves a reference. A reference that does not name a fragment entry is a defect.
func (t *Theme) Fragments(ref ThemeRef) ([]ThemeString, error) {
	e, ok := t.Lookup(ref.Context, ref.Key)
	if !ok {
		return nil, errs.Programming(facility, "theme reference %s does not exist", ref)
	}
	if !e.fragments {
		return nil, errs.Programming(facility, "theme reference %s names a style, not a fragment list", ref)
	}
	return e.Fragments(ref.Selected), nil
}

var (
	defaultOnce  sync.Once
	defaultTheme *Theme
)

// Default returns the theme embedded in the binary, or the built-in minimal theme if the
// embedded one cannot be parsed.
func Default() *Theme {
	defaultOnce.Do(func() {
		th, err := Load(embeddedDefaultTheme)
		if err != nil {
			defaultTheme = builtin()
			return
		}
		th.Name = "default"
		defaultTheme = th
	})
	return defaultTheme
}

// DefaultThemeYAML returns a copy of the embedded theme source.
func DefaultThemeYAML() []byte {
	return append([]byte(nil), embeddedDefaultTheme...)
}

// LoadFile reads and validates a theme file.
func LoadFile(path string) (*Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Configf("unreadable theme", path, "the theme file could not be read").Wrap(err)
	}
	th, err := Load(data)
	if err != nil {
		return nil, err
	}
	th.Name = path
	return th, nil
}

// Load parses and validates a theme. Every problem is reported as a *errs.ConfigError.
func Load(data []byte) (*Theme, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errs.Configf("malformed theme", "", "the theme is not valid YAML").Wrap(err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errs.Configf("malformed theme", "", "the top level of a theme must be a mapping")
	}
	root := doc.Content[0]

	th := &Theme{
		Palette:  map[Color]RGB{},
		pairs:    map[string]pairDef{},
		contexts: map[string]map[string]Entry{},
	}
	var contextNodes [][2]*yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]
		switch k.Value {
		case "colors":
			if err := th.loadPalette(v); err != nil {
				return nil, err
			}
		case "color_pairs":
			if err := th.loadPairs(v); err != nil {
				return nil, err
			}
		default:
			contextNodes = append(contextNodes, [2]*yaml.Node{k, v})
		}
	}
	for _, kv := range contextNodes {
		name, node := kv[0].Value, kv[1]
		if node.Kind != yaml.MappingNode {
			return nil, errs.Configf("malformed theme", name, "a theme context must map keys to styles or fragment lists")
		}
		entries := map[string]Entry{}
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i].Value
			e, err := th.parseEntry(name+"/"+key, node.Content[i+1])
			if err != nil {
				return nil, err
			}
			entries[key] = e
		}
		th.contexts[name] = entries
	}
	if err := th.validate(); err != nil {
		return nil, err
	}
	return th, nil
}

func (t *Theme) loadPalette(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errs.Configf("malformed theme", "colors", "the palette must map color names to [r, g, b]")
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		c, err := ParseColor(name)
		if err != nil {
			return err
		}
		v := node.Content[i+1]
		if v.Kind != yaml.SequenceNode || len(v.Content) != 3 {
			return errs.Configf("malformed palette entry", name, "expected [r, g, b]")
		}
		var rgb [3]uint8
		for j, ch := range v.Content {
			n, err := strconv.Atoi(ch.Value)
			if err != nil || n < 0 || n > 255 {
				return errs.Configf("malformed palette entry", name, "channel %q is not an integer in 0..255", ch.Value)
			}
			rgb[j] = uint8(n)
		}
		t.Palette[c] = RGB{R: rgb[0], G: rgb[1], B: rgb[2]}
	}
	return nil
}

func (t *Theme) loadPairs(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return errs.Configf("malformed theme", "color_pairs", "color pairs must be a mapping")
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		v := node.Content[i+1]
		switch v.Kind {
		case yaml.SequenceNode:
			s, err := parseColorPair(name, v)
			if err != nil {
				return err
			}
			t.pairs[name] = pairDef{s, s}
		case yaml.MappingNode:
			var pd pairDef
			seen := 0
			for j := 0; j+1 < len(v.Content); j += 2 {
				s, err := parseColorPair(name+"/"+v.Content[j].Value, v.Content[j+1])
				if err != nil {
					return err
				}
				switch v.Content[j].Value {
				case "unselected":
					pd[0] = s
				case "selected":
					pd[1] = s
				default:
					return errs.Configf("malformed color pair", name, "only selected and unselected variants are allowed")
				}
				seen++
			}
			if seen != 2 {
				return errs.Configf("malformed color pair", name, "both selected and unselected variants are required")
			}
			t.pairs[name] = pd
		default:
			return errs.Configf("malformed color pair", name, "expected [foreground, background]")
		}
	}
	return nil
}

func parseColorPair(name string, node *yaml.Node) (StyleSpec, error) {
	if node.Kind != yaml.SequenceNode || len(node.Content) != 2 {
		return StyleSpec{}, errs.Configf("malformed color pair", name, "expected [foreground, background]")
	}
	fg, err := ParseColor(node.Content[0].Value)
	if err != nil {
		return StyleSpec{}, err
	}
	bg, err := ParseColor(node.Content[1].Value)
	if err != nil {
		return StyleSpec{}, err
	}
	if fg == bg {
		return StyleSpec{}, errs.Configf("unreadable color pair", name, "foreground and background are both %s", fg)
	}
	return StyleSpec{FG: fg, BG: bg}, nil
}

func (t *Theme) parseEntry(path string, node *yaml.Node) (Entry, error) {
	if node.Kind == yaml.MappingNode {
		var parts [2]*yaml.Node
		for i := 0; i+1 < len(node.Content); i += 2 {
			switch node.Content[i].Value {
			case "unselected":
				parts[0] = node.Content[i+1]
			case "selected":
				parts[1] = node.Content[i+1]
			default:
				return Entry{}, errs.Configf("malformed theme entry", path, "unexpected key %q; only selected and unselected are allowed", node.Content[i].Value)
			}
		}
		if parts[0] == nil || parts[1] == nil {
			return Entry{}, errs.Configf("malformed theme entry", path, "both selected and unselected variants are required")
		}
		un, err := t.parseEntry(path+"/unselected", parts[0])
		if err != nil {
			return Entry{}, err
		}
		sel, err := t.parseEntry(path+"/selected", parts[1])
		if err != nil {
			return Entry{}, err
		}
		if un.fragments != sel.fragments {
			return Entry{}, errs.Configf("malformed theme entry", path, "selected and unselected variants must both be styles or both be fragment lists")
		}
		return Entry{
			fragments: un.fragments,
			styles:    [2]StyleSpec{un.styles[0], sel.styles[1]},
			frags:     [2][]ThemeString{un.frags[0], sel.frags[1]},
		}, nil
	}

	if node.Kind == yaml.ScalarNode {
		return t.pairEntry(path, node.Value, AttrNormal)
	}
	if node.Kind != yaml.SequenceNode || len(node.Content) == 0 {
		return Entry{}, errs.Configf("malformed theme entry", path, "expected a style, a color pair name or a fragment list")
	}
	if node.Content[0].Kind == yaml.SequenceNode {
		frags, err := parseFragments(path, node)
		if err != nil {
			return Entry{}, err
		}
		return Entry{fragments: true, frags: [2][]ThemeString{frags, frags}}, nil
	}
	return t.parseStyle(path, node)
}

func (t *Theme) parseStyle(path string, node *yaml.Node) (Entry, error) {
	first := node.Content[0].Value
	_, isPair := t.pairs[first]
	fg, fgErr := ParseColor(first)
	if !isPair && fgErr != nil {
		if isAttrName(first) {
			return Entry{}, errs.Configf("malformed style", path, "%q is a text attribute; a color pair or colors must come first", first)
		}
		return Entry{}, fgErr
	}
	var bg Color
	var bgErr error = errs.Configf("malformed style", path, "missing background")
	if len(node.Content) >= 2 && node.Content[1].Kind == yaml.ScalarNode {
		bg, bgErr = ParseColor(node.Content[1].Value)
	}
	// [color, color, ...] wins over [pair, attrs] when both readings parse
	if fgErr == nil && (bgErr == nil || !isPair) {
		if len(node.Content) < 2 || len(node.Content) > 3 {
			return Entry{}, errs.Configf("malformed style", path, "expected [foreground, background] or [foreground, background, attributes]")
		}
		if bgErr != nil {
			return Entry{}, bgErr
		}
		if fg == bg {
			return Entry{}, errs.Configf("unreadable style", path, "foreground and background are both %s", fg)
		}
		attrs := AttrNormal
		if len(node.Content) == 3 {
			var err error
			if attrs, err = parseAttrs(path, node.Content[2]); err != nil {
				return Entry{}, err
			}
		}
		s := StyleSpec{FG: fg, BG: bg, Attrs: attrs}
		return Entry{styles: [2]StyleSpec{s, s}}, nil
	}
	if len(node.Content) > 2 {
		return Entry{}, errs.Configf("malformed style", path, "expected [color_pair] or [color_pair, attributes]")
	}
	attrs := AttrNormal
	if len(node.Content) == 2 {
		var err error
		if attrs, err = parseAttrs(path, node.Content[1]); err != nil {
			return Entry{}, err
		}
	}
	return t.pairEntry(path, first, attrs)
}

func (t *Theme) pairEntry(path, name string, attrs AttrMask) (Entry, error) {
	pd, ok := t.pairs[name]
	if !ok {
		if isAttrName(name) {
			return Entry{}, errs.Configf("malformed style", path, "%q is a text attribute; a color pair or colors must come first", name)
		}
		return Entry{}, errs.Configf("unknown color or color pair", name, "referenced by %s", path)
	}
	un, sel := pd[0], pd[1]
	un.Attrs, sel.Attrs = attrs, attrs
	return Entry{styles: [2]StyleSpec{un, sel}}, nil
}

func parseAttrs(path string, node *yaml.Node) (AttrMask, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return ParseAttr(node.Value)
	case yaml.SequenceNode:
		var mask AttrMask
		for _, c := range node.Content {
			a, err := ParseAttr(c.Value)
			if err != nil {
				return 0, err
			}
			mask |= a
		}
		return mask, nil
	default:
		return 0, errs.Configf("malformed style", path, "attributes must be a name or a list of names")
	}
}

// parseFragments reads [[text, [context, key]], ...].
func parseFragments(path string, node *yaml.Node) ([]ThemeString, error) {
	out := make([]ThemeString, 0, len(node.Content))
	for i, item := range node.Content {
		if item.Kind != yaml.SequenceNode || len(item.Content) != 2 || item.Content[0].Kind != yaml.ScalarNode {
			return nil, errs.Configf("malformed fragment", fmt.Sprintf("%s[%d]", path, i), "expected [text, [context, key]]")
		}
		ref := item.Content[1]
		if ref.Kind != yaml.SequenceNode || len(ref.Content) != 2 {
			return nil, errs.Configf("malformed fragment", fmt.Sprintf("%s[%d]", path, i), "the style must be [context, key]")
		}
		out = append(out, ThemeString{
			Text: item.Content[0].Value,
			Attr: ThemeAttr{Context: ref.Content[0].Value, Key: ref.Content[1].Value},
		})
	}
	return out, nil
}

func (t *Theme) validate() error {
	def, ok := t.Lookup(DefaultAttr.Context, DefaultAttr.Key)
	if !ok || def.fragments {
		return errs.Configf("incomplete theme", DefaultAttr.String(), "the theme must define a default style")
	}
	for _, ctx := range t.Contexts() {
		for _, key := range t.Keys(ctx) {
			e := t.contexts[ctx][key]
			if !e.fragments {
				continue
			}
			for _, variant := range e.frags {
				for _, f := range variant {
					target, ok := t.Lookup(f.Attr.Context, f.Attr.Key)
					if !ok || target.fragments {
						return errs.Configf("dangling fragment style", f.Attr.String(),
							"used by %s/%s but not defined as a style", ctx, key)
					}
				}
			}
		}
	}
	return nil
}

// builtin is the last-resort theme when the embedded YAML cannot be used. It carries every
// reference the core draws with and the styles those references point at.
func builtin() *Theme {
	style := func(fg, bg Color, attrs AttrMask) Entry {
		return Entry{styles: [2]StyleSpec{{FG: fg, BG: bg, Attrs: attrs}, {FG: bg, BG: fg, Attrs: attrs}}}
	}
	frag := func(text string, attr ThemeAttr) Entry {
		f := []ThemeString{{Text: text, Attr: attr}}
		return Entry{fragments: true, frags: [2][]ThemeString{f, f}}
	}
	sep := ThemeAttr{Context: "main", Key: "separator"}
	border := ThemeAttr{Context: "windowwidget", Key: "default"}
	bar := ThemeAttr{Context: "main", Key: "scrollbar"}
	return &Theme{
		Name:    "builtin",
		Palette: map[Color]RGB{},
		pairs:   map[string]pairDef{},
		contexts: map[string]map[string]Entry{
			"main": {
				"default":   style(White, Black, AttrNormal),
				"highlight": style(White, Black, AttrBold),
				"separator": style(Cyan, Black, AttrNormal),
				"header":    style(White, Black, AttrBold),
				"tagged":    style(Yellow, Black, AttrBold),
				"scrollbar": style(White, Blue, AttrNormal),
			},
			"windowwidget": {
				"default": style(White, Blue, AttrNormal),
			},
			"types": {
				"none": style(White, Black, AttrDim),
			},
			"separators": {
				"line_break": frag("↩", sep),
				"ellipsis":   frag("…", sep),
				"list":       frag(", ", sep),
				"column":     frag(" ", sep),
				"field":      frag(" ", sep),
				"key_value":  frag(": ", sep),
				"nul":        frag("<NUL>", ThemeAttr{Context: "types", Key: "none"}),
			},
			"boxdrawing": {
				"hline":           frag("─", border),
				"vline":           frag("│", border),
				"ulcorner":        frag("┌", border),
				"urcorner":        frag("┐", border),
				"llcorner":        frag("└", border),
				"lrcorner":        frag("┘", border),
				"ltee":            frag("├", border),
				"rtee":            frag("┤", border),
				"scrollbar_up":    frag("▲", bar),
				"scrollbar_down":  frag("▼", bar),
				"scrollbar_left":  frag("◀", bar),
				"scrollbar_right": frag("▶", bar),
				"scrollbar_track": frag("░", bar),
				"scrollbar_thumb": frag("█", bar),
			},
			"strings": {
				"tagged":   frag("● ", ThemeAttr{Context: "main", Key: "tagged"}),
				"untagged": frag("  ", ThemeAttr{Context: "main", Key: "default"}),
			},
		},
	}
}

// Describe renders a one-line summary of an entry, used by the themes command.
func (e Entry) Describe() string {
	if e.fragments {
		var b strings.Builder
		for i, f := range e.frags[0] {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%q(%s)", f.Text, f.Attr)
		}
		return b.String()
	}
	un, sel := e.styles[0], e.styles[1]
	return fmt.Sprintf("%s on %s [%s]; selected %s on %s [%s]", un.FG, un.BG, un.Attrs, sel.FG, sel.BG, sel.Attrs)
}

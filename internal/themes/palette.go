package themes

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oakwood-commons/cmtui/internal/errs"
)

// Color is one of the eight base terminal colors, optionally with the bright bit set.
type Color uint8

const (
	Black Color = iota
	Red
	Green
	Yellow
	Blue
	Magenta
	Cyan
	White
)

const brightBit Color = 8

// BrightBlack is the only bright color the resolver treats specially.
const BrightBlack = Black | brightBit

var colorNames = [...]string{"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white"}

// Bright reports whether the bright modifier is set.
func (c Color) Bright() bool { return c&brightBit != 0 }

// Base strips the bright modifier.
func (c Color) Base() Color { return c &^ brightBit }

// WithBright returns the bright variant of c.
func (c Color) WithBright() Color { return c | brightBit }

// ANSI returns the 16-color ANSI index for c.
func (c Color) ANSI() int { return int(c.Base()) + int(c&brightBit) }

func (c Color) String() string {
	if int(c.Base()) >= len(colorNames) {
		return fmt.Sprintf("color(%d)", uint8(c))
	}
	if c.Bright() {
		return "bright_" + colorNames[c.Base()]
	}
	return colorNames[c.Base()]
}

// ParseColor parses "blue" or "bright_blue".
func ParseColor(name string) (Color, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	var bright Color
	if rest, ok := strings.CutPrefix(n, "bright_"); ok {
		n = rest
		bright = brightBit
	}
	for i, cn := range colorNames {
		if cn == n {
			return Color(i) | bright, nil
		}
	}
	return 0, errs.Configf("invalid color", name, "allowed colors are %s, optionally prefixed with bright_", strings.Join(colorNames[:], ", "))
}

// AttrMask is an OR-combination of text attributes.
type AttrMask uint8

const (
	AttrNormal AttrMask = 0
	AttrDim    AttrMask = 1 << iota
	AttrBold
	AttrUnderline
)

var attrNames = map[string]AttrMask{
	"normal":    AttrNormal,
	"dim":       AttrDim,
	"bold":      AttrBold,
	"underline": AttrUnderline,
}

// ParseAttr parses a single attribute name.
func ParseAttr(name string) (AttrMask, error) {
	a, ok := attrNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		names := make([]string, 0, len(attrNames))
		for k := range attrNames {
			names = append(names, k)
		}
		sort.Strings(names)
		return 0, errs.Configf("invalid text attribute", name, "allowed attributes are %s", strings.Join(names, ", "))
	}
	return a, nil
}

func isAttrName(name string) bool {
	_, ok := attrNames[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

func (a AttrMask) String() string {
	if a == AttrNormal {
		return "normal"
	}
	var parts []string
	if a&AttrDim != 0 {
		parts = append(parts, "dim")
	}
	if a&AttrBold != 0 {
		parts = append(parts, "bold")
	}
	if a&AttrUnderline != 0 {
		parts = append(parts, "underline")
	}
	return strings.Join(parts, "|")
}

// RGB is a palette override for one named color.
type RGB struct {
	R, G, B uint8
}

// Hex renders the color as #rrggbb.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

package surface

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/cmtui/internal/themes"
)

func resolver(t *testing.T) *themes.Resolver {
	t.Helper()
	return themes.NewResolver(themes.Default(), themes.WithPairCache(themes.NewPairCache(256)))
}

func TestPadGrows(t *testing.T) {
	s := NewPad(1, 2, resolver(t))
	s.Put(0, 0, themes.Str("hello", "types", "key"))
	rows, cols := s.Size()
	assert.Equal(t, 1, rows)
	assert.Equal(t, 5, cols)

	s.Put(3, 1, themes.Str("x", "types", "key"))
	rows, cols = s.Size()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 5, cols, "columns never shrink while drawing")
	assert.Equal(t, "hello\n\n\n x", s.String())

	y, x := s.Cursor()
	assert.Equal(t, 3, y)
	assert.Equal(t, 2, x)
}

func TestScreenClips(t *testing.T) {
	s := NewScreen(2, 4, resolver(t))
	s.Put(0, 2, themes.Str("abcdef", "types", "key"))
	s.Put(5, 0, themes.Str("gone", "types", "key"))
	s.Put(-1, 0, themes.Str("gone", "types", "key"))
	rows, cols := s.Size()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 4, cols)
	assert.Equal(t, "  ab\n", s.String())
}

func TestWideRunes(t *testing.T) {
	s := NewScreen(1, 5, resolver(t))
	s.Put(0, 0, themes.Str("日本語", "types", "key"))
	assert.Equal(t, "日本 ", s.Lines()[0])

	dst := NewScreen(1, 3, nil)
	s.Blit(dst, 0, 1, 0, 0, 1, 2)
	// the left half of 日 is outside the window and the right half of 本 is cut
	assert.Equal(t, "   ", dst.Lines()[0])
}

func TestNULMarker(t *testing.T) {
	s := NewPad(1, 1, resolver(t))
	s.Put(0, 0, themes.Str("a\x00b", "types", "key"))
	assert.Equal(t, "a<NUL>b", s.String())

	bare := NewPad(1, 1, nil)
	bare.Put(0, 0, themes.Str("\x00", "types", "key"))
	assert.Equal(t, "<NUL>", bare.String())
}

func TestPutArrayResolvesRefs(t *testing.T) {
	s := NewPad(1, 1, resolver(t))
	a := themes.ThemeArray{
		themes.Str("a", "types", "key"),
		themes.ThemeRef{Context: "separators", Key: "key_value"},
		themes.ThemeRef{Context: "separators", Key: "missing"},
		themes.Str("b", "types", "value"),
	}
	s.PutArray(0, 0, a)
	assert.Equal(t, "a: b", s.String())
}

func TestBlitAndRender(t *testing.T) {
	r := resolver(t)
	pad := NewPad(0, 0, r)
	for i := 0; i < 5; i++ {
		pad.Put(i, 0, themes.Str(strings.Repeat(string(rune('a'+i)), 6), "types", "key"))
	}
	screen := NewScreen(3, 4, r)
	pad.Blit(screen, 2, 1, 1, 0, 3, 4)
	assert.Equal(t, "\ncccc\ndddd", screen.String())

	out := screen.Render(r)
	require.Len(t, strings.Split(out, "\n"), 3)
	assert.Contains(t, out, "cccc")
}

func TestResizeAndClear(t *testing.T) {
	s := NewScreen(2, 3, nil)
	s.Put(1, 0, themes.Str("xyz", "types", "key"))
	s.Resize(3, 2)
	assert.Equal(t, "\nxy\n", s.String())
	s.Clear()
	assert.Equal(t, "\n\n", s.String())
	assert.Equal(t, themes.DefaultAttr, s.Cell(0, 0).Attr)
}

package themes_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/cmtui/internal/formatter"
	"github.com/oakwood-commons/cmtui/internal/themes"
	"github.com/oakwood-commons/cmtui/internal/ui/dialog"
	"github.com/oakwood-commons/cmtui/internal/ui/pane"
	"github.com/oakwood-commons/cmtui/internal/ui/surface"
)

func TestBuiltinResolvesCoreReferences(t *testing.T) {
	th := themes.Builtin()
	refs := map[string][]string{
		"separators": {"column", "list", "field", "key_value", "nul", "line_break", "ellipsis"},
		"boxdrawing": {
			"hline", "vline", "ulcorner", "urcorner", "llcorner", "lrcorner", "ltee", "rtee",
			"scrollbar_up", "scrollbar_down", "scrollbar_left", "scrollbar_right", "scrollbar_track", "scrollbar_thumb",
		},
		"strings": {"tagged", "untagged"},
	}
	for ctx, keys := range refs {
		for _, key := range keys {
			ref := themes.ThemeRef{Context: ctx, Key: key}
			frags, err := th.Fragments(ref)
			require.NoError(t, err, ref.String())
			for _, f := range frags {
				_, ok := th.Lookup(f.Attr.Context, f.Attr.Key)
				assert.True(t, ok, "%s uses undefined style %s", ref, f.Attr)
			}
		}
	}
}

func TestBuiltinDrawsListPane(t *testing.T) {
	th := themes.Builtin()
	rows := make([]pane.Row, 20)
	for i := range rows {
		name := fmt.Sprintf("pod-%02d", i)
		rows[i] = pane.Row{
			ID:      name,
			Columns: []themes.ThemeArray{{themes.Str(name, "types", "generic")}, {themes.Str("Running\x00", "main", "status_ok")}},
			Values:  []string{name, "Running"},
		}
	}
	p := pane.New(pane.KindList)
	p.Refs = th
	p.Header = []themes.ThemeArray{{themes.ThemeString{Text: "NAME"}}, {themes.ThemeString{Text: "STATUS"}}}
	p.SetSize(5, 30)
	p.SetContent(rows)
	p.ToggleTag()

	screen := surface.NewScreen(6, 30, th)
	require.NotPanics(t, func() {
		screen.PutArray(0, 0, p.HeaderLine(th))
		p.Draw(screen, th, 1, 0)
	})
	out := screen.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "● pod-00")
	assert.Contains(t, out, "Running<NUL>")
	assert.Contains(t, out, "▲")
	assert.Contains(t, out, "▼")
}

func TestBuiltinDrawsDialog(t *testing.T) {
	th := themes.Builtin()
	d := dialog.New(dialog.Spec{
		Title:   "Pick",
		Headers: []themes.ThemeArray{{themes.ThemeString{Text: "NAME"}}},
		Items: []dialog.Item{
			{Columns: []themes.ThemeArray{{themes.ThemeString{Text: "alpha"}}}, Value: "alpha"},
			{Columns: []themes.ThemeArray{{themes.ThemeString{Text: "beta"}}}, Value: "beta"},
		},
		Buttons: []dialog.Button{{Key: "d", Label: "Delete"}},
		Refs:    th,
	})
	d.Place(12, 40)
	screen := surface.NewScreen(12, 40, th)
	require.NotPanics(t, func() { d.Draw(screen, th) })
	out := screen.String()
	for _, s := range []string{"┌", "┐", "└", "┘", "│", "─", "Pick", "alpha", "[d] Delete"} {
		assert.Contains(t, out, s)
	}
}

func TestBuiltinFormatsTupleList(t *testing.T) {
	th := themes.Builtin()
	a := formatter.Format(formatter.KindList, []any{[]any{"tcp", 80}, []any{"udp", 53}}, formatter.FieldContext{Resolver: th})
	var text string
	require.NotPanics(t, func() { text = a.PlainText(th) })
	assert.Equal(t, "tcp 80, udp 53", text)

	a = formatter.Format(formatter.KindList, []any{"a", "b", "c"}, formatter.FieldContext{Resolver: th, Options: formatter.Options{Ellipsise: 1}})
	require.NotPanics(t, func() { text = a.PlainText(th) })
	assert.Equal(t, "a, …", text)
}

package dialog

import (
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/cmtui/internal/themes"
	"github.com/oakwood-commons/cmtui/internal/ui/pane"
	"github.com/oakwood-commons/cmtui/internal/ui/surface"
)

func text(s string) []themes.ThemeArray {
	return []themes.ThemeArray{{themes.ThemeString{Text: s, Attr: bodyAttr}}}
}

func items(names ...string) []Item {
	out := make([]Item, len(names))
	for i, n := range names {
		out[i] = Item{Columns: text(n), Value: n}
	}
	return out
}

func TestEnterReturnsCurrentValue(t *testing.T) {
	d := New(Spec{Title: "Pick", Items: items("alpha", "beta", "gamma")})
	d.HandleKey("down")
	d.HandleKey("enter")

	res, done := d.Done()
	require.True(t, done)
	assert.Equal(t, Selected, res.Outcome)
	assert.Equal(t, "beta", res.Value)
}

func TestEscapeCancelsWithoutValue(t *testing.T) {
	d := New(Spec{Items: items("a", "b"), Taggable: true})
	d.HandleKey("space")
	d.HandleKey("esc")

	res, done := d.Done()
	require.True(t, done)
	assert.Equal(t, Cancelled, res.Outcome)
	assert.Nil(t, res.Value)
	assert.Empty(t, res.Tags)
}

func TestButtonKeyEndsDialog(t *testing.T) {
	d := New(Spec{Items: items("pod-a", "pod-b"), Buttons: []Button{{Key: "d", Label: "Delete"}}})
	d.HandleKey("down")
	d.HandleKey("d")

	res, done := d.Done()
	require.True(t, done)
	assert.Equal(t, ButtonPressed, res.Outcome)
	assert.Equal(t, "d", res.Button)
	assert.Equal(t, "pod-b", res.Value)
}

func TestF6OnlyWhenCategorized(t *testing.T) {
	d := New(Spec{Items: items("a")})
	d.HandleKey("f6")
	_, done := d.Done()
	assert.False(t, done)

	d = New(Spec{Items: items("a"), Categorize: true})
	d.HandleKey("f6")
	res, done := d.Done()
	require.True(t, done)
	assert.Equal(t, ToggleCategorized, res.Outcome)
}

func TestTaggableReturnsTags(t *testing.T) {
	d := New(Spec{Items: items("a", "b", "c"), Taggable: true})
	d.HandleKey("space") // tags a, moves to b
	d.HandleKey("down")
	d.HandleKey("space") // tags c
	d.HandleKey("enter")

	res, _ := d.Done()
	assert.Equal(t, Selected, res.Outcome)
	assert.Equal(t, []any{"a", "c"}, res.Tags)

	d = New(Spec{Items: items("a", "b", "c"), Taggable: true})
	d.HandleKey("ctrl+t")
	d.HandleKey("enter")
	res, _ = d.Done()
	assert.Equal(t, []any{"a", "b", "c"}, res.Tags)
}

func TestLetterJumpSkipsDisabledRows(t *testing.T) {
	its := items("apple", "banana", "blueberry", "cherry")
	its[1].Attrs = Disabled
	d := New(Spec{Items: its})

	d.HandleKey("b")
	assert.Equal(t, 2, d.Pane().Index())
	d.HandleKey("a")
	assert.Equal(t, 0, d.Pane().Index())
	d.HandleKey("C")
	assert.Equal(t, 3, d.Pane().Index())
}

func TestEnterOnDisabledRowIsIgnored(t *testing.T) {
	its := items("a", "b")
	its[0].Attrs = Disabled
	d := New(Spec{Items: its})
	// the cursor starts on the first selectable row
	assert.Equal(t, 1, d.Pane().Index())

	its = items("x")
	its[0].Attrs = Unselectable
	d = New(Spec{Items: its})
	d.HandleKey("enter")
	_, done := d.Done()
	assert.False(t, done)
}

func TestTabMovesBetweenGroups(t *testing.T) {
	its := []Item{
		{Columns: text("one"), Value: 1},
		{Columns: text("two"), Value: 2},
		{Attrs: Separator, Columns: text("")},
		{Columns: text("three"), Value: 3},
		{Columns: text("four"), Value: 4},
	}
	d := New(Spec{Items: its})
	d.HandleKey("tab")
	assert.Equal(t, 3, d.Pane().Index())
	d.HandleKey("tab")
	assert.Equal(t, 0, d.Pane().Index())
	d.HandleKey("shift+tab")
	assert.Equal(t, 3, d.Pane().Index())
}

func TestColumnWidthsComputedUpFront(t *testing.T) {
	d := New(Spec{
		Headers: []themes.ThemeArray{{themes.ThemeString{Text: "NAME"}}, {themes.ThemeString{Text: "STATUS"}}},
		Items: []Item{
			{Columns: []themes.ThemeArray{{themes.ThemeString{Text: "a"}}, {themes.ThemeString{Text: "Running"}}}},
			{Columns: []themes.ThemeArray{{themes.ThemeString{Text: "longer-name"}}, {themes.ThemeString{Text: "Ok"}}}},
		},
	})
	assert.Equal(t, []int{11, 7}, d.widths)
	assert.Equal(t, 11+1+7+2, d.ContentWidth())

	first := d.Pane().Rows()[0].Columns[0]
	// the first column is padded to the widest cell so the second lines up
	assert.Equal(t, "a"+strings.Repeat(" ", 10), first[:2].Text())
}

func TestDoubleClickSelects(t *testing.T) {
	d := New(Spec{Items: items("a", "b", "c")})
	d.Place(24, 80)
	now := time.Now()

	d.HandleMouse(pane.MouseEvent{Action: pane.MouseClick, Row: 2, Col: 3, Time: now})
	_, done := d.Done()
	assert.False(t, done)
	assert.Equal(t, 2, d.Pane().Index())

	d.HandleMouse(pane.MouseEvent{Action: pane.MouseClick, Row: 2, Col: 3, Time: now.Add(100 * time.Millisecond)})
	res, done := d.Done()
	require.True(t, done)
	assert.Equal(t, "c", res.Value)
}

func TestConfirm(t *testing.T) {
	d := Confirm("Delete", "Delete pod web-0?")
	// the cursor starts on No
	d.HandleKey("enter")
	res, _ := d.Done()
	assert.False(t, Confirmed(res))

	d = Confirm("Delete", "Delete pod web-0?")
	d.HandleKey("up")
	d.HandleKey("enter")
	res, _ = d.Done()
	assert.True(t, Confirmed(res))

	d = Confirm("Delete", "Delete pod web-0?")
	d.HandleKey("y")
	res, _ = d.Done()
	assert.True(t, Confirmed(res))
}

func TestConfirmWrapsLongMessages(t *testing.T) {
	msg := strings.TrimSpace(strings.Repeat("word ", 30))
	d := Confirm("Q", msg)
	rows := d.Pane().Rows()
	// three message rows, a separator, yes and no
	require.Len(t, rows, 6)
	for _, r := range rows[:3] {
		assert.True(t, r.Attrs.Has(Unselectable))
	}
}

func TestNotice(t *testing.T) {
	d := Notice("Error", "could not connect")
	d.HandleKey("enter")
	res, done := d.Done()
	require.True(t, done)
	assert.Equal(t, Selected, res.Outcome)
}

func TestInput(t *testing.T) {
	in := NewInput("Rename", "> ", "web-0")
	in.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	v, ok, done := in.Done()
	assert.True(t, done)
	assert.True(t, ok)
	assert.Equal(t, "web-0", v)

	in = NewInput("Rename", "> ", "web-0")
	in.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	_, ok, done = in.Done()
	assert.True(t, done)
	assert.False(t, ok)
}

func TestTail(t *testing.T) {
	assert.Equal(t, "def", tail("abcdef", 3))
	assert.Equal(t, "界", tail("世界", 3))
	assert.Equal(t, "", tail("abc", 0))
}

func TestProgressDraw(t *testing.T) {
	p := &Progress{Title: "Copying", Message: "file 1", Current: 1, Total: 2}
	assert.InDelta(t, 0.5, p.Fraction(), 0.001)

	screen := surface.NewScreen(10, 70, themes.Default())
	p.Draw(screen, themes.Default())
	out := screen.String()
	assert.Contains(t, out, "Copying")
	assert.Contains(t, out, " 50%")
	assert.Contains(t, out, "█")

	assert.Zero(t, (&Progress{}).Fraction())
}

func TestDrawPlacesBox(t *testing.T) {
	d := New(Spec{
		Title:   "Choose",
		Headers: []themes.ThemeArray{{themes.ThemeString{Text: "NAME"}}},
		Items:   items("alpha", "beta"),
		Buttons: []Button{{Key: "d", Label: "Delete"}},
	})
	screen := surface.NewScreen(20, 60, themes.Default())
	f := d.Draw(screen, themes.Default())

	lines := screen.Lines()
	assert.Contains(t, lines[f.Box.Top], "Choose")
	assert.Contains(t, lines[f.Content.Top-1], "NAME")
	assert.Contains(t, lines[f.Content.Top], "alpha")
	assert.Contains(t, lines[f.Box.Top+f.Box.Height-1], "[d] Delete")
	assert.Equal(t, 2, d.Pane().Height)
}

func TestResizeAbortsProgress(t *testing.T) {
	pm := &progressModal{p: &Progress{Title: "Deleting", Total: 3}}
	cancelled := false
	r := &runner{m: pm, cfg: newRunConfig(nil), abortOnResize: true, cancel: func() { cancelled = true }}

	_, cmd := r.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.Nil(t, cmd)
	r.Update(progressMsg{current: 1, total: 3, message: "pod/a"})
	assert.Equal(t, 1, pm.p.Current)
	assert.Equal(t, "pod/a", pm.p.Message)

	_, cmd = r.Update(tea.WindowSizeMsg{Width: 100, Height: 24})
	require.NotNil(t, cmd)
	assert.ErrorIs(t, r.err, ErrResized)
	assert.True(t, cancelled)
}

func TestResizeKeepsDialogOpen(t *testing.T) {
	d := New(Spec{Title: "Pick", Items: items("a", "b")})
	r := &runner{m: &dialogModal{d: d}, cfg: newRunConfig(nil)}
	r.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	_, cmd := r.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	assert.Nil(t, cmd)
	assert.NoError(t, r.err)
	assert.False(t, r.m.finished())
	assert.Equal(t, 60, r.width)
}

func TestColumnsWithReferencesLineUp(t *testing.T) {
	listSep := themes.ThemeRef{Context: "separators", Key: "list"}
	d := New(Spec{
		Title: "Pick",
		Items: []Item{
			{Columns: []themes.ThemeArray{
				{themes.ThemeString{Text: "a", Attr: bodyAttr}, listSep, themes.ThemeString{Text: "b", Attr: bodyAttr}},
				{themes.ThemeString{Text: "X", Attr: bodyAttr}},
			}},
			{Columns: []themes.ThemeArray{
				{themes.ThemeString{Text: "abc", Attr: bodyAttr}},
				{themes.ThemeString{Text: "X", Attr: bodyAttr}},
			}},
		},
	})
	assert.Equal(t, []int{len("a, b"), 1}, d.widths)

	f := d.Place(20, 60)
	screen := surface.NewScreen(20, 60, themes.Default())
	d.Draw(screen, themes.Default())
	lines := screen.Lines()
	col := func(line string) int {
		i := strings.Index(line, "X")
		require.GreaterOrEqual(t, i, 0, line)
		return themes.Width(line[:i])
	}
	first, second := lines[f.Content.Top], lines[f.Content.Top+1]
	assert.Equal(t, col(first), col(second))
	assert.Equal(t, f.Content.Left+d.Pane().TagWidth()+len("a, b")+1, col(second))
}

func TestDrawKeepsPaneSize(t *testing.T) {
	names := make([]string, 30)
	for i := range names {
		names[i] = string(rune('a'+i%26)) + strings.Repeat("x", i%5)
	}
	d := New(Spec{Title: "Pick", Items: items(names...)})
	d.Place(40, 80)
	h, w := d.Pane().Height, d.Pane().Width

	screen := surface.NewScreen(10, 30, themes.Default())
	f := d.Draw(screen, themes.Default())
	assert.Equal(t, h, d.Pane().Height)
	assert.Equal(t, w, d.Pane().Width)
	assert.Less(t, f.Content.Height, h)
}

func TestWindowSizePlacesDialog(t *testing.T) {
	names := make([]string, 30)
	for i := range names {
		names[i] = "row" + strings.Repeat("x", i%5)
	}
	d := New(Spec{Title: "Pick", Items: items(names...)})
	r := newRunner(&dialogModal{d: d}, newRunConfig(nil))
	assert.Equal(t, 24-2-2, d.Pane().Height)

	r.Update(tea.WindowSizeMsg{Width: 60, Height: 12})
	assert.Equal(t, 12-2-2, d.Pane().Height)
	frame := r.m.(*dialogModal).frame
	assert.Equal(t, frame.Content.Height, d.Pane().Height)

	r.View()
	r.View()
	assert.Equal(t, 12-2-2, d.Pane().Height)
}

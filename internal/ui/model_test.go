package ui

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/cmtui/internal/cel"
	"github.com/oakwood-commons/cmtui/internal/limiter"
)

func key(s string) tea.KeyPressMsg {
	switch s {
	case "down":
		return tea.KeyPressMsg{Code: tea.KeyDown}
	case "up":
		return tea.KeyPressMsg{Code: tea.KeyUp}
	case "enter":
		return tea.KeyPressMsg{Code: tea.KeyEnter}
	case "esc":
		return tea.KeyPressMsg{Code: tea.KeyEscape}
	case "tab":
		return tea.KeyPressMsg{Code: tea.KeyTab}
	case "space":
		return tea.KeyPressMsg{Code: tea.KeySpace, Text: " "}
	}
	r := []rune(s)[0]
	return tea.KeyPressMsg{Code: r, Text: s}
}

func names(ns ...string) []any {
	out := make([]any, len(ns))
	for i, n := range ns {
		out[i] = map[string]any{"name": n}
	}
	return out
}

func newTestModel(t *testing.T, opts Options) *Model {
	t.Helper()
	m := NewModel(opts)
	t.Cleanup(m.Close)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return m
}

func send(m *Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(key(k))
	}
	return cmd
}

func selectedName(t *testing.T, m *Model) string {
	t.Helper()
	obj, ok := m.Selected()
	require.True(t, ok)
	return obj.(map[string]any)["name"].(string)
}

func TestNavigation(t *testing.T) {
	m := newTestModel(t, Options{Objects: names("charlie", "alpha", "bravo")})
	// rows are sorted by the first column
	assert.Equal(t, "alpha", selectedName(t, m))

	send(m, "down")
	assert.Equal(t, "bravo", selectedName(t, m))
	send(m, "G")
	assert.Equal(t, "charlie", selectedName(t, m))
	send(m, "g", "g")
	assert.Equal(t, "alpha", selectedName(t, m))
	send(m, "c")
	assert.Equal(t, "charlie", selectedName(t, m))
}

func TestViewShowsHeaderRowsAndInfo(t *testing.T) {
	m := newTestModel(t, Options{Title: "things", Objects: names("alpha", "bravo")})
	lines := m.Draw().Lines()
	require.Len(t, lines, 24)
	assert.Contains(t, lines[0], "NAME")
	assert.Contains(t, lines[1], "alpha")
	assert.Contains(t, lines[2], "bravo")
	assert.Contains(t, strings.Join(lines, "\n"), "name: alpha")
	assert.Contains(t, lines[23], "things")
	assert.Contains(t, lines[23], "1/2")

	send(m, "down")
	assert.Contains(t, strings.Join(m.Draw().Lines(), "\n"), "name: bravo")
}

func TestFocusCycles(t *testing.T) {
	m := newTestModel(t, Options{Objects: names("a", "b")})
	assert.Same(t, m.List(), m.Focused())
	send(m, "tab")
	assert.Same(t, m.Info(), m.Focused())
	send(m, "tab", "tab")
	assert.Same(t, m.List(), m.Focused())

	send(m, "enter")
	assert.Same(t, m.Info(), m.Focused())

	// hiding the info pane moves the focus back to the list
	send(m, "i")
	assert.Same(t, m.List(), m.Focused())
}

func TestHelpOverlay(t *testing.T) {
	m := newTestModel(t, Options{Objects: names("a")})
	send(m, "?")
	assert.Contains(t, strings.Join(m.Draw().Lines(), "\n"), "Keys (vim mode)")

	// keys go to the dialog while it is open
	send(m, "G")
	assert.Equal(t, 0, m.List().Index())
	send(m, "esc")
	assert.NotContains(t, strings.Join(m.Draw().Lines(), "\n"), "Keys (vim mode)")
}

func TestSearchPrompt(t *testing.T) {
	m := newTestModel(t, Options{Objects: names("a")})
	send(m, "/")
	require.NotNil(t, m.input)
	send(m, "esc")
	assert.Nil(t, m.input)
}

func TestSearchSurvivesRefresh(t *testing.T) {
	var refreshed atomic.Bool
	m := newTestModel(t, Options{
		Objects: names("alpha", "bravo", "bob"),
		Source: func(context.Context) ([]any, error) {
			refreshed.Store(true)
			return names("abby", "alpha", "bravo", "bob"), nil
		},
	})
	send(m, "/", "b", "enter")
	require.Equal(t, "b", m.List().Query())
	require.Len(t, m.List().Matches(), 2)
	send(m, "n")
	assert.Equal(t, "bob", selectedName(t, m))

	m.Init()
	require.Eventually(t, func() bool {
		m.Update(tickMsg(time.Now()))
		return m.List().Len() == 4
	}, 2*time.Second, 10*time.Millisecond)
	assert.True(t, refreshed.Load())
	assert.Len(t, m.List().Matches(), 3)
	send(m, "n")
	assert.Equal(t, "bravo", selectedName(t, m))

	m.clearSearch()
	assert.Empty(t, m.List().Matches())
	assert.Empty(t, m.List().Query())
}

func TestDrawLeavesSizesAlone(t *testing.T) {
	m := NewModel(Options{Objects: names("a", "b")})
	t.Cleanup(m.Close)
	// laid out for a default screen before any WindowSizeMsg
	require.Len(t, m.Draw().Lines(), 24)

	send(m, "?")
	require.NotNil(t, m.dlg)
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 12})
	frame := m.frame
	h, w := m.dlg.Pane().Height, m.dlg.Pane().Width
	assert.Equal(t, frame.Content.Height, h)
	assert.LessOrEqual(t, frame.Box.Top+frame.Box.Height, 12)

	lines := m.Draw().Lines()
	require.Len(t, lines, 12)
	assert.Equal(t, frame, m.frame)
	assert.Equal(t, h, m.dlg.Pane().Height)
	assert.Equal(t, w, m.dlg.Pane().Width)

	// growing the terminal places the dialog again
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	assert.Greater(t, m.dlg.Pane().Height, h)
}

func TestCopy(t *testing.T) {
	copied, restore := StubPlatformActions()
	defer restore()

	m := newTestModel(t, Options{Objects: names("alpha", "bravo")})
	send(m, "y")
	assert.Equal(t, []string{"alpha"}, *copied)

	send(m, "space", "space")
	send(m, "y")
	assert.Equal(t, "alpha\nbravo", (*copied)[1])
	assert.Equal(t, "copied 2 row(s)", m.Message())
}

func TestMouseClickSelects(t *testing.T) {
	m := newTestModel(t, Options{Objects: names("a", "b", "c")})
	m.Update(tea.MouseClickMsg{X: 3, Y: 3, Button: tea.MouseLeft})
	assert.Equal(t, 2, m.List().Index())

	m.Update(tea.MouseWheelMsg{X: 3, Y: 2, Button: tea.MouseWheelUp})
	assert.Equal(t, 0, m.List().Index())
}

func TestFilterAndLimit(t *testing.T) {
	eval, err := cel.NewEvaluator()
	require.NoError(t, err)
	f, err := eval.CompileFilter(`row.name != "bravo"`)
	require.NoError(t, err)

	m := newTestModel(t, Options{
		Objects: names("alpha", "bravo", "charlie", "delta"),
		Filter:  f,
		Limit:   limiter.Config{Limit: 2},
	})
	require.Equal(t, 2, m.List().Len())
	assert.Equal(t, "alpha", m.List().Rows()[0].Values[0])
	assert.Equal(t, "charlie", m.List().Rows()[1].Values[0])
}

func TestSourceRefresh(t *testing.T) {
	var calls atomic.Int32
	m := newTestModel(t, Options{
		Objects: names("old"),
		Source: func(context.Context) ([]any, error) {
			calls.Add(1)
			return names("new-a", "new-b"), nil
		},
	})
	m.Init()
	require.Eventually(t, func() bool {
		m.Update(tickMsg(time.Now()))
		return m.List().Len() == 2
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "new-a", selectedName(t, m))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestSourceFailureKeepsRows(t *testing.T) {
	m := newTestModel(t, Options{
		Objects: names("kept"),
		Source: func(context.Context) ([]any, error) {
			return nil, errors.New("connection refused")
		},
	})
	m.Init()
	require.Eventually(t, func() bool {
		m.Update(tickMsg(time.Now()))
		return strings.Contains(m.Message(), "connection refused")
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "kept", selectedName(t, m))
}

func TestDeleteConfirms(t *testing.T) {
	var deleted atomic.Value
	m := newTestModel(t, Options{
		Objects: names("alpha", "bravo"),
		Delete: func(_ context.Context, obj any) error {
			deleted.Store(obj.(map[string]any)["name"])
			return nil
		},
	})
	send(m, "down", "D")
	require.NotNil(t, m.dlg)
	send(m, "n")
	assert.Nil(t, m.dlg)
	assert.Nil(t, deleted.Load())

	send(m, "D", "y")
	require.Eventually(t, func() bool { return deleted.Load() == "bravo" }, 2*time.Second, 10*time.Millisecond)
}

func TestDeleteUnsupported(t *testing.T) {
	m := newTestModel(t, Options{Objects: names("alpha")})
	send(m, "D")
	assert.Nil(t, m.dlg)
	assert.Equal(t, "delete is not supported here", m.Message())
}

func TestQuit(t *testing.T) {
	m := newTestModel(t, Options{Objects: names("a")})
	cmd := send(m, "q")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestEventLogSink(t *testing.T) {
	events := NewEventLog(2, false)
	m := newTestModel(t, Options{Objects: names("a"), Events: events})
	m.log.Info("first")
	m.log.V(1).Info("hidden")
	m.log.Error(errors.New("boom"), "second", "id", 7)
	m.log.Info("third")

	got := events.Events()
	require.Len(t, got, 2)
	assert.Equal(t, "second id=7: boom", got[0].Message)
	assert.Equal(t, SeverityError, got[0].Severity)
	assert.Equal(t, "third", got[1].Message)
}

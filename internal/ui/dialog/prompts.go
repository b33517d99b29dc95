package dialog

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"

	"github.com/oakwood-commons/cmtui/internal/themes"
	"github.com/oakwood-commons/cmtui/internal/ui/pane"
	"github.com/oakwood-commons/cmtui/internal/ui/surface"
)

// MessageWidth is the column at which dialog messages are wrapped.
const MessageWidth = 60

func messageItems(message string) []Item {
	var items []Item
	for _, l := range strings.Split(wordwrap.String(message, MessageWidth), "\n") {
		items = append(items, Item{
			Attrs:   Unselectable,
			Columns: []themes.ThemeArray{{themes.ThemeString{Text: l, Attr: bodyAttr}}},
		})
	}
	return items
}

func choice(label string, value any) Item {
	return Item{Columns: []themes.ThemeArray{{themes.ThemeString{Text: label, Attr: bodyAttr}}}, Value: value}
}

// Confirm builds a yes/no question. The user answers with Enter on a choice or the y and n keys.
func Confirm(title, message string) *Dialog {
	items := messageItems(message)
	items = append(items,
		Item{Attrs: Separator, Columns: []themes.ThemeArray{{themes.ThemeString{Text: "", Attr: separatorAttr}}}},
		choice("Yes", true),
		choice("No", false),
	)
	return New(Spec{
		Title:     title,
		Items:     items,
		Buttons:   []Button{{Key: "y", Label: "Yes"}, {Key: "n", Label: "No"}},
		Preselect: len(items) - 1,
	})
}

// Confirmed interprets the result of a Confirm dialog.
func Confirmed(r Result) bool {
	switch r.Outcome {
	case ButtonPressed:
		return r.Button == "y"
	case Selected:
		v, _ := r.Value.(bool)
		return v
	}
	return false
}

// Notice builds a message box closed with Enter or Escape.
func Notice(title, message string) *Dialog {
	items := messageItems(message)
	items = append(items,
		Item{Attrs: Separator, Columns: []themes.ThemeArray{{themes.ThemeString{Text: "", Attr: separatorAttr}}}},
		choice("OK", nil),
	)
	return New(Spec{Title: title, Items: items, Preselect: len(items) - 1})
}

// Input is a one-line text prompt.
type Input struct {
	Title     string
	input     textinput.Model
	done      bool
	cancelled bool
}

// NewInput returns a prompt with an optional initial value.
func NewInput(title, prompt, initial string) *Input {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.CharLimit = 500
	ti.SetWidth(MessageWidth - themes.Width(prompt))
	ti.SetValue(initial)
	ti.Focus()
	return &Input{Title: title, input: ti}
}

// Value is the text entered so far.
func (in *Input) Value() string { return in.input.Value() }

// Done reports whether the prompt has ended and whether it was confirmed.
func (in *Input) Done() (value string, ok bool, finished bool) {
	return in.input.Value(), in.done && !in.cancelled, in.done
}

// Update feeds a message to the text field. Enter accepts, Escape cancels.
func (in *Input) Update(msg tea.Msg) tea.Cmd {
	if in.done {
		return nil
	}
	if k, ok := msg.(tea.KeyPressMsg); ok {
		switch k.String() {
		case "enter":
			in.done = true
			return nil
		case "esc", "ctrl+c", "ctrl+x":
			in.done, in.cancelled = true, true
			return nil
		}
	}
	var cmd tea.Cmd
	in.input, cmd = in.input.Update(msg)
	return cmd
}

// tail returns the longest suffix of s that fits in w columns.
func tail(s string, w int) string {
	r := []rune(s)
	used := 0
	i := len(r)
	for i > 0 {
		cw := runewidth.RuneWidth(r[i-1])
		if used+cw > w {
			break
		}
		used += cw
		i--
	}
	return string(r[i:])
}

// Draw paints the prompt centered on dst.
func (in *Input) Draw(dst *surface.Surface, _ themes.RefResolver) Frame {
	rows, cols := dst.Size()
	w := min(MessageWidth+4, max(cols-2, 4))
	h := 3
	top, left := max((rows-h)/2, 0), max((cols-w)/2, 0)
	r := pane.Rect{Top: top, Left: left, Height: h, Width: w}
	drawBorder(dst, r, in.Title, buttonBar([]Button{{Key: "enter", Label: "OK"}, {Key: "esc", Label: "Cancel"}}))
	text := in.input.Value()
	if room := w - 3 - themes.Width(in.input.Prompt); themes.Width(text) > room {
		// keep the end of long values visible
		text = "…" + tail(text, max(room-1, 0))
	}
	dst.Put(top+1, left+1,
		themes.ThemeString{Text: in.input.Prompt, Attr: titleAttr},
		themes.ThemeString{Text: text, Attr: bodyAttr},
		themes.ThemeString{Text: " ", Attr: bodyAttr, Selected: true},
	)
	return Frame{Box: r, Content: pane.Rect{Top: top + 1, Left: left + 1, Height: 1, Width: w - 2}}
}

// Progress is a progress bar box.
type Progress struct {
	Title   string
	Message string
	Current int
	Total   int
}

var (
	barDoneAttr = themes.ThemeAttr{Context: "main", Key: "status_ok"}
	barTodoAttr = themes.ThemeAttr{Context: "main", Key: "dim"}
)

// Fraction is the completed share, between 0 and 1.
func (p *Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	return min(max(float64(p.Current)/float64(p.Total), 0), 1)
}

// Draw paints the progress box centered on dst.
func (p *Progress) Draw(dst *surface.Surface, _ themes.RefResolver) Frame {
	rows, cols := dst.Size()
	w := min(MessageWidth+4, max(cols-2, 10))
	h := 4
	top, left := max((rows-h)/2, 0), max((cols-w)/2, 0)
	r := pane.Rect{Top: top, Left: left, Height: h, Width: w}
	drawBorder(dst, r, p.Title, nil)

	inner := w - 2
	dst.Put(top+1, left+1, themes.ThemeString{Text: p.Message, Attr: bodyAttr})
	label := fmt.Sprintf(" %3d%%", int(p.Fraction()*100))
	barW := max(inner-themes.Width(label), 0)
	filled := int(p.Fraction() * float64(barW))
	dst.Put(top+2, left+1,
		themes.ThemeString{Text: strings.Repeat("█", filled), Attr: barDoneAttr},
		themes.ThemeString{Text: strings.Repeat("░", barW-filled), Attr: barTodoAttr},
		themes.ThemeString{Text: label, Attr: bodyAttr},
	)
	return Frame{Box: r, Content: pane.Rect{Top: top + 1, Left: left + 1, Height: 2, Width: inner}}
}

// Package dialog implements modal dialogs: a list of rows the user picks from, tags, or
// confirms with a button key, plus the small confirm, input, notice and progress boxes
// built on top of it.
package dialog

import (
	"strings"
	"time"

	"github.com/oakwood-commons/cmtui/internal/themes"
	"github.com/oakwood-commons/cmtui/internal/ui/pane"
)

// LineAttr flags a dialog row.
type LineAttr = pane.LineAttr

const (
	Normal       = pane.LineNormal
	Separator    = pane.LineSeparator
	Disabled     = pane.LineDisabled
	Unselectable = pane.LineUnselectable
	Invalid      = pane.LineInvalid
)

// Item is one dialog row.
type Item struct {
	Attrs   LineAttr
	Columns []themes.ThemeArray
	Value   any
}

// Button binds a key that ends the dialog with the current selection.
type Button struct {
	Key   string
	Label string
}

// Spec describes a dialog.
type Spec struct {
	Title   string
	Headers []themes.ThemeArray
	Items   []Item
	Buttons []Button
	// Taggable lets the user tag rows; the dialog then returns the tagged values.
	Taggable bool
	// Categorize enables F6, which ends the dialog asking the caller to switch view mode.
	Categorize bool
	// Preselect is the row the cursor starts on.
	Preselect int
	// Refs measures theme references in the columns; nil means the default theme. It
	// should be the resolver the dialog is drawn with.
	Refs themes.RefResolver
}

// Outcome says how a dialog ended.
type Outcome int

const (
	Cancelled Outcome = iota
	Selected
	ButtonPressed
	ToggleCategorized
)

func (o Outcome) String() string {
	switch o {
	case Cancelled:
		return "cancelled"
	case Selected:
		return "selected"
	case ButtonPressed:
		return "button"
	case ToggleCategorized:
		return "toggle-categorized"
	}
	return "unknown"
}

// Result is what a finished dialog returns.
type Result struct {
	Outcome Outcome
	// Button is the key of the button pressed.
	Button string
	// Value is the value of the row under the cursor.
	Value any
	// Tags holds the values of the tagged rows in taggable dialogs.
	Tags []any
}

// Dialog is the dialog state machine. It does no I/O; feed it keys and mouse events and
// check Done.
type Dialog struct {
	spec   Spec
	pane   *pane.Pane
	widths []int
	header themes.ThemeArray
	done   bool
	result Result
}

var columnGap = themes.ThemeRef{Context: "separators", Key: "column"}

// New builds the dialog. Column widths are computed here, once, from the rows and headers.
func New(spec Spec) *Dialog {
	if spec.Refs == nil {
		spec.Refs = themes.Default()
	}
	d := &Dialog{spec: spec, pane: pane.New(pane.KindList)}
	d.pane.Refs = spec.Refs
	d.widths = columnWidths(spec.Refs, spec.Headers, spec.Items)

	rows := make([]pane.Row, len(spec.Items))
	for i, it := range spec.Items {
		rows[i] = pane.Row{
			Attrs:   it.Attrs,
			Columns: []themes.ThemeArray{d.layoutColumns(it.Columns, rowAttr(it.Attrs))},
			Values:  []string{firstText(it.Columns)},
		}
	}
	if len(spec.Headers) > 0 {
		d.header = d.layoutColumns(spec.Headers, headerAttr)
	}
	d.pane.MouseScroll = true
	d.pane.OnActivate = func(int) { d.finish(Selected, "") }
	d.pane.SetSize(len(rows), d.ContentWidth())
	d.pane.SetContent(rows)
	if spec.Preselect > 0 {
		d.pane.MoveTo(spec.Preselect)
	}
	return d
}

var (
	headerAttr       = themes.ThemeAttr{Context: "windowwidget", Key: "header"}
	disabledAttr     = themes.ThemeAttr{Context: "windowwidget", Key: "disabled"}
	unselectableAttr = themes.ThemeAttr{Context: "windowwidget", Key: "unselectable"}
	invalidAttr      = themes.ThemeAttr{Context: "windowwidget", Key: "invalid"}
	separatorAttr    = themes.ThemeAttr{Context: "windowwidget", Key: "separator"}
)

// rowAttr is the style forced onto rows whose flags change their look; the zero value keeps
// the row's own styles.
func rowAttr(a LineAttr) themes.ThemeAttr {
	switch {
	case a.Has(Separator):
		return separatorAttr
	case a.Has(Disabled):
		return disabledAttr
	case a.Has(Invalid):
		return invalidAttr
	case a.Has(Unselectable):
		return unselectableAttr
	}
	return themes.ThemeAttr{}
}

func columnWidths(refs themes.RefResolver, headers []themes.ThemeArray, items []Item) []int {
	var widths []int
	add := func(cols []themes.ThemeArray) {
		for i, c := range cols {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], c.Measure(refs))
		}
	}
	add(headers)
	for _, it := range items {
		add(it.Columns)
	}
	return widths
}

func (d *Dialog) layoutColumns(cols []themes.ThemeArray, override themes.ThemeAttr) themes.ThemeArray {
	var out themes.ThemeArray
	for i, c := range cols {
		if i > 0 {
			out = append(out, columnGap)
		}
		if override != (themes.ThemeAttr{}) {
			c = restyle(c, override)
		}
		out = append(out, c...)
		if n := d.widths[i] - c.Measure(d.spec.Refs); n > 0 && i < len(cols)-1 {
			out = append(out, themes.ThemeString{Text: strings.Repeat(" ", n), Attr: themes.DefaultAttr})
		}
	}
	return out
}

// restyle replaces the style of the literal fragments; references keep theirs.
func restyle(a themes.ThemeArray, attr themes.ThemeAttr) themes.ThemeArray {
	out := make(themes.ThemeArray, len(a))
	for i, f := range a {
		if s, ok := f.(themes.ThemeString); ok {
			s.Attr = attr
			f = s
		}
		out[i] = f
	}
	return out
}

func firstText(cols []themes.ThemeArray) string {
	if len(cols) == 0 {
		return ""
	}
	return strings.TrimSpace(cols[0].Text())
}

// ContentWidth is the width of the widest row.
func (d *Dialog) ContentWidth() int {
	w := 0
	for _, cw := range d.widths {
		w += cw
	}
	if len(d.widths) > 1 {
		w += (len(d.widths) - 1) * themes.ThemeArray{columnGap}.Measure(d.spec.Refs)
	}
	return w + d.pane.TagWidth()
}

// Pane exposes the cursor state, mainly for drawing.
func (d *Dialog) Pane() *pane.Pane { return d.pane }

// Spec returns the dialog description.
func (d *Dialog) Spec() Spec { return d.spec }

// Done returns the result once the dialog has ended.
func (d *Dialog) Done() (Result, bool) { return d.result, d.done }

func (d *Dialog) finish(o Outcome, button string) {
	if d.done {
		return
	}
	d.done = true
	d.result = Result{Outcome: o, Button: button}
	if o == Cancelled {
		return
	}
	if d.spec.Taggable {
		for _, i := range d.pane.Tags() {
			d.result.Tags = append(d.result.Tags, d.spec.Items[i].Value)
		}
	}
	if i := d.pane.Index(); i < len(d.spec.Items) && d.spec.Items[i].Attrs.Selectable() {
		d.result.Value = d.spec.Items[i].Value
	}
}

// HandleKey applies one key press.
func (d *Dialog) HandleKey(key string) {
	if d.done {
		return
	}
	for _, b := range d.spec.Buttons {
		if key == b.Key {
			d.finish(ButtonPressed, b.Key)
			return
		}
	}
	switch key {
	case "enter":
		if d.spec.Taggable || d.pane.Len() == 0 {
			d.finish(Selected, "")
			return
		}
		if _, ok := d.pane.Current(); ok && d.spec.Items[d.pane.Index()].Attrs.Selectable() {
			d.finish(Selected, "")
		}
	case "esc", "ctrl+c", "ctrl+x":
		d.finish(Cancelled, "")
	case "f6":
		if d.spec.Categorize {
			d.finish(ToggleCategorized, "")
		}
	case "tab":
		d.pane.NextGroup(1)
	case "shift+tab":
		d.pane.NextGroup(-1)
	case "space":
		if d.spec.Taggable {
			d.pane.ToggleTag()
			d.pane.MoveDown()
		}
	case "ctrl+t":
		if d.spec.Taggable {
			d.pane.TagAll()
		}
	case "up", "down", "pgup", "pgdown", "home", "end", "left", "right":
		d.pane.HandleKey(key)
	default:
		if pane.IsLetter(key) {
			d.pane.JumpToLetter(rune(key[0]))
		}
	}
}

// HandleMouse applies a mouse event given in content coordinates: row 0 is the first row
// below the headers.
func (d *Dialog) HandleMouse(ev pane.MouseEvent) {
	if d.done {
		return
	}
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	d.pane.HandleMouse(ev)
}

// Resize fits the visible rows into height lines and width columns.
func (d *Dialog) Resize(height, width int) {
	d.pane.SetSize(height, width)
}

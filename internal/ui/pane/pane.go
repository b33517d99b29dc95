// Package pane holds the cursor, scroll, tag and search state of one scrollable region and
// maps keys and mouse events onto it.
package pane

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/oakwood-commons/cmtui/internal/themes"
)

// Kind is the role a pane plays in the layout.
type Kind int

const (
	KindList Kind = iota
	KindInfo
	KindLog
	KindStatus
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "list"
	case KindInfo:
		return "info"
	case KindLog:
		return "log"
	case KindStatus:
		return "status"
	}
	return "unknown"
}

// LineAttr flags a row.
type LineAttr uint8

const (
	LineNormal       LineAttr = 0
	LineSeparator    LineAttr = 1 << 0
	LineDisabled     LineAttr = 1 << 1
	LineUnselectable LineAttr = 1 << 2
	LineInvalid      LineAttr = 1 << 3
)

// Has reports whether all flags in f are set.
func (a LineAttr) Has(f LineAttr) bool { return a&f == f && f != 0 }

// Selectable reports whether the cursor may land on a row with these flags.
func (a LineAttr) Selectable() bool {
	return a&(LineSeparator|LineDisabled|LineUnselectable) == 0
}

// Row is one line of content.
type Row struct {
	// ID is a stable identity used to keep the cursor on the same item across refreshes.
	ID      string
	Attrs   LineAttr
	Columns []themes.ThemeArray
	// Values are the unformatted column values used for sorting and list search.
	Values []string
}

func (r Row) value(col int) string {
	if col >= 0 && col < len(r.Values) {
		return r.Values[col]
	}
	if col >= 0 && col < len(r.Columns) {
		return r.Columns[col].Text()
	}
	return ""
}

func (r Row) text() string {
	parts := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		parts[i] = c.Text()
	}
	return strings.Join(parts, " ")
}

// PageSize is the number of rows PageUp and PageDown move.
const PageSize = 10

// WheelStep is the number of rows one wheel notch scrolls.
const WheelStep = 5

// Pane is the state of one scrollable region. Visible row i shows rows[YOffset+i] and the
// cursor sits on rows[YOffset+CurY].
type Pane struct {
	Kind Kind

	CurY, YOffset, XOffset          int
	Height, Width                   int
	MaxCurY, MaxYOffset, MaxXOffset int

	SortColumn  int
	SortReverse bool

	// Header is drawn above list panes; it is not part of Height.
	Header []themes.ThemeArray

	// Refs measures theme references in row content. It must match the resolver the pane
	// is drawn with, or references change width between measuring and drawing.
	Refs themes.RefResolver

	// OnActivate is called with the row index when a row is activated.
	OnActivate func(index int)
	// ClickActivates makes a single click activate as well as move the cursor.
	ClickActivates bool
	// MouseScroll enables wheel scrolling.
	MouseScroll bool
	// IdleAfter is how long without input before the pane counts as idle.
	IdleAfter time.Duration
	// DoubleClick is the longest gap between the clicks of a double-click.
	DoubleClick time.Duration

	rows       []Row
	widths     []int
	tags       map[int]struct{}
	selectedID string
	query      string
	matches    []int
	lastMatch  int
	lastInput  time.Time
	lastClick  time.Time
	clickRow   int
}

// New returns an empty pane.
func New(kind Kind) *Pane {
	return &Pane{
		Kind:        kind,
		Refs:        themes.Default(),
		tags:        map[int]struct{}{},
		lastMatch:   -1,
		clickRow:    -1,
		IdleAfter:   5 * time.Second,
		DoubleClick: 400 * time.Millisecond,
		MouseScroll: true,
	}
}

// Len is the number of rows.
func (p *Pane) Len() int { return len(p.rows) }

// Rows returns the content.
func (p *Pane) Rows() []Row { return p.rows }

// Index is the row under the cursor; it equals Len when the pane is empty.
func (p *Pane) Index() int { return p.YOffset + p.CurY }

// Current returns the row under the cursor.
func (p *Pane) Current() (Row, bool) {
	if i := p.Index(); i < len(p.rows) {
		return p.rows[i], true
	}
	return Row{}, false
}

// SetSize changes the visible area and re-clamps every offset.
func (p *Pane) SetSize(height, width int) {
	p.Height, p.Width = max(height, 0), max(width, 0)
	p.recompute()
}

// SetContent replaces the rows. The cursor follows the previously selected identity when
// every row has one; otherwise the raw cursor and offset are kept. Tags stay on their indices.
func (p *Pane) SetContent(rows []Row) {
	matchRow, matchID := p.lastMatchRow()
	p.rows = rows
	p.measure()
	for i := range p.tags {
		if i >= len(rows) {
			delete(p.tags, i)
		}
	}
	p.recompute()
	p.follow()
	p.rematch(matchRow, matchID)
}

func (p *Pane) measure() {
	p.widths = p.widths[:0]
	grow := func(cols []themes.ThemeArray) {
		for i, c := range cols {
			if i >= len(p.widths) {
				p.widths = append(p.widths, 0)
			}
			p.widths[i] = max(p.widths[i], c.Measure(p.Refs))
		}
	}
	grow(p.Header)
	for _, r := range p.rows {
		grow(r.Columns)
	}
}

// ContentWidth is the width of the widest row including column separators.
func (p *Pane) ContentWidth() int {
	w := 0
	for _, cw := range p.widths {
		w += cw
	}
	if len(p.widths) > 1 {
		w += (len(p.widths) - 1) * p.gapWidth()
	}
	if p.Kind == KindList {
		w += p.TagWidth()
	}
	return w
}

// ScrollbarVisible reports whether the pane needs a scrollbar column.
func (p *Pane) ScrollbarVisible() bool { return len(p.rows) > p.Height && p.Height >= 3 }

func (p *Pane) viewWidth() int {
	if p.ScrollbarVisible() {
		return max(p.Width-1, 0)
	}
	return p.Width
}

func (p *Pane) recompute() {
	n := len(p.rows)
	p.MaxYOffset = max(n-p.Height, 0)
	p.MaxCurY = max(min(p.Height, n)-1, 0)
	p.MaxXOffset = max(p.ContentWidth()-p.viewWidth(), 0)
	p.YOffset = min(max(p.YOffset, 0), p.MaxYOffset)
	p.CurY = min(max(p.CurY, 0), p.MaxCurY)
	p.XOffset = min(max(p.XOffset, 0), p.MaxXOffset)
	if !p.selectable(p.Index()) && !p.walk(1) {
		p.walk(-1)
	}
}

// follow moves the cursor back onto the remembered identity, then records the new one.
func (p *Pane) follow() {
	if p.selectedID != "" && p.hasIdentity() {
		for i, r := range p.rows {
			if r.ID == p.selectedID {
				p.MoveTo(i)
				break
			}
		}
	}
	p.remember()
}

func (p *Pane) hasIdentity() bool {
	for _, r := range p.rows {
		if r.ID == "" {
			return false
		}
	}
	return len(p.rows) > 0
}

func (p *Pane) remember() {
	if r, ok := p.Current(); ok {
		p.selectedID = r.ID
	}
}

// Sort orders the rows by the value of column col, numerically when both values are numbers.
func (p *Pane) Sort(col int, reverse bool) {
	p.SortColumn, p.SortReverse = col, reverse
	_, matchID := p.lastMatchRow()
	sort.SliceStable(p.rows, func(i, j int) bool {
		a, b := p.rows[i].value(col), p.rows[j].value(col)
		if reverse {
			a, b = b, a
		}
		return naturalLess(a, b)
	})
	p.follow()
	p.rematch(-1, matchID)
}

func naturalLess(a, b string) bool {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		return fa < fb
	}
	return a < b
}

// ToggleTag flips the tag on the row under the cursor.
func (p *Pane) ToggleTag() {
	i := p.Index()
	if !p.selectable(i) {
		return
	}
	if _, ok := p.tags[i]; ok {
		delete(p.tags, i)
	} else {
		p.tags[i] = struct{}{}
	}
}

// TagAll tags every selectable row, or clears the tags when all of them are already tagged.
func (p *Pane) TagAll() {
	all := true
	for i := range p.rows {
		if _, ok := p.tags[i]; p.selectable(i) && !ok {
			all = false
			break
		}
	}
	if all {
		clear(p.tags)
		return
	}
	for i := range p.rows {
		if p.selectable(i) {
			p.tags[i] = struct{}{}
		}
	}
}

// Tagged reports whether row i is tagged.
func (p *Pane) Tagged(i int) bool {
	_, ok := p.tags[i]
	return ok
}

// Tags returns the tagged row indices in order.
func (p *Pane) Tags() []int {
	out := make([]int, 0, len(p.tags))
	for i := range p.tags {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Touch records input at t.
func (p *Pane) Touch(t time.Time) { p.lastInput = t }

// IsIdle reports whether no input has arrived for IdleAfter.
func (p *Pane) IsIdle(now time.Time) bool {
	return now.Sub(p.lastInput) >= p.IdleAfter
}

func (p *Pane) activate() {
	if p.OnActivate != nil && p.selectable(p.Index()) {
		p.OnActivate(p.Index())
	}
}

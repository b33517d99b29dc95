package pane

import (
	"github.com/oakwood-commons/cmtui/internal/themes"
	"github.com/oakwood-commons/cmtui/internal/ui/surface"
)

// Rect is a screen region.
type Rect struct {
	Top, Left, Height, Width int
}

// Contains reports whether the screen cell (y, x) is inside r.
func (r Rect) Contains(y, x int) bool {
	return y >= r.Top && y < r.Top+r.Height && x >= r.Left && x < r.Left+r.Width
}

// Component heights that never change.
const (
	HeaderLineCount    = 1
	StatusLineCount    = 1
	SeparatorLineCount = 1
	MinListHeight      = 3
	DefaultLogPercent  = 25
)

// Layout stacks a list pane with its header, an optional info pane, an optional log pane and
// a status line. Every resize recomputes all regions and re-clamps every pane.
type Layout struct {
	List   *Pane
	Info   *Pane
	Log    *Pane
	Status *Pane

	// InfoPercent and LogPercent are the shares of the height below the list header.
	InfoPercent int
	LogPercent  int

	width, height int
	regions       map[*Pane]Rect
	header        Rect
}

// NewLayout wires the panes; info and log may be nil.
func NewLayout(list, info, log *Pane) *Layout {
	return &Layout{
		List:        list,
		Info:        info,
		Log:         log,
		Status:      New(KindStatus),
		InfoPercent: 40,
		LogPercent:  DefaultLogPercent,
		regions:     map[*Pane]Rect{},
	}
}

// Size returns the last size passed to Resize.
func (l *Layout) Size() (height, width int) { return l.height, l.width }

// Resize recomputes every region for a terminal of height×width.
func (l *Layout) Resize(height, width int) {
	l.height, l.width = max(height, 0), max(width, 0)
	clear(l.regions)

	body := l.height - HeaderLineCount - StatusLineCount
	infoH, logH := 0, 0
	if l.Log != nil {
		logH = body * l.LogPercent / 100
	}
	if l.Info != nil {
		infoH = body * l.InfoPercent / 100
	}
	seps := 0
	if infoH > 0 {
		seps++
	}
	if logH > 0 {
		seps++
	}
	listH := body - infoH - logH - seps*SeparatorLineCount
	// the list keeps a usable minimum, taken from the info pane first
	if listH < MinListHeight {
		need := MinListHeight - listH
		take := min(need, infoH)
		infoH -= take
		listH += take
		need -= take
		take = min(need, logH)
		logH -= take
		listH += take
	}
	listH = max(listH, 0)

	y := 0
	l.header = Rect{Top: y, Left: 0, Height: HeaderLineCount, Width: l.width}
	y += HeaderLineCount
	y = l.place(l.List, y, listH)
	if infoH > 0 {
		y = l.place(l.Info, y+SeparatorLineCount, infoH)
	} else if l.Info != nil {
		l.Info.SetSize(0, l.width)
	}
	if logH > 0 {
		y = l.place(l.Log, y+SeparatorLineCount, logH)
	} else if l.Log != nil {
		l.Log.SetSize(0, l.width)
	}
	l.place(l.Status, max(l.height-StatusLineCount, y), StatusLineCount)
}

func (l *Layout) place(p *Pane, top, h int) int {
	if p == nil {
		return top
	}
	p.SetSize(h, l.width)
	l.regions[p] = Rect{Top: top, Left: 0, Height: h, Width: l.width}
	return top + h
}

// Region returns where p is drawn.
func (l *Layout) Region(p *Pane) (Rect, bool) {
	r, ok := l.regions[p]
	return r, ok
}

// PaneAt returns the pane under the screen cell (y, x) and the event position inside it.
func (l *Layout) PaneAt(y, x int) (*Pane, int, int, bool) {
	for p, r := range l.regions {
		if r.Height > 0 && r.Contains(y, x) {
			return p, y - r.Top, x - r.Left, true
		}
	}
	return nil, 0, 0, false
}

var separatorAttr = themes.ThemeAttr{Context: "main", Key: "separator"}

// Draw paints every pane onto screen.
func (l *Layout) Draw(screen *surface.Surface, refs themes.RefResolver) {
	screen.Clear()
	if l.List != nil {
		screen.PutArray(l.header.Top, 0, l.List.HeaderLine(refs))
	}
	for _, p := range []*Pane{l.List, l.Info, l.Log, l.Status} {
		r, ok := l.regions[p]
		if !ok || r.Height == 0 {
			continue
		}
		if p != l.List && p != l.Status && r.Top > 0 {
			hline := themes.ThemeArray{themes.ThemeRef{Context: "boxdrawing", Key: "hline"}}
			for x := 0; x < l.width; x++ {
				screen.PutArray(r.Top-1, x, hline)
			}
			if p.Kind == KindLog {
				screen.Put(r.Top-1, 1, themes.ThemeString{Text: " Log ", Attr: separatorAttr})
			}
		}
		p.Draw(screen, refs, r.Top, r.Left)
	}
}

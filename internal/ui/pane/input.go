package pane

import (
	"time"
	"unicode/utf8"
)

// HandleKey applies a key, named the way bubbletea names key presses ("down", "pgup",
// "shift+tab", "a"). It reports whether the key was used.
func (p *Pane) HandleKey(key string) bool {
	p.Touch(time.Now())
	switch key {
	case "up", "k":
		p.MoveUp()
	case "down", "j":
		p.MoveDown()
	case "pgup":
		p.PageUp()
	case "pgdown":
		p.PageDown()
	case "home":
		p.Home()
	case "end":
		p.End()
	case "left":
		p.ScrollLeft(1)
	case "right":
		p.ScrollRight(1)
	case "shift+left":
		p.ScrollLeft(p.viewWidth() / 2)
	case "shift+right":
		p.ScrollRight(p.viewWidth() / 2)
	case "space":
		p.ToggleTag()
		p.MoveDown()
	case "ctrl+t":
		p.TagAll()
	case "n":
		p.FindNext()
	case "N":
		p.FindPrev()
	case "<":
		p.Sort(max(p.SortColumn-1, 0), p.SortReverse)
	case ">":
		p.Sort(min(p.SortColumn+1, max(len(p.widths)-1, 0)), p.SortReverse)
	case "r":
		p.Sort(p.SortColumn, !p.SortReverse)
	case "enter":
		p.activate()
	default:
		return false
	}
	return true
}

// IsLetter reports whether key is a single ASCII letter, the keys used for letter jumps.
func IsLetter(key string) bool {
	if utf8.RuneCountInString(key) != 1 {
		return false
	}
	c := key[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// MouseAction is what a mouse event did.
type MouseAction int

const (
	MouseClick MouseAction = iota
	MouseWheelUp
	MouseWheelDown
)

// MouseEvent is a mouse event in pane coordinates: Row 0 is the first visible row and Col 0
// the first column. The scrollbar is the last column.
type MouseEvent struct {
	Action MouseAction
	Row    int
	Col    int
	Time   time.Time
}

// HandleMouse maps clicks and wheel motion onto the keyboard operations. Clicks on a row move
// the cursor there and a double-click activates it. Clicks on the scrollbar arrows step one
// row; clicks on the track jump proportionally to the click position.
func (p *Pane) HandleMouse(ev MouseEvent) bool {
	p.Touch(ev.Time)
	switch ev.Action {
	case MouseWheelUp, MouseWheelDown:
		if !p.MouseScroll {
			return false
		}
		if ev.Action == MouseWheelUp {
			return p.Scroll(-WheelStep)
		}
		return p.Scroll(WheelStep)
	}

	if ev.Row < 0 || ev.Row >= p.Height || ev.Col < 0 || ev.Col >= p.Width {
		return false
	}
	if p.ScrollbarVisible() && ev.Col == p.Width-1 {
		return p.clickScrollbar(ev.Row)
	}

	i := p.YOffset + ev.Row
	if !p.MoveTo(i) {
		return false
	}
	double := p.clickRow == i && ev.Time.Sub(p.lastClick) <= p.DoubleClick
	p.clickRow, p.lastClick = i, ev.Time
	if double || p.ClickActivates {
		p.clickRow = -1
		p.activate()
	}
	return true
}

func (p *Pane) clickScrollbar(row int) bool {
	switch row {
	case 0:
		return p.MoveUp()
	case p.Height - 1:
		return p.MoveDown()
	}
	track := p.Height - 2
	target := (row - 1) * (len(p.rows) - 1) / max(track-1, 1)
	return p.Scroll(target - p.Index())
}

// Thumb returns the first and last track row covered by the scrollbar thumb, counting the
// up arrow as row 0.
func (p *Pane) Thumb() (first, last int) {
	track := p.Height - 2
	n := len(p.rows)
	if track <= 0 || n == 0 {
		return 0, -1
	}
	size := max(track*p.Height/n, 1)
	pos := 0
	if p.MaxYOffset > 0 {
		pos = p.YOffset * (track - size) / p.MaxYOffset
	}
	return 1 + pos, pos + size
}

package dialog

import (
	"strings"

	"github.com/oakwood-commons/cmtui/internal/themes"
	"github.com/oakwood-commons/cmtui/internal/ui/pane"
	"github.com/oakwood-commons/cmtui/internal/ui/surface"
)

func box(key string) themes.ThemeArray {
	return themes.ThemeArray{themes.ThemeRef{Context: "boxdrawing", Key: key}}
}

var (
	titleAttr  = themes.ThemeAttr{Context: "windowwidget", Key: "title"}
	buttonAttr = themes.ThemeAttr{Context: "windowwidget", Key: "button"}
	hotkeyAttr = themes.ThemeAttr{Context: "windowwidget", Key: "hotkey"}
	bodyAttr   = themes.ThemeAttr{Context: "windowwidget", Key: "default"}
)

// Frame is where a dialog box sits on the screen.
type Frame struct {
	Box     pane.Rect
	Content pane.Rect
}

// Place centers the box on a screen of screenH×screenW and sizes the dialog's pane to fit.
// Call it when the dialog opens and whenever the screen changes size.
func (d *Dialog) Place(screenH, screenW int) Frame {
	f := d.layout(screenH, screenW)
	d.pane.SetSize(f.Content.Height, f.Content.Width)
	return f
}

// layout computes where the box goes without touching any state.
func (d *Dialog) layout(screenH, screenW int) Frame {
	headers := 0
	if len(d.header) > 0 {
		headers = 1
	}
	minW := max(themes.Width(d.spec.Title)+4, themes.Width(buttonBar(d.spec.Buttons).Text())+2)
	w := min(max(d.ContentWidth(), minW)+2, max(screenW-2, 4))
	h := min(d.pane.Len()+headers+2, max(screenH-2, 3))
	top, left := max((screenH-h)/2, 0), max((screenW-w)/2, 0)
	content := pane.Rect{Top: top + 1 + headers, Left: left + 1, Height: max(h-2-headers, 0), Width: max(w-2, 0)}
	return Frame{Box: pane.Rect{Top: top, Left: left, Height: h, Width: w}, Content: content}
}

func buttonBar(buttons []Button) themes.ThemeArray {
	var out themes.ThemeArray
	for i, b := range buttons {
		if i > 0 {
			out = append(out, themes.ThemeString{Text: " ", Attr: bodyAttr})
		}
		out = append(out,
			themes.ThemeString{Text: "[", Attr: buttonAttr},
			themes.ThemeString{Text: b.Key, Attr: hotkeyAttr},
			themes.ThemeString{Text: "] " + b.Label, Attr: buttonAttr},
		)
	}
	return out
}

// drawBorder draws a box outline with title at the top and bar at the bottom.
func drawBorder(dst *surface.Surface, r pane.Rect, title string, bar themes.ThemeArray) {
	if r.Height < 2 || r.Width < 2 {
		return
	}
	dst.Fill(r.Top, r.Left, r.Height, r.Width, bodyAttr, false)
	bottom, right := r.Top+r.Height-1, r.Left+r.Width-1
	for x := r.Left + 1; x < right; x++ {
		dst.PutArray(r.Top, x, box("hline"))
		dst.PutArray(bottom, x, box("hline"))
	}
	for y := r.Top + 1; y < bottom; y++ {
		dst.PutArray(y, r.Left, box("vline"))
		dst.PutArray(y, right, box("vline"))
	}
	dst.PutArray(r.Top, r.Left, box("ulcorner"))
	dst.PutArray(r.Top, right, box("urcorner"))
	dst.PutArray(bottom, r.Left, box("llcorner"))
	dst.PutArray(bottom, right, box("lrcorner"))
	if title != "" {
		t := " " + title + " "
		if themes.Width(t) > r.Width-2 {
			t = themes.ThemeArray{themes.ThemeString{Text: t}}.Truncate(nil, r.Width-2).Text()
		}
		dst.Put(r.Top, r.Left+1, themes.ThemeString{Text: t, Attr: titleAttr})
	}
	if len(bar) > 0 && bar.Len(nil) <= r.Width-2 {
		dst.PutArray(bottom, right-bar.Len(nil), bar)
	}
}

// Draw paints the dialog centered on dst. The pane keeps the size of the last Place.
func (d *Dialog) Draw(dst *surface.Surface, refs themes.RefResolver) Frame {
	rows, cols := dst.Size()
	f := d.layout(rows, cols)
	drawBorder(dst, f.Box, d.spec.Title, buttonBar(d.spec.Buttons))
	if len(d.header) > 0 {
		h := themes.ThemeArray{themes.ThemeString{Text: strings.Repeat(" ", d.pane.TagWidth()), Attr: headerAttr}}
		dst.PutArray(f.Content.Top-1, f.Content.Left, append(h, d.header...))
	}
	d.pane.Draw(dst, refs, f.Content.Top, f.Content.Left)
	return f
}

package pane

import (
	"strings"

	"github.com/oakwood-commons/cmtui/internal/themes"
	"github.com/oakwood-commons/cmtui/internal/ui/surface"
)

var (
	taggedRef      = themes.ThemeRef{Context: "strings", Key: "tagged"}
	untaggedRef    = themes.ThemeRef{Context: "strings", Key: "untagged"}
	columnRef      = themes.ThemeRef{Context: "separators", Key: "column"}
	scrollUpRef    = themes.ThemeRef{Context: "boxdrawing", Key: "scrollbar_up"}
	scrollDownRef  = themes.ThemeRef{Context: "boxdrawing", Key: "scrollbar_down"}
	scrollTrackRef = themes.ThemeRef{Context: "boxdrawing", Key: "scrollbar_track"}
	scrollThumbRef = themes.ThemeRef{Context: "boxdrawing", Key: "scrollbar_thumb"}

	headerAttr     = themes.ThemeAttr{Context: "main", Key: "listheader"}
	headerSortAttr = themes.ThemeAttr{Context: "main", Key: "listheader_sort"}
)

// TagWidth is the width of the tag mark column of list panes.
func (p *Pane) TagWidth() int {
	return max(themes.ThemeArray{taggedRef}.Measure(p.Refs), themes.ThemeArray{untaggedRef}.Measure(p.Refs))
}

func (p *Pane) gapWidth() int { return themes.ThemeArray{columnRef}.Measure(p.Refs) }

func (p *Pane) pad(a themes.ThemeArray, width int) themes.ThemeArray {
	if n := width - a.Measure(p.Refs); n > 0 {
		return a.Append(themes.ThemeString{Text: strings.Repeat(" ", n), Attr: themes.DefaultAttr})
	}
	return a
}

// line lays out row i: the tag mark for list panes, then the columns padded to their widths.
func (p *Pane) line(i int) themes.ThemeArray {
	r := p.rows[i]
	var out themes.ThemeArray
	if p.Kind == KindList {
		if p.Tagged(i) {
			out = append(out, taggedRef)
		} else {
			out = append(out, untaggedRef)
		}
	}
	for c, col := range r.Columns {
		if c > 0 {
			out = append(out, columnRef)
		}
		if c < len(r.Columns)-1 && c < len(p.widths) {
			col = p.pad(col, p.widths[c])
		}
		out = append(out, col...)
	}
	if i == p.Index() && p.Kind != KindStatus && r.Attrs.Selectable() {
		out = out.Select(true)
	}
	return out
}

// HeaderLine lays out the column headers with the sort column emphasized.
func (p *Pane) HeaderLine(refs themes.RefResolver) themes.ThemeArray {
	if len(p.Header) == 0 {
		return nil
	}
	out := themes.ThemeArray{themes.ThemeString{Text: strings.Repeat(" ", p.TagWidth()), Attr: headerAttr}}
	gap := themes.ThemeString{Text: strings.Repeat(" ", p.gapWidth()), Attr: headerAttr}
	for c, h := range p.Header {
		if c > 0 {
			out = append(out, gap)
		}
		attr := headerAttr
		if c == p.SortColumn {
			attr = headerSortAttr
		}
		w := h.Measure(refs)
		if c < len(p.widths) {
			w = p.widths[c]
		}
		out = append(out, p.pad(h.OverrideStyle(refs, attr), w)...)
	}
	return out
}

// Draw renders the visible part of the pane onto dst with its top left corner at (top, left).
// The rows are laid out on a pad which is then clipped to the horizontal offset.
func (p *Pane) Draw(dst *surface.Surface, refs themes.RefResolver, top, left int) {
	view := p.viewWidth()
	scratch := surface.NewPad(p.Height, view, refs)
	for y := 0; y < p.Height && p.YOffset+y < len(p.rows); y++ {
		scratch.PutArray(y, 0, p.line(p.YOffset+y))
		if p.Index() == p.YOffset+y && p.rows[p.YOffset+y].Attrs.Selectable() && p.Kind != KindStatus {
			// extend the cursor bar across the whole view
			_, end := scratch.Cursor()
			if end < p.XOffset+view {
				scratch.Fill(y, end, 1, p.XOffset+view-end, themes.DefaultAttr, true)
			}
		}
	}
	scratch.Blit(dst, 0, p.XOffset, top, left, p.Height, view)

	if !p.ScrollbarVisible() {
		return
	}
	col := left + p.Width - 1
	first, last := p.Thumb()
	for y := 0; y < p.Height; y++ {
		ref := scrollTrackRef
		switch {
		case y == 0:
			ref = scrollUpRef
		case y == p.Height-1:
			ref = scrollDownRef
		case y >= first && y <= last:
			ref = scrollThumbRef
		}
		dst.PutArray(top+y, col, themes.ThemeArray{ref})
	}
}

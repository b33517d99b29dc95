package ui

import (
	"fmt"
	"strings"

	"github.com/oakwood-commons/cmtui/internal/themes"
)

// StatusLine is the state summarized on the bottom line.
type StatusLine struct {
	Title    string
	Position int // 1-based; 0 when the list is empty
	Total    int
	Tagged   int
	Filter   string
	Query    string
	Matches  int
	// Refreshing marks a background refresh in flight.
	Refreshing bool
	Message    string
	Severity   Severity
	Hints      themes.ThemeArray
}

// Render lays out the line for width cells. The hints are right aligned and dropped when
// they do not fit.
func (s StatusLine) Render(refs themes.RefResolver, width int) themes.ThemeArray {
	var parts []string
	if s.Title != "" {
		parts = append(parts, s.Title)
	}
	parts = append(parts, fmt.Sprintf("%d/%d", s.Position, s.Total))
	if s.Tagged > 0 {
		parts = append(parts, fmt.Sprintf("[%d tagged]", s.Tagged))
	}
	if s.Filter != "" {
		parts = append(parts, "filter: "+s.Filter)
	}
	if s.Query != "" {
		parts = append(parts, fmt.Sprintf("/%s (%d)", s.Query, s.Matches))
	}
	if s.Refreshing {
		parts = append(parts, "refreshing…")
	}
	left := themes.ThemeArray{themes.ThemeString{Text: " " + strings.Join(parts, "  "), Attr: statusAttr}}
	if s.Message != "" {
		attr := statusAttr
		if s.Severity >= SeverityWarning {
			attr = keyAttr
		}
		left = append(left, themes.ThemeString{Text: "  " + s.Message, Attr: attr})
	}

	used := left.Len(refs)
	if used >= width {
		return left.Truncate(refs, width)
	}
	hints := s.Hints
	hw := hints.Len(refs)
	if len(hints) == 0 || used+hw+2 > width {
		return append(left, themes.ThemeString{Text: strings.Repeat(" ", width-used), Attr: statusAttr})
	}
	gap := width - used - hw - 1
	out := append(left, themes.ThemeString{Text: strings.Repeat(" ", gap), Attr: statusAttr})
	out = append(out, hints...)
	return append(out, themes.ThemeString{Text: " ", Attr: statusAttr})
}

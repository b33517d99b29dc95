package ui

import (
	"github.com/oakwood-commons/cmtui/internal/themes"
)

var (
	statusAttr = themes.ThemeAttr{Context: "statusbar", Key: "default"}
	keyAttr    = themes.ThemeAttr{Context: "statusbar", Key: "key"}
	hintAttr   = themes.ThemeAttr{Context: "statusbar", Key: "hint"}
)

type hint struct{ key, label string }

func footerHintsFor(mode KeyMode) []hint {
	switch mode {
	case KeyModeVim:
		return []hint{{"?", "Help"}, {"/", "Search"}, {"y", "Copy"}, {"R", "Refresh"}, {"q", "Quit"}}
	case KeyModeEmacs:
		return []hint{{"F1", "Help"}, {"C-s", "Search"}, {"M-w", "Copy"}, {"C-l", "Refresh"}, {"C-q", "Quit"}}
	}
	return []hint{{"F1", "Help"}, {"F3", "Search"}, {"F5", "Refresh"}, {"F7", "Info"}, {"F10", "Quit"}}
}

// Footer returns the key hints shown at the right of the status line.
func Footer(mode KeyMode) themes.ThemeArray {
	var out themes.ThemeArray
	for i, h := range footerHintsFor(mode) {
		if i > 0 {
			out = append(out, themes.ThemeString{Text: " ", Attr: statusAttr})
		}
		out = append(out,
			themes.ThemeString{Text: h.key, Attr: keyAttr},
			themes.ThemeString{Text: " " + h.label, Attr: hintAttr},
		)
	}
	return out
}

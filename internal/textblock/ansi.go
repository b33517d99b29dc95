package textblock

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/oakwood-commons/cmtui/internal/themes"
)

var sgrRe = regexp.MustCompile(`\x1b\[([0-9;]*)m`)

var ansiColors = [...]string{"black", "red", "green", "yellow", "blue", "magenta", "cyan", "white"}

// sgrState is the subset of SGR attributes that map onto theme keys.
type sgrState struct {
	fg        int // -1 is the terminal default
	bold      bool
	dim       bool
	underline bool
}

func (s *sgrState) reset() { *s = sgrState{fg: -1} }

func (s *sgrState) apply(params string) {
	if params == "" {
		s.reset()
		return
	}
	codes := strings.Split(params, ";")
	for i := 0; i < len(codes); i++ {
		n, err := strconv.Atoi(codes[i])
		if err != nil {
			continue
		}
		switch {
		case n == 0:
			s.reset()
		case n == 1:
			s.bold = true
		case n == 2:
			s.dim = true
		case n == 4:
			s.underline = true
		case n == 22:
			s.bold, s.dim = false, false
		case n == 24:
			s.underline = false
		case n >= 30 && n <= 37:
			s.fg = n - 30
		case n >= 90 && n <= 97:
			s.fg = n - 90
		case n == 39:
			s.fg = -1
		case n == 38 || n == 48:
			// extended colors have no theme equivalent; skip their arguments
			if i+1 < len(codes) && codes[i+1] == "5" {
				i += 2
			} else if i+1 < len(codes) && codes[i+1] == "2" {
				i += 4
			}
		}
	}
}

func (s sgrState) key() string {
	switch {
	case s.fg >= 0:
		return "ansi_" + ansiColors[s.fg]
	case s.bold:
		return "ansi_bold"
	case s.dim:
		return "ansi_dim"
	case s.underline:
		return "ansi_underline"
	}
	return "ansi_default"
}

func formatANSI(in Input, _ Options) []themes.ThemeArray {
	lines := in.Sanitized()
	out := make([]themes.ThemeArray, 0, len(lines))
	var st sgrState
	st.reset()
	for _, l := range lines {
		var b lineBuilder
		pos := 0
		for _, m := range sgrRe.FindAllStringSubmatchIndex(l, -1) {
			b.add(ansi.Strip(l[pos:m[0]]), st.key())
			st.apply(l[m[2]:m[3]])
			pos = m[1]
		}
		b.add(ansi.Strip(l[pos:]), st.key())
		out = append(out, b.line())
	}
	return out
}

// StripANSI removes all escape sequences, leaving the text a user would search for.
func StripANSI(s string) string {
	return ansi.Strip(s)
}

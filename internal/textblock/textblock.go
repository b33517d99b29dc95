// Package textblock renders multi-line text (YAML, JSON, XML, config dialects, diffs,
// tracebacks, markdown, scripts, ANSI output) into themed lines. The line lexers consume
// anchored prefixes and re-match the remainder in a loop.
package textblock

import (
	"regexp"
	"strings"

	"github.com/oakwood-commons/cmtui/internal/errs"
	"github.com/oakwood-commons/cmtui/internal/themes"
)

// Input is either pre-split lines or a single blob.
type Input struct {
	lines []string
	blob  string
	split bool
}

// Lines wraps pre-split lines.
func Lines(lines []string) Input { return Input{lines: lines, split: true} }

// Blob wraps a string that is split on newlines.
func Blob(s string) Input { return Input{blob: s} }

// Sanitized returns the input lines with control characters cleaned up.
func (in Input) Sanitized() []string {
	lines := in.lines
	if !in.split {
		s := strings.ReplaceAll(in.blob, "\r\n", "\n")
		s = strings.TrimSuffix(s, "\n")
		if s == "" && in.blob == "" {
			return nil
		}
		lines = strings.Split(s, "\n")
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = Sanitize(l)
	}
	return out
}

// Sanitize replaces C0 control characters other than NUL, TAB and ESC with U+FFFD and
// non-breaking spaces with plain spaces. NULs are kept and become <NUL> markers when the line
// is turned into fragments.
func Sanitize(s string) string {
	clean := true
	for _, r := range s {
		if (r < 0x20 && r != 0 && r != '\t' && r != 0x1b) || r == 0x7f || r == '\u00a0' {
			clean = false
			break
		}
	}
	if clean {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\u00a0':
			b.WriteRune(' ')
		case (r < 0x20 && r != 0 && r != '\t' && r != 0x1b) || r == 0x7f:
			b.WriteRune('\uFFFD')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NULRef is the marker shown for NUL bytes.
var NULRef = themes.ThemeRef{Context: "separators", Key: "nul"}

// Options tune individual formatters.
type Options struct {
	// ExpandNewlineKeys are YAML keys whose escaped "\n" values are split over several rows.
	ExpandNewlineKeys []string
	// Lexer names the chroma lexer for FormatCode; empty means guess from the content.
	Lexer string
}

// Format selects a text-block formatter.
type Format int

const (
	FormatNone Format = iota
	FormatYAML
	FormatJSON
	FormatXML
	FormatINI
	FormatTOML
	FormatNGINX
	FormatCaddyfile
	FormatHAProxy
	FormatDiff
	FormatTraceback
	FormatMarkdown
	FormatCode
	FormatANSI
)

var formatNames = [...]string{
	FormatNone:      "none",
	FormatYAML:      "yaml",
	FormatJSON:      "json",
	FormatXML:       "xml",
	FormatINI:       "ini",
	FormatTOML:      "toml",
	FormatNGINX:     "nginx",
	FormatCaddyfile: "caddyfile",
	FormatHAProxy:   "haproxy",
	FormatDiff:      "diff",
	FormatTraceback: "traceback",
	FormatMarkdown:  "markdown",
	FormatCode:      "code",
	FormatANSI:      "ansi",
}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return "none"
	}
	return formatNames[f]
}

// ParseFormat resolves a format name such as "yaml" or "caddyfile".
func ParseFormat(name string) (Format, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "", "text", "plain":
		return FormatNone, nil
	case "yml":
		return FormatYAML, nil
	case "md":
		return FormatMarkdown, nil
	}
	for i, s := range formatNames {
		if s == n {
			return Format(i), nil
		}
	}
	return FormatNone, errs.Configf("unknown text format", name, "allowed formats are %s", strings.Join(formatNames[:], ", "))
}

// Formatter renders input into themed lines.
type Formatter func(in Input, opts Options) []themes.ThemeArray

// FormatterFor returns the formatter for f.
func FormatterFor(f Format) Formatter {
	switch f {
	case FormatNone:
		return formatNone
	case FormatYAML:
		return formatYAML
	case FormatJSON:
		return formatJSON
	case FormatXML:
		return formatXML
	case FormatINI:
		return formatINI
	case FormatTOML:
		return formatTOML
	case FormatNGINX:
		return formatNGINX
	case FormatCaddyfile:
		return formatCaddyfile
	case FormatHAProxy:
		return formatHAProxy
	case FormatDiff:
		return formatDiff
	case FormatTraceback:
		return formatTraceback
	case FormatMarkdown:
		return formatMarkdown
	case FormatCode:
		return formatCode
	case FormatANSI:
		return formatANSI
	}
	panic(errs.Programming("textblock", "no formatter for format %d", int(f)))
}

// Render is shorthand for FormatterFor(f)(in, opts).
func Render(f Format, in Input, opts Options) []themes.ThemeArray {
	return FormatterFor(f)(in, opts)
}

// lineBuilder accumulates one output row.
type lineBuilder struct {
	out themes.ThemeArray
}

// add appends text styled types/<key>, turning NULs into markers.
func (b *lineBuilder) add(text, key string) {
	if text == "" {
		return
	}
	attr := themes.ThemeAttr{Context: "types", Key: key}
	for {
		i := strings.IndexByte(text, 0)
		if i < 0 {
			b.out = append(b.out, themes.ThemeString{Text: text, Attr: attr})
			return
		}
		if i > 0 {
			b.out = append(b.out, themes.ThemeString{Text: text[:i], Attr: attr})
		}
		b.out = append(b.out, NULRef)
		text = text[i+1:]
		if text == "" {
			return
		}
	}
}

func (b *lineBuilder) line() themes.ThemeArray {
	if b.out == nil {
		return themes.ThemeArray{}
	}
	return b.out
}

func plainLine(text, key string) themes.ThemeArray {
	var b lineBuilder
	b.add(text, key)
	return b.line()
}

func formatNone(in Input, _ Options) []themes.ThemeArray {
	lines := in.Sanitized()
	out := make([]themes.ThemeArray, len(lines))
	for i, l := range lines {
		out[i] = plainLine(l, "generic")
	}
	return out
}

// rule is one anchored prefix pattern. Keys style the capture groups in order; a rule without
// groups styles the whole match with keys[0]. next switches the lexer state.
type rule struct {
	re   *regexp.Regexp
	keys []string
	next int
}

func newRule(pattern string, next int, keys ...string) rule {
	if !strings.HasPrefix(pattern, "^") {
		pattern = "^" + pattern
	}
	return rule{re: regexp.MustCompile(pattern), keys: keys, next: next}
}

// stay keeps the current lexer state.
const stay = -1

// lexer runs state-dependent rule sets over lines, carrying the state from line to line.
type lexer struct {
	states   [][]rule
	fallback []string
	// lineStart resets to this state at the start of every line; stay keeps the state
	lineStart int
}

func (lx lexer) run(lines []string) []themes.ThemeArray {
	out := make([]themes.ThemeArray, 0, len(lines))
	state := 0
	for _, l := range lines {
		if lx.lineStart != stay {
			state = lx.lineStart
		}
		var b lineBuilder
		state = lx.lexLine(&b, l, state)
		out = append(out, b.line())
	}
	return out
}

func (lx lexer) lexLine(b *lineBuilder, s string, state int) int {
	for s != "" {
		matched := false
		for _, r := range lx.states[state] {
			m := r.re.FindStringSubmatchIndex(s)
			if m == nil || m[1] == 0 {
				continue
			}
			emitMatch(b, s, m, r.keys)
			s = s[m[1]:]
			if r.next != stay {
				state = r.next
			}
			matched = true
			break
		}
		if !matched {
			b.add(s, lx.fallback[state])
			break
		}
	}
	return state
}

func emitMatch(b *lineBuilder, s string, m []int, keys []string) {
	groups := len(m)/2 - 1
	if groups == 0 {
		b.add(s[m[0]:m[1]], keys[0])
		return
	}
	pos := m[0]
	for g := 1; g <= groups; g++ {
		start, end := m[2*g], m[2*g+1]
		if start < 0 {
			continue
		}
		key := keys[len(keys)-1]
		if g-1 < len(keys) {
			key = keys[g-1]
		}
		if start > pos {
			b.add(s[pos:start], "generic")
		}
		b.add(s[start:end], key)
		pos = end
	}
	if pos < m[1] {
		b.add(s[pos:m[1]], "generic")
	}
}

package textblock

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/oakwood-commons/cmtui/internal/themes"
)

const (
	yamlLineStart = iota
	yamlAfterKey
)

var yamlLexer = lexer{
	states: [][]rule{
		yamlLineStart: {
			newRule(`(\s*)(#.*)$`, stay, "generic", "yaml_comment"),
			newRule(`(---|\.\.\.)(?:\s|$)`, yamlAfterKey, "yaml_document"),
			newRule(`(\s*)(-)(?:\s+|$)`, stay, "generic", "yaml_list"),
			newRule(`(\s*)("(?:[^"\\]|\\.)*"|'[^']*'|[^\s#'"\-?][^:#]*?|\?)(:)(?:\s+|$)`, yamlAfterKey, "generic", "yaml_key", "yaml_key_separator"),
			newRule(`\s+`, stay, "generic"),
		},
		yamlAfterKey: {
			newRule(`\s+`, stay, "generic"),
			newRule(`&\S+`, stay, "yaml_anchor"),
			newRule(`\*\S+`, stay, "yaml_reference"),
			newRule(`!\S*`, stay, "yaml_anchor"),
			newRule(`#.*$`, stay, "yaml_comment"),
			newRule(`[|>][-+]?\d*\s*$`, stay, "yaml_key_separator"),
			newRule(`"(?:[^"\\]|\\.)*"|'[^']*'`, stay, "yaml_value"),
			newRule(`[^\s#][^#]*?(?:\s+|$)`, stay, "yaml_value"),
		},
	},
	fallback:  []string{"yaml_value", "yaml_value"},
	lineStart: yamlLineStart,
}

var yamlExpandRe = regexp.MustCompile(`^(\s*)([^\s:#][^:]*):\s+(.*)$`)

func formatYAML(in Input, opts Options) []themes.ThemeArray {
	lines := in.Sanitized()
	expand := map[string]bool{}
	for _, k := range opts.ExpandNewlineKeys {
		expand[k] = true
	}
	out := make([]themes.ThemeArray, 0, len(lines))
	for _, l := range lines {
		if len(expand) > 0 {
			if rows, ok := expandNewlines(l, expand); ok {
				out = append(out, rows...)
				continue
			}
		}
		out = append(out, yamlLexer.run([]string{l})...)
	}
	return out
}

// expandNewlines splits `key: "a\nb"` into one row per segment, each continuation row
// indented to the column where the value starts.
func expandNewlines(l string, keys map[string]bool) ([]themes.ThemeArray, bool) {
	m := yamlExpandRe.FindStringSubmatch(l)
	if m == nil || !keys[m[2]] || !strings.Contains(m[3], `\n`) {
		return nil, false
	}
	value := m[3]
	if len(value) >= 2 && (value[0] == '"' || value[0] == '\'') && value[len(value)-1] == value[0] {
		value = value[1 : len(value)-1]
	}
	segments := strings.Split(value, `\n`)
	if segments[len(segments)-1] == "" {
		segments = segments[:len(segments)-1]
	}
	indent := strings.Repeat(" ", themes.Width(m[1]+m[2])+2)
	rows := make([]themes.ThemeArray, 0, len(segments))
	for i, seg := range segments {
		var b lineBuilder
		if i == 0 {
			b.add(m[1], "generic")
			b.add(m[2], "yaml_key")
			b.add(":", "yaml_key_separator")
			b.add(" ", "generic")
		} else {
			b.add(indent, "generic")
		}
		b.add(seg, "yaml_value")
		rows = append(rows, b.line())
	}
	return rows, true
}

var jsonLexer = lexer{
	states: [][]rule{{
		newRule(`\s+`, stay, "generic"),
		newRule(`("(?:[^"\\]|\\.)*")(\s*)(:)`, stay, "json_key", "generic", "json_punctuation"),
		newRule(`"(?:[^"\\]|\\.)*"?`, stay, "json_string"),
		newRule(`-?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?`, stay, "json_number"),
		newRule(`(?:true|false|null)\b`, stay, "json_value"),
		newRule(`[{}\[\],:]`, stay, "json_punctuation"),
	}},
	fallback:  []string{"json_value"},
	lineStart: 0,
}

func formatJSON(in Input, _ Options) []themes.ThemeArray {
	return jsonLexer.run(in.Sanitized())
}

// xmlState is carried across the whole document; comments and tags may span lines.
type xmlState struct {
	inTag     bool
	nameDone  bool
	inComment bool
}

var (
	xmlDecl      = regexp.MustCompile(`^<[?!][^>]*>?`)
	xmlTagOpen   = regexp.MustCompile(`^</?`)
	xmlTagName   = regexp.MustCompile(`^[\w:.\-]+`)
	xmlAttribute = regexp.MustCompile(`^([\w:.\-]+)(\s*=\s*)("[^"]*"?|'[^']*'?)?`)
	xmlTagClose  = regexp.MustCompile(`^/?>`)
	xmlSpace     = regexp.MustCompile(`^\s+`)
	xmlContent   = regexp.MustCompile(`^[^<]+`)
)

func (st *xmlState) lex(b *lineBuilder, s string) {
	for s != "" {
		switch {
		case st.inComment:
			end := strings.Index(s, "-->")
			if end < 0 {
				b.add(s, "xml_comment")
				return
			}
			b.add(s[:end+3], "xml_comment")
			s = s[end+3:]
			st.inComment = false
		case st.inTag:
			if m := xmlSpace.FindString(s); m != "" {
				b.add(m, "generic")
				s = s[len(m):]
				continue
			}
			if m := xmlTagClose.FindString(s); m != "" {
				b.add(m, "xml_tag")
				s = s[len(m):]
				st.inTag = false
				continue
			}
			if !st.nameDone {
				if m := xmlTagName.FindString(s); m != "" {
					b.add(m, "xml_tag")
					s = s[len(m):]
					st.nameDone = true
					continue
				}
			}
			if m := xmlAttribute.FindStringSubmatch(s); m != nil {
				b.add(m[1], "xml_attribute")
				b.add(m[2], "generic")
				b.add(m[3], "xml_value")
				s = s[len(m[0]):]
				continue
			}
			// stray text inside a tag
			_, n := utf8.DecodeRuneInString(s)
			b.add(s[:n], "xml_attribute")
			s = s[n:]
		default:
			if strings.HasPrefix(s, "<!--") {
				st.inComment = true
				b.add("<!--", "xml_comment")
				s = s[4:]
				continue
			}
			if m := xmlDecl.FindString(s); m != "" {
				b.add(m, "xml_declaration")
				s = s[len(m):]
				continue
			}
			if m := xmlTagOpen.FindString(s); m != "" {
				b.add(m, "xml_tag")
				s = s[len(m):]
				st.inTag = true
				st.nameDone = false
				continue
			}
			m := xmlContent.FindString(s)
			b.add(m, "xml_content")
			s = s[len(m):]
		}
	}
}

func formatXML(in Input, _ Options) []themes.ThemeArray {
	lines := in.Sanitized()
	out := make([]themes.ThemeArray, 0, len(lines))
	var st xmlState
	for _, l := range lines {
		var b lineBuilder
		st.lex(&b, l)
		out = append(out, b.line())
	}
	return out
}

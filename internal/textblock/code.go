package textblock

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/oakwood-commons/cmtui/internal/themes"
)

// tokenKey maps a chroma token type to a types/code_* key.
func tokenKey(t chroma.TokenType) string {
	switch {
	case t.InCategory(chroma.Comment):
		return "code_comment"
	case t.InCategory(chroma.Keyword):
		return "code_keyword"
	case t.InSubCategory(chroma.LiteralString):
		return "code_string"
	case t.InSubCategory(chroma.LiteralNumber):
		return "code_number"
	case t == chroma.NameBuiltin || t == chroma.NameBuiltinPseudo || t == chroma.NameFunction:
		return "code_builtin"
	case t.InCategory(chroma.Name):
		return "code_name"
	case t.InCategory(chroma.Operator) || t == chroma.Punctuation:
		return "code_operator"
	default:
		return "code_text"
	}
}

// codeLexer picks the named lexer, then one matching a shebang or the content, then plain text.
func codeLexer(name, src string) chroma.Lexer {
	var lx chroma.Lexer
	if name != "" {
		lx = lexers.Get(name)
	}
	if lx == nil {
		lx = lexers.Analyse(src)
	}
	if lx == nil {
		lx = lexers.Fallback
	}
	return chroma.Coalesce(lx)
}

func formatCode(in Input, opts Options) []themes.ThemeArray {
	lines := in.Sanitized()
	src := strings.Join(lines, "\n")
	it, err := codeLexer(opts.Lexer, src).Tokenise(nil, src)
	if err != nil {
		return formatNone(Lines(lines), opts)
	}
	out := make([]themes.ThemeArray, 0, len(lines))
	var b lineBuilder
	for _, tok := range it.Tokens() {
		key := tokenKey(tok.Type)
		for i, seg := range strings.Split(tok.Value, "\n") {
			if i > 0 {
				out = append(out, b.line())
				b = lineBuilder{}
			}
			b.add(seg, key)
		}
	}
	if len(b.out) > 0 || len(out) < len(lines) {
		out = append(out, b.line())
	}
	return out
}

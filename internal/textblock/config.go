package textblock

import (
	"github.com/oakwood-commons/cmtui/internal/themes"
)

var iniLexer = lexer{
	states: [][]rule{
		{
			newRule(`(\s*)([;#].*)$`, stay, "generic", "ini_comment"),
			newRule(`(\s*)(\[[^\]]*\])`, stay, "generic", "ini_section"),
			newRule(`(\s*)([^=:\s][^=:]*?)(\s*[=:]\s*)`, 1, "generic", "ini_key", "generic"),
			newRule(`\s+`, stay, "generic"),
		},
		{
			newRule(`\s+[;#].*$`, stay, "ini_comment"),
			newRule(`\S+`, stay, "ini_value"),
			newRule(`\s+`, stay, "generic"),
		},
	},
	fallback:  []string{"ini_value", "ini_value"},
	lineStart: 0,
}

func formatINI(in Input, _ Options) []themes.ThemeArray {
	return iniLexer.run(in.Sanitized())
}

var tomlLexer = lexer{
	states: [][]rule{
		{
			newRule(`(\s*)(#.*)$`, stay, "generic", "config_comment"),
			newRule(`(\s*)(\[\[?[^\]]+\]\]?)`, stay, "generic", "toml_table"),
			newRule(`(\s*)([A-Za-z0-9_.\-]+|"[^"]*"|'[^']*')(\s*=\s*)`, 1, "generic", "toml_key", "generic"),
			newRule(`\s+`, stay, "generic"),
		},
		{
			newRule(`\s*#.*$`, stay, "config_comment"),
			newRule(`"(?:[^"\\]|\\.)*"|'[^']*'`, stay, "json_string"),
			newRule(`(?:true|false)\b`, stay, "json_value"),
			newRule(`[+-]?\d[\d_:.\-TZ+eE]*`, stay, "json_number"),
			newRule(`[\[\]{},=]`, stay, "json_punctuation"),
			newRule(`[A-Za-z_][\w.\-]*`, stay, "toml_key"),
			newRule(`\s+`, stay, "generic"),
		},
	},
	fallback:  []string{"toml_value", "toml_value"},
	lineStart: stay,
}

func formatTOML(in Input, _ Options) []themes.ThemeArray {
	lines := in.Sanitized()
	out := make([]themes.ThemeArray, 0, len(lines))
	state, depth := 0, 0
	for _, l := range lines {
		var b lineBuilder
		state = tomlLexer.lexLine(&b, l, state)
		// multi-line arrays and inline tables keep the value state until they close
		if depth += bracketDelta(l); depth <= 0 {
			state, depth = 0, 0
		}
		out = append(out, b.line())
	}
	return out
}

// bracketDelta counts opened minus closed brackets outside strings and comments.
func bracketDelta(l string) int {
	depth := 0
	quote := byte(0)
	for i := 0; i < len(l); i++ {
		c := l[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '#':
			return depth
		case c == '[' || c == '{':
			depth++
		case c == ']' || c == '}':
			depth--
		}
	}
	return depth
}

// directive lexers: the first word of a statement is the directive, the rest are values.
const (
	stmtStart = iota
	stmtArgs
)

var nginxLexer = lexer{
	states: [][]rule{
		stmtStart: {
			newRule(`\s+`, stay, "generic"),
			newRule(`#.*$`, stay, "config_comment"),
			newRule(`[{}]`, stay, "config_block"),
			newRule(`;`, stay, "separator"),
			newRule(`[A-Za-z_][\w.\-]*`, stmtArgs, "config_directive"),
		},
		stmtArgs: {
			newRule(`\s+`, stay, "generic"),
			newRule(`#.*$`, stay, "config_comment"),
			newRule(`;`, stmtStart, "separator"),
			newRule(`\{`, stmtStart, "config_block"),
			newRule(`\}`, stmtStart, "config_block"),
			newRule(`\$\{?\w+\}?`, stay, "config_variable"),
			newRule(`"(?:[^"\\]|\\.)*"|'[^']*'`, stay, "config_value"),
			newRule(`[^\s;{}$#"']+`, stay, "config_value"),
		},
	},
	fallback:  []string{"config_value", "config_value"},
	lineStart: stay,
}

func formatNGINX(in Input, _ Options) []themes.ThemeArray {
	return nginxLexer.run(in.Sanitized())
}

var caddyLexer = lexer{
	states: [][]rule{
		stmtStart: {
			newRule(`\s+`, stay, "generic"),
			newRule(`#.*$`, stay, "config_comment"),
			newRule(`[{}]`, stay, "config_block"),
			newRule(`@[\w\-]+`, stmtArgs, "config_variable"),
			newRule(`\{\$?[\w.\-:]+\}`, stmtArgs, "config_variable"),
			newRule(`[^\s{}#]+`, stmtArgs, "config_directive"),
		},
		stmtArgs: {
			newRule(`[ \t]+`, stay, "generic"),
			newRule(`#.*$`, stay, "config_comment"),
			newRule(`[{}]`, stmtStart, "config_block"),
			newRule(`@[\w\-]+`, stay, "config_variable"),
			newRule(`\{\$?[\w.\-:]+\}`, stay, "config_variable"),
			newRule(`"(?:[^"\\]|\\.)*"|` + "`[^`]*`", stay, "config_value"),
			newRule(`[^\s{}#"]+`, stay, "config_value"),
		},
	},
	fallback:  []string{"config_value", "config_value"},
	lineStart: stmtStart,
}

func formatCaddyfile(in Input, _ Options) []themes.ThemeArray {
	return caddyLexer.run(in.Sanitized())
}

var haproxyLexer = lexer{
	states: [][]rule{
		stmtStart: {
			newRule(`(global|defaults|frontend|backend|listen|userlist|peers|resolvers|mailers|program|cache|http-errors|ring)\b`, stmtArgs, "config_block"),
			newRule(`\s+`, stay, "generic"),
			newRule(`#.*$`, stay, "config_comment"),
			newRule(`\S+`, stmtArgs, "config_directive"),
		},
		stmtArgs: {
			newRule(`\s+`, stay, "generic"),
			newRule(`#.*$`, stay, "config_comment"),
			newRule(`%\[[^\]]*\]|\$\w+|\{[^}]*\}`, stay, "config_variable"),
			newRule(`"(?:[^"\\]|\\.)*"`, stay, "config_value"),
			newRule(`\S+`, stay, "config_value"),
		},
	},
	fallback:  []string{"config_value", "config_value"},
	lineStart: stmtStart,
}

func formatHAProxy(in Input, _ Options) []themes.ThemeArray {
	return haproxyLexer.run(in.Sanitized())
}

var diffLexer = lexer{
	states: [][]rule{{
		newRule(`(?:diff |index |--- |\+\+\+ |new file mode|deleted file mode|similarity index|rename (?:from|to) ).*$`, stay, "diff_header"),
		newRule(`(@@[^@]*@@)(.*)$`, stay, "diff_hunk", "diff_context"),
		newRule(`\+.*$`, stay, "diff_added"),
		newRule(`-.*$`, stay, "diff_removed"),
		newRule(`.+$`, stay, "diff_context"),
	}},
	fallback:  []string{"diff_context"},
	lineStart: 0,
}

func formatDiff(in Input, _ Options) []themes.ThemeArray {
	return diffLexer.run(in.Sanitized())
}

var tracebackLexer = lexer{
	states: [][]rule{{
		newRule(`(?:Traceback \(most recent call last\):|During handling of the above exception.*|The above exception was the direct cause.*)$`, stay, "traceback_header"),
		newRule(`(\s+File ")([^"]+)(", line )(\d+)(?:(, in )(.*))?$`, stay, "generic", "traceback_file", "generic", "traceback_line", "generic", "traceback_code"),
		newRule(`(\s+)(\^+|~+[\^~]*)$`, stay, "generic", "traceback_error"),
		newRule(`\s+.*$`, stay, "traceback_code"),
		newRule(`([A-Za-z_][\w.]*(?:Error|Exception|Warning|Exit|Interrupt|StopIteration)\b)(:?)(.*)$`, stay, "traceback_error", "generic", "traceback_error"),
	}},
	fallback:  []string{"generic"},
	lineStart: 0,
}

func formatTraceback(in Input, _ Options) []themes.ThemeArray {
	return tracebackLexer.run(in.Sanitized())
}

package textblock

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/cmtui/internal/themes"
)

// keyed returns (text, key) pairs for the literal fragments of a line.
func keyed(line themes.ThemeArray) [][2]string {
	var out [][2]string
	for _, f := range line {
		if s, ok := f.(themes.ThemeString); ok {
			out = append(out, [2]string{s.Text, s.Attr.Key})
		}
	}
	return out
}

func keyOf(t *testing.T, line themes.ThemeArray, text string) string {
	t.Helper()
	for _, p := range keyed(line) {
		if p[0] == text {
			return p[1]
		}
	}
	t.Fatalf("no fragment %q in %v", text, keyed(line))
	return ""
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "a�b", Sanitize("a\x07b"))
	assert.Equal(t, "a b", Sanitize("a\u00a0b"))
	assert.Equal(t, "tab\there", Sanitize("tab\there"))
	assert.Equal(t, "\x1b[1m", Sanitize("\x1b[1m"))
	assert.Equal(t, "x�", Sanitize("x\x7f"))
}

func TestBlobSplitting(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Blob("a\r\nb\n").Sanitized())
	assert.Nil(t, Blob("").Sanitized())
	assert.Equal(t, []string{"", ""}, Blob("\n\n").Sanitized())
}

func TestNULBecomesMarker(t *testing.T) {
	lines := Render(FormatNone, Lines([]string{"a\x00b"}), Options{})
	require.Len(t, lines, 1)
	require.Len(t, lines[0], 3)
	assert.Equal(t, NULRef, lines[0][1])

	r := themes.NewResolver(themes.Default())
	assert.Equal(t, "a<NUL>b", lines[0].PlainText(r))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("yml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	f, err = ParseFormat("Caddyfile")
	require.NoError(t, err)
	assert.Equal(t, FormatCaddyfile, f)

	_, err = ParseFormat("cobol")
	require.Error(t, err)

	for i := FormatNone; i <= FormatANSI; i++ {
		assert.NotPanics(t, func() { FormatterFor(i)(Lines([]string{"x"}), Options{}) }, i.String())
	}
}

func TestYAML(t *testing.T) {
	lines := Render(FormatYAML, Blob("# top\nkind: Pod\nmetadata:\n  name: x # c\n  labels: &l\n    - a\n  other: *l\n"), Options{})
	require.Len(t, lines, 7)
	assert.Equal(t, "yaml_comment", keyOf(t, lines[0], "# top"))
	assert.Equal(t, "yaml_key", keyOf(t, lines[1], "kind"))
	assert.Equal(t, "yaml_value", keyOf(t, lines[1], "Pod"))
	// a bare key with no value is still a key
	assert.Equal(t, "yaml_key", keyOf(t, lines[2], "metadata"))
	assert.Equal(t, "yaml_comment", keyOf(t, lines[3], "# c"))
	assert.Equal(t, "yaml_anchor", keyOf(t, lines[4], "&l"))
	assert.Equal(t, "yaml_list", keyOf(t, lines[5], "-"))
	assert.Equal(t, "yaml_reference", keyOf(t, lines[6], "*l"))
}

func TestYAMLExpandNewlines(t *testing.T) {
	in := Lines([]string{`  script: "echo a\necho b\n"`, `  other: "x\ny"`})
	lines := Render(FormatYAML, in, Options{ExpandNewlineKeys: []string{"script"}})
	require.Len(t, lines, 3)
	assert.Equal(t, "  script: echo a", lines[0].Text())
	assert.Equal(t, "          echo b", lines[1].Text())
	assert.Equal(t, `  other: "x\ny"`, lines[2].Text())
}

func TestJSON(t *testing.T) {
	lines := Render(FormatJSON, Blob(`{"a": 1, "b": [true, "s"]}`), Options{})
	require.Len(t, lines, 1)
	assert.Equal(t, "json_key", keyOf(t, lines[0], `"a"`))
	assert.Equal(t, "json_number", keyOf(t, lines[0], "1"))
	assert.Equal(t, "json_value", keyOf(t, lines[0], "true"))
	assert.Equal(t, "json_string", keyOf(t, lines[0], `"s"`))
}

func TestXMLCommentSpansLines(t *testing.T) {
	lines := Render(FormatXML, Blob("<?xml version=\"1.0\"?>\n<a href=\"x\"><!-- one\n<b>two</b> -->\n<c>text</c>"), Options{})
	require.Len(t, lines, 4)
	assert.Equal(t, "xml_declaration", keyOf(t, lines[0], `<?xml version="1.0"?>`))
	assert.Equal(t, "xml_attribute", keyOf(t, lines[1], "href"))
	assert.Equal(t, "xml_value", keyOf(t, lines[1], `"x"`))
	for _, p := range keyed(lines[2]) {
		assert.Equal(t, "xml_comment", p[1], p[0])
	}
	assert.Equal(t, "xml_content", keyOf(t, lines[3], "text"))
	assert.Equal(t, "xml_tag", keyOf(t, lines[3], "c"))
}

func TestConfigDialects(t *testing.T) {
	ini := Render(FormatINI, Blob("[main]\nkey = value ; note"), Options{})
	assert.Equal(t, "ini_section", keyOf(t, ini[0], "[main]"))
	assert.Equal(t, "ini_key", keyOf(t, ini[1], "key"))
	assert.Equal(t, "ini_value", keyOf(t, ini[1], "value"))

	toml := Render(FormatTOML, Blob("[server]\nports = [\n  80,\n]\nname = \"x\""), Options{})
	assert.Equal(t, "toml_table", keyOf(t, toml[0], "[server]"))
	assert.Equal(t, "json_number", keyOf(t, toml[2], "80"))
	assert.Equal(t, "toml_key", keyOf(t, toml[4], "name"))

	nginx := Render(FormatNGINX, Blob("server {\n  listen 80;\n  root $root; # c\n}"), Options{})
	assert.Equal(t, "config_directive", keyOf(t, nginx[0], "server"))
	assert.Equal(t, "config_directive", keyOf(t, nginx[1], "listen"))
	assert.Equal(t, "config_value", keyOf(t, nginx[1], "80"))
	assert.Equal(t, "config_variable", keyOf(t, nginx[2], "$root"))
	assert.Equal(t, "config_comment", keyOf(t, nginx[2], "# c"))

	caddy := Render(FormatCaddyfile, Blob(".:53 {\n    forward . /etc/resolv.conf\n}"), Options{})
	assert.Equal(t, "config_directive", keyOf(t, caddy[0], ".:53"))
	assert.Equal(t, "config_directive", keyOf(t, caddy[1], "forward"))
	assert.Equal(t, "config_value", keyOf(t, caddy[1], "/etc/resolv.conf"))

	haproxy := Render(FormatHAProxy, Blob("frontend web\n    bind *:80"), Options{})
	assert.Equal(t, "config_block", keyOf(t, haproxy[0], "frontend"))
	assert.Equal(t, "config_directive", keyOf(t, haproxy[1], "bind"))
}

func TestDiffAndTraceback(t *testing.T) {
	diff := Render(FormatDiff, Blob("--- a/x\n+++ b/x\n@@ -1 +1 @@\n-old\n+new\n same"), Options{})
	keys := []string{"diff_header", "diff_header", "diff_hunk", "diff_removed", "diff_added", "diff_context"}
	for i, k := range keys {
		assert.Equal(t, k, keyed(diff[i])[0][1], i)
	}

	tb := Render(FormatTraceback, Blob("Traceback (most recent call last):\n  File \"app.py\", line 3, in main\n    run()\nValueError: bad"), Options{})
	assert.Equal(t, "traceback_header", keyed(tb[0])[0][1])
	assert.Equal(t, "traceback_file", keyOf(t, tb[1], "app.py"))
	assert.Equal(t, "traceback_line", keyOf(t, tb[1], "3"))
	assert.Equal(t, "traceback_code", keyOf(t, tb[2], "    run()"))
	assert.Equal(t, "traceback_error", keyOf(t, tb[3], "ValueError"))
}

func TestMarkdown(t *testing.T) {
	lines := Render(FormatMarkdown, Blob("# Title\n\nSome *emph* and `code`.\n\n- one\n- two\n"), Options{})
	var texts []string
	for _, l := range lines {
		texts = append(texts, l.Text())
	}
	assert.Equal(t, []string{"# Title", "", "Some emph and code.", "", "- one", "- two"}, texts)
	assert.Equal(t, "md_emphasis", keyOf(t, lines[2], "emph"))
	assert.Equal(t, "md_code", keyOf(t, lines[2], "code"))
	assert.Equal(t, "md_list", keyOf(t, lines[4], "- "))
}

func TestCode(t *testing.T) {
	lines := Render(FormatCode, Blob("#!/bin/bash\n# hi\necho \"x\""), Options{Lexer: "bash"})
	require.Len(t, lines, 3)
	assert.Equal(t, "echo \"x\"", lines[2].Text())
	assert.Equal(t, "code_comment", keyed(lines[1])[0][1])
}

func TestANSI(t *testing.T) {
	lines := Render(FormatANSI, Blob("plain \x1b[31mred\x1b[0m \x1b[1mbold\n\x1b[Kstill bold\x1b[m"), Options{})
	require.Len(t, lines, 2)
	assert.Equal(t, "ansi_default", keyOf(t, lines[0], "plain "))
	assert.Equal(t, "ansi_red", keyOf(t, lines[0], "red"))
	assert.Equal(t, "ansi_bold", keyOf(t, lines[0], "bold"))
	assert.Equal(t, "ansi_bold", keyOf(t, lines[1], "still bold"))
	assert.Equal(t, "still bold", StripANSI("\x1b[1mstill bold\x1b[0m"))
}

func TestIdentifyBinary(t *testing.T) {
	gz := []byte{0x1f, 0x8b, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff}
	hints := Hints{Namespace: "kube-system", Name: "kube-proxy", Key: "config.conf"}

	res := Identify(gz, hints)
	assert.Equal(t, "gz / tar+gz", res.Label)
	assert.True(t, res.Binary)

	res = Identify([]byte(base64.StdEncoding.EncodeToString(gz)), hints)
	assert.Equal(t, "gz / tar+gz", res.Label)

	res = Identify([]byte{0x00, 0x01, 0x02, 0x03, 0xfe}, Hints{})
	assert.Equal(t, BinaryFallbackLabel, res.Label)

	tar := make([]byte, 300)
	copy(tar[257:], "ustar")
	assert.Equal(t, "tar", Identify(tar, Hints{}).Label)
}

func TestIdentifySignatures(t *testing.T) {
	res := Identify([]byte("#!/usr/bin/env python3\nprint(1)\n"), Hints{Key: "x.sh"})
	assert.Equal(t, FormatCode, res.Format)
	assert.Equal(t, "python", res.Lexer)

	res = Identify([]byte("-----BEGIN CERTIFICATE-----\nMIIB\n"), Hints{Key: "ca.yaml"})
	assert.Equal(t, "PEM certificate", res.Label)

	res = Identify([]byte("<?xml version=\"1.0\"?><a/>"), Hints{})
	assert.Equal(t, FormatXML, res.Format)
}

func TestIdentifyNamingOrder(t *testing.T) {
	// the kube-proxy rule precedes the generic .conf rule
	res := Identify([]byte("apiVersion: v1\n"), Hints{Namespace: "kube-system", Name: "kube-proxy", Key: "config.conf"})
	assert.Equal(t, FormatYAML, res.Format)

	res = Identify([]byte("a = b\n"), Hints{Namespace: "default", Name: "app", Key: "app.conf"})
	assert.Equal(t, FormatINI, res.Format)

	res = Identify([]byte(".:53 {\n}\n"), Hints{Namespace: "kube-system", Name: "coredns", Key: "Corefile"})
	assert.Equal(t, FormatCaddyfile, res.Format)

	res = Identify([]byte("events {}\n"), Hints{Name: "nginx-conf", Key: "default.conf"})
	assert.Equal(t, FormatNGINX, res.Format)

	res = Identify([]byte("hello"), Hints{Key: "README"})
	assert.Equal(t, Result{Label: "Text", Format: FormatNone}, res)

	// base64 that decodes to text is not binary
	res = Identify([]byte("aGVsbG8gd29ybGQ="), Hints{})
	assert.Equal(t, "Text", res.Label)
}

package formatter

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/cmtui/internal/themes"
)

func TestStringifyString(t *testing.T) {
	result := Stringify("hello")
	if result != "hello" {
		t.Fatalf("expected 'hello', got %q", result)
	}
}

func TestStringifyStringEscapesNewlines(t *testing.T) {
	result := Stringify("line1\r\nline2")
	if result != "line1\\nline2" {
		t.Fatalf("expected escaped newlines, got %q", result)
	}
}

func TestStringifyPreserveNewlinesExpandsEscaped(t *testing.T) {
	lines := strings.Split(StringifyPreserveNewlines("line1\\nline2"), "\n")
	if len(lines) != 2 || lines[0] != "line1" || lines[1] != "line2" {
		t.Fatalf("expected escaped newlines to expand, got %#v", lines)
	}
}

func TestStringifyScalars(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{true, "true"},
		{42, "42"},
		{int64(123), "123"},
		{3.14, "3.14"},
		{float32(2.5), "2.5"},
		{StatusNotOK, "not_ok"},
		{[]any{"a", 1}, `["a",1]`},
		{map[string]any{"k": "v"}, `{"k":"v"}`},
		{[]string{"x"}, `["x"]`},
	}
	for _, tt := range tests {
		if got := Stringify(tt.in); got != tt.want {
			t.Errorf("Stringify(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStringifyPointer(t *testing.T) {
	s := "value"
	if got := Stringify(&s); got != "value" {
		t.Fatalf("expected dereferenced value, got %q", got)
	}
	var nilPtr *string
	if got := Stringify(nilPtr); got != "" {
		t.Fatalf("expected empty string for nil pointer, got %q", got)
	}
}

func TestFormatYAMLLiteralBlocks(t *testing.T) {
	in := map[string]any{
		"script": "echo one\necho two",
		"escaped": map[string]any{
			"note": "a\\nb",
		},
	}
	out, err := FormatYAML(in, YAMLFormatOptions{LiteralBlockStrings: true, ExpandEscapedNewlines: true})
	if err != nil {
		t.Fatalf("FormatYAML: %v", err)
	}
	if !strings.Contains(out, "script: |") {
		t.Fatalf("expected literal block for script, got:\n%s", out)
	}
	if !strings.Contains(out, "note: |") {
		t.Fatalf("expected escaped newline to expand into a literal block, got:\n%s", out)
	}
	var back map[string]any
	if err := yaml.Unmarshal([]byte(out), &back); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
}

func TestAlignAndPad(t *testing.T) {
	a := themes.ThemeArray{themes.Str("abc", "types", "generic")}
	r := themes.Default()

	left := AlignAndPad(a, FieldContext{Width: 6, Pad: 1})
	if got := left.PlainText(r); got != "abc    " {
		t.Fatalf("left aligned: got %q", got)
	}
	right := AlignAndPad(a, FieldContext{Width: 6, RightAlign: true})
	if got := right.PlainText(r); got != "   abc" {
		t.Fatalf("right aligned: got %q", got)
	}
	wide := AlignAndPad(a, FieldContext{Width: 2})
	if got := wide.PlainText(r); got != "abc" {
		t.Fatalf("content wider than the field must not be cut: got %q", got)
	}
}

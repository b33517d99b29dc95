package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTryDecode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  any
		ok    bool
	}{
		{"json object", `{"a": 1}`, map[string]any{"a": float64(1)}, true},
		{"json array", `["x", "y"]`, []any{"x", "y"}, true},
		{"multi line yaml", "a: 1\nb: two\n", map[string]any{"a": 1, "b": "two"}, true},
		{"single line yaml stays", "a: 1", nil, false},
		{"plain word", "hello", nil, false},
		{"multi line prose", "first line\nsecond line", nil, false},
		{"empty", "", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := TryDecode(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecursiveDecodeNested(t *testing.T) {
	in := map[string]any{
		"outer": `{"inner": "{\"deep\": true}"}`,
		"list":  []any{"plain", `[1]`},
	}
	out := RecursiveDecode(in).(map[string]any)
	assert.Equal(t, map[string]any{"inner": map[string]any{"deep": true}}, out["outer"])
	assert.Equal(t, []any{"plain", []any{float64(1)}}, out["list"])
	// the input is not modified
	assert.Equal(t, `[1]`, in["list"].([]any)[1])
}

func TestRecursiveDecodeTypedContainers(t *testing.T) {
	in := map[string]string{"cfg": `{"a": "b"}`, "name": "x"}
	out := RecursiveDecode(in)
	assert.Equal(t, map[string]any{"cfg": map[string]any{"a": "b"}, "name": "x"}, out)

	assert.Equal(t, []any{"a", "b"}, RecursiveDecode([]string{"a", "b"}))
	assert.Equal(t, []byte("raw"), RecursiveDecode([]byte("raw")))
	assert.Nil(t, RecursiveDecode(nil))
	assert.Equal(t, 5, RecursiveDecode(5))
}

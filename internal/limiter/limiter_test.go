package limiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		errMsg string
	}{
		{name: "limit only", cfg: Config{Limit: 10}},
		{name: "offset only", cfg: Config{Offset: 5}},
		{name: "limit and offset", cfg: Config{Limit: 10, Offset: 5}},
		{name: "tail ignores offset", cfg: Config{Tail: 10, Offset: 5}},
		{name: "limit and tail", cfg: Config{Limit: 10, Tail: 5}, errMsg: "mutually exclusive"},
		{name: "negative limit", cfg: Config{Limit: -1}, errMsg: "non-negative"},
		{name: "negative offset", cfg: Config{Offset: -1}, errMsg: "non-negative"},
		{name: "negative tail", cfg: Config{Tail: -1}, errMsg: "non-negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestBounds(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		n         int
		wantStart int
		wantEnd   int
	}{
		{"inactive", Config{}, 5, 0, 5},
		{"limit", Config{Limit: 2}, 5, 0, 2},
		{"offset and limit", Config{Offset: 1, Limit: 2}, 5, 1, 3},
		{"limit past end", Config{Offset: 4, Limit: 10}, 5, 4, 5},
		{"offset past end", Config{Offset: 9}, 5, 5, 5},
		{"tail", Config{Tail: 2}, 5, 3, 5},
		{"tail longer than input", Config{Tail: 9}, 5, 0, 5},
		{"tail wins over offset", Config{Tail: 1, Offset: 1}, 5, 4, 5},
		{"empty", Config{Limit: 3}, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, e := tt.cfg.Bounds(tt.n)
			assert.Equal(t, tt.wantStart, s)
			assert.Equal(t, tt.wantEnd, e)
		})
	}
}

func TestApply(t *testing.T) {
	rows := []string{"a", "b", "c", "d"}
	assert.Equal(t, []string{"b", "c"}, Apply(Config{Offset: 1, Limit: 2}, rows))
	assert.Equal(t, []string{"d"}, Apply(Config{Tail: 1}, rows))
	assert.Equal(t, rows, Apply(Config{}, rows))
}

func TestApplyDocument(t *testing.T) {
	assert.Equal(t, []any{2, 3}, Config{Tail: 2}.ApplyDocument([]any{1, 2, 3}))

	m := map[string]any{"c": 3, "a": 1, "b": 2}
	assert.Equal(t, map[string]any{"b": 2}, Config{Offset: 1, Limit: 1}.ApplyDocument(m))

	assert.Equal(t, []int{1}, Config{Limit: 1}.ApplyDocument([]int{1, 2}))
	assert.Equal(t, "scalar", Config{Limit: 1}.ApplyDocument("scalar"))
}

package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidKeyMode(t *testing.T) {
	for _, m := range []string{"vim", "emacs", "function"} {
		assert.True(t, IsValidKeyMode(m), m)
	}
	assert.False(t, IsValidKeyMode("vi"))
	assert.Equal(t, KeyModeVim, NewKeymap("bogus").Mode)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		mode KeyMode
		key  string
		want Action
	}{
		{KeyModeVim, "/", ActionSearch},
		{KeyModeVim, "q", ActionQuit},
		{KeyModeVim, "G", ActionBottom},
		{KeyModeVim, "f1", ActionHelp},
		{KeyModeVim, "j", ActionNone},
		{KeyModeEmacs, "ctrl+s", ActionSearch},
		{KeyModeEmacs, "q", ActionNone},
		{KeyModeEmacs, "alt+<", ActionTop},
		{KeyModeFunction, "q", ActionNone},
		{KeyModeFunction, "f10", ActionQuit},
		{KeyModeFunction, "tab", ActionFocus},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode)+"/"+tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, NewKeymap(tt.mode).Resolve(tt.key))
		})
	}
}

func TestPendingG(t *testing.T) {
	k := NewKeymap(KeyModeVim)
	assert.Equal(t, ActionNone, k.Resolve("g"))
	assert.True(t, k.Pending())
	assert.Equal(t, ActionTop, k.Resolve("g"))
	assert.False(t, k.Pending())

	// any other key drops the pending g and is resolved on its own
	k.Resolve("g")
	assert.Equal(t, ActionQuit, k.Resolve("q"))
	assert.False(t, k.Pending())
}

func TestBindingsDifferPerMode(t *testing.T) {
	vim := NewKeymap(KeyModeVim).Bindings()
	fn := NewKeymap(KeyModeFunction).Bindings()
	assert.NotEqual(t, vim, fn)
	assert.Contains(t, vim, Binding{"q", "quit"})
	assert.Contains(t, fn, Binding{"F10", "quit"})
}

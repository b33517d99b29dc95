package ui

// KeyMode represents the keybinding mode for the UI.
type KeyMode string

const (
	// KeyModeVim adds single-letter shortcuts (gg/G, /, ?, y, q).
	KeyModeVim KeyMode = "vim"
	// KeyModeEmacs uses control and meta chords.
	KeyModeEmacs KeyMode = "emacs"
	// KeyModeFunction uses function keys only and leaves letters for row jumps.
	KeyModeFunction KeyMode = "function"
)

// DefaultKeyMode is the default keybinding mode.
const DefaultKeyMode = KeyModeVim

// ValidKeyModes lists all valid key modes for validation.
var ValidKeyModes = []KeyMode{KeyModeVim, KeyModeEmacs, KeyModeFunction}

// IsValidKeyMode checks if a key mode string is valid.
func IsValidKeyMode(mode string) bool {
	for _, m := range ValidKeyModes {
		if string(m) == mode {
			return true
		}
	}
	return false
}

// Action is an application-level command. Keys without an action go to the focused pane.
type Action string

const (
	ActionNone       Action = ""
	ActionHelp       Action = "help"
	ActionSearch     Action = "search"
	ActionTop        Action = "top"
	ActionBottom     Action = "bottom"
	ActionCopy       Action = "copy"
	ActionRefresh    Action = "refresh"
	ActionToggleInfo Action = "toggle_info"
	ActionToggleLog  Action = "toggle_log"
	ActionFocus      Action = "focus"
	ActionDelete     Action = "delete"
	ActionClear      Action = "clear"
	ActionQuit       Action = "quit"
	actionPendingG   Action = "pending_g"
)

// commonBindings apply in every mode.
var commonBindings = map[string]Action{
	"f1":     ActionHelp,
	"f3":     ActionSearch,
	"f5":     ActionRefresh,
	"f7":     ActionToggleInfo,
	"f8":     ActionToggleLog,
	"f10":    ActionQuit,
	"ctrl+c": ActionQuit,
	"tab":    ActionFocus,
	"esc":    ActionClear,
	"delete": ActionDelete,
}

// VimKeyBindings maps keys to actions for vim mode.
var VimKeyBindings = map[string]Action{
	"/": ActionSearch,
	"?": ActionHelp,
	"g": actionPendingG,
	"G": ActionBottom,
	"y": ActionCopy,
	"i": ActionToggleInfo,
	"L": ActionToggleLog,
	"R": ActionRefresh,
	"D": ActionDelete,
	"q": ActionQuit,
}

// EmacsKeyBindings maps keys to actions for emacs mode.
var EmacsKeyBindings = map[string]Action{
	"ctrl+s": ActionSearch,
	"alt+<":  ActionTop,
	"alt+>":  ActionBottom,
	"alt+w":  ActionCopy,
	"ctrl+l": ActionRefresh,
	"ctrl+g": ActionClear,
	"ctrl+q": ActionQuit,
}

// FunctionKeyBindings maps keys to actions for function-key mode.
var FunctionKeyBindings = map[string]Action{
	"ctrl+y": ActionCopy,
	"ctrl+r": ActionRefresh,
}

// Keymap resolves key presses into actions for one mode, including the gg sequence.
type Keymap struct {
	Mode    KeyMode
	pending string
}

func NewKeymap(mode KeyMode) *Keymap {
	if !IsValidKeyMode(string(mode)) {
		mode = DefaultKeyMode
	}
	return &Keymap{Mode: mode}
}

func (k *Keymap) bindings() map[string]Action {
	switch k.Mode {
	case KeyModeEmacs:
		return EmacsKeyBindings
	case KeyModeFunction:
		return FunctionKeyBindings
	default:
		return VimKeyBindings
	}
}

// Resolve returns the action for key. A pending g that is not followed by a second g is
// dropped and the key is resolved on its own.
func (k *Keymap) Resolve(key string) Action {
	if k.pending == "g" {
		k.pending = ""
		if key == "g" {
			return ActionTop
		}
	}
	if a, ok := commonBindings[key]; ok {
		return a
	}
	a, ok := k.bindings()[key]
	if !ok {
		return ActionNone
	}
	if a == actionPendingG {
		k.pending = "g"
		return ActionNone
	}
	return a
}

// Pending reports whether the keymap waits for the second key of a sequence.
func (k *Keymap) Pending() bool { return k.pending != "" }

// Binding is one line of the help dialog.
type Binding struct {
	Keys        string
	Description string
}

// Bindings lists the keys of the mode for the help dialog.
func (k *Keymap) Bindings() []Binding {
	nav := []Binding{
		{"↑/↓ PgUp/PgDn", "move the cursor"},
		{"Home/End", "first/last row"},
		{"←/→", "scroll sideways"},
		{"Space", "tag row"},
		{"C-t", "tag all rows"},
		{"< >", "sort by previous/next column"},
		{"Enter", "focus the info pane"},
		{"Tab", "cycle pane focus"},
		{"n/N", "next/previous match"},
	}
	var mode []Binding
	switch k.Mode {
	case KeyModeVim:
		mode = []Binding{
			{"j/k", "move the cursor"},
			{"gg/G", "first/last row"},
			{"/", "search"},
			{"y", "copy the row"},
			{"i / L", "toggle info/log pane"},
			{"R", "refresh"},
			{"D", "delete"},
			{"?", "help"},
			{"q", "quit"},
		}
	case KeyModeEmacs:
		mode = []Binding{
			{"C-s", "search"},
			{"M-< M->", "first/last row"},
			{"M-w", "copy the row"},
			{"C-l", "refresh"},
			{"C-g", "cancel"},
			{"C-q", "quit"},
		}
	case KeyModeFunction:
		mode = []Binding{
			{"a-z", "jump to the next row starting with the letter"},
			{"C-y", "copy the row"},
			{"C-r", "refresh"},
		}
	}
	common := []Binding{
		{"F1", "help"},
		{"F3", "search"},
		{"F5", "refresh"},
		{"F7 / F8", "toggle info/log pane"},
		{"Del", "delete"},
		{"F10", "quit"},
	}
	out := append(nav, mode...)
	return append(out, common...)
}

package ui

import (
	"context"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"golang.org/x/term"
)

// Size the model lays out for until the first WindowSizeMsg.
const (
	defaultRows = 24
	defaultCols = 80
)

// TerminalSize returns the size of stdout, or 80x24 when it is not a terminal.
func TerminalSize() (width, height int) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 || h <= 0 {
		return defaultCols, defaultRows
	}
	return w, h
}

// IsTerminal reports whether stdout is a terminal.
func IsTerminal() bool { return term.IsTerminal(int(os.Stdout.Fd())) }

// Run shows the list browser until the user quits. Extra ProgramOptions (custom input and
// output, for instance) are passed to tea.NewProgram.
func Run(ctx context.Context, opts Options, programOpts ...tea.ProgramOption) error {
	m := NewModel(opts)
	defer m.Close()

	w, h := TerminalSize()
	popts := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithWindowSize(w, h)}, programOpts...)
	if _, err := tea.NewProgram(m, popts...).Run(); err != nil {
		return fmt.Errorf("running the list browser: %w", err)
	}
	return nil
}

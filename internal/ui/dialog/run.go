package dialog

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/cmtui/internal/themes"
	"github.com/oakwood-commons/cmtui/internal/ui/pane"
	"github.com/oakwood-commons/cmtui/internal/ui/surface"
)

// ErrResized aborts a progress box when the terminal changes size under it.
var ErrResized = errors.New("terminal resized, operation aborted")

// RunOption configures Run, Ask and RunProgress.
type RunOption func(*runConfig)

type runConfig struct {
	resolver *themes.Resolver
	log      logr.Logger
	program  []tea.ProgramOption
}

// WithResolver sets the theme used for drawing.
func WithResolver(r *themes.Resolver) RunOption {
	return func(c *runConfig) { c.resolver = r }
}

// WithLogger sets the logger.
func WithLogger(log logr.Logger) RunOption {
	return func(c *runConfig) { c.log = log }
}

// WithProgramOptions passes options through to tea.NewProgram.
func WithProgramOptions(opts ...tea.ProgramOption) RunOption {
	return func(c *runConfig) { c.program = append(c.program, opts...) }
}

func newRunConfig(opts []RunOption) runConfig {
	c := runConfig{log: logr.Discard()}
	for _, o := range opts {
		o(&c)
	}
	if c.resolver == nil {
		c.resolver = themes.NewResolver(themes.Default(), themes.WithLogger(c.log))
	}
	return c
}

// modal is what the runner drives.
type modal interface {
	update(msg tea.Msg) tea.Cmd
	resize(height, width int)
	draw(dst *surface.Surface, refs themes.RefResolver) Frame
	finished() bool
}

type dialogModal struct {
	d     *Dialog
	frame Frame
}

func (m *dialogModal) update(msg tea.Msg) tea.Cmd {
	m.d.Update(msg, m.frame)
	return nil
}

func (m *dialogModal) resize(height, width int) { m.frame = m.d.Place(height, width) }

// Update feeds a key or mouse message to d. Mouse positions are screen cells and f is the
// frame returned by the last Place.
func (d *Dialog) Update(msg tea.Msg, f Frame) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		d.HandleKey(msg.String())
	case tea.MouseClickMsg:
		if msg.Button != tea.MouseLeft {
			return
		}
		c := f.Content
		if c.Contains(msg.Y, msg.X) {
			d.HandleMouse(pane.MouseEvent{Action: pane.MouseClick, Row: msg.Y - c.Top, Col: msg.X - c.Left, Time: time.Now()})
		}
	case tea.MouseWheelMsg:
		switch msg.Button {
		case tea.MouseWheelUp:
			d.HandleMouse(pane.MouseEvent{Action: pane.MouseWheelUp, Time: time.Now()})
		case tea.MouseWheelDown:
			d.HandleMouse(pane.MouseEvent{Action: pane.MouseWheelDown, Time: time.Now()})
		}
	}
}

func (m *dialogModal) draw(dst *surface.Surface, refs themes.RefResolver) Frame {
	return m.d.Draw(dst, refs)
}

func (m *dialogModal) finished() bool {
	_, done := m.d.Done()
	return done
}

type inputModal struct{ in *Input }

func (m inputModal) update(msg tea.Msg) tea.Cmd { return m.in.Update(msg) }

func (inputModal) resize(int, int) {}

func (m inputModal) draw(dst *surface.Surface, refs themes.RefResolver) Frame {
	return m.in.Draw(dst, refs)
}

func (m inputModal) finished() bool {
	_, _, done := m.in.Done()
	return done
}

// progressMsg carries an update from the worker goroutine.
type progressMsg struct {
	current, total int
	message        string
}

type progressDoneMsg struct{ err error }

type progressModal struct {
	p    *Progress
	done bool
	err  error
}

func (m *progressModal) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case progressMsg:
		m.p.Current, m.p.Total = msg.current, msg.total
		if msg.message != "" {
			m.p.Message = msg.message
		}
	case progressDoneMsg:
		m.done, m.err = true, msg.err
	}
	return nil
}

func (*progressModal) resize(int, int) {}

func (m *progressModal) draw(dst *surface.Surface, refs themes.RefResolver) Frame {
	return m.p.Draw(dst, refs)
}

func (m *progressModal) finished() bool { return m.done }

// runner adapts a modal to tea.Model.
type runner struct {
	m             modal
	cfg           runConfig
	width, height int
	sized         bool
	// abortOnResize ends the run with ErrResized on any size change after the first.
	abortOnResize bool
	err           error
	cancel        context.CancelFunc
}

func (r *runner) Init() tea.Cmd { return nil }

func (r *runner) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		if r.sized && r.abortOnResize && (ws.Width != r.width || ws.Height != r.height) {
			r.cfg.log.V(1).Info("terminal resized under modal", "width", ws.Width, "height", ws.Height)
			r.err = ErrResized
			if r.cancel != nil {
				r.cancel()
			}
			return r, tea.Quit
		}
		r.width, r.height, r.sized = ws.Width, ws.Height, true
		r.m.resize(ws.Height, ws.Width)
		return r, nil
	}
	cmd := r.m.update(msg)
	if r.m.finished() {
		return r, tea.Quit
	}
	return r, cmd
}

// newRunner lays m out for a default screen until the first WindowSizeMsg arrives.
func newRunner(m modal, cfg runConfig) *runner {
	m.resize(defaultRows, defaultCols)
	return &runner{m: m, cfg: cfg}
}

const (
	defaultRows = 24
	defaultCols = 80
)

func (r *runner) View() tea.View {
	w, h := r.width, r.height
	if w <= 0 || h <= 0 {
		w, h = defaultCols, defaultRows
	}
	screen := surface.NewScreen(h, w, r.cfg.resolver, surface.WithLogger(r.cfg.log))
	r.m.draw(screen, r.cfg.resolver)
	v := tea.NewView(screen.Render(r.cfg.resolver))
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	return v
}

func (r *runner) run(ctx context.Context) error {
	opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, r.cfg.program...)
	prog := tea.NewProgram(r, opts...)
	if _, err := prog.Run(); err != nil {
		if r.err != nil {
			return r.err
		}
		return fmt.Errorf("running dialog: %w", err)
	}
	return r.err
}

// Run shows d full screen until the user ends it.
func Run(ctx context.Context, d *Dialog, opts ...RunOption) (Result, error) {
	r := newRunner(&dialogModal{d: d}, newRunConfig(opts))
	if err := r.run(ctx); err != nil {
		return Result{Outcome: Cancelled}, err
	}
	res, _ := d.Done()
	return res, nil
}

// Ask shows the input prompt and returns the entered text; ok is false when cancelled.
func Ask(ctx context.Context, in *Input, opts ...RunOption) (value string, ok bool, err error) {
	r := newRunner(inputModal{in: in}, newRunConfig(opts))
	if err := r.run(ctx); err != nil {
		return "", false, err
	}
	value, ok, _ = in.Done()
	return value, ok, nil
}

// ReportFunc publishes progress from a worker.
type ReportFunc func(current, total int, message string)

// RunProgress runs work while showing p. A resize aborts it with ErrResized and cancels the
// context handed to work.
func RunProgress(ctx context.Context, p *Progress, work func(context.Context, ReportFunc) error, opts ...RunOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	pm := &progressModal{p: p}
	r := newRunner(pm, newRunConfig(opts))
	r.abortOnResize, r.cancel = true, cancel
	opts2 := append([]tea.ProgramOption{tea.WithContext(ctx)}, r.cfg.program...)
	prog := tea.NewProgram(r, opts2...)

	go func() {
		err := work(ctx, func(current, total int, message string) {
			prog.Send(progressMsg{current: current, total: total, message: message})
		})
		prog.Send(progressDoneMsg{err: err})
	}()

	if _, err := prog.Run(); err != nil && r.err == nil && pm.err == nil {
		return fmt.Errorf("running progress: %w", err)
	}
	if r.err != nil {
		return r.err
	}
	return pm.err
}

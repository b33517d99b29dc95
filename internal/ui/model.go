// Package ui is the interactive list browser: a list pane of formatted objects, an info pane
// with the selected object, a log pane and a status line, driven by bubbletea.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/go-logr/logr"

	"github.com/oakwood-commons/cmtui/internal/cel"
	"github.com/oakwood-commons/cmtui/internal/config"
	"github.com/oakwood-commons/cmtui/internal/executor"
	"github.com/oakwood-commons/cmtui/internal/formatter"
	"github.com/oakwood-commons/cmtui/internal/limiter"
	"github.com/oakwood-commons/cmtui/internal/navigator"
	"github.com/oakwood-commons/cmtui/internal/textblock"
	"github.com/oakwood-commons/cmtui/internal/themes"
	"github.com/oakwood-commons/cmtui/internal/ui/dialog"
	"github.com/oakwood-commons/cmtui/internal/ui/pane"
	"github.com/oakwood-commons/cmtui/internal/ui/surface"
	"github.com/oakwood-commons/cmtui/internal/views"
)

// TickInterval is how often the model polls background work.
const TickInterval = 100 * time.Millisecond

const (
	sourceTask = "source"
	deleteTask = "delete"
)

// SourceFunc fetches the objects shown in the list.
type SourceFunc func(ctx context.Context) ([]any, error)

// DeleteFunc deletes one object.
type DeleteFunc func(ctx context.Context, obj any) error

// Options configure a Model.
type Options struct {
	Title string
	View  *views.View
	// Objects is the initial content. With a Source it is replaced by every refresh.
	Objects []any
	Source  SourceFunc
	Delete  DeleteFunc
	Filter  *cel.Filter
	Limit   limiter.Config

	Config   *config.Config
	Resolver *themes.Resolver
	Logger   logr.Logger
	// Events receives the log pane entries; NewModel creates one when nil.
	Events   *EventLog
	Executor *executor.Executor
	Now      func() time.Time
}

type tickMsg time.Time

// Model is the bubbletea model of the list browser.
type Model struct {
	opts     Options
	cfg      *config.Config
	resolver *themes.Resolver
	log      logr.Logger
	events   *EventLog
	exec     *executor.Executor
	ownExec  bool
	now      func() time.Time
	keymap   *Keymap

	layout *pane.Layout
	list   *pane.Pane
	info   *pane.Pane
	logp   *pane.Pane
	focus  *pane.Pane

	objects   []any
	byID      map[string]any
	infoID    string
	logSeen   uint64
	applied   time.Time
	submitted time.Time
	deleted   time.Time
	query     string

	message  string
	severity Severity

	dlg      *dialog.Dialog
	frame    dialog.Frame
	onDialog func(dialog.Result) tea.Cmd
	input    *dialog.Input
	onInput  func(string)

	quitting bool
}

// NewModel builds the model and formats the initial objects.
func NewModel(opts Options) *Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = &config.Config{UI: config.UI{MouseScroll: true, IdleSeconds: 5, DoubleClickMS: 400, RefreshSeconds: 2, InfoPercent: 40, LogPercent: 25, KeyMode: string(DefaultKeyMode)}, Executor: config.Executor{Workers: 4}}
	}
	log := opts.Logger
	m := &Model{
		opts:     opts,
		cfg:      cfg,
		resolver: opts.Resolver,
		events:   opts.Events,
		exec:     opts.Executor,
		now:      opts.Now,
		keymap:   NewKeymap(KeyMode(cfg.UI.KeyMode)),
		byID:     map[string]any{},
	}
	if m.events == nil {
		m.events = NewEventLog(DefaultEventLimit, false)
	}
	m.log = logr.New(m.events.Sink(log.GetSink()))
	if m.resolver == nil {
		m.resolver = themes.NewResolver(themes.Default(), themes.WithLogger(m.log), themes.WithNoColor(cfg.NoColor))
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.exec == nil {
		m.exec = executor.New(cfg.Executor.Workers, executor.WithLogger(m.log), executor.WithMinInterval(time.Second))
		m.ownExec = true
	}
	if m.opts.View == nil {
		recs, _ := navigator.Records(opts.Objects)
		m.opts.View = views.Generic(recs, nil)
	}

	m.list = m.newPane(pane.KindList)
	m.list.Header = m.opts.View.Header()
	m.list.SortColumn, m.list.SortReverse = m.opts.View.SortColumn, m.opts.View.SortReverse
	m.list.OnActivate = func(int) { m.setFocus(m.info) }
	m.info = m.newPane(pane.KindInfo)
	m.logp = m.newPane(pane.KindLog)
	m.layout = pane.NewLayout(m.list, m.info, m.logp)
	m.layout.Status.Refs = m.resolver
	m.layout.InfoPercent, m.layout.LogPercent = cfg.UI.InfoPercent, cfg.UI.LogPercent
	m.focus = m.list
	m.layout.Resize(defaultRows, defaultCols)

	m.setObjects(opts.Objects)
	m.sync()
	return m
}

func (m *Model) newPane(kind pane.Kind) *pane.Pane {
	p := pane.New(kind)
	p.Refs = m.resolver
	p.MouseScroll = m.cfg.UI.MouseScroll
	p.IdleAfter = m.cfg.IdleAfter()
	p.DoubleClick = m.cfg.DoubleClick()
	return p
}

// Init starts polling and the first fetch.
func (m *Model) Init() tea.Cmd {
	m.refresh(true)
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update handles one message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout.Resize(msg.Height, msg.Width)
		if m.dlg != nil {
			m.frame = m.dlg.Place(msg.Height, msg.Width)
		}
	case tickMsg:
		m.poll()
		cmd = tick()
	case tea.KeyPressMsg:
		cmd = m.handleKey(msg)
	case tea.MouseClickMsg, tea.MouseWheelMsg:
		cmd = m.handleMouse(msg)
	}
	m.sync()
	if m.quitting {
		return m, tea.Quit
	}
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	key := msg.String()
	switch {
	case m.input != nil:
		cmd := m.input.Update(msg)
		if value, ok, done := m.input.Done(); done {
			on := m.onInput
			m.input, m.onInput = nil, nil
			if ok && on != nil {
				on(value)
			}
		}
		return cmd
	case m.dlg != nil:
		m.dlg.Update(msg, m.frame)
		return m.closeDialogIfDone()
	}

	switch action := m.keymap.Resolve(key); action {
	case ActionNone:
	case ActionHelp:
		m.openDialog(HelpDialog(m.keymap, m.resolver), nil)
		return nil
	case ActionSearch:
		m.openSearch()
		return nil
	case ActionTop:
		m.focus.Home()
		return nil
	case ActionBottom:
		m.focus.End()
		return nil
	case ActionCopy:
		m.copySelection()
		return nil
	case ActionRefresh:
		m.refresh(true)
		return nil
	case ActionToggleInfo:
		m.toggle(&m.layout.Info, m.info)
		return nil
	case ActionToggleLog:
		m.toggle(&m.layout.Log, m.logp)
		return nil
	case ActionFocus:
		m.cycleFocus()
		return nil
	case ActionDelete:
		m.confirmDelete()
		return nil
	case ActionClear:
		m.clearSearch()
		return nil
	case ActionQuit:
		m.quitting = true
		return nil
	}
	if m.keymap.Pending() {
		return nil
	}
	if m.focus.HandleKey(key) {
		return nil
	}
	if pane.IsLetter(key) && m.focus == m.list {
		m.list.JumpToLetter(rune(key[0]))
	}
	return nil
}

func (m *Model) handleMouse(msg tea.Msg) tea.Cmd {
	if m.input != nil {
		return nil
	}
	if m.dlg != nil {
		m.dlg.Update(msg, m.frame)
		return m.closeDialogIfDone()
	}
	var (
		x, y   int
		action pane.MouseAction
	)
	switch msg := msg.(type) {
	case tea.MouseClickMsg:
		if msg.Button != tea.MouseLeft {
			return nil
		}
		x, y, action = msg.X, msg.Y, pane.MouseClick
	case tea.MouseWheelMsg:
		switch msg.Button {
		case tea.MouseWheelUp:
			action = pane.MouseWheelUp
		case tea.MouseWheelDown:
			action = pane.MouseWheelDown
		default:
			return nil
		}
		x, y = msg.X, msg.Y
	}
	p, row, col, ok := m.layout.PaneAt(y, x)
	if !ok || p == m.layout.Status {
		return nil
	}
	if action == pane.MouseClick {
		m.setFocus(p)
	}
	p.HandleMouse(pane.MouseEvent{Action: action, Row: row, Col: col, Time: m.now()})
	return nil
}

func (m *Model) openDialog(d *dialog.Dialog, on func(dialog.Result) tea.Cmd) {
	m.dlg, m.onDialog = d, on
	h, w := m.layout.Size()
	m.frame = d.Place(h, w)
}

func (m *Model) closeDialogIfDone() tea.Cmd {
	res, done := m.dlg.Done()
	if !done {
		return nil
	}
	on := m.onDialog
	m.dlg, m.onDialog = nil, nil
	if on != nil {
		return on(res)
	}
	return nil
}

func (m *Model) openSearch() {
	m.input = dialog.NewInput("Search", "/", m.query)
	m.onInput = func(q string) {
		m.query = q
		n := m.focus.Search(q)
		if q != "" && n == 0 {
			m.notify(SeverityNotice, "no match for %q", q)
		}
	}
}

func (m *Model) clearSearch() {
	if m.query == "" {
		m.message = ""
		return
	}
	m.query = ""
	m.focus.ClearSearch()
}

func (m *Model) toggle(slot **pane.Pane, p *pane.Pane) {
	if *slot == nil {
		*slot = p
	} else {
		*slot = nil
		if m.focus == p {
			m.focus = m.list
		}
	}
	h, w := m.layout.Size()
	m.layout.Resize(h, w)
}

func (m *Model) visiblePanes() []*pane.Pane {
	out := []*pane.Pane{m.list}
	for _, p := range []*pane.Pane{m.layout.Info, m.layout.Log} {
		if p != nil && p.Height > 0 {
			out = append(out, p)
		}
	}
	return out
}

func (m *Model) setFocus(p *pane.Pane) {
	for _, v := range m.visiblePanes() {
		if v == p {
			m.focus = p
			return
		}
	}
}

func (m *Model) cycleFocus() {
	vis := m.visiblePanes()
	for i, p := range vis {
		if p == m.focus {
			m.focus = vis[(i+1)%len(vis)]
			return
		}
	}
	m.focus = m.list
}

// targets are the tagged objects, or the one under the cursor when nothing is tagged.
func (m *Model) targets() []any {
	rows := m.list.Rows()
	var out []any
	for _, i := range m.list.Tags() {
		if i < len(rows) {
			if obj, ok := m.byID[rows[i].ID]; ok {
				out = append(out, obj)
			}
		}
	}
	if len(out) > 0 {
		return out
	}
	if obj, ok := m.Selected(); ok {
		return []any{obj}
	}
	return nil
}

func (m *Model) copySelection() {
	var lines []string
	rows := m.list.Rows()
	tags := m.list.Tags()
	if len(tags) == 0 {
		if r, ok := m.list.Current(); ok {
			lines = append(lines, strings.Join(r.Values, "\t"))
		}
	}
	for _, i := range tags {
		if i < len(rows) {
			lines = append(lines, strings.Join(rows[i].Values, "\t"))
		}
	}
	if len(lines) == 0 {
		return
	}
	if err := CopyToClipboard(strings.Join(lines, "\n")); err != nil {
		m.notify(SeverityError, "copy failed: %v", err)
		return
	}
	m.notify(SeverityInfo, "copied %d row(s)", len(lines))
}

func (m *Model) confirmDelete() {
	if m.opts.Delete == nil {
		m.notify(SeverityNotice, "delete is not supported here")
		return
	}
	objs := m.targets()
	if len(objs) == 0 {
		return
	}
	name := m.opts.View.ID(objs[0])
	msg := fmt.Sprintf("Delete %s?", name)
	if len(objs) > 1 {
		msg = fmt.Sprintf("Delete %d objects?", len(objs))
	}
	m.openDialog(dialog.Confirm("Delete", msg), func(res dialog.Result) tea.Cmd {
		if dialog.Confirmed(res) {
			m.startDelete(objs)
		}
		return nil
	})
}

func (m *Model) startDelete(objs []any) {
	del, view, log := m.opts.Delete, m.opts.View, m.log
	_, err := m.exec.Submit(deleteTask, func(ctx context.Context) (any, error) {
		for _, obj := range objs {
			if err := del(ctx, obj); err != nil {
				return nil, fmt.Errorf("deleting %s: %w", view.ID(obj), err)
			}
			log.Info("deleted", "object", view.ID(obj))
		}
		return len(objs), nil
	})
	if err != nil {
		m.notify(SeverityError, "delete not started: %v", err)
	}
}

func (m *Model) notify(sev Severity, format string, args ...any) {
	m.message, m.severity = fmt.Sprintf(format, args...), sev
	m.events.Add(sev, "%s", m.message)
}

// refresh submits the source. Without force it only runs while the list is idle and the
// refresh interval has passed.
func (m *Model) refresh(force bool) {
	if m.opts.Source == nil {
		return
	}
	now := m.now()
	if !force && (!m.list.IsIdle(now) || now.Sub(m.submitted) < m.cfg.RefreshInterval()) {
		return
	}
	src := m.opts.Source
	ok, err := m.exec.Submit(sourceTask, func(ctx context.Context) (any, error) { return src(ctx) })
	switch {
	case err != nil:
		m.notify(SeverityError, "refresh not started: %v", err)
	case ok:
		m.submitted = now
	}
}

// poll swaps in finished background results.
func (m *Model) poll() {
	if fin := m.exec.Finished(sourceTask); fin.After(m.applied) {
		m.applied = fin
		data, status, _ := m.exec.Poll(sourceTask)
		switch status {
		case executor.StatusDone:
			objs, _ := data.([]any)
			m.setObjects(objs)
		case executor.StatusFailed:
			m.notify(SeverityError, "refresh failed: %v", m.exec.Err(sourceTask))
		}
	}
	if fin := m.exec.Finished(deleteTask); fin.After(m.deleted) {
		m.deleted = fin
		_, status, _ := m.exec.Poll(deleteTask)
		if status == executor.StatusFailed {
			m.notify(SeverityError, "%v", m.exec.Err(deleteTask))
		} else {
			m.notify(SeverityInfo, "delete finished")
		}
		m.refresh(true)
	}
	m.refresh(false)
}

// setObjects filters, limits and formats objs into the list pane. The cursor follows the
// selected object by identity.
func (m *Model) setObjects(objs []any) {
	kept, failures := m.opts.Filter.Objects(objs)
	if failures > 0 {
		m.log.V(1).Info("filter evaluation failed", "filter", m.opts.Filter.String(), "rows", failures)
	}
	kept = limiter.Apply(m.opts.Limit, kept)

	m.objects = kept
	rows := m.opts.View.Rows(kept, views.RowOptions{Resolver: m.resolver, Now: m.now()})
	clear(m.byID)
	for i, r := range rows {
		m.byID[r.ID] = kept[i]
	}
	m.list.SetContent(rows)
	m.list.Sort(m.list.SortColumn, m.list.SortReverse)
	m.infoID = "\x00"
}

// Selected returns the object under the list cursor.
func (m *Model) Selected() (any, bool) {
	r, ok := m.list.Current()
	if !ok {
		return nil, false
	}
	obj, ok := m.byID[r.ID]
	return obj, ok
}

// sync brings the info, log and status panes up to date with the list.
func (m *Model) sync() {
	if r, ok := m.list.Current(); ok && r.ID != m.infoID {
		m.infoID = r.ID
		m.info.SetContent(m.describe(m.byID[r.ID]))
	} else if !ok && m.infoID != "" {
		m.infoID = ""
		m.info.SetContent(nil)
	}

	if v := m.events.Version(); v != m.logSeen {
		m.logSeen = v
		m.logp.SetContent(m.events.Rows())
		if m.focus != m.logp {
			m.logp.End()
		}
	}

	_, w := m.layout.Size()
	status := m.layout.Status
	_, st, _ := m.exec.Poll(sourceTask)
	line := StatusLine{
		Title:      m.opts.Title,
		Total:      m.list.Len(),
		Tagged:     len(m.list.Tags()),
		Query:      m.focus.Query(),
		Matches:    len(m.focus.Matches()),
		Refreshing: st == executor.StatusRunning,
		Message:    m.message,
		Severity:   m.severity,
		Hints:      Footer(m.keymap.Mode),
	}
	if m.list.Len() > 0 {
		line.Position = m.list.Index() + 1
	}
	if m.opts.Filter != nil {
		line.Filter = m.opts.Filter.String()
	}
	status.SetContent([]pane.Row{{Attrs: pane.LineUnselectable, Columns: []themes.ThemeArray{line.Render(m.resolver, w)}}})
}

// describe renders obj as highlighted YAML for the info pane.
func (m *Model) describe(obj any) []pane.Row {
	if obj == nil {
		return nil
	}
	text, err := formatter.FormatYAML(obj, formatter.YAMLFormatOptions{LiteralBlockStrings: true})
	if err != nil {
		m.log.Error(err, "formatting the selected object")
		text = formatter.Stringify(obj)
	}
	lines := textblock.Render(textblock.FormatYAML, textblock.Blob(text), textblock.Options{})
	rows := make([]pane.Row, len(lines))
	for i, l := range lines {
		rows[i] = pane.Row{Columns: []themes.ThemeArray{l}}
	}
	return rows
}

// Draw renders the full screen. It only reads the model; sizes change on WindowSizeMsg.
func (m *Model) Draw() *surface.Surface {
	h, w := m.layout.Size()
	screen := surface.NewScreen(h, w, m.resolver, surface.WithLogger(m.log))
	m.layout.Draw(screen, m.resolver)
	if m.dlg != nil {
		m.dlg.Draw(screen, m.resolver)
	}
	if m.input != nil {
		m.input.Draw(screen, m.resolver)
	}
	return screen
}

// View implements tea.Model.
func (m *Model) View() tea.View {
	v := tea.NewView(m.Draw().Render(m.resolver))
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	return v
}

// Close stops the executor when the model created it.
func (m *Model) Close() {
	if m.ownExec {
		m.exec.Close()
	}
}

// Focused returns the pane receiving keys.
func (m *Model) Focused() *pane.Pane { return m.focus }

// List returns the list pane.
func (m *Model) List() *pane.Pane { return m.list }

// Info returns the info pane.
func (m *Model) Info() *pane.Pane { return m.info }

// Message returns the last status message.
func (m *Model) Message() string { return m.message }

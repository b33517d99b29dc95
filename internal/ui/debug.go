package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/cmtui/internal/formatter"
	"github.com/oakwood-commons/cmtui/internal/themes"
	"github.com/oakwood-commons/cmtui/internal/ui/pane"
)

// Severity orders event log entries.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityNotice
	SeverityWarning
	SeverityError
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityNotice:
		return "notice"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	}
	return "unknown"
}

func (s Severity) attr() themes.ThemeAttr {
	return themes.ThemeAttr{Context: "logview", Key: "severity_" + s.String()}
}

// Event is one line of the log pane.
type Event struct {
	Time     time.Time
	Severity Severity
	Message  string
}

// DefaultEventLimit is how many events the log pane keeps.
const DefaultEventLimit = 500

// EventLog is a bounded, goroutine-safe list of events shown in the log pane.
type EventLog struct {
	mu      sync.Mutex
	events  []Event
	limit   int
	version uint64
	debug   bool
	now     func() time.Time
}

// NewEventLog returns an event log keeping the last limit entries. Debug entries are kept
// only when debug is set.
func NewEventLog(limit int, debug bool) *EventLog {
	if limit <= 0 {
		limit = DefaultEventLimit
	}
	return &EventLog{limit: limit, debug: debug, now: time.Now}
}

// Add appends an event.
func (l *EventLog) Add(sev Severity, format string, args ...any) {
	if sev == SeverityDebug && !l.debug {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, Event{Time: l.now(), Severity: sev, Message: fmt.Sprintf(format, args...)})
	if over := len(l.events) - l.limit; over > 0 {
		l.events = append(l.events[:0], l.events[over:]...)
	}
	l.version++
}

// Version changes whenever an event is added.
func (l *EventLog) Version() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.version
}

// Events returns a copy of the entries, oldest first.
func (l *EventLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

// Rows formats the entries for the log pane.
func (l *EventLog) Rows() []pane.Row {
	events := l.Events()
	rows := make([]pane.Row, len(events))
	for i, ev := range events {
		line := themes.ThemeArray{
			themes.ThemeString{Text: ev.Time.Format("15:04:05") + " ", Attr: themes.ThemeAttr{Context: "logview", Key: "timestamp"}},
			themes.ThemeString{Text: fmt.Sprintf("%-8s ", ev.Severity), Attr: ev.Severity.attr()},
			themes.ThemeString{Text: ev.Message, Attr: ev.Severity.attr()},
		}
		rows[i] = pane.Row{Columns: []themes.ThemeArray{line}, Values: []string{ev.Message}}
	}
	return rows
}

// Sink returns a logr.LogSink that copies entries into l and forwards them to next.
func (l *EventLog) Sink(next logr.LogSink) logr.LogSink {
	return &eventSink{log: l, next: next}
}

type eventSink struct {
	log    *EventLog
	next   logr.LogSink
	name   string
	values []any
}

func (s *eventSink) Init(info logr.RuntimeInfo) {
	if s.next != nil {
		s.next.Init(logr.RuntimeInfo{CallDepth: info.CallDepth + 1})
	}
}

func (s *eventSink) Enabled(level int) bool {
	if level == 0 {
		return true
	}
	return s.log.debug || (s.next != nil && s.next.Enabled(level))
}

func (s *eventSink) Info(level int, msg string, kv ...any) {
	sev := SeverityInfo
	if level > 0 {
		sev = SeverityDebug
	}
	s.log.Add(sev, "%s", s.line(msg, kv))
	if s.next != nil && s.next.Enabled(level) {
		s.next.Info(level, msg, kv...)
	}
}

func (s *eventSink) Error(err error, msg string, kv ...any) {
	line := s.line(msg, kv)
	if err != nil {
		line += ": " + err.Error()
	}
	s.log.Add(SeverityError, "%s", line)
	if s.next != nil {
		s.next.Error(err, msg, kv...)
	}
}

func (s *eventSink) WithValues(kv ...any) logr.LogSink {
	c := *s
	c.values = append(append([]any(nil), s.values...), kv...)
	if s.next != nil {
		c.next = s.next.WithValues(kv...)
	}
	return &c
}

func (s *eventSink) WithName(name string) logr.LogSink {
	c := *s
	if c.name != "" {
		c.name += "/"
	}
	c.name += name
	if s.next != nil {
		c.next = s.next.WithName(name)
	}
	return &c
}

// line renders msg followed by key=value pairs.
func (s *eventSink) line(msg string, kv []any) string {
	var b strings.Builder
	if s.name != "" {
		b.WriteString(s.name)
		b.WriteString(": ")
	}
	b.WriteString(msg)
	all := append(append([]any(nil), s.values...), kv...)
	for i := 0; i+1 < len(all); i += 2 {
		fmt.Fprintf(&b, " %v=%s", all[i], formatter.Stringify(all[i+1]))
	}
	return b.String()
}

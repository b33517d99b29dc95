// Package errs defines the two error kinds the UI core distinguishes: configuration errors,
// which are fatal at startup and shown to the user, and programming errors, which indicate a
// defect and carry enough call-site context to find it.
package errs

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strings"
)

// Severity classifies a programming error.
type Severity string

const (
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// ConfigError is raised eagerly while loading themes, views or formatter definitions.
// The message is kept in three parts so it can be rendered with the identifier emphasized.
type ConfigError struct {
	Category    string
	Identifier  string
	Explanation string
	Err         error
}

// Configf builds a ConfigError with a formatted explanation.
func Configf(category, identifier, format string, args ...any) *ConfigError {
	return &ConfigError{
		Category:    category,
		Identifier:  identifier,
		Explanation: fmt.Sprintf(format, args...),
	}
}

func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString(e.Category)
	if e.Identifier != "" {
		b.WriteString(" ")
		b.WriteString(strconvQuote(e.Identifier))
	}
	if e.Explanation != "" {
		b.WriteString(": ")
		b.WriteString(e.Explanation)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Wrap attaches a cause to the configuration error.
func (e *ConfigError) Wrap(err error) *ConfigError {
	e.Err = err
	return e
}

// ProgrammingError reports a defect such as a nil fragment in a themed array or a theme
// reference that cannot be resolved. It is not meant to be handled locally.
type ProgrammingError struct {
	Message  string
	Severity Severity
	Facility string
	File     string
	Function string
	Line     int
	Stack    []byte
}

// Programming captures the caller of the function that detected the defect.
func Programming(facility, format string, args ...any) *ProgrammingError {
	e := &ProgrammingError{
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityError,
		Facility: facility,
		Stack:    debug.Stack(),
	}
	if pc, file, line, ok := runtime.Caller(2); ok {
		e.File = filepath.Base(file)
		e.Line = line
		if fn := runtime.FuncForPC(pc); fn != nil {
			e.Function = fn.Name()
		}
	}
	return e
}

func (e *ProgrammingError) Error() string {
	loc := ""
	if e.File != "" {
		loc = fmt.Sprintf(" (%s:%d %s)", e.File, e.Line, e.Function)
	}
	if e.Facility != "" {
		return fmt.Sprintf("%s: %s: %s%s", e.Severity, e.Facility, e.Message, loc)
	}
	return fmt.Sprintf("%s: %s%s", e.Severity, e.Message, loc)
}

// IsConfig reports whether err wraps a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsProgramming reports whether err wraps a ProgrammingError.
func IsProgramming(err error) bool {
	var pe *ProgrammingError
	return errors.As(err, &pe)
}

func strconvQuote(s string) string {
	return "\"" + strings.ReplaceAll(s, "\"", "\\\"") + "\""
}

// Package settings holds build metadata and the per-run settings resolved from flags,
// carried through the command tree in a context.
package settings

// CliBinaryName is the canonical binary name for this tool.
const CliBinaryName = "cmtui"

// VersionInformation is populated at build time via ldflags.
var VersionInformation = VersionInfo{
	Commit:       "unknown",
	BuildVersion: "v0.0.0-dev",
	BuildTime:    "unknown",
}

// VersionInfo holds metadata about the build.
type VersionInfo struct {
	Commit       string
	BuildVersion string
	BuildTime    string
}

// Run holds the settings for a single invocation.
type Run struct {
	MinLogLevel int8
	// LogFile receives the log while the UI owns the terminal; empty means stderr.
	LogFile    string
	ConfigFile string
	Theme      string
	ThemeFile  string
	NoColor    bool
	Debug      bool
}

// NewCliParams returns the defaults used before flags are applied.
func NewCliParams() *Run {
	return &Run{
		MinLogLevel: 0,
		Theme:       "default",
	}
}

// LogsToFile reports whether the log goes to --log-file. The interactive commands only
// keep their log when it does.
func (r *Run) LogsToFile() bool {
	return r.LogFile != ""
}

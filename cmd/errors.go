package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/oakwood-commons/cmtui/internal/errs"
	"github.com/oakwood-commons/cmtui/internal/themes"
)

// Exit codes.
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitConfig = 2
)

// Report prints err to w and returns the process exit code for it. A cancelled dialog
// prints nothing.
func Report(w io.Writer, err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, errCancelled):
		return ExitFailed
	case errs.IsConfig(err):
		explainTo(w, err)
		return ExitConfig
	}
	explainTo(w, err)
	return ExitFailed
}

// explainTo prints err. Configuration errors are rendered with the identifier emphasized.
func explainTo(w io.Writer, err error) {
	var ce *errs.ConfigError
	if errors.As(err, &ce) {
		noColor := true
		if f, ok := w.(*os.File); ok {
			noColor = !term.IsTerminal(int(f.Fd()))
		}
		r := themes.NewResolver(themes.Default(), themes.WithNoColor(noColor))
		if s, rerr := r.Render(themes.Explain(ce)); rerr == nil {
			fmt.Fprintln(w, "Error: "+s)
			return
		}
	}
	fmt.Fprintln(w, "Error:", err)
}

package cmd

import (
	"context"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/oakwood-commons/cmtui/internal/ui"
	"github.com/oakwood-commons/cmtui/pkg/settings"
)

var viewFlags inputFlags

var viewCmd = &cobra.Command{
	Use:   "view [FILE]",
	Short: "Browse a document as an interactive list",
	Long: `Browse a document as a list of objects with an info pane for the selected one.
Kubernetes lists use the matching built-in view; other documents get one column per key.
Reads stdin when FILE is omitted or "-".`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := configFrom(ctx)
		path := readArg(args)
		if err := checkStdin(path); err != nil {
			return err
		}
		doc, err := viewFlags.load(path, cmd.InOrStdin())
		if err != nil {
			return err
		}
		objs := objectsOf(doc.Root())
		v, err := resolveView(viewFlags.view, cfg, objs)
		if err != nil {
			return err
		}
		filter, err := viewFlags.compileFilter()
		if err != nil {
			return err
		}
		log := uiLogger(ctx)
		resolver, err := ui.NewResolver(cfg, log)
		if err != nil {
			return err
		}

		var popts []tea.ProgramOption
		if path == "-" {
			// the document came through stdin so keys have to come from the terminal
			if tty, err := os.Open("/dev/tty"); err == nil {
				defer tty.Close()
				popts = append(popts, tea.WithInput(tty))
			}
		}
		return ui.Run(ctx, ui.Options{
			Title:    doc.Name,
			View:     v,
			Objects:  objs,
			Filter:   filter,
			Limit:    viewFlags.limit,
			Config:   cfg,
			Resolver: resolver,
			Logger:   log,
			Events:   ui.NewEventLog(ui.DefaultEventLimit, settings.FromContextOrDefault(ctx).Debug),
		}, popts...)
	},
}

func init() {
	viewFlags.register(viewCmd)
}

// uiLogger keeps log output off the terminal while the UI owns it. Without a log file the
// entries only reach the log pane.
func uiLogger(ctx context.Context) logr.Logger {
	if !settings.FromContextOrDefault(ctx).LogsToFile() {
		return logr.Discard()
	}
	return logFrom(ctx)
}

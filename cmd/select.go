package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/oakwood-commons/cmtui/internal/formatter"
	"github.com/oakwood-commons/cmtui/internal/navigator"
	"github.com/oakwood-commons/cmtui/internal/themes"
	"github.com/oakwood-commons/cmtui/internal/ui"
	"github.com/oakwood-commons/cmtui/internal/ui/dialog"
	"github.com/oakwood-commons/cmtui/internal/ui/pane"
	"github.com/oakwood-commons/cmtui/internal/views"
)

var (
	selectFlags inputFlags
	selectOpts  struct {
		title string
		print string
		multi bool
	}
)

var selectCmd = &cobra.Command{
	Use:   "select [FILE]",
	Short: "Pick objects from a document in a dialog and print them",
	Long: `Show the objects of a document in a modal dialog and print the chosen one, or with
--multi every tagged one, one per line. --print names the path printed for each object
(for example metadata#name); by default the object identity is printed. Exits non-zero when
the dialog is cancelled.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := configFrom(ctx)
		path := readArg(args)
		if err := checkStdin(path); err != nil {
			return err
		}
		doc, err := selectFlags.load(path, cmd.InOrStdin())
		if err != nil {
			return err
		}
		objs := objectsOf(doc.Root())
		v, err := resolveView(selectFlags.view, cfg, objs)
		if err != nil {
			return err
		}
		filter, err := selectFlags.compileFilter()
		if err != nil {
			return err
		}
		objs, _ = filter.Objects(objs)
		if len(objs) == 0 {
			return errors.New("nothing to select")
		}
		log := uiLogger(ctx)
		resolver, err := ui.NewResolver(cfg, log)
		if err != nil {
			return err
		}

		title := selectOpts.title
		if title == "" {
			title = v.Title
		}
		d := dialog.New(selectionSpec(title, v, objs, resolver, selectOpts.multi))
		opts := []dialog.RunOption{dialog.WithResolver(resolver), dialog.WithLogger(log)}
		if path == "-" {
			if tty, err := os.Open("/dev/tty"); err == nil {
				defer tty.Close()
				opts = append(opts, dialog.WithProgramOptions(tea.WithInput(tty)))
			}
		}
		res, err := dialog.Run(ctx, d, opts...)
		if err != nil {
			return err
		}
		picked := selection(res)
		if picked == nil {
			return errCancelled
		}
		for _, i := range picked {
			fmt.Fprintln(cmd.OutOrStdout(), printValue(v, objs[i], selectOpts.print))
		}
		return nil
	},
}

func init() {
	selectFlags.register(selectCmd)
	f := selectCmd.Flags()
	f.StringVar(&selectOpts.title, "title", "", "dialog title (default: the view title)")
	f.StringVar(&selectOpts.print, "print", "", "path printed for each chosen object, '#'-separated")
	f.BoolVar(&selectOpts.multi, "multi", false, "tag several objects with space; Enter returns the tagged ones")
}

// selectionSpec builds the dialog over objs. Item values are indexes into objs.
func selectionSpec(title string, v *views.View, objs []any, refs themes.RefResolver, multi bool) dialog.Spec {
	rows := v.Rows(objs, views.RowOptions{Resolver: refs, Now: time.Now()})
	items := make([]dialog.Item, len(rows))
	for i, r := range rows {
		items[i] = dialog.Item{Attrs: pane.LineNormal, Columns: r.Columns, Value: i}
	}
	return dialog.Spec{
		Title:    title,
		Headers:  v.Header(),
		Items:    items,
		Taggable: multi,
		Refs:     refs,
	}
}

// selection returns the chosen indexes, or nil when the dialog was cancelled.
func selection(res dialog.Result) []int {
	if res.Outcome != dialog.Selected {
		return nil
	}
	if len(res.Tags) > 0 {
		out := make([]int, 0, len(res.Tags))
		for _, t := range res.Tags {
			if i, ok := t.(int); ok {
				out = append(out, i)
			}
		}
		return out
	}
	if i, ok := res.Value.(int); ok {
		return []int{i}
	}
	return nil
}

func printValue(v *views.View, obj any, path string) string {
	if path == "" {
		if id := v.ID(obj); id != "" {
			return id
		}
		return formatter.Stringify(obj)
	}
	return formatter.Stringify(navigator.DeepGetWithFallback(obj, path, ""))
}

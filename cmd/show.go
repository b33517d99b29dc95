package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/oakwood-commons/cmtui/internal/cel"
	"github.com/oakwood-commons/cmtui/internal/config"
	"github.com/oakwood-commons/cmtui/internal/formatter"
	"github.com/oakwood-commons/cmtui/internal/limiter"
	"github.com/oakwood-commons/cmtui/internal/textblock"
	"github.com/oakwood-commons/cmtui/internal/themes"
	"github.com/oakwood-commons/cmtui/internal/ui"
	"github.com/oakwood-commons/cmtui/internal/ui/pane"
	"github.com/oakwood-commons/cmtui/internal/views"
)

var (
	showFlags inputFlags
	showText  bool
	showTree  bool
)

var showCmd = &cobra.Command{
	Use:   "show [FILE]",
	Short: "Print a document as a formatted table or highlighted text",
	Long: `Print a document to stdout. Structured documents are printed as a table through a view;
configuration files, diffs, tracebacks, markdown and source code are printed highlighted.
Colors are dropped when stdout is not a terminal.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := configFrom(ctx)
		out := cmd.OutOrStdout()
		path := readArg(args)
		if err := checkStdin(path); err != nil {
			return err
		}
		data, err := readInput(path, cmd.InOrStdin())
		if err != nil {
			return err
		}
		resolver, err := ui.NewResolver(outputConfig(cfg, out), logFrom(ctx))
		if err != nil {
			return err
		}

		id := textblock.Identify(data, textblock.Hints{Key: filepath.Base(path)})
		if showText || !structured(id) {
			if id.Binary {
				return fmt.Errorf("%s: %s, not displayable as text", path, id.Label)
			}
			lines := textblock.Render(id.Format, textblock.Blob(string(data)), textblock.Options{Lexer: id.Lexer})
			return printLines(out, resolver, lines)
		}

		showFlags.format = formatOr(showFlags.format, id)
		doc, err := showFlags.decode(path, data)
		if err != nil {
			return err
		}
		if showTree {
			_, err = fmt.Fprint(out, formatter.FormatTree(showFlags.limit.ApplyDocument(doc.Root()), formatter.TreeOptions{}))
			return err
		}
		objs := objectsOf(doc.Root())
		v, err := resolveView(showFlags.view, cfg, objs)
		if err != nil {
			return err
		}
		filter, err := showFlags.compileFilter()
		if err != nil {
			return err
		}
		return printTable(out, resolver, v, objs, filter, showFlags.limit, time.Now())
	},
}

func init() {
	showFlags.register(showCmd)
	showCmd.Flags().BoolVar(&showText, "text", false, "print the input as highlighted text even when it is structured")
	showCmd.Flags().BoolVar(&showTree, "tree", false, "print a structured document as an outline")
	showCmd.MarkFlagsMutuallyExclusive("text", "tree")
}

// structured reports whether the loader should read data rather than the text formatters.
func structured(id textblock.Result) bool {
	if id.Binary {
		return false
	}
	switch id.Format {
	case textblock.FormatYAML, textblock.FormatJSON, textblock.FormatTOML, textblock.FormatNone:
		return true
	}
	return false
}

// formatOr keeps an explicit --format and otherwise uses what Identify found.
func formatOr(flag string, id textblock.Result) string {
	if flag != "" && flag != "auto" {
		return flag
	}
	switch id.Format {
	case textblock.FormatJSON:
		return "json"
	case textblock.FormatTOML:
		return "toml"
	}
	return "auto"
}

// outputConfig drops colors when out is not a terminal.
func outputConfig(cfg *config.Config, out io.Writer) *config.Config {
	c := *cfg
	if f, ok := out.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		c.NoColor = true
	}
	return &c
}

func printLines(out io.Writer, r *themes.Resolver, lines []themes.ThemeArray) error {
	s, err := r.RenderLines(lines)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, s)
	return err
}

// printTable formats objs through v, sorted by the view's sort column, with every column
// padded to its widest cell.
func printTable(out io.Writer, r *themes.Resolver, v *views.View, objs []any, filter *cel.Filter, limit limiter.Config, now time.Time) error {
	objs, _ = filter.Objects(objs)
	objs = limiter.Apply(limit, objs)

	list := pane.New(pane.KindList)
	list.SetContent(v.Rows(objs, views.RowOptions{Resolver: r, Now: now}))
	list.Sort(v.SortColumn, v.SortReverse)
	rows := list.Rows()

	header := v.Header()
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = h.Len(r)
	}
	for _, row := range rows {
		for i, c := range row.Columns {
			if i < len(widths) {
				widths[i] = max(widths[i], c.Len(r))
			}
		}
	}

	right := make([]bool, len(v.Fields))
	for i, f := range v.Fields {
		right[i] = f.RightAligned()
	}

	lines := make([]themes.ThemeArray, 0, len(rows)+1)
	lines = append(lines, joinColumns(r, header, widths, right))
	for _, row := range rows {
		lines = append(lines, joinColumns(r, row.Columns, widths, right))
	}
	return printLines(out, r, lines)
}

func joinColumns(r *themes.Resolver, cols []themes.ThemeArray, widths []int, right []bool) themes.ThemeArray {
	var line themes.ThemeArray
	for i, c := range cols {
		if i > 0 {
			line = append(line, themes.Str("  ", "main", "default"))
		}
		ctx := formatter.FieldContext{Resolver: r}
		// the last column is not padded so lines carry no trailing blanks
		if i < len(widths) && (i < len(cols)-1 || right[i]) {
			ctx.Width, ctx.RightAlign = widths[i], right[i]
		}
		line = append(line, formatter.AlignAndPad(c, ctx)...)
	}
	return line
}

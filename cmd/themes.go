package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/cmtui/internal/themes"
	"github.com/oakwood-commons/cmtui/internal/ui"
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "Inspect and validate themes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var themesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every entry of the selected theme in its own style",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg := configFrom(ctx)
		out := cmd.OutOrStdout()
		r, err := ui.NewResolver(outputConfig(cfg, out), logFrom(ctx))
		if err != nil {
			return err
		}
		return printLines(out, r, sampleLines(r.Theme()))
	},
}

var themesCheckCmd = &cobra.Command{
	Use:   "check FILE...",
	Short: "Validate theme files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var failed error
		for _, path := range args {
			th, err := themes.LoadFile(path)
			if err != nil {
				explainTo(cmd.ErrOrStderr(), err)
				failed = fmt.Errorf("%d theme file(s) failed validation", len(args))
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d contexts)\n", path, len(th.Contexts()))
		}
		return failed
	},
}

var themesDumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Print the built-in theme, a starting point for a custom theme file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := cmd.OutOrStdout().Write(themes.DefaultThemeYAML())
		return err
	},
}

func init() {
	themesCmd.AddCommand(themesShowCmd, themesCheckCmd, themesDumpCmd)
}

// sampleLines renders "context/key" for every style entry and the expansion of every
// fragment entry.
func sampleLines(th *themes.Theme) []themes.ThemeArray {
	var lines []themes.ThemeArray
	for _, c := range th.Contexts() {
		keys := th.Keys(c)
		sort.Strings(keys)
		lines = append(lines, themes.ThemeArray{themes.Str(c+":", "main", "header")})
		for _, k := range keys {
			e, _ := th.Lookup(c, k)
			label := themes.Str(fmt.Sprintf("  %-24s ", k), "main", "default")
			if e.IsFragments() {
				lines = append(lines, themes.ThemeArray{label, themes.ThemeRef{Context: c, Key: k}})
				continue
			}
			lines = append(lines, themes.ThemeArray{label, themes.Str(c+"/"+k, c, k)})
		}
	}
	return lines
}

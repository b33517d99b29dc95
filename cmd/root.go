// Package cmd is the cmtui command line.
package cmd

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/oakwood-commons/cmtui/internal/config"
	"github.com/oakwood-commons/cmtui/pkg/logger"
	"github.com/oakwood-commons/cmtui/pkg/settings"
)

const (
	SubCommandKey = "subcommand"
)

type configContextKey struct{}

var run = settings.NewCliParams()

var rootCmd = &cobra.Command{
	Use:   settings.CliBinaryName,
	Short: "Browse and format Kubernetes objects and structured data in the terminal",
	Long: `cmtui shows YAML, JSON, TOML and NDJSON documents and live Kubernetes objects as
themed, sortable lists with an info pane for the selected object.`,
	Example: `  cmtui view pods.yaml
  cmtui show --filter 'row.status == "Running"' pods.json
  cmtui pods -n kube-system
  cmtui select --column name items.yaml`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&run.ConfigFile, "config-file", "", "path to the config file (default $XDG_CONFIG_HOME/cmtui/config.yaml)")
	pf.StringVar(&run.Theme, "theme", "", "theme name (default from config)")
	pf.StringVar(&run.ThemeFile, "theme-file", "", "path to a theme file")
	pf.BoolVar(&run.NoColor, "no-color", false, "disable colors")
	pf.BoolVar(&run.Debug, "debug", false, "log debug messages")
	pf.StringVar(&run.LogFile, "log-file", "", "write the log to this file instead of stderr")

	rootCmd.AddCommand(viewCmd, showCmd, identifyCmd, selectCmd, themesCmd, versionCmd)
	rootCmd.AddCommand(kubeCommand(podsKind), kubeCommand(configMapsKind))
}

// setup configures logging, loads the configuration and stores both in the command context.
func setup(cmd *cobra.Command, _ []string) error {
	if run.Debug {
		run.MinLogLevel = -1
	}
	lgr, err := logger.Setup(logger.Options{Level: run.MinLogLevel, File: run.LogFile})
	if err != nil {
		return err
	}
	lgr = logger.WithValues(lgr, SubCommandKey, cmd.Name())

	overrides := map[string]any{}
	flags := cmd.Flags()
	if flags.Changed("theme") {
		overrides[config.KeyTheme] = run.Theme
	}
	if flags.Changed("theme-file") {
		overrides[config.KeyThemeFile] = run.ThemeFile
	}
	if flags.Changed("no-color") {
		overrides[config.KeyNoColor] = run.NoColor
	}
	cfg, err := config.Load(config.WithUserConfig(run.ConfigFile), config.WithOverrides(overrides))
	if err != nil {
		return err
	}
	if cfg.Source != "" {
		lgr.V(1).Info("loaded config", "path", cfg.Source)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = logger.WithLogger(ctx, lgr)
	ctx = settings.IntoContext(ctx, run)
	ctx = context.WithValue(ctx, configContextKey{}, cfg)
	cmd.SetContext(ctx)
	return nil
}

func configFrom(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configContextKey{}).(*config.Config); ok {
		return cfg
	}
	cfg, err := config.Load(config.WithoutEnv())
	if err != nil {
		panic(fmt.Sprintf("default configuration is invalid: %v", err))
	}
	return cfg
}

func logFrom(ctx context.Context) logr.Logger {
	return *logger.FromContext(ctx)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		v := settings.VersionInformation
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (commit %s, built %s)\n", settings.CliBinaryName, v.BuildVersion, v.Commit, v.BuildTime)
	},
}

// Execute runs the command line.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

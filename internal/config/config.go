// Package config loads user settings with the precedence
// defaults < user config file < CMTUI_* environment < command-line overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/oakwood-commons/cmtui/internal/errs"
)

const (
	KeyTheme          = "theme"
	KeyThemeFile      = "theme_file"
	KeyNoColor        = "no_color"
	KeyViewsDir       = "views_dir"
	KeyKubeconfig     = "kubeconfig"
	KeyMouseScroll    = "ui.mouse_scroll"
	KeyIdleSeconds    = "ui.idle_seconds"
	KeyDoubleClickMS  = "ui.double_click_ms"
	KeyRefreshSeconds = "ui.refresh_seconds"
	KeyColorPairs     = "ui.color_pairs"
	KeyInfoPercent    = "ui.info_percent"
	KeyLogPercent     = "ui.log_percent"
	KeyKeyMode        = "ui.key_mode"
	KeyWorkers        = "executor.workers"
)

const envPrefix = "CMTUI"

// UI holds the interactive settings.
type UI struct {
	MouseScroll    bool `mapstructure:"mouse_scroll"`
	IdleSeconds    int  `mapstructure:"idle_seconds"`
	DoubleClickMS  int  `mapstructure:"double_click_ms"`
	RefreshSeconds int  `mapstructure:"refresh_seconds"`
	// ColorPairs overrides the detected color pair capacity; 0 means detect.
	ColorPairs  int `mapstructure:"color_pairs"`
	InfoPercent int `mapstructure:"info_percent"`
	LogPercent  int `mapstructure:"log_percent"`
	// KeyMode is vim, emacs or function.
	KeyMode string `mapstructure:"key_mode"`
}

// Executor sizes the background worker pool.
type Executor struct {
	Workers int `mapstructure:"workers"`
}

// Config is the resolved configuration.
type Config struct {
	Theme      string   `mapstructure:"theme"`
	ThemeFile  string   `mapstructure:"theme_file"`
	NoColor    bool     `mapstructure:"no_color"`
	ViewsDir   string   `mapstructure:"views_dir"`
	Kubeconfig string   `mapstructure:"kubeconfig"`
	UI         UI       `mapstructure:"ui"`
	Executor   Executor `mapstructure:"executor"`

	// Source is the user config file that was merged, if any.
	Source string `mapstructure:"-"`
}

// IdleAfter is the idle threshold as a duration.
func (c *Config) IdleAfter() time.Duration { return time.Duration(c.UI.IdleSeconds) * time.Second }

// DoubleClick is the double-click window as a duration.
func (c *Config) DoubleClick() time.Duration {
	return time.Duration(c.UI.DoubleClickMS) * time.Millisecond
}

// RefreshInterval is the minimum time between background refreshes.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.UI.RefreshSeconds) * time.Second
}

type loadSettings struct {
	userConfigPath string
	overrides      map[string]any
	lookupEnv      bool
}

// Option configures Load.
type Option func(*loadSettings)

// WithUserConfig sets the config file instead of the default location.
func WithUserConfig(path string) Option {
	return func(s *loadSettings) { s.userConfigPath = path }
}

// WithOverrides applies values from command-line flags, the highest precedence.
func WithOverrides(overrides map[string]any) Option {
	return func(s *loadSettings) {
		if s.overrides == nil {
			s.overrides = map[string]any{}
		}
		for k, v := range overrides {
			s.overrides[k] = v
		}
	}
}

// WithoutEnv ignores CMTUI_* variables.
func WithoutEnv() Option {
	return func(s *loadSettings) { s.lookupEnv = false }
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyTheme, "default")
	v.SetDefault(KeyThemeFile, "")
	v.SetDefault(KeyNoColor, false)
	v.SetDefault(KeyViewsDir, "")
	v.SetDefault(KeyKubeconfig, "")
	v.SetDefault(KeyMouseScroll, true)
	v.SetDefault(KeyIdleSeconds, 5)
	v.SetDefault(KeyDoubleClickMS, 400)
	v.SetDefault(KeyRefreshSeconds, 2)
	v.SetDefault(KeyColorPairs, 0)
	v.SetDefault(KeyInfoPercent, 40)
	v.SetDefault(KeyLogPercent, 25)
	v.SetDefault(KeyKeyMode, "vim")
	v.SetDefault(KeyWorkers, 4)
}

// Load resolves the configuration. A malformed file or value is a configuration error.
func Load(opts ...Option) (*Config, error) {
	s := loadSettings{lookupEnv: true}
	for _, o := range opts {
		o(&s)
	}
	path := strings.TrimSpace(s.userConfigPath)
	explicit := path != ""
	if !explicit {
		var err error
		if path, err = DefaultUserConfigPath(); err != nil {
			return nil, err
		}
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	if s.lookupEnv {
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
		v.AutomaticEnv()
	}
	merged, err := mergeConfigFile(v, path, explicit)
	if err != nil {
		return nil, errs.Configf("config file", path, "%v", err)
	}
	for k, val := range s.overrides {
		v.Set(k, val)
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errs.Configf("config file", path, "%v", err)
	}
	if merged {
		c.Source = path
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	switch {
	case c.UI.IdleSeconds < 0:
		return errs.Configf("config value", KeyIdleSeconds, "must not be negative")
	case c.UI.DoubleClickMS <= 0:
		return errs.Configf("config value", KeyDoubleClickMS, "must be positive")
	case c.UI.RefreshSeconds < 0:
		return errs.Configf("config value", KeyRefreshSeconds, "must not be negative")
	case c.UI.ColorPairs < 0:
		return errs.Configf("config value", KeyColorPairs, "must not be negative")
	case c.UI.InfoPercent < 0 || c.UI.InfoPercent > 90:
		return errs.Configf("config value", KeyInfoPercent, "must be between 0 and 90")
	case c.UI.LogPercent < 0 || c.UI.LogPercent > 90:
		return errs.Configf("config value", KeyLogPercent, "must be between 0 and 90")
	case c.UI.KeyMode != "vim" && c.UI.KeyMode != "emacs" && c.UI.KeyMode != "function":
		return errs.Configf("config value", KeyKeyMode, "must be vim, emacs or function, not %q", c.UI.KeyMode)
	case c.Executor.Workers < 1:
		return errs.Configf("config value", KeyWorkers, "must be at least 1")
	}
	return nil
}

// mergeConfigFile merges path into v. A missing file is fine unless it was asked for.
func mergeConfigFile(v *viper.Viper, path string, required bool) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("is a directory")
	}
	//nolint:gosec // G304: reading the user's config file is the point
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return false, nil
	}
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return false, fmt.Errorf("parse: %w", err)
	}
	return true, nil
}

// DefaultUserConfigPath is $XDG_CONFIG_HOME/cmtui/config.yaml, or the platform equivalent.
func DefaultUserConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("determine user config dir: %w", err)
	}
	return filepath.Join(dir, "cmtui", "config.yaml"), nil
}

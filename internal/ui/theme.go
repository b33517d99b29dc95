package ui

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/cmtui/internal/config"
	"github.com/oakwood-commons/cmtui/internal/errs"
	"github.com/oakwood-commons/cmtui/internal/themes"
)

// DefaultThemeName selects the theme compiled into the binary.
const DefaultThemeName = "default"

// ThemeDir is where named themes are looked up, relative to the user config directory.
const ThemeDir = "themes"

// LoadTheme picks the theme named by cfg: an explicit theme file wins, then the built-in
// default, then <config dir>/themes/<name>.yaml.
func LoadTheme(cfg *config.Config) (*themes.Theme, error) {
	if cfg.ThemeFile != "" {
		return themes.LoadFile(cfg.ThemeFile)
	}
	if cfg.Theme == "" || cfg.Theme == DefaultThemeName {
		return themes.Default(), nil
	}
	path, err := namedThemePath(cfg.Theme)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, errs.Configf("unknown theme", cfg.Theme, "no built-in theme by that name and %s does not exist", path)
	}
	return themes.LoadFile(path)
}

func namedThemePath(name string) (string, error) {
	user, err := config.DefaultUserConfigPath()
	if err != nil {
		return "", errs.Configf("unknown theme", name, "the user config directory could not be determined").Wrap(err)
	}
	return filepath.Join(filepath.Dir(user), ThemeDir, name+".yaml"), nil
}

// NewResolver builds the style resolver for cfg. The color pair capacity comes from
// ui.color_pairs when set and from the terminal otherwise.
func NewResolver(cfg *config.Config, log logr.Logger) (*themes.Resolver, error) {
	th, err := LoadTheme(cfg)
	if err != nil {
		return nil, err
	}
	capacity := cfg.UI.ColorPairs
	if capacity <= 0 {
		capacity = themes.DetectCapacity()
	}
	log.V(1).Info("theme selected", "theme", th.Name, "pairs", capacity, "noColor", cfg.NoColor)
	return themes.NewResolver(th,
		themes.WithLogger(log),
		themes.WithPairCache(themes.NewPairCache(capacity)),
		themes.WithNoColor(cfg.NoColor),
	), nil
}

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/cmtui/internal/cel"
	"github.com/oakwood-commons/cmtui/internal/config"
	"github.com/oakwood-commons/cmtui/internal/errs"
	"github.com/oakwood-commons/cmtui/internal/limiter"
	"github.com/oakwood-commons/cmtui/internal/navigator"
	"github.com/oakwood-commons/cmtui/internal/views"
	"github.com/oakwood-commons/cmtui/pkg/loader"
)

// inputFlags are shared by the commands that read a document.
type inputFlags struct {
	format string
	expand bool
	filter string
	view   string
	limit  limiter.Config
}

func (f *inputFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.format, "format", "auto", "input format: auto, json, ndjson, yaml or toml")
	fl.BoolVar(&f.expand, "expand", false, "decode JSON and YAML embedded in string values")
	fl.StringVar(&f.filter, "filter", "", "CEL expression over each object bound to 'row', e.g. 'row.status == \"Running\"'")
	fl.StringVar(&f.view, "view", "", "view name (built-in or from views_dir) or path to a view file")
	fl.IntVar(&f.limit.Limit, "limit", 0, "show at most N objects")
	fl.IntVar(&f.limit.Offset, "offset", 0, "skip the first N objects")
	fl.IntVar(&f.limit.Tail, "tail", 0, "show only the last N objects (excludes --limit, overrides --offset)")
}

// load reads path, or stdin for "-", and decodes it.
func (f *inputFlags) load(path string, stdin io.Reader) (*loader.Document, error) {
	data, err := readInput(path, stdin)
	if err != nil {
		return nil, err
	}
	return f.decode(path, data)
}

func (f *inputFlags) decode(path string, data []byte) (*loader.Document, error) {
	format, err := loader.ParseFormat(f.format)
	if err != nil {
		return nil, err
	}
	if err := f.limit.Validate(); err != nil {
		return nil, errs.Configf("invalid flags", "", "%v", err)
	}
	name := path
	if path == "-" {
		name = "stdin"
	}
	return loader.Load(data, loader.Options{Format: format, Name: name, Expand: f.expand})
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	return os.ReadFile(path)
}

func (f *inputFlags) compileFilter() (*cel.Filter, error) {
	if strings.TrimSpace(f.filter) == "" {
		return nil, nil
	}
	eval, err := cel.NewEvaluator()
	if err != nil {
		return nil, err
	}
	return eval.CompileFilter(f.filter)
}

// objectsOf turns a document root into list objects. Kubernetes lists yield their items,
// sequences their elements and mappings one key/value object per entry.
func objectsOf(root any) []any {
	switch v := root.(type) {
	case []any:
		return v
	case map[string]any:
		if items, ok := v["items"].([]any); ok {
			if _, isList := v["kind"]; isList {
				return items
			}
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = map[string]any{"key": k, "value": v[k]}
		}
		return out
	case nil:
		return nil
	}
	return []any{map[string]any{"value": root}}
}

var builtinByKind = map[string]string{
	"Pod":       "pods",
	"ConfigMap": "configmaps",
}

// resolveView picks the view for objs: the named one, else a built-in matching the
// Kubernetes kind of the first object, else a generic view over the object keys.
func resolveView(name string, cfg *config.Config, objs []any) (*views.View, error) {
	if name != "" {
		return namedView(name, cfg)
	}
	if len(objs) > 0 {
		if b, ok := builtinByKind[navigator.DeepGetString(objs[0], "kind", "")]; ok {
			return views.Builtin(b)
		}
	}
	recs, _ := navigator.Records(objs)
	return views.Generic(recs, []string{"key", "name", "value"}), nil
}

func namedView(name string, cfg *config.Config) (*views.View, error) {
	if ext := filepath.Ext(name); ext == ".yaml" || ext == ".yml" {
		return views.LoadFile(name)
	}
	if cfg.ViewsDir != "" {
		custom, err := views.LoadDir(cfg.ViewsDir)
		if err != nil {
			return nil, err
		}
		if v, ok := custom[name]; ok {
			return v, nil
		}
	}
	return views.Builtin(name)
}

func readArg(args []string) string {
	if len(args) == 0 {
		return "-"
	}
	return args[0]
}

func checkStdin(path string) error {
	if path != "-" {
		return nil
	}
	st, err := os.Stdin.Stat()
	if err != nil {
		return err
	}
	if st.Mode()&os.ModeCharDevice != 0 {
		return errors.New("no input: pass a file or pipe data to stdin")
	}
	return nil
}

var errCancelled = errors.New("cancelled")

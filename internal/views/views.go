// Package views turns declarative view files into list pane content. A view names its
// columns, where each value lives in an object, and which formatter renders it.
package views

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/cmtui/internal/errs"
	"github.com/oakwood-commons/cmtui/internal/formatter"
	"github.com/oakwood-commons/cmtui/internal/navigator"
	"github.com/oakwood-commons/cmtui/internal/themes"
	"github.com/oakwood-commons/cmtui/internal/ui/pane"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// FieldSpec is one column of a view file.
type FieldSpec struct {
	Name string `yaml:"name"`
	// Path is a navigator path such as metadata#name.
	Path string `yaml:"path"`
	// Fallback replaces a missing value.
	Fallback any `yaml:"fallback"`
	// Keys replaces a mapping value by its sorted keys.
	Keys         bool                   `yaml:"keys"`
	Formatter    formatter.Kind         `yaml:"formatter"`
	Align        string                 `yaml:"align"`
	Ellipsise    int                    `yaml:"ellipsise"`
	ExtraNumeric string                 `yaml:"extra_numeric"`
	Colors       []formatter.AttrSpec   `yaml:"colors"`
	Mapping      *formatter.MappingSpec `yaml:"mapping"`
}

type SortSpec struct {
	Column  string `yaml:"column"`
	Reverse bool   `yaml:"reverse"`
}

// StatusSpec derives the row status from the value of one field. The __default key applies
// to unlisted values.
type StatusSpec struct {
	Field  string                           `yaml:"field"`
	Groups map[string]formatter.StatusGroup `yaml:"groups"`
}

// Spec is the file form of a view.
type Spec struct {
	Name   string      `yaml:"name"`
	Title  string      `yaml:"title"`
	Fields []FieldSpec `yaml:"fields"`
	Sort   SortSpec    `yaml:"sort"`
	Status *StatusSpec `yaml:"status"`
	// ID lists the paths whose values identify a row across refreshes.
	ID []string `yaml:"id"`
}

// Field is a compiled FieldSpec.
type Field struct {
	FieldSpec
	mapping *formatter.Mapping
	colors  []themes.ThemeAttr
}

// RightAligned reports whether the column is aligned right.
func (f Field) RightAligned() bool { return f.Align == "right" }

// View is a validated Spec.
type View struct {
	Name        string
	Title       string
	Fields      []Field
	SortColumn  int
	SortReverse bool

	statusField  int
	groups       map[string]formatter.StatusGroup
	defaultGroup formatter.StatusGroup
	idPaths      []string
}

var defaultIDPaths = []string{"metadata#namespace", "metadata#name"}

// Compile validates spec.
func Compile(spec Spec) (*View, error) {
	if len(spec.Fields) == 0 {
		return nil, errs.Configf("invalid view", spec.Name, "a view needs at least one field")
	}
	v := &View{
		Name:         spec.Name,
		Title:        spec.Title,
		SortReverse:  spec.Sort.Reverse,
		statusField:  -1,
		defaultGroup: formatter.StatusUnknown,
		idPaths:      spec.ID,
	}
	if v.Title == "" {
		v.Title = spec.Name
	}
	if len(v.idPaths) == 0 {
		v.idPaths = defaultIDPaths
	}
	seen := map[string]int{}
	for i, fs := range spec.Fields {
		ident := fmt.Sprintf("%s.fields[%d]", spec.Name, i)
		if fs.Name == "" {
			return nil, errs.Configf("invalid view field", ident, "every field needs a name")
		}
		if _, dup := seen[fs.Name]; dup {
			return nil, errs.Configf("invalid view field", ident, "field name %q is used twice", fs.Name)
		}
		seen[fs.Name] = i
		switch fs.Align {
		case "", "left", "right":
		default:
			return nil, errs.Configf("invalid view field", ident, "align must be left or right, not %q", fs.Align)
		}
		if fs.Ellipsise < 0 {
			return nil, errs.Configf("invalid view field", ident, "ellipsise must not be negative")
		}
		f := Field{FieldSpec: fs}
		if fs.Mapping != nil {
			m, err := formatter.NewMapping(*fs.Mapping)
			if err != nil {
				return nil, err
			}
			f.mapping = m
		}
		for _, c := range fs.Colors {
			f.colors = append(f.colors, c.Attr())
		}
		v.Fields = append(v.Fields, f)
	}

	if spec.Sort.Column != "" {
		i, ok := seen[spec.Sort.Column]
		if !ok {
			return nil, errs.Configf("invalid view", spec.Name, "sort column %q is not a field", spec.Sort.Column)
		}
		v.SortColumn = i
	}
	if spec.Status != nil {
		i, ok := seen[spec.Status.Field]
		if !ok {
			return nil, errs.Configf("invalid view", spec.Name, "status field %q is not a field", spec.Status.Field)
		}
		v.statusField = i
		v.groups = map[string]formatter.StatusGroup{}
		for k, g := range spec.Status.Groups {
			if k == formatter.DefaultMappingKey {
				v.defaultGroup = g
				continue
			}
			v.groups[k] = g
		}
	}
	return v, nil
}

// Parse decodes and validates a view file. Unknown keys and formatter names are errors.
func Parse(data []byte) (*View, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var spec Spec
	if err := dec.Decode(&spec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errs.Configf("invalid view", "", "the view file is empty")
		}
		var ce *errs.ConfigError
		if errors.As(err, &ce) {
			return nil, ce
		}
		return nil, errs.Configf("invalid view", spec.Name, "cannot parse view file").Wrap(err)
	}
	return Compile(spec)
}

// LoadFile reads a view file.
func LoadFile(path string) (*View, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	v, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if v.Name == "" {
		v.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if v.Title == "" {
			v.Title = v.Name
		}
	}
	return v, nil
}

// LoadDir reads every *.yaml view in dir, keyed by view name. A missing dir is empty.
func LoadDir(dir string) (map[string]*View, error) {
	out := map[string]*View{}
	if dir == "" {
		return out, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return out, nil
		}
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() || (filepath.Ext(e.Name()) != ".yaml" && filepath.Ext(e.Name()) != ".yml") {
			continue
		}
		v, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out[v.Name] = v
	}
	return out, nil
}

// BuiltinNames lists the views compiled into the binary.
func BuiltinNames() []string {
	entries, _ := builtinFS.ReadDir("builtin")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Builtin returns a compiled-in view.
func Builtin(name string) (*View, error) {
	data, err := builtinFS.ReadFile("builtin/" + name + ".yaml")
	if err != nil {
		return nil, errs.Configf("unknown view", name, "available views are %s", strings.Join(BuiltinNames(), ", "))
	}
	return Parse(data)
}

// Generic builds a view over plain records: one left-aligned column per key.
func Generic(records []map[string]any, order []string) *View {
	cols := navigator.Columns(records, order)
	v := &View{Name: "generic", Title: "Items", statusField: -1, defaultGroup: formatter.StatusUnknown}
	for _, c := range cols {
		v.Fields = append(v.Fields, Field{FieldSpec: FieldSpec{Name: strings.ToUpper(c), Path: c}})
	}
	if len(cols) > 0 {
		v.idPaths = []string{cols[0]}
	}
	return v
}

// Header returns the column titles.
func (v *View) Header() []themes.ThemeArray {
	out := make([]themes.ThemeArray, len(v.Fields))
	for i, f := range v.Fields {
		out[i] = themes.ThemeArray{themes.Str(f.Name, "main", "listheader")}
	}
	return out
}

// Value extracts field i of obj.
func (v *View) Value(obj any, i int) any {
	f := v.Fields[i]
	val := navigator.DeepGetWithFallback(obj, f.Path, f.Fallback)
	if f.Keys {
		if m, ok := val.(map[string]any); ok {
			keys := make([]any, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Slice(keys, func(a, b int) bool { return keys[a].(string) < keys[b].(string) })
			return keys
		}
	}
	return val
}

// Status classifies obj; views without a status field yield StatusUnknown.
func (v *View) Status(obj any) formatter.StatusGroup {
	if v.statusField < 0 {
		return formatter.StatusUnknown
	}
	s := formatter.Stringify(v.Value(obj, v.statusField))
	if g, ok := v.groups[s]; ok {
		return g
	}
	return v.defaultGroup
}

// ID identifies obj across refreshes.
func (v *View) ID(obj any) string {
	parts := make([]string, 0, len(v.idPaths))
	for _, p := range v.idPaths {
		parts = append(parts, navigator.DeepGetString(obj, p, ""))
	}
	return strings.Join(parts, "/")
}

// RowOptions control Rows.
type RowOptions struct {
	Resolver themes.RefResolver
	Now      time.Time
}

// Rows formats objects into list pane rows. Right-aligned columns are padded to their
// widest cell; the pane pads the rest. Rows keep the order of objects; the list pane
// sorts them by SortColumn.
func (v *View) Rows(objects []any, opts RowOptions) []pane.Row {
	refs := opts.Resolver
	if refs == nil {
		refs = themes.Default()
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	rows := make([]pane.Row, len(objects))
	widths := make([]int, len(v.Fields))
	for r, obj := range objects {
		group := v.Status(obj)
		row := pane.Row{
			ID:      v.ID(obj),
			Columns: make([]themes.ThemeArray, len(v.Fields)),
			Values:  make([]string, len(v.Fields)),
		}
		if row.ID == "" || row.ID == "/" {
			row.ID = strconv.Itoa(r)
		}
		for i, f := range v.Fields {
			val := v.Value(obj, i)
			ctx := formatter.FieldContext{
				Name:     f.Name,
				Resolver: refs,
				Now:      now,
				Options:  v.options(f, group),
			}
			row.Columns[i] = formatter.Format(f.Formatter, val, ctx)
			row.Values[i] = sortKey(f, val, now)
			widths[i] = max(widths[i], row.Columns[i].Len(refs))
		}
		rows[r] = row
	}
	for r := range rows {
		for i, f := range v.Fields {
			if f.RightAligned() {
				rows[r].Columns[i] = formatter.AlignAndPad(rows[r].Columns[i], formatter.FieldContext{Width: widths[i], RightAlign: true, Resolver: refs})
			}
		}
	}
	return rows
}

func (v *View) options(f Field, group formatter.StatusGroup) formatter.Options {
	o := formatter.Options{
		FieldColors:  f.colors,
		Ellipsise:    f.Ellipsise,
		Mapping:      f.mapping,
		ExtraNumeric: f.ExtraNumeric,
	}
	// plain columns take the row's status color
	if len(o.FieldColors) == 0 && group != formatter.StatusUnknown && f.Formatter == formatter.KindGeneric {
		o.FieldColors = []themes.ThemeAttr{group.Attr()}
	}
	return o
}

// sortKey is the unformatted value the pane sorts and searches by. Ages sort by seconds.
func sortKey(f Field, val any, now time.Time) string {
	if f.Formatter == formatter.KindAge {
		if s, ok := val.(string); ok {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				return strconv.FormatInt(int64(now.Sub(t)/time.Second), 10)
			}
		}
	}
	return formatter.Stringify(val)
}

package formatter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/cmtui/internal/errs"
	"github.com/oakwood-commons/cmtui/internal/themes"
)

// DefaultMappingKey is the fallback key of a mappings table.
const DefaultMappingKey = "__default"

// AttrSpec is a theme attribute written as [context, key] in view files.
type AttrSpec themes.ThemeAttr

// UnmarshalYAML decodes [context, key].
func (a *AttrSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode || len(node.Content) != 2 {
		return errs.Configf("malformed style reference", node.Value, "expected [context, key] at line %d", node.Line)
	}
	a.Context = node.Content[0].Value
	a.Key = node.Content[1].Value
	return nil
}

// Attr returns the parsed theme attribute.
func (a AttrSpec) Attr() themes.ThemeAttr { return themes.ThemeAttr(a) }

// FragmentSpec is a literal styled replacement written as [text, [context, key]].
type FragmentSpec struct {
	Text string
	Attr AttrSpec
}

// UnmarshalYAML decodes [text, [context, key]].
func (f *FragmentSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.SequenceNode || len(node.Content) != 2 {
		return errs.Configf("malformed substitution", node.Value, "expected [text, [context, key]] at line %d", node.Line)
	}
	f.Text = node.Content[0].Value
	return f.Attr.UnmarshalYAML(node.Content[1])
}

// RangeSpec is one numeric interval [min, max). A nil bound is open.
type RangeSpec struct {
	Min     *float64 `yaml:"min"`
	Max     *float64 `yaml:"max"`
	Default bool     `yaml:"default"`
	Attr    AttrSpec `yaml:"attr"`
}

// MappingSpec is the declarative value-to-style table of a field.
type MappingSpec struct {
	Substitutions map[string]FragmentSpec `yaml:"substitutions"`
	Ranges        []RangeSpec             `yaml:"ranges"`
	Mappings      map[string]AttrSpec     `yaml:"mappings"`
	MatchCase     *bool                   `yaml:"match_case"`
}

// Mapping is a validated MappingSpec.
type Mapping struct {
	substitutions map[string]themes.ThemeString
	ranges        []RangeSpec
	defaultRange  *RangeSpec
	mappings      map[string]themes.ThemeAttr
	matchCase     bool
}

// NewMapping validates spec. More than one default range is a configuration error.
func NewMapping(spec MappingSpec) (*Mapping, error) {
	m := &Mapping{
		substitutions: map[string]themes.ThemeString{},
		mappings:      map[string]themes.ThemeAttr{},
		matchCase:     true,
	}
	if spec.MatchCase != nil {
		m.matchCase = *spec.MatchCase
	}
	for from, to := range spec.Substitutions {
		m.substitutions[from] = themes.ThemeString{Text: to.Text, Attr: to.Attr.Attr()}
	}
	for i := range spec.Ranges {
		r := spec.Ranges[i]
		if r.Default {
			if m.defaultRange != nil {
				return nil, errs.Configf("invalid mapping", fmt.Sprintf("ranges[%d]", i), "only one range may be marked default")
			}
			m.defaultRange = &r
			continue
		}
		if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
			return nil, errs.Configf("invalid mapping", fmt.Sprintf("ranges[%d]", i), "min %g is larger than max %g", *r.Min, *r.Max)
		}
		m.ranges = append(m.ranges, r)
	}
	for k, v := range spec.Mappings {
		if !m.matchCase && k != DefaultMappingKey {
			k = strings.ToLower(k)
		}
		m.mappings[k] = v.Attr()
	}
	return m, nil
}

// Keys lists the mapping keys in sorted order.
func (m *Mapping) Keys() []string {
	out := make([]string, 0, len(m.mappings))
	for k := range m.mappings {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// numericValue returns v as a float when it is a number or a numeric string.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func (r RangeSpec) contains(v float64) bool {
	return (r.Min == nil || v >= *r.Min) && (r.Max == nil || v < *r.Max)
}

// MapValue picks the text and style for value. Substitutions are checked first, then numeric
// ranges (first declared range wins, then the default range), then the mappings table; when
// none of them apply, fallback is used verbatim.
func (m *Mapping) MapValue(value any, fallback themes.ThemeAttr, selected bool) themes.ThemeString {
	text := Stringify(value)
	out := themes.ThemeString{Text: text, Attr: fallback, Selected: selected}
	if m == nil {
		return out
	}
	if sub, ok := m.substitutions[text]; ok {
		sub.Selected = selected
		return sub
	}
	if len(m.ranges) > 0 || m.defaultRange != nil {
		if f, ok := numericValue(value); ok {
			for _, r := range m.ranges {
				if r.contains(f) {
					out.Attr = r.Attr.Attr()
					return out
				}
			}
			if m.defaultRange != nil {
				out.Attr = m.defaultRange.Attr.Attr()
				return out
			}
		}
	}
	if len(m.mappings) > 0 {
		key := text
		if !m.matchCase {
			key = strings.ToLower(key)
		}
		if attr, ok := m.mappings[key]; ok {
			out.Attr = attr
			return out
		}
		if attr, ok := m.mappings[DefaultMappingKey]; ok {
			out.Attr = attr
		}
	}
	return out
}

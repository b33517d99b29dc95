package formatter

import (
	"sort"
	"strings"

	"github.com/oakwood-commons/cmtui/internal/errs"
	"github.com/oakwood-commons/cmtui/internal/themes"
)

// Kind names one of the built-in formatters.
type Kind int

const (
	KindGeneric Kind = iota
	KindMem
	KindFloat
	KindList
	KindListWithStatus
	KindHex
	KindNumerical
	KindNumericalWithUnits
	KindAddress
	KindTimestamp
	KindTimestampWithAge
	KindAge
	KindValueMapper
)

var kindNames = map[string]Kind{
	"":                     KindGeneric,
	"generic":              KindGeneric,
	"mem":                  KindMem,
	"float":                KindFloat,
	"list":                 KindList,
	"list_with_status":     KindListWithStatus,
	"hex":                  KindHex,
	"numerical":            KindNumerical,
	"numerical_with_units": KindNumericalWithUnits,
	"address":              KindAddress,
	"timestamp":            KindTimestamp,
	"timestamp_with_age":   KindTimestampWithAge,
	"age":                  KindAge,
	"value_mapper":         KindValueMapper,
}

func (k Kind) String() string {
	for name, kind := range kindNames {
		if kind == k && name != "" {
			return name
		}
	}
	return "unknown"
}

// KindNames lists the formatter names accepted by ParseKind.
func KindNames() []string {
	out := make([]string, 0, len(kindNames))
	for name := range kindNames {
		if name != "" {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// ParseKind resolves a formatter name from a view file. Unknown names fail immediately.
func ParseKind(name string) (Kind, error) {
	k, ok := kindNames[strings.TrimSpace(name)]
	if !ok {
		return KindGeneric, errs.Configf("unknown formatter", name, "allowed formatters are %s", strings.Join(KindNames(), ", "))
	}
	return k, nil
}

// UnmarshalYAML lets view files name a formatter.
func (k *Kind) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Formatter renders one value without alignment.
type Formatter func(value any, ctx FieldContext) themes.ThemeArray

// Formatter returns the generator for k.
func (k Kind) Formatter() Formatter {
	switch k {
	case KindGeneric, KindValueMapper:
		return formatGeneric
	case KindMem:
		return formatMem
	case KindFloat:
		return formatFloatValue
	case KindList:
		return formatList
	case KindListWithStatus:
		return formatListWithStatus
	case KindHex:
		return formatHex
	case KindNumerical:
		return formatNumerical
	case KindNumericalWithUnits:
		return formatNumericalWithUnits
	case KindAddress:
		return formatAddress
	case KindTimestamp:
		return formatTimestamp
	case KindTimestampWithAge:
		return formatTimestampWithAge
	case KindAge:
		return formatAge
	}
	panic(errs.Programming("formatter", "no formatter for kind %d", int(k)))
}

// Format renders value with kind. Sentinel values are handled first, then the formatter runs,
// then the result is aligned and padded.
func Format(kind Kind, value any, ctx FieldContext) themes.ThemeArray {
	if a, ok := FormatSpecial(Stringify(value), ctx.Selected); ok {
		return AlignAndPad(a, ctx)
	}
	return AlignAndPad(kind.Formatter()(value, ctx), ctx)
}

// StringLen is the display width Format would produce before padding, computed without
// building fragments. ok is false for kinds without a shortcut; callers then measure the
// output of Format.
func StringLen(kind Kind, value any, ctx FieldContext) (int, bool) {
	s := Stringify(value)
	if IsSentinel(s) {
		return themes.Width(s), true
	}
	switch kind {
	case KindNumericalWithUnits:
		return themes.Width(s), true
	case KindNumerical:
		if _, ok := numericValue(value); !ok {
			return 0, false
		}
		if ctx.Options.Mapping != nil {
			return 0, false
		}
		return themes.Width(s), true
	case KindHex:
		if _, ok := integer(value); ok {
			return 0, false
		}
		return themes.Width(s), true
	case KindAge:
		secs, ok := ageSeconds(value, ctx.now())
		if !ok {
			return 0, false
		}
		return themes.Width(SecondsToAge(secs, true)), true
	default:
		return 0, false
	}
}

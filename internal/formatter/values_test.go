package formatter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/cmtui/internal/errs"
	"github.com/oakwood-commons/cmtui/internal/themes"
)

func texts(a themes.ThemeArray) []string {
	frags := a.MustFlatten(themes.Default())
	out := make([]string, len(frags))
	for i, f := range frags {
		out[i] = f.Text
	}
	return out
}

func TestSecondsToAge(t *testing.T) {
	tests := []struct {
		seconds int64
		skew    bool
		want    string
	}{
		{0, false, "<unset>"},
		{-1, false, ""},
		{-5, true, "<clock skew detected>"},
		{-5, false, "-5s"},
		{59, false, "59s"},
		{60, false, "1m"},
		{61, false, "1m1s"},
		{3600 + 120, false, "1h2m"},
		{12 * 3600, false, "12h"},
		{12*3600 + 59*60, false, "12h"},
		{86400, false, "1d"},
		{90000, false, "1d1h"},
		{6*86400 + 23*3600 + 59*60, false, "6d23h"},
		{7 * 86400, false, "7d"},
		{400 * 86400, false, "400d"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SecondsToAge(tt.seconds, tt.skew), "seconds=%d skew=%t", tt.seconds, tt.skew)
	}
}

func TestNumericalWithUnits(t *testing.T) {
	ctx := FieldContext{}
	assert.Equal(t, []string{"512", "Mi"}, texts(NumericalWithUnits("512Mi", "", ctx)))
	assert.Equal(t, []string{"3", "d", "2", "h", "15", "m"}, texts(NumericalWithUnits("3d2h15m", "", ctx)))
	assert.Equal(t, []string{"0", "x", "ff00"}, texts(NumericalWithUnits("0xff00", "abcdef", ctx)))
	assert.Equal(t, []string{"v", "1.28.3"}, texts(NumericalWithUnits("v1.28.3", ".", ctx)))
	assert.Empty(t, NumericalWithUnits("", "", ctx))

	frags := NumericalWithUnits("10Gi", "", ctx).MustFlatten(themes.Default())
	assert.Equal(t, attrNumerical, frags[0].Attr)
	assert.Equal(t, attrUnit, frags[1].Attr)
}

func TestFormatSpecial(t *testing.T) {
	a, ok := FormatSpecial("<not ready>", true)
	require.True(t, ok)
	require.Len(t, a, 1)
	s := a[0].(themes.ThemeString)
	assert.Equal(t, StatusNotOK.Attr(), s.Attr)
	assert.True(t, s.Selected)

	_, ok = FormatSpecial("ready", false)
	assert.False(t, ok)

	// the sentinel check runs before any formatter
	for _, kind := range []Kind{KindGeneric, KindNumerical, KindList, KindAge, KindMem, KindAddress} {
		frags := Format(kind, "<not ready>", FieldContext{}).MustFlatten(themes.Default())
		assert.Equal(t, StatusNotOK.Attr(), frags[0].Attr, kind.String())
	}
}

func floatp(f float64) *float64 { return &f }

func TestMappingRanges(t *testing.T) {
	low := AttrSpec{Context: "main", Key: "status_ok"}
	mid := AttrSpec{Context: "main", Key: "status_warning"}
	other := AttrSpec{Context: "main", Key: "status_critical"}
	m, err := NewMapping(MappingSpec{Ranges: []RangeSpec{
		{Min: floatp(0), Max: floatp(50), Attr: low},
		{Min: floatp(25), Max: floatp(90), Attr: mid},
		{Default: true, Attr: other},
	}})
	require.NoError(t, err)

	fallback := themes.ThemeAttr{Context: "types", Key: "numerical"}
	assert.Equal(t, low.Attr(), m.MapValue(30, fallback, false).Attr, "first declared range wins")
	assert.Equal(t, mid.Attr(), m.MapValue(50, fallback, false).Attr, "max is exclusive")
	assert.Equal(t, other.Attr(), m.MapValue(95.5, fallback, false).Attr)
	assert.Equal(t, other.Attr(), m.MapValue(-1, fallback, false).Attr)
	assert.Equal(t, fallback, m.MapValue("n/a", fallback, false).Attr)
}

func TestMappingTwoDefaults(t *testing.T) {
	_, err := NewMapping(MappingSpec{Ranges: []RangeSpec{
		{Default: true, Attr: AttrSpec{Context: "main", Key: "status_ok"}},
		{Default: true, Attr: AttrSpec{Context: "main", Key: "status_not_ok"}},
	}})
	require.Error(t, err)
	assert.True(t, errs.IsConfig(err))
}

func TestMappingTable(t *testing.T) {
	spec := MappingSpec{}
	require.NoError(t, yaml.Unmarshal([]byte(`
match_case: false
substitutions:
  "": ["<none>", [types, none]]
mappings:
  Running: [main, status_ok]
  Failed: [main, status_not_ok]
  __default: [main, status_unknown]
`), &spec))
	m, err := NewMapping(spec)
	require.NoError(t, err)

	fallback := themes.ThemeAttr{Context: "types", Key: "generic"}
	assert.Equal(t, StatusOK.Attr(), m.MapValue("running", fallback, false).Attr)
	assert.Equal(t, StatusNotOK.Attr(), m.MapValue("FAILED", fallback, false).Attr)
	assert.Equal(t, StatusUnknown.Attr(), m.MapValue("Evicted", fallback, false).Attr)

	sub := m.MapValue("", fallback, true)
	assert.Equal(t, "<none>", sub.Text)
	assert.Equal(t, themes.ThemeAttr{Context: "types", Key: "none"}, sub.Attr)
	assert.True(t, sub.Selected)

	strict, err := NewMapping(MappingSpec{Mappings: map[string]AttrSpec{"True": {Context: "main", Key: "status_ok"}}})
	require.NoError(t, err)
	assert.Equal(t, fallback, strict.MapValue(true, fallback, false).Attr, "match_case defaults to true")
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("numerical_with_units")
	require.NoError(t, err)
	assert.Equal(t, KindNumericalWithUnits, k)
	assert.Equal(t, "numerical_with_units", k.String())

	_, err = ParseKind("bogus")
	var ce *errs.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "bogus", ce.Identifier)

	for _, name := range KindNames() {
		k, err := ParseKind(name)
		require.NoError(t, err)
		assert.NotPanics(t, func() { Format(k, 1, FieldContext{}) }, name)
	}
}

func TestFormatters(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	created := now.Add(-90000 * time.Second)
	tests := []struct {
		name  string
		kind  Kind
		value any
		want  string
	}{
		{"mem bytes", KindMem, int64(1536), "1.5Ki"},
		{"mem quantity", KindMem, "512Mi", "512Mi"},
		{"float", KindFloat, 3.14159, "3.14"},
		{"float whole", KindFloat, 2.0, "2"},
		{"hex int", KindHex, 255, "0xff"},
		{"numerical", KindNumerical, 42, "42"},
		{"age", KindAge, created, "1d1h"},
		{"age seconds", KindAge, 59, "59s"},
		{"age unset", KindAge, time.Time{}, "<unset>"},
		{"address v4", KindAddress, "10.0.0.1/24", "10.0.0.1/24"},
		{"address list", KindAddress, []any{"10.0.0.1", "fe80::1"}, "10.0.0.1, fe80::1"},
		{"list", KindList, []any{"a", "b", "c"}, "a, b, c"},
		{"list tuples", KindList, []any{[]any{"tcp", 80}}, "tcp 80"},
		{"list with status", KindListWithStatus, []any{StatusItem{Value: "etcd", Status: StatusOK}}, "etcd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Format(tt.kind, tt.value, FieldContext{Now: now})
			assert.Equal(t, tt.want, a.PlainText(themes.Default()))
		})
	}
}

func TestListEllipsis(t *testing.T) {
	ctx := FieldContext{Options: Options{Ellipsise: 2}}
	a := Format(KindList, []any{"a", "b", "c", "d"}, ctx)
	assert.Equal(t, "a, b, …", a.PlainText(themes.Default()))
}

func TestListWithStatusColors(t *testing.T) {
	items := []any{
		map[string]any{"value": "api", "status": "ok"},
		[]any{"db", "crit"},
		"plain",
	}
	frags := Format(KindListWithStatus, items, FieldContext{}).MustFlatten(themes.Default())
	var attrs []themes.ThemeAttr
	for _, f := range frags {
		if f.Text != ", " {
			attrs = append(attrs, f.Attr)
		}
	}
	assert.Equal(t, []themes.ThemeAttr{StatusOK.Attr(), StatusCrit.Attr(), StatusNeutral.Attr()}, attrs)
}

func TestTimestampWithAge(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ts := now.Add(-59 * time.Second)
	a := Format(KindTimestampWithAge, ts, FieldContext{Now: now})
	want := ts.Local().Format(TimestampLayout) + " (59s)"
	assert.Equal(t, want, a.PlainText(themes.Default()))

	skew := Format(KindAge, now.Add(time.Hour), FieldContext{Now: now}).MustFlatten(themes.Default())
	assert.Equal(t, "<clock skew detected>", skew[0].Text)
}

func TestFieldOptions(t *testing.T) {
	ctx := FieldContext{
		Width:      10,
		RightAlign: true,
		Options: Options{
			FieldColors:   []themes.ThemeAttr{{Context: "main", Key: "highlight"}},
			FieldPrefixes: []themes.ThemeArray{{themes.Str("[", "types", "separator")}},
			FieldSuffixes: []themes.ThemeArray{{themes.Str("]", "types", "separator")}},
		},
	}
	a := Format(KindGeneric, "x", ctx)
	assert.Equal(t, "       [x]", a.PlainText(themes.Default()))
	frags := a.MustFlatten(themes.Default())
	assert.Equal(t, themes.ThemeAttr{Context: "main", Key: "highlight"}, frags[2].Attr)
}

func TestStringLen(t *testing.T) {
	ctx := FieldContext{}
	n, ok := StringLen(KindNumericalWithUnits, "512Mi", ctx)
	require.True(t, ok)
	assert.Equal(t, Format(KindNumericalWithUnits, "512Mi", ctx).Len(themes.Default()), n)

	_, ok = StringLen(KindList, []any{"a"}, ctx)
	assert.False(t, ok, "list has no shortcut and must run the full formatter")
}

func TestStatusGroups(t *testing.T) {
	g, err := ParseStatusGroup("CRIT")
	require.NoError(t, err)
	assert.Equal(t, StatusCrit, g)
	assert.Equal(t, themes.ThemeAttr{Context: "main", Key: "status_critical"}, g.Attr())
	assert.Equal(t, StatusNotOK, Worst(StatusOK, StatusNotOK, StatusPending))
	assert.Equal(t, StatusUnknown, Worst())

	_, err = ParseStatusGroup("purple")
	assert.True(t, errs.IsConfig(err))
}

package formatter

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/oakwood-commons/cmtui/internal/themes"
)

var (
	attrGeneric   = themes.ThemeAttr{Context: "types", Key: "generic"}
	attrNumerical = themes.ThemeAttr{Context: "types", Key: "numerical"}
	attrUnit      = themes.ThemeAttr{Context: "types", Key: "unit"}
	attrSeparator = themes.ThemeAttr{Context: "types", Key: "separator"}
	attrAddress   = themes.ThemeAttr{Context: "types", Key: "address"}

	listRef     = themes.ThemeRef{Context: "separators", Key: "list"}
	fieldRef    = themes.ThemeRef{Context: "separators", Key: "field"}
	ellipsisRef = themes.ThemeRef{Context: "separators", Key: "ellipsis"}
)

// TimestampLayout is how timestamps are shown.
const TimestampLayout = "2006-01-02 15:04:05"

// NumericalWithUnits splits s into alternating numeric and unit fragments, e.g. "512Mi" or
// "3d2h15m". Digits and any rune in extraNumeric are numeric; a fragment is emitted every time
// the class flips.
func NumericalWithUnits(s, extraNumeric string, ctx FieldContext) themes.ThemeArray {
	numAttr := ctx.color(0, attrNumerical)
	unitAttr := ctx.color(1, attrUnit)
	var out themes.ThemeArray
	start := 0
	numeric := false
	for i, r := range s {
		isNum := unicode.IsDigit(r) || strings.ContainsRune(extraNumeric, r)
		if i == 0 {
			numeric = isNum
			continue
		}
		if isNum != numeric {
			out = append(out, ctx.str(s[start:i], classAttr(numeric, numAttr, unitAttr)))
			start = i
			numeric = isNum
		}
	}
	if start < len(s) {
		out = append(out, ctx.str(s[start:], classAttr(numeric, numAttr, unitAttr)))
	}
	return out
}

func classAttr(numeric bool, num, unit themes.ThemeAttr) themes.ThemeAttr {
	if numeric {
		return num
	}
	return unit
}

// SecondsToAge renders a duration with at most two of the largest units. Once the day count
// reaches 7 or the hour count reaches 12, only the largest unit is shown.
//
//	0  -> "<unset>"
//	-1 -> ""
//	<0 -> "<clock skew detected>" when negativeIsSkew, else "-" + age
func SecondsToAge(seconds int64, negativeIsSkew bool) string {
	switch {
	case seconds == -1:
		return ""
	case seconds == 0:
		return "<unset>"
	case seconds < 0:
		if negativeIsSkew {
			return "<clock skew detected>"
		}
		return "-" + SecondsToAge(-seconds, false)
	}
	days := seconds / 86400
	hours := seconds % 86400 / 3600
	minutes := seconds % 3600 / 60
	secs := seconds % 60

	two := func(a int64, ua string, b int64, ub string) string {
		if b == 0 {
			return fmt.Sprintf("%d%s", a, ua)
		}
		return fmt.Sprintf("%d%s%d%s", a, ua, b, ub)
	}
	switch {
	case days >= 7:
		return fmt.Sprintf("%dd", days)
	case days > 0:
		return two(days, "d", hours, "h")
	case hours >= 12:
		return fmt.Sprintf("%dh", hours)
	case hours > 0:
		return two(hours, "h", minutes, "m")
	case minutes > 0:
		return two(minutes, "m", secs, "s")
	default:
		return fmt.Sprintf("%ds", secs)
	}
}

// formatFloat renders f with at most prec decimals and no trailing zeros; prec < 0 is the
// shortest exact form.
func formatFloat(f float64, prec int) string {
	s := strconv.FormatFloat(f, 'f', prec, 64)
	if prec > 0 && strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return s
}

var memUnits = [...]string{"", "Ki", "Mi", "Gi", "Ti", "Pi", "Ei"}

// HumanBytes renders a byte count with binary units, e.g. 1536 -> "1.5Ki".
func HumanBytes(n int64) string {
	f := float64(n)
	neg := f < 0
	f = math.Abs(f)
	i := 0
	for f >= 1024 && i < len(memUnits)-1 {
		f /= 1024
		i++
	}
	s := formatFloat(f, 1) + memUnits[i]
	if neg {
		s = "-" + s
	}
	return s
}

func integer(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), true
	case float64:
		if n == math.Trunc(n) {
			return int64(n), true
		}
	}
	return 0, false
}

func formatMem(v any, ctx FieldContext) themes.ThemeArray {
	s := Stringify(v)
	if n, ok := integer(v); ok {
		s = HumanBytes(n)
	}
	return NumericalWithUnits(s, ".", ctx)
}

func formatFloatValue(v any, ctx FieldContext) themes.ThemeArray {
	f, ok := numericValue(v)
	if !ok {
		return formatGeneric(v, ctx)
	}
	return NumericalWithUnits(formatFloat(f, 2), ".-", ctx)
}

func formatNumerical(v any, ctx FieldContext) themes.ThemeArray {
	if _, ok := numericValue(v); !ok {
		return formatGeneric(v, ctx)
	}
	return themes.ThemeArray{ctx.Options.Mapping.MapValue(v, ctx.color(0, attrNumerical), ctx.Selected)}
}

func formatHex(v any, ctx FieldContext) themes.ThemeArray {
	s := Stringify(v)
	if n, ok := integer(v); ok {
		s = fmt.Sprintf("0x%x", n)
	}
	return NumericalWithUnits(s, "abcdefABCDEF", ctx)
}

func formatNumericalWithUnits(v any, ctx FieldContext) themes.ThemeArray {
	return NumericalWithUnits(Stringify(v), ctx.Options.ExtraNumeric, ctx)
}

func formatGeneric(v any, ctx FieldContext) themes.ThemeArray {
	return ctx.withAffixes(themes.ThemeArray{ctx.Options.Mapping.MapValue(v, ctx.color(0, attrGeneric), ctx.Selected)}, 0)
}

// address splits one IPv4/IPv6 address, CIDR or host:port into segments and separators.
func address(s string, ctx FieldContext) themes.ThemeArray {
	v6 := strings.Count(s, ":") > 1
	isSegment := func(r rune) bool {
		if unicode.IsDigit(r) {
			return true
		}
		if v6 && strings.ContainsRune("abcdefABCDEF", r) {
			return true
		}
		return !strings.ContainsRune(".:/[]%", r)
	}
	segAttr := ctx.color(0, attrAddress)
	sepAttr := ctx.color(1, attrSeparator)
	var out themes.ThemeArray
	var cur strings.Builder
	curSeg := true
	for i, r := range s {
		seg := isSegment(r)
		if i > 0 && seg != curSeg {
			out = append(out, ctx.str(cur.String(), classAttr(curSeg, segAttr, sepAttr)))
			cur.Reset()
		}
		curSeg = seg
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		out = append(out, ctx.str(cur.String(), classAttr(curSeg, segAttr, sepAttr)))
	}
	return out
}

func formatAddress(v any, ctx FieldContext) themes.ThemeArray {
	items, ok := asSlice(v)
	if !ok {
		return address(Stringify(v), ctx)
	}
	return joinItems(items, ctx, func(item any, _ int) themes.ThemeArray {
		return address(Stringify(item), ctx)
	})
}

// asTime accepts time.Time, *time.Time and RFC 3339 strings.
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		parsed, err := time.Parse(time.RFC3339, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}

func timestampText(v any) (string, bool) {
	t, ok := asTime(v)
	if !ok {
		return "", false
	}
	if t.IsZero() {
		return "<unset>", true
	}
	return t.Local().Format(TimestampLayout), true
}

func formatTimestamp(v any, ctx FieldContext) themes.ThemeArray {
	s, ok := timestampText(v)
	if !ok {
		return formatGeneric(v, ctx)
	}
	if a, special := FormatSpecial(s, ctx.Selected); special {
		return a
	}
	return NumericalWithUnits(s, "", ctx)
}

// ageSeconds converts a timestamp or a second count into an age relative to now.
func ageSeconds(v any, now time.Time) (int64, bool) {
	if t, ok := asTime(v); ok {
		if t.IsZero() {
			return 0, true
		}
		return int64(now.Sub(t) / time.Second), true
	}
	if d, ok := v.(time.Duration); ok {
		return int64(d / time.Second), true
	}
	if n, ok := integer(v); ok {
		return n, true
	}
	return 0, false
}

func ageArray(seconds int64, ctx FieldContext) themes.ThemeArray {
	s := SecondsToAge(seconds, true)
	if s == "<clock skew detected>" {
		return themes.ThemeArray{ctx.str(s, StatusWarning.Attr())}
	}
	if a, special := FormatSpecial(s, ctx.Selected); special {
		return a
	}
	return NumericalWithUnits(s, "", ctx)
}

func formatAge(v any, ctx FieldContext) themes.ThemeArray {
	secs, ok := ageSeconds(v, ctx.now())
	if !ok {
		return formatGeneric(v, ctx)
	}
	return ageArray(secs, ctx)
}

func formatTimestampWithAge(v any, ctx FieldContext) themes.ThemeArray {
	ts := formatTimestamp(v, ctx)
	t, ok := asTime(v)
	if !ok || t.IsZero() {
		return ts
	}
	age := ageArray(int64(ctx.now().Sub(t)/time.Second), ctx)
	return themes.Concat(ts,
		themes.ThemeArray{ctx.str(" (", attrSeparator)},
		age,
		themes.ThemeArray{ctx.str(")", attrSeparator)})
}

// asSlice returns the elements of any slice or array value.
func asSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	case string, nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// joinItems renders items with the item separator, cutting after Ellipsise items.
func joinItems(items []any, ctx FieldContext, render func(item any, i int) themes.ThemeArray) themes.ThemeArray {
	sep := listRef
	if ctx.Options.ItemSeparator != nil {
		sep = *ctx.Options.ItemSeparator
	}
	ellipsis := ctx.Options.Ellipsis
	if ellipsis == (themes.ThemeRef{}) {
		ellipsis = ellipsisRef
	}
	var out themes.ThemeArray
	for i, item := range items {
		if ctx.Options.Ellipsise > 0 && i >= ctx.Options.Ellipsise {
			out = append(out, ctx.ref(sep), ctx.ref(ellipsis))
			break
		}
		if i > 0 {
			out = append(out, ctx.ref(sep))
		}
		out = append(out, render(item, i)...)
	}
	return out
}

func formatList(v any, ctx FieldContext) themes.ThemeArray {
	items, ok := asSlice(v)
	if !ok {
		return formatGeneric(v, ctx)
	}
	return joinItems(items, ctx, func(item any, i int) themes.ThemeArray {
		if tuple, ok := asSlice(item); ok {
			var out themes.ThemeArray
			for j, sub := range tuple {
				if j > 0 {
					sep := fieldRef
					if seps := ctx.Options.FieldSeparators; len(seps) > 0 {
						sep = seps[min(j-1, len(seps)-1)]
					}
					out = append(out, ctx.ref(sep))
				}
				out = append(out, ctx.Options.Mapping.MapValue(sub, ctx.color(j, attrGeneric), ctx.Selected))
			}
			return ctx.withAffixes(out, i)
		}
		return ctx.withAffixes(themes.ThemeArray{ctx.Options.Mapping.MapValue(item, ctx.color(i, attrGeneric), ctx.Selected)}, i)
	})
}

// StatusItem is a list element that carries its own status group.
type StatusItem struct {
	Value  any
	Status StatusGroup
}

func statusItem(item any) StatusItem {
	switch t := item.(type) {
	case StatusItem:
		return t
	case map[string]any:
		si := StatusItem{Value: t["value"]}
		if s, ok := t["status"].(string); ok {
			si.Status, _ = ParseStatusGroup(s)
		} else if g, ok := t["status"].(StatusGroup); ok {
			si.Status = g
		}
		return si
	case []any:
		if len(t) == 2 {
			si := StatusItem{Value: t[0]}
			switch s := t[1].(type) {
			case StatusGroup:
				si.Status = s
			case string:
				si.Status, _ = ParseStatusGroup(s)
			}
			return si
		}
	}
	return StatusItem{Value: item, Status: StatusNeutral}
}

func formatListWithStatus(v any, ctx FieldContext) themes.ThemeArray {
	items, ok := asSlice(v)
	if !ok {
		return formatGeneric(v, ctx)
	}
	return joinItems(items, ctx, func(item any, i int) themes.ThemeArray {
		si := statusItem(item)
		return ctx.withAffixes(themes.ThemeArray{ctx.str(Stringify(si.Value), si.Status.Attr())}, i)
	})
}

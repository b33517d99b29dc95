package formatter

import (
	"strings"

	"github.com/oakwood-commons/cmtui/internal/errs"
	"github.com/oakwood-commons/cmtui/internal/themes"
)

// StatusGroup is the coarse health classification that drives row coloring.
type StatusGroup int

const (
	StatusUnknown StatusGroup = iota
	StatusNeutral
	StatusDone
	StatusOK
	StatusPending
	StatusWarning
	StatusAdmin
	StatusNotOK
	StatusCrit
)

var statusGroupNames = [...]string{
	StatusUnknown: "unknown",
	StatusNeutral: "neutral",
	StatusDone:    "done",
	StatusOK:      "ok",
	StatusPending: "pending",
	StatusWarning: "warning",
	StatusAdmin:   "admin",
	StatusNotOK:   "not_ok",
	StatusCrit:    "critical",
}

func (g StatusGroup) String() string {
	if g < 0 || int(g) >= len(statusGroupNames) {
		return statusGroupNames[StatusUnknown]
	}
	return statusGroupNames[g]
}

// Attr is the main-context style used for rows and values in this group.
func (g StatusGroup) Attr() themes.ThemeAttr {
	return themes.ThemeAttr{Context: "main", Key: "status_" + g.String()}
}

// Severity orders groups for "worst status wins" aggregation; StatusAdmin and StatusDone
// rank with StatusOK.
func (g StatusGroup) Severity() int {
	switch g {
	case StatusCrit:
		return 5
	case StatusNotOK:
		return 4
	case StatusWarning:
		return 3
	case StatusPending:
		return 2
	case StatusUnknown:
		return 1
	default:
		return 0
	}
}

// Worst returns the most severe group; an empty list is StatusUnknown.
func Worst(groups ...StatusGroup) StatusGroup {
	if len(groups) == 0 {
		return StatusUnknown
	}
	worst := groups[0]
	for _, g := range groups[1:] {
		if g.Severity() > worst.Severity() {
			worst = g
		}
	}
	return worst
}

// ParseStatusGroup accepts the group names used in view files; "crit" is an alias.
func ParseStatusGroup(name string) (StatusGroup, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "crit" {
		return StatusCrit, nil
	}
	for i, s := range statusGroupNames {
		if s == n {
			return StatusGroup(i), nil
		}
	}
	return StatusUnknown, errs.Configf("unknown status group", name, "allowed groups are %s", strings.Join(statusGroupNames[:], ", "))
}

// UnmarshalYAML lets view files name a status group.
func (g *StatusGroup) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseStatusGroup(s)
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// sentinels are rendered with their own style before any other formatting.
var sentinels = map[string]themes.ThemeAttr{
	"<none>":        {Context: "types", Key: "none"},
	"<unknown>":     {Context: "types", Key: "unknown"},
	"<unset>":       {Context: "types", Key: "unset"},
	"<undefined>":   {Context: "types", Key: "undefined"},
	"<unspecified>": {Context: "types", Key: "unspecified"},
	"<not ready>":   StatusNotOK.Attr(),
}

// IsSentinel reports whether s is one of the special placeholder values.
func IsSentinel(s string) bool {
	_, ok := sentinels[s]
	return ok
}

// FormatSpecial renders s with its dedicated style when it is a sentinel value.
func FormatSpecial(s string, selected bool) (themes.ThemeArray, bool) {
	attr, ok := sentinels[s]
	if !ok {
		return nil, false
	}
	return themes.ThemeArray{themes.ThemeString{Text: s, Attr: attr, Selected: selected}}, true
}

package ui

import (
	"github.com/oakwood-commons/cmtui/internal/themes"
	"github.com/oakwood-commons/cmtui/internal/ui/dialog"
)

var (
	helpKeyAttr  = themes.ThemeAttr{Context: "windowwidget", Key: "hotkey"}
	helpTextAttr = themes.ThemeAttr{Context: "windowwidget", Key: "default"}
)

// HelpDialog lists the bindings of km. Any of Enter, Esc or a double-click closes it. refs
// is the resolver the dialog will be drawn with.
func HelpDialog(km *Keymap, refs themes.RefResolver) *dialog.Dialog {
	bindings := km.Bindings()
	items := make([]dialog.Item, 0, len(bindings))
	for _, b := range bindings {
		items = append(items, dialog.Item{
			Columns: []themes.ThemeArray{
				{themes.ThemeString{Text: b.Keys, Attr: helpKeyAttr}},
				{themes.ThemeString{Text: b.Description, Attr: helpTextAttr}},
			},
			Value: b.Keys,
		})
	}
	return dialog.New(dialog.Spec{
		Title: "Keys (" + string(km.Mode) + " mode)",
		Headers: []themes.ThemeArray{
			{themes.ThemeString{Text: "KEY"}},
			{themes.ThemeString{Text: "ACTION"}},
		},
		Items: items,
		Refs:  refs,
	})
}

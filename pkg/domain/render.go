package domain

import (
	"fmt"
	"strings"
)

// ButtonView is an element as the render surface should draw it.
type ButtonView struct {
	Element
	Selected bool `json:"selected,omitempty"`
}

// Buttons applies the render contract to the actions blocks of m.
// Domain buttons disappear once the focus selection is confirmed, and the
// confirm button only exists while a non-empty selection is pending.
func (s Snapshot) Buttons(m Message) (buttons []ButtonView, confirm *Element) {
	hasDomainButtons := false
	for _, b := range m.Blocks {
		if b.Type != BlockActions {
			continue
		}
		for _, el := range b.Elements {
			id, isDomain := strings.CutPrefix(el.Action, ActionSelectDomainPrefix)
			if !isDomain {
				buttons = append(buttons, ButtonView{Element: el})
				continue
			}
			hasDomainButtons = true
			if s.FocusConfirmed {
				continue
			}
			buttons = append(buttons, ButtonView{Element: el, Selected: s.IsSelected(id)})
		}
	}

	if hasDomainButtons && len(s.SelectedFocusDomains) > 0 && !s.FocusConfirmed {
		n := len(s.SelectedFocusDomains)
		plural := ""
		if n > 1 {
			plural = "s"
		}
		confirm = &Element{
			Label:  fmt.Sprintf("Confirm Selection (%d domain%s)", n, plural),
			Style:  StylePrimary,
			Action: ActionConfirmDomains,
		}
	}
	return buttons, confirm
}

package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lingo/internal/ui/theme"
)

// MenuItem is one selectable row.
type MenuItem struct {
	Label  string
	Detail string // dim text after the label
	Locked bool   // shown with a lock; still selectable
	Action func() tea.Cmd
}

// Menu is a vertical list with a cursor.
type Menu struct {
	Items    []MenuItem
	Selected int
}

// NewMenu creates a menu with the cursor on the first item.
func NewMenu(items []MenuItem) Menu {
	return Menu{Items: items}
}

// Current returns the item under the cursor.
func (m Menu) Current() (MenuItem, bool) {
	if m.Selected < 0 || m.Selected >= len(m.Items) {
		return MenuItem{}, false
	}
	return m.Items[m.Selected], true
}

// Update moves the cursor and runs the selected item's action on enter.
func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || len(m.Items) == 0 {
		return m, nil
	}

	switch kmsg.String() {
	case "up", "k":
		if m.Selected > 0 {
			m.Selected--
		}
	case "down", "j":
		if m.Selected < len(m.Items)-1 {
			m.Selected++
		}
	case "home", "g":
		m.Selected = 0
	case "end", "G":
		m.Selected = len(m.Items) - 1
	case "enter":
		if item, ok := m.Current(); ok && item.Action != nil {
			return m, item.Action()
		}
	}
	return m, nil
}

// View renders the menu, one item per line.
func (m Menu) View() string {
	var b strings.Builder
	for i, item := range m.Items {
		label := item.Label
		if item.Locked {
			label = "🔒 " + label
		}

		switch {
		case i == m.Selected:
			b.WriteString(theme.Selected.Render("  ▸ " + label))
		case item.Locked:
			b.WriteString(theme.Locked.Render("    " + label))
		default:
			b.WriteString(theme.Unselected.Render("    " + label))
		}
		if item.Detail != "" {
			b.WriteString("  " + theme.Hint.Render(item.Detail))
		}
		b.WriteString("\n")
	}
	return b.String()
}

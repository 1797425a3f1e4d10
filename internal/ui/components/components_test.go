package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func key(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func TestMenu_Navigation(t *testing.T) {
	var picked string
	pick := func(name string) func() tea.Cmd {
		return func() tea.Cmd {
			picked = name
			return nil
		}
	}
	m := NewMenu([]MenuItem{
		{Label: "A0", Action: pick("A0")},
		{Label: "A1", Locked: true, Action: pick("A1")},
	})

	m, _ = m.Update(key(tea.KeyUp))
	if m.Selected != 0 {
		t.Errorf("cursor moved above the first item: %d", m.Selected)
	}
	m, _ = m.Update(key(tea.KeyDown))
	m, _ = m.Update(key(tea.KeyDown))
	if m.Selected != 1 {
		t.Errorf("cursor = %d, want 1", m.Selected)
	}
	m.Update(key(tea.KeyEnter))
	if picked != "A1" {
		t.Errorf("picked %q, want A1", picked)
	}
	if !strings.Contains(m.View(), "🔒 A1") {
		t.Errorf("locked item not marked:\n%s", m.View())
	}
}

func TestProgressBar(t *testing.T) {
	p := ProgressBar{Current: 3, Total: 10, Width: 30}
	if p.Percent() != 0.3 {
		t.Errorf("Percent = %v", p.Percent())
	}
	if !strings.Contains(p.View(), "3/10") {
		t.Errorf("counter missing: %q", p.View())
	}
	if (ProgressBar{Current: 5}).Percent() != 0 {
		t.Error("empty total should be 0%")
	}
}

func TestStars(t *testing.T) {
	s := Stars(2, 3)
	if strings.Count(s, "★") != 2 || strings.Count(s, "☆") != 1 {
		t.Errorf("Stars(2,3) = %q", s)
	}
}

func TestTextInput_FreezesWhenChecked(t *testing.T) {
	in := NewTextInput("answer", 0)
	in.Model.SetValue("I love cats")
	in.MarkChecked(false)

	in, _ = in.Update(tea.KeyPressMsg{Code: 'x', Text: "x"})
	if in.Value() != "I love cats" {
		t.Errorf("checked input accepted typing: %q", in.Value())
	}
	if !strings.Contains(in.View(), "✗") {
		t.Errorf("verdict missing: %q", in.View())
	}
}

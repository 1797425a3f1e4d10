package components

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lingo/internal/ui/theme"
)

// TextInput wraps bubbles/textinput and shows a check mark or cross once
// the answer has been checked.
type TextInput struct {
	Model   textinput.Model
	checked bool
	correct bool
}

// NewTextInput creates a focused input. limit caps the number of characters
// when positive.
func NewTextInput(placeholder string, limit int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "› "
	if limit > 0 {
		ti.CharLimit = limit
	}
	ti.Focus()
	return TextInput{Model: ti}
}

// Init starts the cursor blink.
func (t TextInput) Init() tea.Cmd {
	return t.Model.Focus()
}

// Update forwards editing keys. A checked input is read-only.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if t.checked {
		return t, nil
	}
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// View renders the input with its verdict.
func (t TextInput) View() string {
	view := t.Model.View()
	if t.checked {
		if t.correct {
			view += " " + theme.Correct.Render("✓")
		} else {
			view += " " + theme.Incorrect.Render("✗")
		}
	}
	return view
}

// Value returns the typed text.
func (t TextInput) Value() string {
	return t.Model.Value()
}

// MarkChecked freezes the input and records the verdict.
func (t *TextInput) MarkChecked(correct bool) {
	t.checked = true
	t.correct = correct
	t.Model.Blur()
}

// Checked reports whether MarkChecked was called.
func (t TextInput) Checked() bool {
	return t.checked
}

// Package theme holds the colours and shared styles of the TUI.
package theme

import (
	"charm.land/lipgloss/v2"
)

// Palette: calm blues with a warm accent for stars.
var (
	Primary   = lipgloss.Color("#3B82F6")
	Secondary = lipgloss.Color("#06B6D4")
	Accent    = lipgloss.Color("#F59E0B")
	Success   = lipgloss.Color("#10B981")
	Error     = lipgloss.Color("#EF4444")
	Warning   = lipgloss.Color("#F97316")
	Text      = lipgloss.Color("#E5E7EB")
	TextDim   = lipgloss.Color("#9CA3AF")
	BgCard    = lipgloss.Color("#111827")
	Border    = lipgloss.Color("#374151")
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Prompt = lipgloss.NewStyle().
		Bold(true).
		Foreground(Text)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(0, 2)
)

var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Locked = lipgloss.NewStyle().
		Foreground(TextDim)

	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	Notice = lipgloss.NewStyle().
		Foreground(Warning)

	Star = lipgloss.NewStyle().
		Foreground(Accent)
)

// Package layout renders the frame shared by every TUI screen.
package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"

	"github.com/abhisek/lingo/internal/ui/theme"
)

const (
	MinWidth  = 60
	MinHeight = 18

	// Header and footer are one text line plus a rule each.
	HeaderHeight = 2
	FooterHeight = 2

	CompactWidthThreshold = 90
)

// KeyHint is one "key action" pair in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// IsCompactWidth reports whether secondary columns should be hidden.
func IsCompactWidth(width int) bool {
	return width < CompactWidthThreshold
}

// IsTooSmall reports whether the terminal is below the minimum size.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// Truncate cuts s to width terminal cells, ending with an ellipsis when
// anything was removed.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// RenderMinSizeMessage asks the user to enlarge the terminal.
func RenderMinSizeMessage(width, height int) string {
	msg := fmt.Sprintf("The window is too small (%d x %d).\nLingo needs at least %d x %d.",
		width, height, MinWidth, MinHeight)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.Text).Render(msg))
}

func rule(width int) string {
	return lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", max(width, 0)))
}

// RenderHeader renders "Lingo › title" on the left and status (usually the
// signed-in email) on the right, above a rule.
func RenderHeader(title, status string, width int) string {
	brand := theme.Title.Render(" Lingo")
	crumb := lipgloss.NewStyle().Foreground(theme.TextDim).Render(" › ")
	left := brand + crumb + lipgloss.NewStyle().Foreground(theme.Text).Render(title)

	room := width - lipgloss.Width(left) - 2
	if room < 4 {
		status = ""
	} else {
		status = Truncate(status, room)
	}
	right := lipgloss.NewStyle().Foreground(theme.TextDim).Render(status)

	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right)-1, 1)
	return left + strings.Repeat(" ", gap) + right + "\n" + rule(width)
}

// RenderFooter renders key hints under a rule. Hints that do not fit the
// width are dropped from the end.
func RenderFooter(hints []KeyHint, width int) string {
	keyStyle := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(theme.TextDim)
	sep := descStyle.Render("  ·  ")

	line := " "
	for i, h := range hints {
		part := keyStyle.Render(h.Key) + " " + descStyle.Render(h.Description)
		if i > 0 {
			part = sep + part
		}
		if lipgloss.Width(line+part) > width {
			break
		}
		line += part
	}
	return rule(width) + "\n" + line
}

// RenderFrame stacks header, content and footer, padding or clipping the
// content to the height left between them.
func RenderFrame(header, content, footer string, width, height int) string {
	bodyHeight := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	body := lipgloss.NewStyle().
		Width(width).
		Height(bodyHeight).
		MaxHeight(bodyHeight).
		Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

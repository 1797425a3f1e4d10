package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/lingo/internal/ui/theme"
)

// ProgressBar is a horizontal bar followed by a "current/total" counter.
type ProgressBar struct {
	Current int
	Total   int
	Width   int
}

// Percent returns Current/Total clamped to [0, 1].
func (p ProgressBar) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	return min(max(float64(p.Current)/float64(p.Total), 0), 1)
}

// View renders the bar.
func (p ProgressBar) View() string {
	counter := fmt.Sprintf("  %d/%d", p.Current, p.Total)
	barWidth := max(p.Width-lipgloss.Width(counter), 4)

	filled := int(float64(barWidth) * p.Percent())
	bar := lipgloss.NewStyle().Foreground(theme.Secondary).Render(strings.Repeat("━", filled)) +
		lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("━", barWidth-filled))

	return bar + theme.Hint.Render(counter)
}

// Stars renders n filled out of total stars.
func Stars(n, total int) string {
	n = min(max(n, 0), total)
	return theme.Star.Render(strings.Repeat("★", n)) +
		theme.Locked.Render(strings.Repeat("☆", total-n))
}

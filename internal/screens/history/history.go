// Package history shows what was studied on this machine: recent lesson
// runs, answer accuracy per lesson and the sentences missed most often.
package history

import (
	"context"
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lingo/internal/router"
	"github.com/abhisek/lingo/internal/screen"
	"github.com/abhisek/lingo/internal/store"
	"github.com/abhisek/lingo/internal/ui/layout"
	"github.com/abhisek/lingo/internal/ui/theme"
)

// Source is the part of the local store the screen reads.
type Source interface {
	RecentRuns(ctx context.Context, opts store.QueryOpts) ([]store.LessonRun, error)
	AnswerStatsByLesson(ctx context.Context, opts store.QueryOpts) ([]store.AnswerStats, error)
	MistakeSummary(ctx context.Context, opts store.QueryOpts) ([]store.Mistake, error)
}

type tab int

const (
	tabRuns tab = iota
	tabLessons
	tabMistakes
	tabCount
)

func (t tab) String() string {
	switch t {
	case tabRuns:
		return "Runs"
	case tabLessons:
		return "Lessons"
	case tabMistakes:
		return "Mistakes"
	}
	return ""
}

type historyLoadedMsg struct {
	Runs     []store.LessonRun
	Stats    []store.AnswerStats
	Mistakes []store.Mistake
	Err      error
}

// HistoryScreen displays local study history.
type HistoryScreen struct {
	source   Source
	tab      tab
	runs     []store.LessonRun
	stats    []store.AnswerStats
	mistakes []store.Mistake
	selected int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(source Source) *HistoryScreen {
	return &HistoryScreen{
		source:   source,
		expanded: make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()

		runs, err := s.source.RecentRuns(ctx, store.QueryOpts{Limit: 50})
		if err != nil {
			return historyLoadedMsg{Err: err}
		}
		stats, err := s.source.AnswerStatsByLesson(ctx, store.QueryOpts{})
		if err != nil {
			return historyLoadedMsg{Err: err}
		}
		mistakes, err := s.source.MistakeSummary(ctx, store.QueryOpts{Limit: 20})
		if err != nil {
			return historyLoadedMsg{Err: err}
		}
		return historyLoadedMsg{Runs: runs, Stats: stats, Mistakes: mistakes}
	}
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "Tab", Description: "Switch view"},
		{Key: "↑↓", Description: "Navigate"},
	}
	if s.tab == tabMistakes {
		hints = append(hints, layout.KeyHint{Key: "Enter", Description: "Details"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
}

func (s *HistoryScreen) rows() int {
	switch s.tab {
	case tabRuns:
		return len(s.runs)
	case tabLessons:
		return len(s.stats)
	default:
		return len(s.mistakes)
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.runs = msg.Runs
			s.stats = msg.Stats
			s.mistakes = msg.Mistakes
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "tab", "right":
			s.switchTab((s.tab + 1) % tabCount)
		case "shift+tab", "left":
			s.switchTab((s.tab + tabCount - 1) % tabCount)
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < s.rows()-1 {
				s.selected++
			}
		case "enter":
			if s.tab == tabMistakes {
				s.expanded[s.selected] = !s.expanded[s.selected]
			}
		}
	}
	return s, nil
}

func (s *HistoryScreen) switchTab(t tab) {
	s.tab = t
	s.selected = 0
	clear(s.expanded)
}

func (s *HistoryScreen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	if s.errMsg != "" {
		return center.Foreground(theme.Error).Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return center.Foreground(theme.TextDim).Render("\n\n  Loading history...")
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, s.renderTabs()))
	b.WriteString("\n\n")

	if s.rows() == 0 {
		b.WriteString(center.Foreground(theme.TextDim).Italic(true).Render(s.emptyText()))
		return b.String()
	}

	var lines []string
	switch s.tab {
	case tabRuns:
		lines = s.runLines()
	case tabLessons:
		lines = s.statLines()
	case tabMistakes:
		lines = s.mistakeLines()
	}
	for _, line := range lines {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, line))
		b.WriteString("\n")
	}
	return b.String()
}

func (s *HistoryScreen) renderTabs() string {
	parts := make([]string, tabCount)
	for t := range tabCount {
		style := theme.Unselected
		if t == s.tab {
			style = theme.Selected.Underline(true)
		}
		parts[t] = style.Render(t.String())
	}
	return strings.Join(parts, "   ")
}

func (s *HistoryScreen) emptyText() string {
	switch s.tab {
	case tabRuns:
		return "No lessons yet. Start practicing!"
	case tabLessons:
		return "No answers recorded yet."
	default:
		return "No mistakes. Nice!"
	}
}

func (s *HistoryScreen) row(i int, line string) string {
	prefix := "  "
	style := lipgloss.NewStyle().Foreground(theme.Text)
	if i == s.selected {
		prefix = "> "
		style = style.Foreground(theme.Primary).Bold(true)
	}
	return style.Render(prefix + line)
}

func (s *HistoryScreen) runLines() []string {
	lines := make([]string, len(s.runs))
	for i, run := range s.runs {
		date := run.StartedAt.Format("Jan 02, 2006 15:04")
		duration := "  -  "
		outcome := "in progress"
		if run.Finished() {
			secs := int(run.FinishedAt.Sub(run.StartedAt).Seconds())
			duration = fmt.Sprintf("%d:%02d", secs/60, secs%60)
			outcome = run.Outcome
		}
		line := fmt.Sprintf("%s  Lesson %-4d %6s  ", date, run.LessonID, duration)
		lines[i] = s.row(i, line) + lipgloss.NewStyle().Foreground(outcomeColor(outcome)).Render(outcome)
	}
	return lines
}

func outcomeColor(outcome string) color.Color {
	switch outcome {
	case "lesson-complete":
		return theme.Success
	case "mistakes-remain", "abandoned":
		return theme.Warning
	case "access-denied", "save-failed", "load-failed", "auth-required":
		return theme.Error
	default:
		return theme.TextDim
	}
}

func (s *HistoryScreen) statLines() []string {
	lines := make([]string, len(s.stats))
	for i, st := range s.stats {
		lines[i] = s.row(i, fmt.Sprintf("Lesson %-4d %4d answers  %3d sentences  %3.0f%% accuracy",
			st.LessonID, st.Attempts, st.Sentences, st.Accuracy*100))
	}
	return lines
}

func (s *HistoryScreen) mistakeLines() []string {
	var lines []string
	for i, m := range s.mistakes {
		times := "time"
		if m.Wrong > 1 {
			times = "times"
		}
		lines = append(lines, s.row(i, fmt.Sprintf("%-40s  missed %d %s",
			layout.Truncate(m.Prompt, 40), m.Wrong, times)))
		if s.expanded[i] {
			lines = append(lines,
				theme.Correct.Render("    Correct: "+m.Expected),
				theme.Incorrect.Render("    Last try: "+m.LastGiven))
		}
	}
	return lines
}

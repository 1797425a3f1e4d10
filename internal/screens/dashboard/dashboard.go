// Package dashboard is the start screen: course levels on the left, the
// lessons of the selected level on the right.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/lingo/internal/api"
	"github.com/abhisek/lingo/internal/lesson"
	"github.com/abhisek/lingo/internal/router"
	"github.com/abhisek/lingo/internal/screen"
	"github.com/abhisek/lingo/internal/ui/components"
	"github.com/abhisek/lingo/internal/ui/layout"
	"github.com/abhisek/lingo/internal/ui/theme"
)

// Catalog lists the course. api.Client implements it.
type Catalog interface {
	Overview(ctx context.Context) (lesson.Overview, error)
	Lessons(ctx context.Context, levelID int) ([]lesson.Lesson, error)
}

// Options wires the dashboard.
type Options struct {
	Catalog     Catalog
	Policy      lesson.AccessPolicy
	OpenLesson  func(lesson.Lesson) screen.Screen
	OpenHistory func() screen.Screen // optional
}

const upsellText = "This lesson is part of the full course. " +
	"The first lessons of every level and the whole A0 level are free."

type overviewMsg struct {
	overview lesson.Overview
	err      error
}

type lessonsMsg struct {
	levelID int
	lessons []lesson.Lesson
	err     error
}

type focus int

const (
	focusLevels focus = iota
	focusLessons
)

// Screen is the dashboard.
type Screen struct {
	opts Options

	overview   lesson.Overview
	levelMenu  components.Menu
	lessons    []lesson.Lesson
	lessonMenu components.Menu
	levelID    int
	focus      focus

	loaded bool
	errMsg string
	upsell bool
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.Resumer = (*Screen)(nil)

// New creates the dashboard. The course is fetched by Init.
func New(opts Options) *Screen {
	return &Screen{opts: opts}
}

func (s *Screen) Init() tea.Cmd {
	return s.loadOverview()
}

// Resume reloads progress after a lesson screen closes.
func (s *Screen) Resume() tea.Cmd {
	cmds := []tea.Cmd{s.loadOverview()}
	if s.levelID != 0 {
		cmds = append(cmds, s.loadLessons(s.levelID))
	}
	return tea.Batch(cmds...)
}

func (s *Screen) Title() string {
	return "Lessons"
}

func (s *Screen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{{Key: "↑↓", Description: "Move"}}
	if s.focus == focusLevels {
		hints = append(hints, layout.KeyHint{Key: "Enter/→", Description: "Open level"})
	} else {
		hints = append(hints,
			layout.KeyHint{Key: "Enter", Description: "Start lesson"},
			layout.KeyHint{Key: "←", Description: "Levels"})
	}
	if s.opts.OpenHistory != nil {
		hints = append(hints, layout.KeyHint{Key: "H", Description: "History"})
	}
	return append(hints, layout.KeyHint{Key: "Q", Description: "Quit"})
}

func (s *Screen) loadOverview() tea.Cmd {
	catalog := s.opts.Catalog
	return func() tea.Msg {
		ov, err := catalog.Overview(context.Background())
		return overviewMsg{overview: ov, err: err}
	}
}

func (s *Screen) loadLessons(levelID int) tea.Cmd {
	catalog := s.opts.Catalog
	return func() tea.Msg {
		lessons, err := catalog.Lessons(context.Background(), levelID)
		return lessonsMsg{levelID: levelID, lessons: lessons, err: err}
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case overviewMsg:
		return s, s.handleOverview(msg)
	case lessonsMsg:
		return s, s.handleLessons(msg)
	case tea.KeyMsg:
		return s, s.handleKey(msg)
	}
	return s, nil
}

func (s *Screen) handleOverview(msg overviewMsg) tea.Cmd {
	s.loaded = true
	if msg.err != nil {
		return s.fail(msg.err)
	}
	s.errMsg = ""
	s.overview = msg.overview

	items := make([]components.MenuItem, len(msg.overview.Levels))
	for i, lvl := range msg.overview.Levels {
		items[i] = components.MenuItem{Label: lvl.Title}
	}
	selected := s.levelMenu.Selected
	s.levelMenu = components.NewMenu(items)
	s.levelMenu.Selected = min(selected, max(len(items)-1, 0))

	if s.levelID == 0 && len(items) > 0 {
		s.levelID = msg.overview.Levels[0].ID
		return s.loadLessons(s.levelID)
	}
	return nil
}

func (s *Screen) handleLessons(msg lessonsMsg) tea.Cmd {
	if msg.levelID != s.levelID {
		return nil
	}
	if msg.err != nil {
		return s.fail(msg.err)
	}
	s.lessons = msg.lessons
	level, _ := s.currentLevel()

	items := make([]components.MenuItem, len(msg.lessons))
	for i, l := range msg.lessons {
		items[i] = components.MenuItem{
			Label:  fmt.Sprintf("%2d. %s", l.Number, layout.Truncate(l.Title, 28)),
			Detail: lessonDetail(l),
			Locked: !s.opts.Policy.Allows(level, l),
		}
	}
	selected := s.lessonMenu.Selected
	s.lessonMenu = components.NewMenu(items)
	s.lessonMenu.Selected = min(selected, max(len(items)-1, 0))
	return nil
}

func lessonDetail(l lesson.Lesson) string {
	if l.Complete() {
		return components.Stars(l.Stars(), 3) + "  " + l.ActionLabel()
	}
	return fmt.Sprintf("%3.0f%%  %s", l.Percent()*100, l.ActionLabel())
}

func (s *Screen) fail(err error) tea.Cmd {
	if errors.Is(err, api.ErrUnauthorized) {
		return func() tea.Msg { return screen.AuthRequiredMsg{} }
	}
	s.errMsg = err.Error()
	return nil
}

func (s *Screen) currentLevel() (lesson.Level, bool) {
	for _, lvl := range s.overview.Levels {
		if lvl.ID == s.levelID {
			return lvl, true
		}
	}
	return lesson.Level{}, false
}

func (s *Screen) handleKey(msg tea.KeyMsg) tea.Cmd {
	key := msg.String()
	s.upsell = false

	switch key {
	case "q":
		return tea.Quit
	case "r":
		return s.Resume()
	case "h", "H":
		if s.opts.OpenHistory != nil {
			next := s.opts.OpenHistory()
			return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
		}
		return nil
	}

	if s.focus == focusLevels {
		switch key {
		case "enter", "right", "l":
			s.focus = focusLessons
			return nil
		}
		var cmd tea.Cmd
		s.levelMenu, cmd = s.levelMenu.Update(msg)
		if s.levelMenu.Selected < len(s.overview.Levels) {
			if id := s.overview.Levels[s.levelMenu.Selected].ID; id != s.levelID {
				s.levelID = id
				s.lessons = nil
				s.lessonMenu = components.Menu{}
				return tea.Batch(cmd, s.loadLessons(id))
			}
		}
		return cmd
	}

	switch key {
	case "left", "backspace":
		s.focus = focusLevels
		return nil
	case "enter":
		return s.open()
	}
	var cmd tea.Cmd
	s.lessonMenu, cmd = s.lessonMenu.Update(msg)
	return cmd
}

func (s *Screen) open() tea.Cmd {
	i := s.lessonMenu.Selected
	if i < 0 || i >= len(s.lessons) || s.opts.OpenLesson == nil {
		return nil
	}
	if s.lessonMenu.Items[i].Locked {
		s.upsell = true
		return nil
	}
	next := s.opts.OpenLesson(s.lessons[i])
	return func() tea.Msg { return router.PushScreenMsg{Screen: next} }
}

func (s *Screen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)
	switch {
	case s.errMsg != "":
		return center.Foreground(theme.Error).Render("\n\nError: " + s.errMsg + "\n\nPress R to retry")
	case !s.loaded:
		return center.Foreground(theme.TextDim).Render("\n\nLoading course…")
	case len(s.overview.Levels) == 0:
		return center.Foreground(theme.TextDim).Italic(true).Render("\n\nThe course is empty.")
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(center.Render(s.renderStats()))
	b.WriteString("\n\n")

	levels := theme.Card.Render(theme.Title.Render("Levels") + "\n\n" + strings.TrimRight(s.levelMenu.View(), "\n"))
	lessonsBody := theme.Hint.Render("Loading…")
	if s.lessons != nil {
		lessonsBody = strings.TrimRight(s.lessonMenu.View(), "\n")
		if len(s.lessons) == 0 {
			lessonsBody = theme.Hint.Render("No lessons yet.")
		}
	}
	lessons := theme.Card.Render(theme.Title.Render("Lessons") + "\n\n" + lessonsBody)

	var columns string
	switch {
	case !layout.IsCompactWidth(width):
		columns = lipgloss.JoinHorizontal(lipgloss.Top, levels, "  ", lessons)
	case s.focus == focusLevels:
		columns = levels
	default:
		columns = lessons
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, columns))

	if s.upsell {
		b.WriteString("\n\n")
		b.WriteString(center.Render(theme.Notice.Render(upsellText)))
	}
	return b.String()
}

func (s *Screen) renderStats() string {
	ov := s.overview
	parts := []string{
		fmt.Sprintf("Lessons %d/%d", ov.CompletedLessons, ov.TotalLessons),
		components.Stars(min(ov.EarnedStars, 1), 1) + fmt.Sprintf(" %d/%d", ov.EarnedStars, ov.TotalStars),
		fmt.Sprintf("Accuracy %.0f%%", ov.Accuracy),
		fmt.Sprintf("Study time %.1f h", ov.StudyTimeHours),
	}
	return theme.Body.Render(strings.Join(parts, "   ·   "))
}

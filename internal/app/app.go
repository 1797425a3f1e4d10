// Package app is the root Bubble Tea model: a screen stack framed by a
// header and a footer of key hints.
package app

import (
	"errors"
	"fmt"
	"os"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/abhisek/lingo/internal/lesson"
	"github.com/abhisek/lingo/internal/router"
	"github.com/abhisek/lingo/internal/screen"
	"github.com/abhisek/lingo/internal/screens/dashboard"
	"github.com/abhisek/lingo/internal/screens/history"
	"github.com/abhisek/lingo/internal/screens/trainer"
	"github.com/abhisek/lingo/internal/ui/layout"
)

// ErrAuthRequired is returned by Run when the server rejected the stored
// token. The credentials have already been cleared by then.
var ErrAuthRequired = errors.New("session expired, please log in again")

// Options wires the TUI to its collaborators.
type Options struct {
	Catalog  dashboard.Catalog
	Policy   lesson.AccessPolicy
	Trainer  trainer.Services
	History  history.Source // optional
	Account  string         // shown in the header
	Logout   func() error   // clears stored credentials on AuthRequired
	LessonID int            // opens this lesson directly when non-zero
	Logger   *zap.Logger
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router       *router.Router
	opts         Options
	width        int
	height       int
	authRequired bool
}

// newAppModel creates an AppModel with the dashboard at the bottom of the stack.
func newAppModel(opts Options) AppModel {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Trainer.Logger == nil {
		opts.Trainer.Logger = opts.Logger
	}
	m := AppModel{opts: opts}

	dopts := dashboard.Options{
		Catalog:    opts.Catalog,
		Policy:     opts.Policy,
		OpenLesson: m.openLesson,
	}
	if opts.History != nil {
		src := opts.History
		dopts.OpenHistory = func() screen.Screen { return history.New(src) }
	}
	m.router = router.New(dashboard.New(dopts))
	return m
}

func (m AppModel) openLesson(l lesson.Lesson) screen.Screen {
	return trainer.New(l, m.opts.Trainer)
}

func (m AppModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.router.Active().Init()}
	if m.opts.LessonID != 0 {
		next := m.openLesson(lesson.Lesson{ID: m.opts.LessonID, Title: fmt.Sprintf("Lesson #%d", m.opts.LessonID)})
		cmds = append(cmds, func() tea.Msg { return router.PushScreenMsg{Screen: next} })
	}
	return tea.Batch(cmds...)
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case screen.AuthRequiredMsg:
		if m.authRequired {
			return m, nil
		}
		m.authRequired = true
		m.opts.Logger.Warn("server rejected the stored token")
		if m.opts.Logout != nil {
			if err := m.opts.Logout(); err != nil {
				m.opts.Logger.Warn("clear credentials", zap.Error(err))
			}
		}
		return m, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

// render draws the full frame for the current window size.
func (m AppModel) render() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.opts.Account, m.width)
	footer := layout.RenderFooter(m.footerHints(active), m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(m.height-headerHeight-footerHeight, 0)

	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

func (m AppModel) footerHints(active screen.Screen) []layout.KeyHint {
	if p, ok := active.(screen.KeyHintProvider); ok {
		return p.KeyHints()
	}
	if m.router.Depth() > 1 {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "Ctrl+C", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	m := newAppModel(opts)
	p := tea.NewProgram(m)
	final, err := p.Run()
	m.router.CloseAll()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	if fm, ok := final.(AppModel); ok && fm.authRequired {
		return ErrAuthRequired
	}
	return nil
}

// Package trainer is the lesson screen: it shows one sentence at a time,
// checks the typed translation and moves through the lesson.
package trainer

import (
	"context"
	"fmt"
	"sync"

	tea "charm.land/bubbletea/v2"
	"go.uber.org/zap"

	"github.com/abhisek/lingo/internal/explain"
	"github.com/abhisek/lingo/internal/lesson"
	"github.com/abhisek/lingo/internal/router"
	"github.com/abhisek/lingo/internal/screen"
	"github.com/abhisek/lingo/internal/session"
	"github.com/abhisek/lingo/internal/ui/components"
	"github.com/abhisek/lingo/internal/ui/layout"
)

// Services are the collaborators of a lesson run.
type Services struct {
	Loader    session.Loader
	Recorder  session.Recorder
	Explainer session.Dispatcher // nil turns explanations off
	Runs      session.RunJournal // optional
	Logger    *zap.Logger
}

// Screen runs one lesson.
type Screen struct {
	lesson lesson.Lesson
	ctrl   *session.Controller

	events    chan tea.Msg
	done      chan struct{}
	closeOnce sync.Once

	view   session.View
	input  components.TextInput
	busy   bool
	toast  string
	final  *session.Notice
	errMsg string
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.Closer = (*Screen)(nil)

// New creates the screen for l. The lesson is loaded by Init.
func New(l lesson.Lesson, svc Services) *Screen {
	s := &Screen{
		lesson: l,
		events: make(chan tea.Msg, 64),
		done:   make(chan struct{}),
		input:  newInput(),
	}

	opts := []session.ControllerOption{
		session.WithLogger(svc.Logger),
		session.WithHooks(session.Hooks{
			OnNotice: func(n session.Notice) { s.post(noticeMsg{notice: n}) },
			OnExplanation: func(seq uint64, r explain.Result) {
				s.post(explanationMsg{seq: seq, result: r})
			},
		}),
	}
	if svc.Runs != nil {
		opts = append(opts, session.WithRunJournal(svc.Runs))
	}
	s.ctrl = session.NewController(svc.Loader, svc.Recorder, svc.Explainer, opts...)
	return s
}

func newInput() components.TextInput {
	return components.NewTextInput("Type the English translation…", 200)
}

func (s *Screen) Init() tea.Cmd {
	s.busy = true
	id := s.lesson.ID
	return tea.Batch(
		func() tea.Msg {
			s.ctrl.StartLesson(context.Background(), id)
			return syncMsg{}
		},
		s.listen(),
		s.input.Init(),
	)
}

func (s *Screen) Title() string {
	if s.lesson.Number > 0 {
		return fmt.Sprintf("Lesson %d · %s", s.lesson.Number, s.lesson.Title)
	}
	return s.lesson.Title
}

// Close abandons the lesson and stops the event listener.
func (s *Screen) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.ctrl.Exit(context.Background())
	})
}

// post delivers a background event to the screen. Events arriving after
// Close, or when the buffer is full, are dropped.
func (s *Screen) post(msg tea.Msg) {
	select {
	case <-s.done:
	case s.events <- msg:
	default:
	}
}

func (s *Screen) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-s.events:
			return msg
		case <-s.done:
			return nil
		}
	}
}

func (s *Screen) KeyHints() []layout.KeyHint {
	switch {
	case s.final != nil:
		return []layout.KeyHint{{Key: "Enter", Description: "Back to lessons"}}
	case s.view.Phase == session.PhaseAwaitingReplay:
		return []layout.KeyHint{
			{Key: "Y", Description: "Go again"},
			{Key: "N", Description: "Back"},
		}
	case s.view.CanCheck:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Check"},
			{Key: "Esc", Description: "Leave lesson"},
		}
	case s.view.CanNext:
		return []layout.KeyHint{
			{Key: "Enter", Description: "Next"},
			{Key: "Esc", Description: "Leave lesson"},
		}
	default:
		return []layout.KeyHint{{Key: "Esc", Description: "Back"}}
	}
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case syncMsg:
		s.busy = false
		s.sync()
		return s, nil

	case checkedMsg:
		s.busy = false
		if msg.err != nil {
			s.errMsg = msg.err.Error()
		} else {
			s.input.MarkChecked(msg.res.Correct)
		}
		s.sync()
		return s, nil

	case noticeMsg:
		return s, tea.Batch(s.handleNotice(msg.notice), s.listen())

	case explanationMsg:
		s.sync()
		return s, s.listen()

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	if s.view.InputEnabled && !s.busy {
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *Screen) sync() {
	s.view = s.ctrl.View()
}

func (s *Screen) handleNotice(n session.Notice) tea.Cmd {
	s.sync()
	if !n.Blocking() {
		s.toast = n.Message()
		return nil
	}
	s.final = &n
	if n.Kind == session.NoticeAuthRequired {
		return func() tea.Msg { return screen.AuthRequiredMsg{} }
	}
	return nil
}

func (s *Screen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.final != nil || s.errMsg != "" {
		if key == "enter" || key == "q" {
			return s, pop
		}
		return s, nil
	}
	if s.busy {
		return s, nil
	}

	switch s.view.Phase {
	case session.PhaseAwaitingReplay:
		switch key {
		case "y", "Y", "enter":
			return s, s.run(func(ctx context.Context) { _ = s.ctrl.ConfirmReplay(ctx, true) })
		case "n", "N":
			_ = s.ctrl.ConfirmReplay(context.Background(), false)
			return s, pop
		}
		return s, nil

	case session.PhasePresenting:
		if key == "enter" {
			return s, s.check()
		}
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return s, cmd

	case session.PhaseChecked:
		if key == "enter" {
			s.toast = ""
			s.input = newInput()
			return s, s.run(func(ctx context.Context) {
				_, _ = s.ctrl.NextSentence(ctx)
			})
		}
	}
	return s, nil
}

func (s *Screen) check() tea.Cmd {
	raw := s.input.Value()
	s.busy = true
	return func() tea.Msg {
		res, err := s.ctrl.CheckAnswer(context.Background(), raw)
		return checkedMsg{res: res, err: err}
	}
}

// run executes a controller call off the UI goroutine.
func (s *Screen) run(fn func(ctx context.Context)) tea.Cmd {
	s.busy = true
	return func() tea.Msg {
		fn(context.Background())
		return syncMsg{}
	}
}

func pop() tea.Msg {
	return router.PopScreenMsg{}
}

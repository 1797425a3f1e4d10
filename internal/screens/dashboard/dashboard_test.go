package dashboard

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/lingo/internal/api"
	"github.com/abhisek/lingo/internal/lesson"
	"github.com/abhisek/lingo/internal/router"
	"github.com/abhisek/lingo/internal/screen"
)

type stubCatalog struct {
	overview lesson.Overview
	lessons  map[int][]lesson.Lesson
	err      error
	calls    int
}

func (c *stubCatalog) Overview(context.Context) (lesson.Overview, error) {
	c.calls++
	return c.overview, c.err
}

func (c *stubCatalog) Lessons(_ context.Context, levelID int) ([]lesson.Lesson, error) {
	return c.lessons[levelID], c.err
}

func course() *stubCatalog {
	a1 := make([]lesson.Lesson, 7)
	for i := range a1 {
		a1[i] = lesson.Lesson{ID: 100 + i, LevelID: 2, Number: i + 1, Title: fmt.Sprintf("Topic %d", i+1), TotalSentences: 10}
	}
	a1[0].CompletedSentences = 10
	return &stubCatalog{
		overview: lesson.Overview{
			Levels: []lesson.Level{
				{ID: 1, Code: "A0", Title: "A0 Starter"},
				{ID: 2, Code: "A1", Title: "A1 Beginner"},
			},
			CompletedLessons: 1,
			TotalLessons:     9,
			Accuracy:         87.5,
			EarnedStars:      3,
			TotalStars:       27,
		},
		lessons: map[int][]lesson.Lesson{
			1: {{ID: 1, LevelID: 1, Number: 1, Title: "Greetings", TotalSentences: 5, CompletedSentences: 2}},
			2: a1,
		},
	}
}

type stubScreen struct{ title string }

func (s stubScreen) Init() tea.Cmd                           { return nil }
func (s stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s stubScreen) View(int, int) string                    { return s.title }
func (s stubScreen) Title() string                           { return s.title }

func key(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func special(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

// feed runs cmd and feeds every resulting message back into the screen.
func feed(t *testing.T, s *Screen, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	var out []tea.Msg
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := c()
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		switch msg.(type) {
		case overviewMsg, lessonsMsg:
			_, next := s.Update(msg)
			queue = append(queue, next)
		default:
			out = append(out, msg)
		}
	}
	return out
}

func press(t *testing.T, s *Screen, msg tea.KeyPressMsg) []tea.Msg {
	t.Helper()
	_, cmd := s.Update(msg)
	return feed(t, s, cmd)
}

func newScreen(t *testing.T, cat Catalog, opened *[]lesson.Lesson) *Screen {
	t.Helper()
	s := New(Options{
		Catalog: cat,
		Policy:  lesson.DefaultAccessPolicy(),
		OpenLesson: func(l lesson.Lesson) screen.Screen {
			*opened = append(*opened, l)
			return stubScreen{title: l.Title}
		},
		OpenHistory: func() screen.Screen { return stubScreen{title: "History"} },
	})
	feed(t, s, s.Init())
	return s
}

func TestLoadsFirstLevel(t *testing.T) {
	var opened []lesson.Lesson
	s := newScreen(t, course(), &opened)

	view := s.View(120, 40)
	for _, want := range []string{"A0 Starter", "A1 Beginner", "Greetings", "Lessons 1/9", "Accuracy 88%", "Continue"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestOpenLessonPushesScreen(t *testing.T) {
	var opened []lesson.Lesson
	s := newScreen(t, course(), &opened)

	press(t, s, special(tea.KeyEnter)) // focus lessons
	msgs := press(t, s, special(tea.KeyEnter))

	if len(opened) != 1 || opened[0].Title != "Greetings" {
		t.Fatalf("opened = %+v", opened)
	}
	if len(msgs) != 1 {
		t.Fatalf("msgs = %#v", msgs)
	}
	push, ok := msgs[0].(router.PushScreenMsg)
	if !ok || push.Screen.Title() != "Greetings" {
		t.Errorf("msg = %#v, want push of Greetings", msgs[0])
	}
}

func TestLockedLessonShowsUpsell(t *testing.T) {
	var opened []lesson.Lesson
	s := newScreen(t, course(), &opened)

	press(t, s, special(tea.KeyDown)) // A1
	if s.levelID != 2 || len(s.lessons) != 7 {
		t.Fatalf("level = %d lessons = %d", s.levelID, len(s.lessons))
	}
	press(t, s, special(tea.KeyRight))
	press(t, s, special(tea.KeyEnd)) // lesson 7, past the free five
	msgs := press(t, s, special(tea.KeyEnter))

	if len(opened) != 0 || len(msgs) != 0 {
		t.Fatalf("locked lesson opened: %+v %#v", opened, msgs)
	}
	if !strings.Contains(s.View(120, 40), "full course") {
		t.Error("expected upsell text")
	}
}

func TestCompletedLessonShowsRepeat(t *testing.T) {
	var opened []lesson.Lesson
	s := newScreen(t, course(), &opened)
	press(t, s, special(tea.KeyDown))

	if !strings.Contains(s.View(120, 40), "Repeat") {
		t.Error("completed lesson should offer Repeat")
	}
}

func TestUnauthorizedRequestsLogin(t *testing.T) {
	cat := course()
	cat.err = fmt.Errorf("overview: %w", api.ErrUnauthorized)
	s := New(Options{Catalog: cat, Policy: lesson.DefaultAccessPolicy()})

	msgs := feed(t, s, s.Init())
	if len(msgs) != 1 {
		t.Fatalf("msgs = %#v", msgs)
	}
	if _, ok := msgs[0].(screen.AuthRequiredMsg); !ok {
		t.Errorf("msg = %#v, want AuthRequiredMsg", msgs[0])
	}
}

func TestErrorAndRetry(t *testing.T) {
	cat := course()
	cat.err = fmt.Errorf("server down")
	s := New(Options{Catalog: cat, Policy: lesson.DefaultAccessPolicy()})
	feed(t, s, s.Init())

	if !strings.Contains(s.View(100, 30), "server down") {
		t.Fatalf("view should show error:\n%s", s.View(100, 30))
	}

	cat.err = nil
	press(t, s, key('r'))
	if strings.Contains(s.View(100, 30), "server down") {
		t.Error("error should clear after retry")
	}
	if len(s.lessons) != 1 {
		t.Errorf("lessons = %d, want 1", len(s.lessons))
	}
}

func TestResumeReloads(t *testing.T) {
	cat := course()
	var opened []lesson.Lesson
	s := newScreen(t, cat, &opened)
	before := cat.calls

	feed(t, s, s.Resume())
	if cat.calls != before+1 {
		t.Errorf("overview calls = %d, want %d", cat.calls, before+1)
	}
}

func TestHistoryKey(t *testing.T) {
	var opened []lesson.Lesson
	s := newScreen(t, course(), &opened)

	msgs := press(t, s, key('h'))
	if len(msgs) != 1 {
		t.Fatalf("msgs = %#v", msgs)
	}
	if push, ok := msgs[0].(router.PushScreenMsg); !ok || push.Screen.Title() != "History" {
		t.Errorf("msg = %#v", msgs[0])
	}
}

func TestStaleLessonsIgnored(t *testing.T) {
	var opened []lesson.Lesson
	s := newScreen(t, course(), &opened)

	s.Update(lessonsMsg{levelID: 2, lessons: []lesson.Lesson{{ID: 9}}})
	if len(s.lessons) != 1 || s.lessons[0].Title != "Greetings" {
		t.Errorf("stale response replaced lessons: %+v", s.lessons)
	}
}

package session

import (
	"github.com/abhisek/lingo/internal/explain"
	"github.com/abhisek/lingo/internal/lesson"
	"github.com/abhisek/lingo/internal/mastery"
)

// Screen is the coarse screen the driver should show.
type Screen int

const (
	ScreenIdle Screen = iota
	ScreenPresenting
	ScreenCompleting
)

func (s Screen) String() string {
	switch s {
	case ScreenPresenting:
		return "presenting"
	case ScreenCompleting:
		return "completing"
	default:
		return "idle"
	}
}

// Progress is the "current/total" indicator. Current is 1-based.
type Progress struct {
	Current int
	Total   int
}

// View is a read-only snapshot of the session for rendering.
type View struct {
	Screen       Screen
	Phase        Phase
	LessonID     int
	RunID        string
	Sentence     *lesson.Sentence
	Status       mastery.Status
	Progress     Progress
	Replay       bool
	InputEnabled bool
	CanCheck     bool
	CanNext      bool
	LastCheck    *CheckResult
	Explanation  explain.Result
}

// View returns a snapshot of the current state.
func (s *State) View() View {
	v := View{
		Phase:       s.Phase,
		LessonID:    s.LessonID,
		RunID:       s.RunID,
		Replay:      s.Replay,
		Explanation: s.Explanation,
	}

	switch s.Phase {
	case PhasePresenting, PhaseChecked:
		v.Screen = ScreenPresenting
	case PhaseCompleting:
		v.Screen = ScreenCompleting
	default:
		v.Screen = ScreenIdle
	}

	if s.Cursor >= 0 && s.Cursor < len(s.Sentences) && v.Screen == ScreenPresenting {
		sn := s.Sentences[s.Cursor]
		v.Sentence = &sn
		v.Status = s.EffectiveStatus(s.Cursor)
		v.Progress = Progress{Current: s.Cursor + 1, Total: len(s.Sentences)}
	} else if len(s.Sentences) > 0 {
		v.Progress = Progress{Current: len(s.Sentences), Total: len(s.Sentences)}
	}

	v.InputEnabled = s.Phase == PhasePresenting
	v.CanCheck = s.Phase == PhasePresenting
	v.CanNext = s.Phase == PhaseChecked
	if s.LastCheck != nil {
		lc := *s.LastCheck
		v.LastCheck = &lc
	}
	return v
}

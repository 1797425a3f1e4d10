package trainer

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/lingo/internal/explain"
	"github.com/abhisek/lingo/internal/session"
	"github.com/abhisek/lingo/internal/ui/components"
	"github.com/abhisek/lingo/internal/ui/theme"
)

func (s *Screen) View(width, height int) string {
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	if s.errMsg != "" {
		return center.Foreground(theme.Error).Render("\n\nError: " + s.errMsg)
	}
	if s.final != nil {
		return s.renderFinal(width)
	}

	switch s.view.Phase {
	case session.PhaseAwaitingReplay:
		return center.Render("\n\n" + theme.Body.Render(
			session.Notice{Kind: session.NoticeReplayConfirm}.Message()) +
			"\n\n" + theme.Hint.Render("y = go again   n = back to lessons"))
	case session.PhasePresenting, session.PhaseChecked:
		return s.renderSentence(width)
	case session.PhaseCompleting:
		return center.Foreground(theme.TextDim).Render("\n\nChecking your progress…")
	default:
		return center.Foreground(theme.TextDim).Render("\n\nLoading lesson…")
	}
}

func (s *Screen) renderFinal(width int) string {
	style := theme.Notice
	if s.final.Kind == session.NoticeLessonComplete {
		style = theme.Correct
	}
	body := style.Render(s.final.Message())
	if s.final.Kind == session.NoticeLessonComplete {
		body += "\n\n" + components.Stars(s.lesson.Stars(), 3)
	}
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Center).
		Render("\n\n" + body + "\n\n" + theme.Hint.Render("Press Enter to return to the lessons"))
}

func (s *Screen) renderSentence(width int) string {
	v := s.view
	if v.Sentence == nil {
		return ""
	}
	inner := max(width-4, 20)
	center := lipgloss.NewStyle().Width(width).Align(lipgloss.Center)

	var b strings.Builder
	bar := components.ProgressBar{Current: v.Progress.Current, Total: v.Progress.Total, Width: inner}
	b.WriteString("  " + bar.View())
	if v.Replay {
		b.WriteString("\n  " + theme.Hint.Render("Replay"))
	}
	b.WriteString("\n\n")

	b.WriteString(center.Render(theme.Prompt.Render(v.Sentence.Prompt)))
	b.WriteString("\n")
	b.WriteString(center.Render(theme.Hint.Render(v.Status.Icon() + " " + v.Status.Label())))
	b.WriteString("\n\n")
	b.WriteString(center.Render(s.input.View()))
	b.WriteString("\n")

	if v.LastCheck != nil && v.Phase == session.PhaseChecked {
		b.WriteString("\n")
		b.WriteString(center.Render(renderVerdict(v)))
		if text := renderExplanation(v.Explanation); text != "" {
			b.WriteString("\n\n")
			b.WriteString(center.Render(theme.Card.Width(min(inner, 70)).Render(text)))
		}
	}

	if s.toast != "" {
		b.WriteString("\n\n")
		b.WriteString(center.Render(theme.Notice.Render(s.toast)))
	}
	return b.String()
}

func renderVerdict(v session.View) string {
	c := v.LastCheck
	var b strings.Builder
	if c.Correct {
		b.WriteString(theme.Correct.Render("Correct!"))
	} else {
		b.WriteString(theme.Incorrect.Render("Not quite."))
		b.WriteString("\n" + theme.Body.Render("Correct answer: "+c.Sentence.Answer))
	}
	if c.Sentence.Transcription != "" {
		b.WriteString("\n" + theme.Hint.Render(c.Sentence.Transcription))
	}
	if c.Sentence.HasAudio() {
		b.WriteString("\n" + theme.Hint.Render("♪ recording available"))
	}
	return b.String()
}

func renderExplanation(r explain.Result) string {
	switch r.State {
	case explain.StatePending:
		return theme.Hint.Render("Asking the tutor why…")
	case explain.StateResolved, explain.StateFailed:
		return theme.Body.Render(r.Text)
	default:
		return ""
	}
}

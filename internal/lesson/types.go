package lesson

import (
	"slices"
	"strings"

	"github.com/abhisek/lingo/internal/mastery"
)

// Sentence is one translation exercise within a lesson.
type Sentence struct {
	ID            int
	LessonID      int
	Prompt        string // source-language text shown to the learner
	Answer        string // canonical target-language answer
	Transcription string
	AudioPath     string // empty when no recording exists
	Status        mastery.Status
	CorrectStreak int
	Order         int
}

// Mastered reports whether the server considers the sentence mastered.
func (s Sentence) Mastered() bool {
	return mastery.IsMastered(s.Status)
}

// HasAudio reports whether a pre-recorded pronunciation exists.
func (s Sentence) HasAudio() bool {
	return s.AudioPath != ""
}

// Level groups lessons by proficiency (A0, A1, ...).
type Level struct {
	ID          int
	Code        string
	Title       string
	Description string
}

// Lesson is an ordered collection of sentences studied as one unit.
type Lesson struct {
	ID                  int
	LevelID             int
	Number              int
	Title               string
	TotalSentences      int
	CompletedSentences  int
	SentencesWithErrors int
}

// Percent returns completion in the range [0, 1].
func (l Lesson) Percent() float64 {
	if l.TotalSentences == 0 {
		return 0
	}
	return float64(l.CompletedSentences) / float64(l.TotalSentences)
}

// Complete reports whether every sentence is mastered.
func (l Lesson) Complete() bool {
	return l.TotalSentences > 0 && l.CompletedSentences >= l.TotalSentences
}

// Stars rates a completed lesson by how many sentences needed another try.
func (l Lesson) Stars() int {
	if !l.Complete() {
		return 0
	}
	switch {
	case l.SentencesWithErrors == 0:
		return 3
	case l.SentencesWithErrors <= 2:
		return 2
	default:
		return 1
	}
}

// ActionLabel is the verb shown on the lesson's start button.
func (l Lesson) ActionLabel() string {
	switch {
	case l.Complete():
		return "Repeat"
	case l.CompletedSentences > 0:
		return "Continue"
	default:
		return "Start"
	}
}

// Overview is the dashboard payload: all levels plus aggregate stats.
type Overview struct {
	Levels           []Level
	CompletedLessons int
	TotalLessons     int
	StudyTimeHours   float64
	Accuracy         float64
	EarnedStars      int
	TotalStars       int
}

// AccessPolicy decides which lessons are open without a premium account.
type AccessPolicy struct {
	FreeLessons int
	FreeLevels  []string
	Premium     bool
}

// DefaultAccessPolicy opens the first five lessons of every level and all of A0.
func DefaultAccessPolicy() AccessPolicy {
	return AccessPolicy{FreeLessons: 5, FreeLevels: []string{"A0"}}
}

// Allows reports whether the lesson can be opened. The server still has the
// final word and may answer with access denied.
func (p AccessPolicy) Allows(level Level, l Lesson) bool {
	if p.Premium || l.Number <= p.FreeLessons {
		return true
	}
	return slices.ContainsFunc(p.FreeLevels, func(code string) bool {
		return strings.EqualFold(code, level.Code)
	})
}

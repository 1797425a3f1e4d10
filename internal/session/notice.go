package session

import "fmt"

// NoticeKind identifies a user-facing notification raised by the session.
type NoticeKind int

const (
	NoticeLessonEmpty NoticeKind = iota + 1
	NoticeReplayConfirm
	NoticeMistakesRemain
	NoticeLessonComplete
	NoticeAccessDenied
	NoticeSaveFailed
	NoticeLoadFailed
	NoticeAuthRequired
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeLessonEmpty:
		return "lesson-empty"
	case NoticeReplayConfirm:
		return "replay-confirm"
	case NoticeMistakesRemain:
		return "mistakes-remain"
	case NoticeLessonComplete:
		return "lesson-complete"
	case NoticeAccessDenied:
		return "access-denied"
	case NoticeSaveFailed:
		return "save-failed"
	case NoticeLoadFailed:
		return "load-failed"
	case NoticeAuthRequired:
		return "auth-required"
	default:
		return fmt.Sprintf("notice(%d)", int(k))
	}
}

// Notice is one notification for the learner.
type Notice struct {
	Kind       NoticeKind
	LessonID   int
	SentenceID int
	Err        error
}

// Message returns the text shown to the learner.
func (n Notice) Message() string {
	switch n.Kind {
	case NoticeLessonEmpty:
		return "This lesson has no sentences yet."
	case NoticeReplayConfirm:
		return "You have already mastered every sentence in this lesson. Go through it again?"
	case NoticeMistakesRemain:
		return "Lesson finished, but some sentences still have mistakes. Let's go over them again."
	case NoticeLessonComplete:
		return "Congratulations! You have mastered every sentence in this lesson."
	case NoticeAccessDenied:
		return "This lesson requires a premium subscription."
	case NoticeSaveFailed:
		return "Your progress could not be saved."
	case NoticeLoadFailed:
		return "The lesson could not be loaded. Please try again."
	case NoticeAuthRequired:
		return "Your session has expired. Please log in again."
	default:
		return ""
	}
}

// Blocking reports whether the notice ends the lesson.
func (n Notice) Blocking() bool {
	switch n.Kind {
	case NoticeSaveFailed, NoticeMistakesRemain, NoticeReplayConfirm:
		return false
	default:
		return true
	}
}

package mastery

// Status represents a sentence's position in the mastery lifecycle.
type Status string

const (
	StatusUnattempted Status = "unattempted"
	StatusLearning    Status = "learning"
	StatusMastered    Status = "mastered"
)

// ParseStatus maps a server status string to a Status. Anything the server
// does not recognise as learning or mastered counts as unattempted.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusLearning:
		return StatusLearning
	case StatusMastered:
		return StatusMastered
	default:
		return StatusUnattempted
	}
}

// IsMastered reports whether s is the mastered state.
func IsMastered(s Status) bool {
	return s == StatusMastered
}

// Label returns a short human-readable label.
func (s Status) Label() string {
	switch s {
	case StatusLearning:
		return "Learning"
	case StatusMastered:
		return "Mastered"
	default:
		return "New"
	}
}

// Icon returns the glyph shown next to a sentence in lists.
func (s Status) Icon() string {
	switch s {
	case StatusLearning:
		return "◐"
	case StatusMastered:
		return "●"
	default:
		return "○"
	}
}

package trainer

import (
	"github.com/abhisek/lingo/internal/explain"
	"github.com/abhisek/lingo/internal/session"
)

// syncMsg follows any controller call; the screen re-reads the view.
type syncMsg struct{}

// checkedMsg carries the result of checking an answer.
type checkedMsg struct {
	res session.CheckResult
	err error
}

// noticeMsg is a session notification delivered through the event channel.
type noticeMsg struct {
	notice session.Notice
}

// explanationMsg is a late explanation delivered through the event channel.
type explanationMsg struct {
	seq    uint64
	result explain.Result
}

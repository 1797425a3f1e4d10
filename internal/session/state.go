package session

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/abhisek/lingo/internal/api"
	"github.com/abhisek/lingo/internal/explain"
	"github.com/abhisek/lingo/internal/lesson"
	"github.com/abhisek/lingo/internal/mastery"
	"github.com/abhisek/lingo/internal/progress"
)

// Phase is the current phase of a lesson session.
type Phase int

const (
	PhaseIdle           Phase = iota // No lesson active (dashboard)
	PhaseLoading                     // Waiting for the lesson's sentences
	PhaseAwaitingReplay              // Everything mastered; waiting for the learner to confirm a replay
	PhasePresenting                  // A sentence is shown and input is enabled
	PhaseChecked                     // The answer was checked; waiting for "next"
	PhaseCompleting                  // Fell off the end; waiting for the authoritative refresh
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseAwaitingReplay:
		return "awaiting-replay"
	case PhasePresenting:
		return "presenting"
	case PhaseChecked:
		return "checked"
	case PhaseCompleting:
		return "completing"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ErrInvalidTransition is returned when an action is not allowed in the
// current phase.
var ErrInvalidTransition = errors.New("invalid session transition")

// FetchKind tells a load apart from a completion refresh.
type FetchKind int

const (
	FetchLoad FetchKind = iota + 1
	FetchRefresh
)

// Ticket tags one outstanding fetch. A response is applied only when it
// carries the ticket the state is still waiting for; anything else is stale.
type Ticket struct {
	LessonID int
	Seq      uint64
	Kind     FetchKind
}

// CheckResult describes a checked answer and the side effects the driver
// must start: always a progress save, and an explanation request when
// Explain is set.
type CheckResult struct {
	Seq      uint64
	RunID    string
	Sentence lesson.Sentence
	Answer   string
	Correct  bool
	Explain  bool
}

// ExplainInput builds the explanation request for this check.
func (c CheckResult) ExplainInput() explain.Input {
	return explain.Input{
		Prompt:  c.Sentence.Prompt,
		Correct: c.Sentence.Answer,
		Answer:  c.Answer,
	}
}

// State is one lesson session. The zero value is not usable; call New.
//
// Sentences is the repository snapshot as of the last load or refresh.
// Optimistic statuses from answers checked in this pass are kept apart in
// local and are never used to decide completion.
type State struct {
	LessonID  int
	RunID     string
	Phase     Phase
	Sentences []lesson.Sentence
	Cursor    int

	// Replay is set while re-running a lesson that was already fully
	// mastered. It only affects display; skip-ahead still applies.
	Replay bool

	LastCheck   *CheckResult
	Explanation explain.Result

	local    map[int]mastery.Status
	notices  []Notice
	seq      uint64
	checkSeq uint64
	pending  Ticket
}

// New returns an idle session.
func New() *State {
	return &State{Phase: PhaseIdle, local: make(map[int]mastery.Status)}
}

// StartLesson restarts the machine for lessonID and returns the ticket the
// caller must attach to the load. Any fetch still in flight becomes stale.
func (s *State) StartLesson(lessonID int) Ticket {
	s.reset()
	s.LessonID = lessonID
	s.RunID = uuid.NewString()
	s.Phase = PhaseLoading
	s.seq++
	s.pending = Ticket{LessonID: lessonID, Seq: s.seq, Kind: FetchLoad}
	return s.pending
}

// Loaded applies the result of the fetch started by StartLesson. It reports
// false and leaves the state untouched when t is stale.
func (s *State) Loaded(t Ticket, sentences []lesson.Sentence, err error) bool {
	if s.Phase != PhaseLoading || t != s.pending || t.Kind != FetchLoad {
		return false
	}
	s.pending = Ticket{}

	if err != nil {
		s.fail(err)
		return true
	}
	if len(sentences) == 0 {
		s.notify(Notice{Kind: NoticeLessonEmpty, LessonID: s.LessonID})
		s.toIdle()
		return true
	}

	s.Sentences = sentences
	if i := progress.FirstUnmastered(sentences); i >= 0 {
		s.Cursor = i
		s.Phase = PhasePresenting
		return true
	}

	s.Phase = PhaseAwaitingReplay
	s.notify(Notice{Kind: NoticeReplayConfirm, LessonID: s.LessonID})
	return true
}

// ConfirmReplay answers the replay question for a fully mastered lesson.
func (s *State) ConfirmReplay(accept bool) error {
	if s.Phase != PhaseAwaitingReplay {
		return fmt.Errorf("confirm replay while %s: %w", s.Phase, ErrInvalidTransition)
	}
	if !accept {
		s.toIdle()
		return nil
	}
	s.Replay = true
	s.Cursor = 0
	s.Phase = PhasePresenting
	return nil
}

// CheckAnswer evaluates raw against the current sentence, annotates the
// sentence locally and moves to Checked.
func (s *State) CheckAnswer(raw string) (CheckResult, error) {
	if s.Phase != PhasePresenting {
		return CheckResult{}, fmt.Errorf("check answer while %s: %w", s.Phase, ErrInvalidTransition)
	}

	sentence := s.Sentences[s.Cursor]
	correct := progress.Evaluate(sentence, raw)
	if correct {
		s.local[sentence.ID] = mastery.StatusMastered
	} else {
		s.local[sentence.ID] = mastery.StatusLearning
	}

	s.checkSeq++
	res := CheckResult{
		Seq:      s.checkSeq,
		RunID:    s.RunID,
		Sentence: sentence,
		Answer:   raw,
		Correct:  correct,
	}
	if !correct {
		in := res.ExplainInput()
		res.Explain = !in.Empty()
	}

	s.LastCheck = &res
	switch {
	case correct:
		s.Explanation = explain.Result{}
	case res.Explain:
		s.Explanation = explain.Result{State: explain.StatePending}
	default:
		s.Explanation = explain.Result{State: explain.StateSkipped}
	}
	s.Phase = PhaseChecked
	return res, nil
}

// ExplanationArrived stores an explanation for the check identified by seq.
// It reports false when the learner has already moved on.
func (s *State) ExplanationArrived(seq uint64, r explain.Result) bool {
	if s.Phase != PhaseChecked || s.LastCheck == nil || s.LastCheck.Seq != seq {
		return false
	}
	s.Explanation = r
	return true
}

// NextSentence advances past the checked sentence and any following
// sentences that were already mastered before this pass. When the cursor
// falls off the end it moves to Completing and returns the refresh ticket
// with needRefresh set.
func (s *State) NextSentence() (t Ticket, needRefresh bool, err error) {
	if s.Phase != PhaseChecked {
		return Ticket{}, false, fmt.Errorf("next sentence while %s: %w", s.Phase, ErrInvalidTransition)
	}

	s.LastCheck = nil
	s.Explanation = explain.Result{}

	s.Cursor++
	for s.Cursor < len(s.Sentences) && s.Sentences[s.Cursor].Mastered() {
		s.Cursor++
	}

	if s.Cursor < len(s.Sentences) {
		s.Phase = PhasePresenting
		return Ticket{}, false, nil
	}

	s.Phase = PhaseCompleting
	s.seq++
	s.pending = Ticket{LessonID: s.LessonID, Seq: s.seq, Kind: FetchRefresh}
	return s.pending, true, nil
}

// Refreshed applies the authoritative list fetched on completion. Only the
// refreshed snapshot decides whether the lesson is done. It reports false
// and changes nothing when t is stale.
func (s *State) Refreshed(t Ticket, sentences []lesson.Sentence, err error) bool {
	if s.Phase != PhaseCompleting || t != s.pending || t.Kind != FetchRefresh {
		return false
	}
	s.pending = Ticket{}

	if err != nil {
		s.fail(err)
		return true
	}

	i := progress.FirstUnmastered(sentences)
	if i < 0 {
		s.notify(Notice{Kind: NoticeLessonComplete, LessonID: s.LessonID})
		s.toIdle()
		return true
	}

	s.notify(Notice{Kind: NoticeMistakesRemain, LessonID: s.LessonID})
	s.Sentences = sentences
	s.Cursor = i
	s.Replay = false
	clear(s.local)
	s.Phase = PhasePresenting
	return true
}

// SaveFailed reports a failed background save. Session flow is not altered
// unless the server rejected the credentials.
// The save may belong to a lesson that is no longer active.
func (s *State) SaveFailed(lessonID, sentenceID int, err error) {
	n := Notice{Kind: NoticeSaveFailed, LessonID: lessonID, SentenceID: sentenceID, Err: err}
	if errors.Is(err, api.ErrUnauthorized) {
		n.Kind = NoticeAuthRequired
		s.notify(n)
		s.toIdle()
		return
	}
	s.notify(n)
}

// Exit abandons the lesson. Outstanding fetches become stale.
func (s *State) Exit() {
	s.toIdle()
}

// EffectiveStatus returns the status of sentence i as the learner sees it:
// the local annotation if one exists, else the snapshot status.
func (s *State) EffectiveStatus(i int) mastery.Status {
	if i < 0 || i >= len(s.Sentences) {
		return mastery.StatusUnattempted
	}
	sn := s.Sentences[i]
	if st, ok := s.local[sn.ID]; ok {
		return st
	}
	return sn.Status
}

// LocalStatus returns the optimistic annotation for a sentence, if any.
func (s *State) LocalStatus(sentenceID int) (mastery.Status, bool) {
	st, ok := s.local[sentenceID]
	return st, ok
}

// TakeNotices returns and clears the notices raised since the last call.
func (s *State) TakeNotices() []Notice {
	n := s.notices
	s.notices = nil
	return n
}

func (s *State) fail(err error) {
	kind := NoticeLoadFailed
	switch {
	case errors.Is(err, api.ErrUnauthorized):
		kind = NoticeAuthRequired
	case errors.Is(err, api.ErrAccessDenied):
		kind = NoticeAccessDenied
	}
	s.notify(Notice{Kind: kind, LessonID: s.LessonID, Err: err})
	s.toIdle()
}

func (s *State) notify(n Notice) {
	s.notices = append(s.notices, n)
}

func (s *State) toIdle() {
	notices := s.notices
	s.reset()
	s.notices = notices
}

// reset clears everything except the sequence counters, so tickets issued
// before the reset can never match again.
func (s *State) reset() {
	s.LessonID = 0
	s.RunID = ""
	s.Phase = PhaseIdle
	s.Sentences = nil
	s.Cursor = 0
	s.Replay = false
	s.LastCheck = nil
	s.Explanation = explain.Result{}
	s.local = make(map[int]mastery.Status)
	s.pending = Ticket{}
}

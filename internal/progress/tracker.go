package progress

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/lingo/internal/lesson"
	"github.com/abhisek/lingo/internal/store"
)

// Saver persists the outcome of a checked answer.
type Saver interface {
	SaveProgress(ctx context.Context, sentenceID int, correct bool) error
}

// Journal keeps a local record of answers for history and stats.
type Journal interface {
	AppendAnswer(ctx context.Context, e store.AnswerEvent) error
}

// Attempt is one checked answer.
type Attempt struct {
	RunID      string
	LessonID   int
	SentenceID int
	Prompt     string
	Expected   string
	Given      string
	Correct    bool
	At         time.Time
}

// DefaultSaveTimeout bounds a single background save.
const DefaultSaveTimeout = 10 * time.Second

// Tracker evaluates answers and records their outcome both locally and on
// the server.
type Tracker struct {
	saver       Saver
	journal     Journal
	logger      *zap.Logger
	saveTimeout time.Duration

	inflight sync.WaitGroup
}

// NewTracker creates a Tracker. journal may be nil.
func NewTracker(saver Saver, journal Journal, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		saver:       saver,
		journal:     journal,
		logger:      logger,
		saveTimeout: DefaultSaveTimeout,
	}
}

// SetSaveTimeout changes the timeout applied to each background save.
func (t *Tracker) SetSaveTimeout(d time.Duration) {
	if d > 0 {
		t.saveTimeout = d
	}
}

var punctuation = strings.NewReplacer(".", "", ",", "", "!", "", "?", "")

// Normalize returns the comparison form of an answer: trimmed, lower-cased,
// with . , ! ? removed.
func Normalize(s string) string {
	return punctuation.Replace(strings.ToLower(strings.TrimSpace(s)))
}

// Evaluate reports whether raw matches the sentence's answer ignoring case,
// surrounding whitespace, and the characters . , ! ?.
func Evaluate(s lesson.Sentence, raw string) bool {
	return Normalize(raw) == Normalize(s.Answer)
}

// FirstUnmastered returns the index of the first sentence that is not
// mastered, or -1 when every sentence is.
func FirstUnmastered(sentences []lesson.Sentence) int {
	for i, s := range sentences {
		if !s.Mastered() {
			return i
		}
	}
	return -1
}

// Save persists an outcome and waits for the result.
func (t *Tracker) Save(ctx context.Context, sentenceID int, correct bool) error {
	err := t.saver.SaveProgress(ctx, sentenceID, correct)
	if err != nil {
		t.logger.Warn("progress save failed",
			zap.Int("sentence_id", sentenceID),
			zap.Bool("correct", correct),
			zap.Error(err))
	}
	return err
}

// SaveAsync persists an outcome in the background. The caller never waits;
// onDone (when non-nil) receives the result, nil on success. Saves are sent
// once and never retried. The save outlives ctx cancellation so that leaving
// a lesson does not drop the last answer.
func (t *Tracker) SaveAsync(ctx context.Context, sentenceID int, correct bool, onDone func(error)) {
	t.inflight.Add(1)
	go func() {
		defer t.inflight.Done()
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.saveTimeout)
		defer cancel()

		err := t.Save(saveCtx, sentenceID, correct)
		if onDone != nil {
			onDone(err)
		}
	}()
}

// Wait blocks until all background saves have finished.
func (t *Tracker) Wait() {
	t.inflight.Wait()
}

// Record appends an attempt to the local journal. Failures are logged only.
func (t *Tracker) Record(ctx context.Context, a Attempt) {
	if t.journal == nil {
		return
	}
	if a.At.IsZero() {
		a.At = time.Now()
	}
	if err := t.journal.AppendAnswer(ctx, a.event()); err != nil {
		t.logger.Warn("journal append failed", zap.Int("sentence_id", a.SentenceID), zap.Error(err))
	}
}

func (a Attempt) event() store.AnswerEvent {
	return store.AnswerEvent{
		Timestamp:  a.At,
		RunID:      a.RunID,
		LessonID:   a.LessonID,
		SentenceID: a.SentenceID,
		Prompt:     a.Prompt,
		Expected:   a.Expected,
		Given:      a.Given,
		Correct:    a.Correct,
	}
}

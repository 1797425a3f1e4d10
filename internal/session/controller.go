package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/lingo/internal/explain"
	"github.com/abhisek/lingo/internal/lesson"
	"github.com/abhisek/lingo/internal/progress"
)

// Loader fetches a lesson's sentences. lesson.Repository implements it.
type Loader interface {
	Load(ctx context.Context, lessonID int) ([]lesson.Sentence, error)
	Refresh(ctx context.Context, lessonID int) ([]lesson.Sentence, error)
}

// Recorder persists answers. progress.Tracker implements it.
type Recorder interface {
	SaveAsync(ctx context.Context, sentenceID int, correct bool, onDone func(error))
	Record(ctx context.Context, a progress.Attempt)
}

// Dispatcher requests explanations off the caller's goroutine.
// explain.Requester implements it.
type Dispatcher interface {
	Dispatch(runID string, in explain.Input, cb func(explain.Result))
}

// RunJournal records the start and outcome of lesson runs. Optional.
type RunJournal interface {
	StartRun(ctx context.Context, runID string, lessonID int, at time.Time) error
	FinishRun(ctx context.Context, runID, outcome string, at time.Time) error
}

// Hooks receive events that happen outside a Controller call. They run
// without the controller's lock held and may call back into it.
type Hooks struct {
	OnNotice      func(Notice)
	OnExplanation func(checkSeq uint64, r explain.Result)
}

// Controller drives a State against real collaborators. User actions and
// background completions are serialized by a mutex; I/O runs unlocked and
// its results are applied only if their ticket is still current.
type Controller struct {
	mu    sync.Mutex
	state *State

	loader    Loader
	recorder  Recorder
	explainer Dispatcher
	runs      RunJournal
	hooks     Hooks
	logger    *zap.Logger
	now       func() time.Time
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithRunJournal records lesson runs.
func WithRunJournal(j RunJournal) ControllerOption {
	return func(c *Controller) { c.runs = j }
}

// WithHooks sets the asynchronous event hooks.
func WithHooks(h Hooks) ControllerOption {
	return func(c *Controller) { c.hooks = h }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ControllerOption {
	return func(c *Controller) { c.now = now }
}

// NewController creates a controller. explainer may be nil to turn
// explanations off.
func NewController(loader Loader, recorder Recorder, explainer Dispatcher, opts ...ControllerOption) *Controller {
	c := &Controller{
		state:     New(),
		loader:    loader,
		recorder:  recorder,
		explainer: explainer,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartLesson restarts the session on lessonID and blocks until the load is
// applied. Errors from the load are reported as notices, not returned.
func (c *Controller) StartLesson(ctx context.Context, lessonID int) []Notice {
	c.mu.Lock()
	prevRun := c.state.RunID
	t := c.state.StartLesson(lessonID)
	runID := c.state.RunID
	c.mu.Unlock()

	if prevRun != "" {
		c.finishRun(ctx, prevRun, "abandoned")
	}
	if c.runs != nil {
		if err := c.runs.StartRun(ctx, runID, lessonID, c.now()); err != nil {
			c.logger.Warn("record run start", zap.Error(err))
		}
	}

	sentences, err := c.loader.Load(ctx, lessonID)
	if err != nil {
		c.logger.Warn("load lesson", zap.Int("lesson_id", lessonID), zap.Error(err))
	}

	c.mu.Lock()
	applied := c.state.Loaded(t, sentences, err)
	notices := c.state.TakeNotices()
	c.mu.Unlock()

	if !applied {
		c.logger.Debug("discarded stale load", zap.Int("lesson_id", lessonID), zap.Uint64("seq", t.Seq))
	}
	c.settle(ctx, runID, notices)
	return notices
}

// ConfirmReplay answers the replay question.
func (c *Controller) ConfirmReplay(ctx context.Context, accept bool) error {
	c.mu.Lock()
	runID := c.state.RunID
	err := c.state.ConfirmReplay(accept)
	c.mu.Unlock()
	if err != nil {
		return err
	}
	if !accept {
		c.finishRun(ctx, runID, "replay-declined")
	}
	return nil
}

// CheckAnswer checks raw, fires the progress save and, for a wrong answer,
// requests an explanation. Neither side effect is awaited.
func (c *Controller) CheckAnswer(ctx context.Context, raw string) (CheckResult, error) {
	c.mu.Lock()
	lessonID := c.state.LessonID
	res, err := c.state.CheckAnswer(raw)
	c.mu.Unlock()
	if err != nil {
		return CheckResult{}, err
	}

	c.recorder.Record(ctx, progress.Attempt{
		RunID:      res.RunID,
		LessonID:   lessonID,
		SentenceID: res.Sentence.ID,
		Prompt:     res.Sentence.Prompt,
		Expected:   res.Sentence.Answer,
		Given:      raw,
		Correct:    res.Correct,
		At:         c.now(),
	})

	sentenceID := res.Sentence.ID
	c.recorder.SaveAsync(ctx, sentenceID, res.Correct, func(err error) {
		if err != nil {
			c.saveFailed(lessonID, sentenceID, err)
		}
	})

	if res.Explain && c.explainer != nil {
		seq := res.Seq
		c.explainer.Dispatch(res.RunID, res.ExplainInput(), func(r explain.Result) {
			c.explanationArrived(seq, r)
		})
	} else if res.Explain {
		c.explanationArrived(res.Seq, explain.Result{State: explain.StateSkipped})
	}
	return res, nil
}

// NextSentence advances the session. When the lesson is exhausted it blocks
// on the authoritative refresh and returns the resulting notices.
func (c *Controller) NextSentence(ctx context.Context) ([]Notice, error) {
	c.mu.Lock()
	runID := c.state.RunID
	lessonID := c.state.LessonID
	t, needRefresh, err := c.state.NextSentence()
	c.mu.Unlock()
	if err != nil || !needRefresh {
		return nil, err
	}

	sentences, ferr := c.loader.Refresh(ctx, lessonID)
	if ferr != nil {
		c.logger.Warn("refresh lesson", zap.Int("lesson_id", lessonID), zap.Error(ferr))
	}

	c.mu.Lock()
	applied := c.state.Refreshed(t, sentences, ferr)
	notices := c.state.TakeNotices()
	c.mu.Unlock()

	if !applied {
		c.logger.Debug("discarded stale refresh", zap.Int("lesson_id", lessonID), zap.Uint64("seq", t.Seq))
	}
	c.settle(ctx, runID, notices)
	return notices, nil
}

// Exit abandons the active lesson.
func (c *Controller) Exit(ctx context.Context) {
	c.mu.Lock()
	runID := c.state.RunID
	c.state.Exit()
	c.mu.Unlock()
	if runID != "" {
		c.finishRun(ctx, runID, "abandoned")
	}
}

// View returns a snapshot of the session.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.View()
}

// Explanation returns the explanation panel state.
func (c *Controller) Explanation() explain.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Explanation
}

func (c *Controller) saveFailed(lessonID, sentenceID int, err error) {
	c.mu.Lock()
	c.state.SaveFailed(lessonID, sentenceID, err)
	notices := c.state.TakeNotices()
	c.mu.Unlock()
	c.deliver(notices)
}

func (c *Controller) explanationArrived(seq uint64, r explain.Result) {
	c.mu.Lock()
	applied := c.state.ExplanationArrived(seq, r)
	c.mu.Unlock()
	if applied && c.hooks.OnExplanation != nil {
		c.hooks.OnExplanation(seq, r)
	}
}

// settle finishes the run when notices ended the lesson, then delivers them.
func (c *Controller) settle(ctx context.Context, runID string, notices []Notice) {
	for _, n := range notices {
		if n.Blocking() {
			c.finishRun(ctx, runID, n.Kind.String())
			break
		}
	}
	c.deliver(notices)
}

func (c *Controller) deliver(notices []Notice) {
	if c.hooks.OnNotice == nil {
		return
	}
	for _, n := range notices {
		c.hooks.OnNotice(n)
	}
}

func (c *Controller) finishRun(ctx context.Context, runID, outcome string) {
	if c.runs == nil || runID == "" {
		return
	}
	if err := c.runs.FinishRun(context.WithoutCancel(ctx), runID, outcome, c.now()); err != nil {
		c.logger.Warn("record run finish", zap.Error(err))
	}
}

package session

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/abhisek/lingo/internal/api"
	"github.com/abhisek/lingo/internal/explain"
	"github.com/abhisek/lingo/internal/fakeapi"
	"github.com/abhisek/lingo/internal/lesson"
	"github.com/abhisek/lingo/internal/mastery"
	"github.com/abhisek/lingo/internal/progress"
)

const learner = "learner@example.com"

type memRuns struct {
	mu       sync.Mutex
	started  []string
	outcomes map[string]string
}

func (m *memRuns) StartRun(_ context.Context, runID string, _ int, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, runID)
	return nil
}

func (m *memRuns) FinishRun(_ context.Context, runID, outcome string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = make(map[string]string)
	}
	m.outcomes[runID] = outcome
	return nil
}

type harness struct {
	fake      *fakeapi.Server
	ctrl      *Controller
	tracker   *progress.Tracker
	requester *explain.Requester
	runs      *memRuns
	notices   chan Notice
	explained chan explain.Result
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t)

	fake := fakeapi.New(fakeapi.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, fake.AddUser(learner, "pw-123456", false))
	ts := httptest.NewServer(fake.Handler())
	t.Cleanup(ts.Close)

	token, err := fake.TokenFor(learner, time.Hour)
	require.NoError(t, err)
	client, err := api.New(ts.URL, api.WithTokenSource(api.StaticToken(token)), api.WithLogger(logger))
	require.NoError(t, err)

	h := &harness{
		fake:      fake,
		tracker:   progress.NewTracker(client, nil, logger),
		requester: explain.NewRequester(explain.NewServerExplainer(client), nil, logger),
		runs:      &memRuns{},
		notices:   make(chan Notice, 16),
		explained: make(chan explain.Result, 4),
	}
	t.Cleanup(h.requester.Close)

	h.ctrl = NewController(
		lesson.NewRepository(client, logger),
		h.tracker,
		h.requester,
		WithLogger(logger),
		WithRunJournal(h.runs),
		WithHooks(Hooks{
			OnNotice:      func(n Notice) { h.notices <- n },
			OnExplanation: func(_ uint64, r explain.Result) { h.explained <- r },
		}),
	)
	return h
}

func (h *harness) answer(t *testing.T, raw string) CheckResult {
	t.Helper()
	res, err := h.ctrl.CheckAnswer(context.Background(), raw)
	require.NoError(t, err)
	h.tracker.Wait()
	return res
}

func (h *harness) drain() []NoticeKind {
	var out []NoticeKind
	for {
		select {
		case n := <-h.notices:
			out = append(out, n.Kind)
		default:
			return out
		}
	}
}

func TestController_FullLesson(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	assert.Empty(t, h.ctrl.StartLesson(ctx, 1))
	v := h.ctrl.View()
	require.NotNil(t, v.Sentence)
	assert.Equal(t, 1, v.Sentence.ID)
	assert.Equal(t, Progress{Current: 1, Total: 3}, v.Progress)

	assert.True(t, h.answer(t, "hello").Correct)
	assert.Equal(t, mastery.StatusMastered, h.fake.StatusOf(learner, 1))
	_, err := h.ctrl.NextSentence(ctx)
	require.NoError(t, err)

	assert.True(t, h.answer(t, "How are you").Correct)
	_, err = h.ctrl.NextSentence(ctx)
	require.NoError(t, err)

	res := h.answer(t, "My name Anna")
	assert.False(t, res.Correct)
	assert.True(t, res.Explain)

	select {
	case r := <-h.explained:
		assert.Equal(t, explain.StateResolved, r.State)
		assert.Contains(t, r.Text, "My name is Anna.")
	case <-time.After(5 * time.Second):
		t.Fatal("explanation never arrived")
	}
	assert.Equal(t, explain.StateResolved, h.ctrl.Explanation().State)

	notices, err := h.ctrl.NextSentence(ctx)
	require.NoError(t, err)
	assert.Equal(t, []NoticeKind{NoticeMistakesRemain}, kinds(notices))
	v = h.ctrl.View()
	require.NotNil(t, v.Sentence)
	assert.Equal(t, 3, v.Sentence.ID)
	assert.Equal(t, mastery.StatusLearning, v.Status)

	h.answer(t, "my name is anna")
	notices, err = h.ctrl.NextSentence(ctx)
	require.NoError(t, err)
	assert.Equal(t, []NoticeKind{NoticeLessonComplete}, kinds(notices))
	assert.Equal(t, ScreenIdle, h.ctrl.View().Screen)

	h.runs.mu.Lock()
	defer h.runs.mu.Unlock()
	require.Len(t, h.runs.started, 1)
	assert.Equal(t, "lesson-complete", h.runs.outcomes[h.runs.started[0]])
}

func TestController_ResumesAndOffersReplay(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.fake.SetStatus(learner, 1, mastery.StatusMastered)
	h.ctrl.StartLesson(ctx, 1)
	assert.Equal(t, 2, h.ctrl.View().Sentence.ID)

	h.fake.SetStatus(learner, 2, mastery.StatusMastered)
	h.fake.SetStatus(learner, 3, mastery.StatusMastered)
	notices := h.ctrl.StartLesson(ctx, 1)
	assert.Equal(t, []NoticeKind{NoticeReplayConfirm}, kinds(notices))
	assert.Nil(t, h.ctrl.View().Sentence)

	require.NoError(t, h.ctrl.ConfirmReplay(ctx, false))
	assert.Equal(t, PhaseIdle, h.ctrl.View().Phase)
}

func TestController_SaveFailureDoesNotBlock(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.ctrl.StartLesson(ctx, 1)
	h.drain()
	h.fake.FailSaves(1)

	h.answer(t, "hello")
	assert.Equal(t, []NoticeKind{NoticeSaveFailed}, h.drain())

	_, err := h.ctrl.NextSentence(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, h.ctrl.View().Sentence.ID)
}

func TestController_AccessDenied(t *testing.T) {
	h := newHarness(t)

	notices := h.ctrl.StartLesson(context.Background(), 8)
	assert.Equal(t, []NoticeKind{NoticeAccessDenied}, kinds(notices))
	assert.Equal(t, ScreenIdle, h.ctrl.View().Screen)

	h.fake.SetPremium(learner, true)
	assert.Empty(t, h.ctrl.StartLesson(context.Background(), 8))
	assert.Equal(t, 60, h.ctrl.View().Sentence.ID)
}

func TestController_EmptyLesson(t *testing.T) {
	h := newHarness(t)
	notices := h.ctrl.StartLesson(context.Background(), 2)
	assert.Equal(t, []NoticeKind{NoticeLessonEmpty}, kinds(notices))
}

type gatedLoader struct {
	gates map[int]chan struct{}
	data  map[int][]lesson.Sentence
}

func (g *gatedLoader) Load(ctx context.Context, id int) ([]lesson.Sentence, error) {
	if gate, ok := g.gates[id]; ok {
		<-gate
	}
	return g.data[id], nil
}

func (g *gatedLoader) Refresh(ctx context.Context, id int) ([]lesson.Sentence, error) {
	return g.Load(ctx, id)
}

type nopRecorder struct{}

func (nopRecorder) SaveAsync(context.Context, int, bool, func(error)) {}
func (nopRecorder) Record(context.Context, progress.Attempt)          {}

func TestController_DiscardsStaleLoad(t *testing.T) {
	slow := sentences(U)
	fast := sentences(U, U, U)
	loader := &gatedLoader{
		gates: map[int]chan struct{}{1: make(chan struct{})},
		data:  map[int][]lesson.Sentence{1: slow, 2: fast},
	}
	ctrl := NewController(loader, nopRecorder{}, nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		ctrl.StartLesson(context.Background(), 1)
	}()

	require.Eventually(t, func() bool { return ctrl.View().Phase == PhaseLoading }, time.Second, time.Millisecond)
	ctrl.StartLesson(context.Background(), 2)
	close(loader.gates[1])
	<-done

	v := ctrl.View()
	assert.Equal(t, 2, v.LessonID)
	assert.Equal(t, 3, v.Progress.Total)
}

func TestController_ExplanationsOff(t *testing.T) {
	loader := &gatedLoader{data: map[int][]lesson.Sentence{1: sentences(U)}}
	ctrl := NewController(loader, nopRecorder{}, nil)
	ctrl.StartLesson(context.Background(), 1)

	res, err := ctrl.CheckAnswer(context.Background(), "wrong")
	require.NoError(t, err)
	assert.True(t, res.Explain)
	assert.Equal(t, explain.StateSkipped, ctrl.Explanation().State)
}

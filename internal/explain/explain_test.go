package explain

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/abhisek/lingo/internal/api"
	"github.com/abhisek/lingo/internal/fakeapi"
	"github.com/abhisek/lingo/internal/llm"
	"github.com/abhisek/lingo/internal/store"
)

var sample = Input{Prompt: "Я люблю кошек", Correct: "I love cats", Answer: "I loves cat"}

type stubExplainer struct {
	mu    sync.Mutex
	text  string
	err   error
	block chan struct{}
	calls int
}

func (s *stubExplainer) Explain(ctx context.Context, _ Input) (string, error) {
	s.mu.Lock()
	s.calls++
	block := s.block
	s.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return s.text, s.err
}

type memJournal struct {
	mu     sync.Mutex
	events []store.ExplanationEvent
}

func (j *memJournal) AppendExplanation(_ context.Context, e store.ExplanationEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, e)
	return nil
}

func TestResolve_States(t *testing.T) {
	tests := []struct {
		name  string
		ex    Explainer
		in    Input
		state State
		text  string
	}{
		{"resolved", &stubExplainer{text: " Нужно cats. "}, sample, StateResolved, "Нужно cats."},
		{"transport failure", &stubExplainer{err: errors.New("boom")}, sample, StateFailed, FallbackText},
		{"blank text", &stubExplainer{text: "  "}, sample, StateFailed, FallbackText},
		{"empty answer", &stubExplainer{text: "x"}, Input{Prompt: "a", Correct: "b", Answer: "  "}, StateSkipped, ""},
		{"server says empty", &stubExplainer{err: api.ErrEmptyAnswer}, sample, StateSkipped, ""},
		{"disabled", nil, sample, StateSkipped, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRequester(tt.ex, nil, zaptest.NewLogger(t))
			defer r.Close()

			res := r.Resolve(context.Background(), tt.in)
			assert.Equal(t, tt.state, res.State)
			assert.Equal(t, tt.text, res.Text)
		})
	}
}

func TestDispatch_DoesNotBlockCaller(t *testing.T) {
	ex := &stubExplainer{text: "ok", block: make(chan struct{})}
	j := &memJournal{}
	r := NewRequester(ex, j, zaptest.NewLogger(t))

	got := make(chan Result, 1)
	start := time.Now()
	r.Dispatch("run-1", sample, func(res Result) { got <- res })
	assert.Less(t, time.Since(start), time.Second)

	select {
	case <-got:
		t.Fatal("callback fired before the explainer returned")
	case <-time.After(20 * time.Millisecond):
	}

	close(ex.block)
	select {
	case res := <-got:
		assert.Equal(t, StateResolved, res.State)
		assert.Equal(t, "ok", res.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired")
	}
	r.Close()

	require.Len(t, j.events, 1)
	assert.Equal(t, "run-1", j.events[0].RunID)
	assert.Equal(t, "resolved", j.events[0].State)
	assert.Equal(t, sample.Answer, j.events[0].Given)
}

func TestDispatch_TimeoutFallsBack(t *testing.T) {
	ex := &stubExplainer{block: make(chan struct{})}
	r := NewRequester(ex, nil, zaptest.NewLogger(t))
	r.SetTimeout(10 * time.Millisecond)
	defer r.Close()

	got := make(chan Result, 1)
	r.Dispatch("", sample, func(res Result) { got <- res })
	select {
	case res := <-got:
		assert.Equal(t, StateFailed, res.State)
		assert.Equal(t, FallbackText, res.Text)
		assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired")
	}
}

func TestDispatch_AfterClose(t *testing.T) {
	r := NewRequester(&stubExplainer{text: "ok"}, nil, zaptest.NewLogger(t))
	r.Close()
	r.Close()

	got := make(chan Result, 1)
	r.Dispatch("", sample, func(res Result) { got <- res })
	select {
	case res := <-got:
		assert.Equal(t, StateFailed, res.State)
	case <-time.After(2 * time.Second):
		t.Fatal("callback never fired")
	}
}

func TestServerExplainer(t *testing.T) {
	fake := fakeapi.New(fakeapi.WithBcryptCost(bcrypt.MinCost))
	require.NoError(t, fake.AddUser("a@example.com", "pw-123456", false))
	ts := httptest.NewServer(fake.Handler())
	defer ts.Close()

	token, err := fake.TokenFor("a@example.com", time.Hour)
	require.NoError(t, err)
	client, err := api.New(ts.URL, api.WithTokenSource(api.StaticToken(token)))
	require.NoError(t, err)

	r := NewRequester(NewServerExplainer(client), nil, zaptest.NewLogger(t))
	defer r.Close()

	res := r.Resolve(context.Background(), sample)
	assert.Equal(t, StateResolved, res.State)
	assert.Contains(t, res.Text, "I love cats")

	fake.SetExplainer(nil)
	res = r.Resolve(context.Background(), sample)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, FallbackText, res.Text)

	var se *api.StatusError
	require.ErrorAs(t, res.Err, &se)
	assert.Equal(t, "AI config error", se.Message)
}

func TestLLMExplainer(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{
		Content: json.RawMessage(`{"explanation":"После I глагол без -s."}`),
	})
	ex := NewLLMExplainer(mock, DefaultLLMConfig())

	text, err := ex.Explain(context.Background(), sample)
	require.NoError(t, err)
	assert.Equal(t, "После I глагол без -s.", text)

	require.Equal(t, 1, mock.CallCount())
	req := mock.Calls[0]
	assert.Equal(t, ExplanationSchema, req.Schema)
	require.Len(t, req.Messages, 1)
	assert.Contains(t, req.Messages[0].Content, sample.Prompt)
	assert.Contains(t, req.Messages[0].Content, sample.Correct)
	assert.Contains(t, req.Messages[0].Content, sample.Answer)
}

func TestLLMExplainer_ProviderError(t *testing.T) {
	mock := llm.NewMockProvider()
	r := NewRequester(NewLLMExplainer(mock, DefaultLLMConfig()), nil, zaptest.NewLogger(t))
	defer r.Close()

	res := r.Resolve(context.Background(), sample)
	assert.Equal(t, StateFailed, res.State)
	var unavailable *llm.ErrProviderUnavailable
	assert.ErrorAs(t, res.Err, &unavailable)
}

func TestResult_Visible(t *testing.T) {
	assert.False(t, Result{}.Visible())
	assert.False(t, Result{State: StateSkipped}.Visible())
	assert.True(t, Result{State: StatePending}.Visible())
	assert.True(t, Result{State: StateFailed}.Visible())
}

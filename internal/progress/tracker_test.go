package progress

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lingo/internal/lesson"
	"github.com/abhisek/lingo/internal/mastery"
	"github.com/abhisek/lingo/internal/store"
)

type recordingSaver struct {
	mu    sync.Mutex
	calls []int
	err   error
	block chan struct{}
}

func (r *recordingSaver) SaveProgress(ctx context.Context, id int, _ bool) error {
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, id)
	return r.err
}

type memJournal struct {
	events []store.AnswerEvent
	err    error
}

func (m *memJournal) AppendAnswer(_ context.Context, e store.AnswerEvent) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		answer string
		raw    string
		want   bool
	}{
		{"The cat sat.", "the cat sat", true},
		{"The cat sat.", "The cats sat", false},
		{"Hello!", "  HELLO  ", true},
		{"How are you?", "how are you", true},
		{"Yes, I do.", "yes i do", true},
		{"I don't know.", "i dont know", false},
		{"Hello!", "", false},
	}
	for _, tt := range tests {
		got := Evaluate(lesson.Sentence{Answer: tt.answer}, tt.raw)
		assert.Equal(t, tt.want, got, "Evaluate(%q, %q)", tt.answer, tt.raw)
	}
}

func TestFirstUnmastered(t *testing.T) {
	s := []lesson.Sentence{
		{ID: 1, Status: mastery.StatusMastered},
		{ID: 2, Status: mastery.StatusLearning},
		{ID: 3, Status: mastery.StatusUnattempted},
	}
	assert.Equal(t, 1, FirstUnmastered(s))

	s[1].Status = mastery.StatusMastered
	s[2].Status = mastery.StatusMastered
	assert.Equal(t, -1, FirstUnmastered(s))
	assert.Equal(t, -1, FirstUnmastered(nil))
}

func TestSaveAsync_ReportsFailureWithoutBlocking(t *testing.T) {
	saver := &recordingSaver{err: errors.New("boom"), block: make(chan struct{})}
	tr := NewTracker(saver, nil, nil)

	done := make(chan error, 1)
	tr.SaveAsync(context.Background(), 9, true, func(err error) { done <- err })

	// The caller has already returned while the save is still blocked.
	select {
	case <-done:
		t.Fatal("save finished before it was unblocked")
	default:
	}

	close(saver.block)
	err := <-done
	assert.EqualError(t, err, "boom")
	tr.Wait()
	assert.Equal(t, []int{9}, saver.calls)
}

func TestSaveAsync_SurvivesCallerCancel(t *testing.T) {
	saver := &recordingSaver{}
	tr := NewTracker(saver, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var got error = errors.New("unset")
	tr.SaveAsync(ctx, 4, false, func(err error) { got = err })
	tr.Wait()
	assert.NoError(t, got)
	assert.Equal(t, []int{4}, saver.calls)
}

func TestRecord(t *testing.T) {
	j := &memJournal{}
	tr := NewTracker(&recordingSaver{}, j, nil)
	tr.Record(context.Background(), Attempt{RunID: "r", LessonID: 1, SentenceID: 3, Given: "hello", Correct: true})
	require.Len(t, j.events, 1)
	assert.False(t, j.events[0].Timestamp.IsZero())
	assert.Equal(t, "r", j.events[0].RunID)
	assert.Equal(t, 3, j.events[0].SentenceID)
	assert.Equal(t, "hello", j.events[0].Given)
	assert.True(t, j.events[0].Correct)

	// Journal failures are swallowed.
	j.err = errors.New("disk full")
	tr.Record(context.Background(), Attempt{SentenceID: 4})
	assert.Len(t, j.events, 1)

	// No journal configured.
	NewTracker(&recordingSaver{}, nil, nil).Record(context.Background(), Attempt{})
}

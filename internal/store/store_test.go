package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Pragmas(t *testing.T) {
	s := openTestStore(t)

	var fk, sync string
	require.NoError(t, s.DB().Get(&fk, "PRAGMA foreign_keys"))
	require.NoError(t, s.DB().Get(&sync, "PRAGMA synchronous"))
	assert.Equal(t, "1", fk)
	assert.Equal(t, "1", sync)
}

func TestOpen_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.AppendAnswer(ctx, AnswerEvent{LessonID: 1, SentenceID: 1}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.AppendAnswer(ctx, AnswerEvent{LessonID: 1, SentenceID: 2}))

	events, err := s.QueryAnswerEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(2), events[0].Sequence)
	assert.Equal(t, int64(1), events[1].Sequence)
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Run("explicit", func(t *testing.T) {
		want := filepath.Join(dir, "a", "custom.db")
		t.Setenv("LINGO_DB", want)
		got, err := DefaultDBPath()
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.DirExists(t, filepath.Join(dir, "a"))
	})

	t.Run("xdg", func(t *testing.T) {
		t.Setenv("LINGO_DB", "")
		t.Setenv("XDG_DATA_HOME", dir)
		got, err := DefaultDBPath()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "lingo", "lingo.db"), got)
	})
}

func TestSequence_SharedAcrossTables(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.StartRun(ctx, "run-1", 1, time.Time{}))
	require.NoError(t, s.AppendAnswer(ctx, AnswerEvent{RunID: "run-1", LessonID: 1, SentenceID: 3}))
	require.NoError(t, s.AppendExplanation(ctx, ExplanationEvent{RunID: "run-1", State: "resolved"}))
	require.NoError(t, s.AppendLLMRequest(ctx, LLMRequestEvent{Purpose: "explain-error", Success: true}))

	answers, err := s.QueryAnswerEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	explanations, err := s.QueryExplanationEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	calls, err := s.QueryLLMEvents(ctx, QueryOpts{})
	require.NoError(t, err)

	assert.Equal(t, int64(2), answers[0].Sequence)
	assert.Equal(t, int64(3), explanations[0].Sequence)
	assert.Equal(t, int64(4), calls[0].Sequence)
}

func TestAnswers_QueryAndStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	answers := []AnswerEvent{
		{LessonID: 1, SentenceID: 1, Expected: "Hello.", Given: "hello", Correct: true},
		{LessonID: 1, SentenceID: 2, Expected: "My name is Anna.", Given: "My name Anna", Correct: false},
		{LessonID: 1, SentenceID: 2, Expected: "My name is Anna.", Given: "My Anna", Correct: false},
		{LessonID: 1, SentenceID: 2, Expected: "My name is Anna.", Given: "my name is anna", Correct: true},
		{LessonID: 3, SentenceID: 30, Expected: "I am hungry.", Given: "I hungry", Correct: false},
	}
	for i, a := range answers {
		a.Timestamp = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.AppendAnswer(ctx, a))
	}

	got, err := s.QueryAnswerEvents(ctx, QueryOpts{LessonID: 1, Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "my name is anna", got[0].Given)
	assert.True(t, got[0].Correct)
	assert.Equal(t, base.Add(3*time.Minute).UnixMilli(), got[0].Timestamp.UnixMilli())

	got, err = s.QueryAnswerEvents(ctx, QueryOpts{From: base.Add(4 * time.Minute)})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 30, got[0].SentenceID)

	stats, err := s.AnswerStatsByLesson(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, AnswerStats{LessonID: 1, Attempts: 4, Correct: 2, Sentences: 2, Accuracy: 0.5}, stats[0])
	assert.Equal(t, 3, stats[1].LessonID)
	assert.Zero(t, stats[1].Accuracy)

	mistakes, err := s.MistakeSummary(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, mistakes, 2)
	assert.Equal(t, 2, mistakes[0].SentenceID)
	assert.Equal(t, 2, mistakes[0].Wrong)
	assert.Equal(t, "My Anna", mistakes[0].LastGiven)
	assert.Equal(t, 30, mistakes[1].SentenceID)
}

func TestRuns_FinishOnce(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.StartRun(ctx, "a", 1, start))
	require.NoError(t, s.StartRun(ctx, "b", 2, start.Add(time.Minute)))
	require.NoError(t, s.FinishRun(ctx, "a", "lesson-complete", start.Add(2*time.Minute)))
	require.NoError(t, s.FinishRun(ctx, "a", "abandoned", start.Add(3*time.Minute)))

	runs, err := s.RecentRuns(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "b", runs[0].RunID)
	assert.False(t, runs[0].Finished())

	assert.Equal(t, "a", runs[1].RunID)
	assert.True(t, runs[1].Finished())
	assert.Equal(t, "lesson-complete", runs[1].Outcome)
	assert.Equal(t, start.Add(2*time.Minute).UnixMilli(), runs[1].FinishedAt.UnixMilli())

	runs, err = s.RecentRuns(ctx, QueryOpts{LessonID: 2})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "b", runs[0].RunID)
}

func TestExplanations_Counts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, state := range []string{"resolved", "resolved", "failed", "skipped"} {
		require.NoError(t, s.AppendExplanation(ctx, ExplanationEvent{State: state, Given: "x"}))
	}
	counts, err := s.ExplanationCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"resolved": 2, "failed": 1, "skipped": 1}, counts)
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	events := []LLMRequestEvent{
		{Provider: "gemini", Model: "gemini-2.5-flash", Purpose: "explain-error", InputTokens: 100, OutputTokens: 20, LatencyMs: 300, Success: true, RequestBody: "req", ResponseBody: "resp"},
		{Provider: "gemini", Model: "gemini-2.5-flash", Purpose: "explain-error", InputTokens: 50, OutputTokens: 10, LatencyMs: 100, Success: true},
		{Provider: "openai", Model: "gpt-4o-mini", Purpose: "drill", Success: false, ErrorMessage: "rate limited"},
	}
	for _, e := range events {
		require.NoError(t, s.AppendLLMRequest(ctx, e))
	}

	list, err := s.QueryLLMEvents(ctx, QueryOpts{Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "rate limited", list[0].ErrorMessage)
	assert.False(t, list[0].Success)

	first, err := s.GetLLMEvent(ctx, list[2].ID)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "req", first.RequestBody)
	assert.Equal(t, "resp", first.ResponseBody)

	missing, err := s.GetLLMEvent(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	byPurpose, err := s.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, byPurpose, 2)
	assert.Equal(t, "explain-error", byPurpose[0].Purpose)
	assert.Equal(t, 2, byPurpose[0].Calls)
	assert.Equal(t, 150, byPurpose[0].InputTokens)
	assert.InDelta(t, 200.0, byPurpose[0].AvgLatencyMs, 0.001)

	byModel, err := s.LLMUsageByModel(ctx)
	require.NoError(t, err)
	require.Len(t, byModel, 2)
	assert.Equal(t, "gemini-2.5-flash", byModel[0].Model)
	assert.Equal(t, 30, byModel[0].OutputTokens)
}

func TestReset(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.StartRun(ctx, "a", 1, time.Time{}))
	require.NoError(t, s.AppendAnswer(ctx, AnswerEvent{LessonID: 1, SentenceID: 1}))
	require.NoError(t, s.AppendLLMRequest(ctx, LLMRequestEvent{Success: true}))

	require.NoError(t, s.Reset(ctx))

	answers, err := s.QueryAnswerEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	assert.Empty(t, answers)
	runs, err := s.RecentRuns(ctx, QueryOpts{})
	require.NoError(t, err)
	assert.Empty(t, runs)

	require.NoError(t, s.AppendAnswer(ctx, AnswerEvent{LessonID: 1, SentenceID: 1}))
	answers, err = s.QueryAnswerEvents(ctx, QueryOpts{})
	require.NoError(t, err)
	require.Len(t, answers, 1)
	assert.Equal(t, int64(1), answers[0].Sequence)
}

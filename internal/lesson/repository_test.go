package lesson

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lingo/internal/mastery"
)

type stubSource struct {
	calls int
	lists [][]Sentence
	err   error
}

func (s *stubSource) Sentences(_ context.Context, _ int) ([]Sentence, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := s.lists[0]
	if len(s.lists) > 1 {
		s.lists = s.lists[1:]
	}
	return out, nil
}

func TestRepository_LoadAndRefreshReturnFreshState(t *testing.T) {
	src := &stubSource{lists: [][]Sentence{
		{{ID: 1, LessonID: 7}, {ID: 2, LessonID: 7}},
		{{ID: 1, LessonID: 7, Status: mastery.StatusMastered}, {ID: 2, LessonID: 7}},
	}}
	repo := NewRepository(src, nil)
	ctx := context.Background()

	first, err := repo.Load(ctx, 7)
	require.NoError(t, err)
	assert.False(t, first[0].Mastered())

	second, err := repo.Refresh(ctx, 7)
	require.NoError(t, err)
	assert.True(t, second[0].Mastered())
	assert.Equal(t, 2, src.calls)
	assert.False(t, first[0].Mastered(), "a refresh must not change an earlier result")
}

func TestRepository_PropagatesErrors(t *testing.T) {
	sentinel := errors.New("denied")
	repo := NewRepository(&stubSource{err: sentinel}, nil)

	_, err := repo.Load(context.Background(), 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Contains(t, err.Error(), "load lesson 3")
}

func TestRepository_DropsDuplicateIDs(t *testing.T) {
	repo := NewRepository(&stubSource{lists: [][]Sentence{{
		{ID: 1, Prompt: "a"}, {ID: 2, Prompt: "b"}, {ID: 1, Prompt: "dup"},
	}}}, nil)
	got, err := repo.Load(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Prompt)
}

func TestLesson_StarsAndLabels(t *testing.T) {
	l := Lesson{TotalSentences: 10, CompletedSentences: 10}
	assert.Equal(t, 3, l.Stars())
	assert.Equal(t, "Repeat", l.ActionLabel())

	l.SentencesWithErrors = 2
	assert.Equal(t, 2, l.Stars())
	l.SentencesWithErrors = 5
	assert.Equal(t, 1, l.Stars())

	partial := Lesson{TotalSentences: 10, CompletedSentences: 4}
	assert.Equal(t, 0, partial.Stars())
	assert.Equal(t, "Continue", partial.ActionLabel())
	assert.InDelta(t, 0.4, partial.Percent(), 1e-9)

	assert.Equal(t, "Start", Lesson{TotalSentences: 3}.ActionLabel())
	assert.Zero(t, Lesson{}.Percent())
}

func TestAccessPolicy(t *testing.T) {
	p := DefaultAccessPolicy()
	a0 := Level{Code: "A0"}
	a1 := Level{Code: "A1"}

	assert.True(t, p.Allows(a1, Lesson{Number: 5}))
	assert.False(t, p.Allows(a1, Lesson{Number: 6}))
	assert.True(t, p.Allows(a0, Lesson{Number: 40}))

	p.Premium = true
	assert.True(t, p.Allows(a1, Lesson{Number: 6}))
}

package lesson

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Source fetches a lesson's sentences from the backend.
type Source interface {
	Sentences(ctx context.Context, lessonID int) ([]Sentence, error)
}

// Repository fetches lesson sentences. It keeps no copy of its own: every
// Load and Refresh asks the server, which owns mastery state. Callers keep
// their optimistic annotations elsewhere.
type Repository struct {
	src    Source
	logger *zap.Logger
}

// NewRepository creates a Repository over src.
func NewRepository(src Source, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{src: src, logger: logger}
}

// Load fetches the full sentence list for a lesson. Authentication and
// access-denied errors from the source are returned unchanged so callers
// can branch on them with errors.Is.
func (r *Repository) Load(ctx context.Context, lessonID int) ([]Sentence, error) {
	return r.fetch(ctx, lessonID, "load")
}

// Refresh re-fetches a lesson to pick up server-confirmed mastery after
// saves. It behaves exactly like Load.
func (r *Repository) Refresh(ctx context.Context, lessonID int) ([]Sentence, error) {
	return r.fetch(ctx, lessonID, "refresh")
}

func (r *Repository) fetch(ctx context.Context, lessonID int, op string) ([]Sentence, error) {
	start := time.Now()
	sentences, err := r.src.Sentences(ctx, lessonID)
	if err != nil {
		r.logger.Warn("sentence fetch failed",
			zap.String("op", op),
			zap.Int("lesson_id", lessonID),
			zap.Error(err))
		return nil, fmt.Errorf("%s lesson %d: %w", op, lessonID, err)
	}

	sentences = dedupe(sentences)

	r.logger.Debug("sentences fetched",
		zap.String("op", op),
		zap.Int("lesson_id", lessonID),
		zap.Int("count", len(sentences)),
		zap.Duration("took", time.Since(start)))
	return sentences, nil
}

// dedupe drops repeated sentence IDs, keeping the first occurrence so that
// presentation order stays stable.
func dedupe(in []Sentence) []Sentence {
	seen := make(map[int]struct{}, len(in))
	out := in[:0:0]
	for _, s := range in {
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	return out
}

package store

import (
	"context"
	"fmt"
	"time"
)

// LessonRun is one pass through a lesson, from start to its final notice.
type LessonRun struct {
	RunID      string
	LessonID   int
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    string
}

// Finished reports whether the run has an outcome.
func (r LessonRun) Finished() bool {
	return !r.FinishedAt.IsZero()
}

type runRow struct {
	RunID      string `db:"run_id"`
	Sequence   int64  `db:"sequence"`
	LessonID   int    `db:"lesson_id"`
	StartedAt  int64  `db:"started_at"`
	FinishedAt int64  `db:"finished_at"`
	Outcome    string `db:"outcome"`
}

// StartRun records the start of a lesson run.
func (s *Store) StartRun(ctx context.Context, runID string, lessonID int, at time.Time) error {
	seq, err := s.seq.Next(ctx)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lesson_runs (run_id, sequence, lesson_id, started_at) VALUES (?, ?, ?, ?)`,
		runID, seq, lessonID, s.stamp(at))
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	return nil
}

// FinishRun sets the outcome of a run. A run is finished at most once;
// later calls are ignored.
func (s *Store) FinishRun(ctx context.Context, runID, outcome string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE lesson_runs SET finished_at = ?, outcome = ? WHERE run_id = ? AND finished_at = 0`,
		s.stamp(at), outcome, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	return nil
}

// RecentRuns returns runs newest first.
func (s *Store) RecentRuns(ctx context.Context, opts QueryOpts) ([]LessonRun, error) {
	where, args := opts.where("started_at")
	args = append(args, opts.limit())

	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM lesson_runs`+where+` ORDER BY sequence DESC LIMIT ?`, args...); err != nil {
		return nil, fmt.Errorf("recent runs: %w", err)
	}
	out := make([]LessonRun, len(rows))
	for i, r := range rows {
		out[i] = LessonRun{
			RunID:      r.RunID,
			LessonID:   r.LessonID,
			StartedAt:  fromMillis(r.StartedAt),
			FinishedAt: fromMillis(r.FinishedAt),
			Outcome:    r.Outcome,
		}
	}
	return out, nil
}

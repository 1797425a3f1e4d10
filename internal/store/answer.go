package store

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// AnswerEvent is one checked answer.
type AnswerEvent struct {
	ID         int64
	Sequence   int64
	Timestamp  time.Time
	RunID      string
	LessonID   int
	SentenceID int
	Prompt     string
	Expected   string
	Given      string
	Correct    bool
}

type answerRow struct {
	ID         int64  `db:"id"`
	Sequence   int64  `db:"sequence"`
	Timestamp  int64  `db:"ts"`
	RunID      string `db:"run_id"`
	LessonID   int    `db:"lesson_id"`
	SentenceID int    `db:"sentence_id"`
	Prompt     string `db:"prompt"`
	Expected   string `db:"expected"`
	Given      string `db:"given"`
	Correct    bool   `db:"correct"`
}

func (r answerRow) event() AnswerEvent {
	return AnswerEvent{
		ID:         r.ID,
		Sequence:   r.Sequence,
		Timestamp:  fromMillis(r.Timestamp),
		RunID:      r.RunID,
		LessonID:   r.LessonID,
		SentenceID: r.SentenceID,
		Prompt:     r.Prompt,
		Expected:   r.Expected,
		Given:      r.Given,
		Correct:    r.Correct,
	}
}

// QueryOpts filters and pages event queries.
type QueryOpts struct {
	From     time.Time
	To       time.Time
	LessonID int
	Limit    int
}

func (o QueryOpts) where(tsCol string) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if !o.From.IsZero() {
		conds = append(conds, tsCol+" >= ?")
		args = append(args, o.From.UnixMilli())
	}
	if !o.To.IsZero() {
		conds = append(conds, tsCol+" <= ?")
		args = append(args, o.To.UnixMilli())
	}
	if o.LessonID > 0 {
		conds = append(conds, "lesson_id = ?")
		args = append(args, o.LessonID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (o QueryOpts) limit() int {
	if o.Limit <= 0 {
		return 100
	}
	return o.Limit
}

// AppendAnswer records a checked answer.
func (s *Store) AppendAnswer(ctx context.Context, e AnswerEvent) error {
	seq, err := s.seq.Next(ctx)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO answer_events
		(sequence, ts, run_id, lesson_id, sentence_id, prompt, expected, given, correct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seq, s.stamp(e.Timestamp), e.RunID, e.LessonID, e.SentenceID,
		e.Prompt, e.Expected, e.Given, e.Correct)
	if err != nil {
		return fmt.Errorf("append answer: %w", err)
	}
	return nil
}

// QueryAnswerEvents returns answers newest first.
func (s *Store) QueryAnswerEvents(ctx context.Context, opts QueryOpts) ([]AnswerEvent, error) {
	where, args := opts.where("ts")
	args = append(args, opts.limit())

	var rows []answerRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM answer_events`+where+` ORDER BY sequence DESC LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	out := make([]AnswerEvent, len(rows))
	for i, r := range rows {
		out[i] = r.event()
	}
	return out, nil
}

// AnswerStats aggregates answers per lesson.
type AnswerStats struct {
	LessonID  int     `db:"lesson_id"`
	Attempts  int     `db:"attempts"`
	Correct   int     `db:"correct"`
	Sentences int     `db:"sentences"`
	Accuracy  float64 `db:"-"`
}

// AnswerStatsByLesson returns per-lesson totals ordered by lesson.
func (s *Store) AnswerStatsByLesson(ctx context.Context, opts QueryOpts) ([]AnswerStats, error) {
	where, args := opts.where("ts")

	var stats []AnswerStats
	err := s.db.SelectContext(ctx, &stats, `SELECT lesson_id,
			COUNT(*) AS attempts,
			COALESCE(SUM(correct), 0) AS correct,
			COUNT(DISTINCT sentence_id) AS sentences
		FROM answer_events`+where+`
		GROUP BY lesson_id ORDER BY lesson_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("answer stats: %w", err)
	}
	for i := range stats {
		if stats[i].Attempts > 0 {
			stats[i].Accuracy = float64(stats[i].Correct) / float64(stats[i].Attempts)
		}
	}
	return stats, nil
}

// Mistake is a sentence that was answered wrong at least once.
type Mistake struct {
	LessonID   int    `db:"lesson_id"`
	SentenceID int    `db:"sentence_id"`
	Prompt     string `db:"prompt"`
	Expected   string `db:"expected"`
	Wrong      int    `db:"wrong"`
	LastGiven  string `db:"last_given"`
}

// MistakeSummary lists the most frequently missed sentences.
func (s *Store) MistakeSummary(ctx context.Context, opts QueryOpts) ([]Mistake, error) {
	where, args := opts.where("ts")
	if where == "" {
		where = " WHERE correct = 0"
	} else {
		where += " AND correct = 0"
	}
	args = append(args, opts.limit())

	var out []Mistake
	err := s.db.SelectContext(ctx, &out, `SELECT lesson_id, sentence_id,
			MAX(prompt) AS prompt,
			MAX(expected) AS expected,
			COUNT(*) AS wrong,
			(SELECT given FROM answer_events b
				WHERE b.sentence_id = a.sentence_id AND b.correct = 0
				ORDER BY b.sequence DESC LIMIT 1) AS last_given
		FROM answer_events a`+where+`
		GROUP BY lesson_id, sentence_id
		ORDER BY wrong DESC, sentence_id
		LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("mistake summary: %w", err)
	}
	return out, nil
}

package store

import (
	"context"
	"fmt"
	"time"
)

// ExplanationEvent is the outcome of one explanation request.
type ExplanationEvent struct {
	ID        int64
	Sequence  int64
	Timestamp time.Time
	RunID     string
	Prompt    string
	Expected  string
	Given     string
	State     string
	Text      string
	Error     string
	LatencyMs int64
}

type explanationRow struct {
	ID        int64  `db:"id"`
	Sequence  int64  `db:"sequence"`
	Timestamp int64  `db:"ts"`
	RunID     string `db:"run_id"`
	Prompt    string `db:"prompt"`
	Expected  string `db:"expected"`
	Given     string `db:"given"`
	State     string `db:"state"`
	Text      string `db:"text"`
	Error     string `db:"error"`
	LatencyMs int64  `db:"latency_ms"`
}

// AppendExplanation records an explanation outcome.
func (s *Store) AppendExplanation(ctx context.Context, e ExplanationEvent) error {
	seq, err := s.seq.Next(ctx)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO explanation_events
		(sequence, ts, run_id, prompt, expected, given, state, text, error, latency_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seq, s.stamp(e.Timestamp), e.RunID, e.Prompt, e.Expected, e.Given,
		e.State, e.Text, e.Error, e.LatencyMs)
	if err != nil {
		return fmt.Errorf("append explanation: %w", err)
	}
	return nil
}

// QueryExplanationEvents returns explanations newest first. LessonID in
// opts is ignored.
func (s *Store) QueryExplanationEvents(ctx context.Context, opts QueryOpts) ([]ExplanationEvent, error) {
	opts.LessonID = 0
	where, args := opts.where("ts")
	args = append(args, opts.limit())

	var rows []explanationRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM explanation_events`+where+` ORDER BY sequence DESC LIMIT ?`, args...); err != nil {
		return nil, fmt.Errorf("query explanations: %w", err)
	}
	out := make([]ExplanationEvent, len(rows))
	for i, r := range rows {
		out[i] = ExplanationEvent{
			ID:        r.ID,
			Sequence:  r.Sequence,
			Timestamp: fromMillis(r.Timestamp),
			RunID:     r.RunID,
			Prompt:    r.Prompt,
			Expected:  r.Expected,
			Given:     r.Given,
			State:     r.State,
			Text:      r.Text,
			Error:     r.Error,
			LatencyMs: r.LatencyMs,
		}
	}
	return out, nil
}

// ExplanationCounts returns the number of recorded explanations per state.
func (s *Store) ExplanationCounts(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		State string `db:"state"`
		N     int    `db:"n"`
	}
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT state, COUNT(*) AS n FROM explanation_events GROUP BY state`); err != nil {
		return nil, fmt.Errorf("explanation counts: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.State] = r.N
	}
	return counts, nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LLMRequestEvent is one call to a language model provider.
type LLMRequestEvent struct {
	ID           int64
	Sequence     int64
	Timestamp    time.Time
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

type llmRow struct {
	ID           int64  `db:"id"`
	Sequence     int64  `db:"sequence"`
	Timestamp    int64  `db:"ts"`
	Provider     string `db:"provider"`
	Model        string `db:"model"`
	Purpose      string `db:"purpose"`
	InputTokens  int    `db:"input_tokens"`
	OutputTokens int    `db:"output_tokens"`
	LatencyMs    int64  `db:"latency_ms"`
	Success      bool   `db:"success"`
	ErrorMessage string `db:"error_message"`
	RequestBody  string `db:"request_body"`
	ResponseBody string `db:"response_body"`
}

func (r llmRow) event() LLMRequestEvent {
	return LLMRequestEvent{
		ID:           r.ID,
		Sequence:     r.Sequence,
		Timestamp:    fromMillis(r.Timestamp),
		Provider:     r.Provider,
		Model:        r.Model,
		Purpose:      r.Purpose,
		InputTokens:  r.InputTokens,
		OutputTokens: r.OutputTokens,
		LatencyMs:    r.LatencyMs,
		Success:      r.Success,
		ErrorMessage: r.ErrorMessage,
		RequestBody:  r.RequestBody,
		ResponseBody: r.ResponseBody,
	}
}

// AppendLLMRequest records an LLM call.
func (s *Store) AppendLLMRequest(ctx context.Context, e LLMRequestEvent) error {
	seq, err := s.seq.Next(ctx)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO llm_request_events
		(sequence, ts, provider, model, purpose, input_tokens, output_tokens,
		 latency_ms, success, error_message, request_body, response_body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		seq, s.stamp(e.Timestamp), e.Provider, e.Model, e.Purpose,
		e.InputTokens, e.OutputTokens, e.LatencyMs, e.Success,
		e.ErrorMessage, e.RequestBody, e.ResponseBody)
	if err != nil {
		return fmt.Errorf("append llm request: %w", err)
	}
	return nil
}

// QueryLLMEvents returns LLM calls newest first.
func (s *Store) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error) {
	opts.LessonID = 0
	where, args := opts.where("ts")
	args = append(args, opts.limit())

	var rows []llmRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM llm_request_events`+where+` ORDER BY sequence DESC LIMIT ?`, args...); err != nil {
		return nil, fmt.Errorf("query llm events: %w", err)
	}
	out := make([]LLMRequestEvent, len(rows))
	for i, r := range rows {
		out[i] = r.event()
	}
	return out, nil
}

// GetLLMEvent returns the call with the given id, or nil if there is none.
func (s *Store) GetLLMEvent(ctx context.Context, id int64) (*LLMRequestEvent, error) {
	var r llmRow
	err := s.db.GetContext(ctx, &r, `SELECT * FROM llm_request_events WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get llm event: %w", err)
	}
	e := r.event()
	return &e, nil
}

// PurposeUsage aggregates calls per purpose.
type PurposeUsage struct {
	Purpose      string  `db:"purpose"`
	Calls        int     `db:"calls"`
	InputTokens  int     `db:"input_tokens"`
	OutputTokens int     `db:"output_tokens"`
	AvgLatencyMs float64 `db:"avg_latency_ms"`
}

// ModelUsage aggregates calls per model.
type ModelUsage struct {
	Model        string `db:"model"`
	Calls        int    `db:"calls"`
	InputTokens  int    `db:"input_tokens"`
	OutputTokens int    `db:"output_tokens"`
}

// LLMUsageByPurpose groups successful and failed calls by purpose.
func (s *Store) LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error) {
	var out []PurposeUsage
	err := s.db.SelectContext(ctx, &out, `SELECT purpose,
			COUNT(*) AS calls,
			COALESCE(SUM(input_tokens), 0) AS input_tokens,
			COALESCE(SUM(output_tokens), 0) AS output_tokens,
			COALESCE(AVG(latency_ms), 0) AS avg_latency_ms
		FROM llm_request_events GROUP BY purpose ORDER BY calls DESC, purpose`)
	if err != nil {
		return nil, fmt.Errorf("llm usage by purpose: %w", err)
	}
	return out, nil
}

// LLMUsageByModel groups calls by model.
func (s *Store) LLMUsageByModel(ctx context.Context) ([]ModelUsage, error) {
	var out []ModelUsage
	err := s.db.SelectContext(ctx, &out, `SELECT model,
			COUNT(*) AS calls,
			COALESCE(SUM(input_tokens), 0) AS input_tokens,
			COALESCE(SUM(output_tokens), 0) AS output_tokens
		FROM llm_request_events GROUP BY model ORDER BY calls DESC, model`)
	if err != nil {
		return nil, fmt.Errorf("llm usage by model: %w", err)
	}
	return out, nil
}

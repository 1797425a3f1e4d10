package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var eventTables = []string{"answer_events", "explanation_events", "lesson_runs", "llm_request_events"}

// Timestamps are stored as unix milliseconds.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS answer_events (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence    INTEGER NOT NULL UNIQUE,
		ts          INTEGER NOT NULL,
		run_id      TEXT    NOT NULL DEFAULT '',
		lesson_id   INTEGER NOT NULL,
		sentence_id INTEGER NOT NULL,
		prompt      TEXT    NOT NULL DEFAULT '',
		expected    TEXT    NOT NULL DEFAULT '',
		given       TEXT    NOT NULL DEFAULT '',
		correct     INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS answer_events_sentence ON answer_events (sentence_id)`,
	`CREATE TABLE IF NOT EXISTS explanation_events (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence   INTEGER NOT NULL UNIQUE,
		ts         INTEGER NOT NULL,
		run_id     TEXT    NOT NULL DEFAULT '',
		prompt     TEXT    NOT NULL DEFAULT '',
		expected   TEXT    NOT NULL DEFAULT '',
		given      TEXT    NOT NULL DEFAULT '',
		state      TEXT    NOT NULL,
		text       TEXT    NOT NULL DEFAULT '',
		error      TEXT    NOT NULL DEFAULT '',
		latency_ms INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS lesson_runs (
		run_id      TEXT    PRIMARY KEY,
		sequence    INTEGER NOT NULL UNIQUE,
		lesson_id   INTEGER NOT NULL,
		started_at  INTEGER NOT NULL,
		finished_at INTEGER NOT NULL DEFAULT 0,
		outcome     TEXT    NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS llm_request_events (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		sequence      INTEGER NOT NULL UNIQUE,
		ts            INTEGER NOT NULL,
		provider      TEXT    NOT NULL DEFAULT '',
		model         TEXT    NOT NULL DEFAULT '',
		purpose       TEXT    NOT NULL DEFAULT '',
		input_tokens  INTEGER NOT NULL DEFAULT 0,
		output_tokens INTEGER NOT NULL DEFAULT 0,
		latency_ms    INTEGER NOT NULL DEFAULT 0,
		success       INTEGER NOT NULL,
		error_message TEXT    NOT NULL DEFAULT '',
		request_body  TEXT    NOT NULL DEFAULT '',
		response_body TEXT    NOT NULL DEFAULT ''
	)`,
}

func migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%.40s...: %w", stmt, err)
		}
	}
	return nil
}

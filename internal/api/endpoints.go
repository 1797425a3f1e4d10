package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/abhisek/lingo/internal/lesson"
)

// Overview returns all levels together with the learner's aggregate stats.
func (c *Client) Overview(ctx context.Context) (lesson.Overview, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/levels", true, nil, &raw); err != nil {
		return lesson.Overview{}, err
	}

	// Early servers answered with a bare array of levels.
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		var levels []wireLevel
		if err := json.Unmarshal(trimmed, &levels); err != nil {
			return lesson.Overview{}, fmt.Errorf("decode levels: %w", err)
		}
		return wireOverview{Levels: levels}.toOverview(), nil
	}

	var w wireOverview
	if err := json.Unmarshal(raw, &w); err != nil {
		return lesson.Overview{}, fmt.Errorf("decode overview: %w", err)
	}
	return w.toOverview(), nil
}

// Lessons lists the lessons of a level with per-lesson progress.
func (c *Client) Lessons(ctx context.Context, levelID int) ([]lesson.Lesson, error) {
	var w []wireLesson
	path := fmt.Sprintf("/api/levels/%d/lessons", levelID)
	if err := c.do(ctx, http.MethodGet, path, true, nil, &w); err != nil {
		return nil, err
	}
	out := make([]lesson.Lesson, len(w))
	for i, l := range w {
		out[i] = l.toLesson()
	}
	return out, nil
}

// Sentences returns a lesson's sentences in presentation order, each with
// the learner's server-side mastery status. Gated lessons fail with
// ErrAccessDenied.
func (c *Client) Sentences(ctx context.Context, lessonID int) ([]lesson.Sentence, error) {
	var w []wireSentence
	path := fmt.Sprintf("/api/lessons/%d/sentences", lessonID)
	if err := c.do(ctx, http.MethodGet, path, true, nil, &w); err != nil {
		return nil, err
	}
	out := make([]lesson.Sentence, len(w))
	for i, s := range w {
		out[i] = s.toSentence()
	}
	return out, nil
}

// SaveProgress records the outcome of one checked answer.
func (c *Client) SaveProgress(ctx context.Context, sentenceID int, correct bool) error {
	body := saveProgressRequest{SentenceID: sentenceID, IsCorrect: correct}
	return c.do(ctx, http.MethodPost, "/api/progress/save", true, body, nil)
}

// ExplainError asks the server's AI endpoint why answer is wrong.
func (c *Client) ExplainError(ctx context.Context, prompt, correct, answer string) (string, error) {
	if strings.TrimSpace(answer) == "" {
		return "", ErrEmptyAnswer
	}

	body := explainRequest{PromptRU: prompt, CorrectEN: correct, UserAnswerEN: answer}
	var resp explainResponse
	if err := c.do(ctx, http.MethodPost, "/api/ai/explain-error", true, body, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", &StatusError{Status: http.StatusOK, Message: resp.Error}
	}
	if strings.TrimSpace(resp.Explanation) == "" {
		return "", &StatusError{Status: http.StatusOK, Message: "empty explanation"}
	}
	return resp.Explanation, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp tokenResponse
	body := credentials{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/login", false, body, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("login: server returned no token")
	}
	return resp.Token, nil
}

// Register creates an account. It does not sign in.
func (c *Client) Register(ctx context.Context, email, password string) error {
	body := credentials{Email: email, Password: password}
	return c.do(ctx, http.MethodPost, "/api/register", false, body, nil)
}

// Me returns the account the token belongs to.
func (c *Client) Me(ctx context.Context) (Account, error) {
	var acct Account
	if err := c.do(ctx, http.MethodGet, "/api/me", true, nil, &acct); err != nil {
		return Account{}, err
	}
	return acct, nil
}

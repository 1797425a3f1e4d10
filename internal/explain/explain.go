// Package explain produces short explanations for wrong answers. It never
// gates the trainer: callers get a Result immediately or through a callback,
// and failures collapse into a fallback message.
package explain

import (
	"context"
	"errors"
	"strings"

	"github.com/abhisek/lingo/internal/api"
)

// FallbackText is shown when no explanation could be produced.
const FallbackText = "AI explanation is unavailable right now."

// Input is one wrong answer to explain.
type Input struct {
	Prompt  string // Russian prompt
	Correct string // reference English answer
	Answer  string // what the learner typed
}

// Empty reports whether the learner's answer is blank.
func (in Input) Empty() bool {
	return strings.TrimSpace(in.Answer) == ""
}

// State is the lifecycle of one explanation.
type State int

const (
	StateNone     State = iota // Nothing to show (correct answer or not checked)
	StatePending               // Request in flight
	StateResolved              // Text holds the explanation
	StateFailed                // Text holds FallbackText, Err the cause
	StateSkipped               // Not requested (blank answer or explanations off)
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	case StateSkipped:
		return "skipped"
	default:
		return "none"
	}
}

// Result is what the trainer displays in the explanation panel.
type Result struct {
	State State
	Text  string
	Err   error
}

// Visible reports whether the panel should be shown at all.
func (r Result) Visible() bool {
	return r.State == StatePending || r.State == StateResolved || r.State == StateFailed
}

// Explainer produces an explanation for a wrong answer.
type Explainer interface {
	Explain(ctx context.Context, in Input) (string, error)
}

// ErrorExplainer is the server endpoint behind ServerExplainer.
type ErrorExplainer interface {
	ExplainError(ctx context.Context, prompt, correct, answer string) (string, error)
}

// ServerExplainer asks the backend's explain-error endpoint.
type ServerExplainer struct {
	client ErrorExplainer
}

// NewServerExplainer wraps an api client.
func NewServerExplainer(client ErrorExplainer) *ServerExplainer {
	return &ServerExplainer{client: client}
}

// Explain implements Explainer.
func (s *ServerExplainer) Explain(ctx context.Context, in Input) (string, error) {
	text, err := s.client.ExplainError(ctx, in.Prompt, in.Correct, in.Answer)
	if err != nil {
		return "", err
	}
	return text, nil
}

func failed(err error) Result {
	return Result{State: StateFailed, Text: FallbackText, Err: err}
}

func resolved(text string) Result {
	text = strings.TrimSpace(text)
	if text == "" {
		return failed(errors.New("empty explanation"))
	}
	return Result{State: StateResolved, Text: text}
}

func skippedFor(err error) bool {
	return errors.Is(err, api.ErrEmptyAnswer)
}

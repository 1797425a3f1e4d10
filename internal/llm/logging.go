package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/lingo/internal/store"
)

// Recorder persists one row per provider call. store.Store implements it.
type Recorder interface {
	AppendLLMRequest(ctx context.Context, ev store.LLMRequestEvent) error
}

type loggingProvider struct {
	inner    Provider
	provider string
	recorder Recorder
	logger   *zap.Logger
}

// WithLogging records every call, failed or not, through recorder and
// logs it at debug level. A failing recorder never fails the call.
func WithLogging(p Provider, provider string, recorder Recorder, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &loggingProvider{inner: p, provider: provider, recorder: recorder, logger: logger}
}

func (l *loggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	resp, err := l.inner.Generate(ctx, req)
	latency := time.Since(start)

	ev := store.LLMRequestEvent{
		Provider:    l.provider,
		Model:       l.inner.ModelID(),
		Purpose:     PurposeFrom(ctx),
		LatencyMs:   latency.Milliseconds(),
		Success:     err == nil,
		RequestBody: renderRequest(req),
	}
	if resp != nil {
		ev.Model = resp.Model
		ev.InputTokens = resp.Usage.InputTokens
		ev.OutputTokens = resp.Usage.OutputTokens
		ev.ResponseBody = string(resp.Content)
	}
	if err != nil {
		ev.ErrorMessage = err.Error()
	}

	l.logger.Debug("llm request",
		zap.String("provider", ev.Provider),
		zap.String("model", ev.Model),
		zap.String("purpose", ev.Purpose),
		zap.Duration("latency", latency),
		zap.Bool("success", ev.Success))

	if l.recorder != nil {
		if rerr := l.recorder.AppendLLMRequest(context.WithoutCancel(ctx), ev); rerr != nil {
			l.logger.Warn("failed to record LLM request", zap.Error(rerr))
		}
	}
	return resp, err
}

func (l *loggingProvider) ModelID() string { return l.inner.ModelID() }

// renderRequest is the human-readable request stored with the event.
func renderRequest(req Request) string {
	var b strings.Builder
	if req.System != "" {
		fmt.Fprintf(&b, "[system]\n%s\n\n", req.System)
	}
	for _, m := range req.Messages {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", m.Role, m.Content)
	}
	if req.Schema != nil {
		if def, err := json.Marshal(req.Schema.Definition); err == nil {
			fmt.Fprintf(&b, "[schema: %s]\n%s\n", req.Schema.Name, def)
		}
	}
	return b.String()
}

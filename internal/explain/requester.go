package explain

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/abhisek/lingo/internal/store"
)

// DefaultTimeout bounds a single explanation request.
const DefaultTimeout = 30 * time.Second

// Journal records explanation outcomes. Optional.
type Journal interface {
	AppendExplanation(ctx context.Context, e store.ExplanationEvent) error
}

// Requester runs explanation requests off the caller's goroutine.
type Requester struct {
	explainer Explainer
	journal   Journal
	logger    *zap.Logger
	timeout   time.Duration

	mu      sync.Mutex
	closed  bool
	pending chan job
	done    chan struct{}
}

type job struct {
	runID string
	in    Input
	cb    func(Result)
}

// NewRequester creates a requester. A nil explainer turns explanations off:
// every request resolves to StateSkipped.
func NewRequester(explainer Explainer, journal Journal, logger *zap.Logger) *Requester {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Requester{
		explainer: explainer,
		journal:   journal,
		logger:    logger,
		timeout:   DefaultTimeout,
		pending:   make(chan job, 32),
		done:      make(chan struct{}),
	}
	go r.processLoop()
	return r
}

// SetTimeout changes the per-request timeout.
func (r *Requester) SetTimeout(d time.Duration) {
	if d > 0 {
		r.timeout = d
	}
}

// Resolve produces a result synchronously. It never returns an error;
// failures become StateFailed with the fallback text.
func (r *Requester) Resolve(ctx context.Context, in Input) Result {
	return r.resolve(ctx, "", in)
}

// Dispatch queues a request and returns immediately. cb runs on the worker
// goroutine. When the queue is full or the requester is closed, cb receives
// a failed result on a fresh goroutine.
func (r *Requester) Dispatch(runID string, in Input, cb func(Result)) {
	if in.Empty() || r.explainer == nil {
		if cb != nil {
			go cb(Result{State: StateSkipped})
		}
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		if cb != nil {
			go cb(failed(errRequesterClosed))
		}
		return
	}

	select {
	case r.pending <- job{runID: runID, in: in, cb: cb}:
	default:
		r.logger.Warn("explanation queue full, dropping request")
		if cb != nil {
			go cb(failed(errQueueFull))
		}
	}
}

// Close stops accepting requests and waits for queued ones to finish.
func (r *Requester) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.done
		return
	}
	r.closed = true
	close(r.pending)
	r.mu.Unlock()
	<-r.done
}

func (r *Requester) processLoop() {
	defer close(r.done)
	for j := range r.pending {
		res := r.resolve(context.Background(), j.runID, j.in)
		if j.cb != nil {
			j.cb(res)
		}
	}
}

func (r *Requester) resolve(ctx context.Context, runID string, in Input) Result {
	if in.Empty() || r.explainer == nil {
		return Result{State: StateSkipped}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	text, err := r.explainer.Explain(ctx, in)
	latency := time.Since(start)

	var res Result
	switch {
	case err != nil && skippedFor(err):
		res = Result{State: StateSkipped}
	case err != nil:
		r.logger.Warn("explanation failed", zap.Error(err), zap.Duration("latency", latency))
		res = failed(err)
	default:
		res = resolved(text)
	}

	r.record(ctx, runID, in, res, latency)
	return res
}

func (r *Requester) record(ctx context.Context, runID string, in Input, res Result, latency time.Duration) {
	if r.journal == nil {
		return
	}
	ev := store.ExplanationEvent{
		RunID:     runID,
		Prompt:    in.Prompt,
		Expected:  in.Correct,
		Given:     in.Answer,
		State:     res.State.String(),
		Text:      res.Text,
		LatencyMs: latency.Milliseconds(),
	}
	if res.Err != nil {
		ev.Error = res.Err.Error()
	}
	if err := r.journal.AppendExplanation(context.WithoutCancel(ctx), ev); err != nil {
		r.logger.Warn("record explanation", zap.Error(err))
	}
}

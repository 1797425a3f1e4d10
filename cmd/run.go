package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/lingo/internal/api"
	"github.com/abhisek/lingo/internal/app"
	"github.com/abhisek/lingo/internal/auth"
	"github.com/abhisek/lingo/internal/config"
	"github.com/abhisek/lingo/internal/explain"
	"github.com/abhisek/lingo/internal/lesson"
	"github.com/abhisek/lingo/internal/llm"
	"github.com/abhisek/lingo/internal/progress"
	"github.com/abhisek/lingo/internal/screens/trainer"
	"github.com/abhisek/lingo/internal/store"
)

// deps holds everything a lesson run needs. Close releases it in
// dependency order.
type deps struct {
	cfg       config.Config
	logger    *zap.Logger
	store     *store.Store
	creds     *auth.File
	client    *api.Client
	tracker   *progress.Tracker
	requester *explain.Requester
	services  trainer.Services

	closers []func()
}

// setup loads config, opens the log, the store and the credentials, and
// builds the lesson services. The user must be logged in.
func setup(cmd *cobra.Command) (*deps, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	rt := &deps{cfg: cfg}

	logger, flush, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	rt.logger = logger
	rt.closers = append(rt.closers, flush)

	rt.creds, err = openCredentials()
	if err != nil {
		rt.Close()
		return nil, err
	}
	if err := rt.creds.Check(time.Now()); err != nil {
		rt.Close()
		return nil, fmt.Errorf("%w: run `lingo login` first", err)
	}

	rt.store, err = openStore(cfg)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.closers = append(rt.closers, func() { rt.store.Close() })

	rt.client, err = newClient(cfg, rt.creds, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}

	rt.tracker = progress.NewTracker(rt.client, rt.store, logger.Named("progress"))
	rt.tracker.SetSaveTimeout(cfg.Server.Timeout.Duration)
	rt.closers = append(rt.closers, rt.tracker.Wait)

	rt.services = trainer.Services{
		Loader:   lesson.NewRepository(rt.client, logger.Named("lesson")),
		Recorder: rt.tracker,
		Runs:     rt.store,
		Logger:   logger.Named("session"),
	}

	explainer, err := newExplainer(ctx, cfg, rt.client, rt.store, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Explanations unavailable:", err)
		logger.Warn("explanations disabled", zap.Error(err))
	}
	if explainer != nil {
		rt.requester = explain.NewRequester(explainer, rt.store, logger.Named("explain"))
		rt.requester.SetTimeout(cfg.Explain.Timeout.Duration)
		rt.closers = append(rt.closers, rt.requester.Close)
		rt.services.Explainer = rt.requester
	}
	return rt, nil
}

// newExplainer picks the explanation backend. It returns nil when
// explanations are turned off.
func newExplainer(ctx context.Context, cfg config.Config, client *api.Client, st *store.Store, logger *zap.Logger) (explain.Explainer, error) {
	switch cfg.Explain.Source {
	case config.SourceServer:
		return explain.NewServerExplainer(client), nil
	case config.SourceLLM:
		pcfg, ok := cfg.Provider(os.Getenv)
		if !ok {
			return nil, errors.New("no LLM provider configured (set LINGO_LLM_PROVIDER and its API key)")
		}
		provider, err := llm.NewProvider(ctx, pcfg, st, logger.Named("llm"))
		if err != nil {
			return nil, err
		}
		return explain.NewLLMExplainer(provider, explain.DefaultLLMConfig()), nil
	default:
		return nil, nil
	}
}

// Close releases resources in reverse order of acquisition.
func (rt *deps) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}

// accessPolicy asks the server whether the account is premium. When that
// fails the free policy applies and the server still gates lessons.
func (rt *deps) accessPolicy(ctx context.Context) (lesson.AccessPolicy, string) {
	acct, err := rt.client.Me(ctx)
	if err != nil {
		rt.logger.Warn("fetch account", zap.Error(err))
		return rt.cfg.AccessPolicy(false), rt.creds.Email()
	}
	return rt.cfg.AccessPolicy(acct.Premium), acct.Email
}

// runApp launches the TUI.
func runApp(cmd *cobra.Command, lessonID int) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	policy, email := rt.accessPolicy(cmd.Context())
	err = app.Run(app.Options{
		Catalog:  rt.client,
		Policy:   policy,
		Trainer:  rt.services,
		History:  rt.store,
		Account:  email,
		Logout:   rt.creds.Clear,
		LessonID: lessonID,
		Logger:   rt.logger,
	})
	if errors.Is(err, app.ErrAuthRequired) {
		return fmt.Errorf("%w: run `lingo login`", err)
	}
	return err
}

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/founderflow-backend/internal/config"
	"github.com/yungbote/founderflow-backend/internal/httpapi"
	"github.com/yungbote/founderflow-backend/internal/observability"
	"github.com/yungbote/founderflow-backend/internal/platform/logger"
)

type App struct {
	Log    *logger.Logger
	Config *config.Config

	Core    *Core
	server  *http.Server
	otelOff func(context.Context) error
}

// New loads configuration from the environment and wires the service.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a, err := NewWithConfig(ctx, cfg, log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

func NewWithConfig(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	otelOff := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "founderflow",
		Environment: cfg.Env,
	})

	var m *observability.Metrics
	if observability.Enabled() {
		m = observability.NewMetrics()
	}

	core, err := Wire(ctx, cfg, log, m)
	if err != nil {
		_ = otelOff(context.Background())
		return nil, err
	}

	srv := httpapi.NewServer(httpapi.Deps{
		Config:    cfg,
		Log:       log,
		Templates: core.Templates,
		Gateway:   core.Gateway,
		Pipeline:  core.Pipeline,
		Tracker:   core.Tracker,
		History:   core.History,
		Recorder:  core.Recorder,
		Hub:       core.Hub,
		Metrics:   m,
		Ready:     core.Ready,
	})

	return &App{
		Log:     log,
		Config:  cfg,
		Core:    core,
		server:  srv,
		otelOff: otelOff,
	}, nil
}

// Run serves until ctx is canceled, then drains in-flight submissions and
// releases every backend.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Log.Info("http server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.HTTP.ShutdownTimeout.Duration)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.Log.Warn("http shutdown", "error", err)
		}
		return nil
	})

	err := g.Wait()
	a.Close()
	return err
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Core != nil {
		a.Core.Close()
	}
	if a.otelOff != nil {
		_ = a.otelOff(context.Background())
		a.otelOff = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}

package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"promptlab/internal/gateway/config"
	"promptlab/internal/gateway/handler"
	"promptlab/internal/gateway/server"
	"promptlab/internal/gateway/service/workspace"
	"promptlab/internal/llm"
	"promptlab/internal/logger"
	"promptlab/internal/project"
	"promptlab/internal/translation"
)

type App struct {
	server  *server.Server
	svc     *workspace.Service
	stores  *gatewayStores
	limiter *llm.TokenBucket
	log     *zap.Logger
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(logger.Config{
		FilePath: cfg.Log.File,
		Level:    cfg.Log.Level,
		IsProd:   !cfg.IsLocal(),
	})
	a, err := build(ctx, cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return a, nil
}

func build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	// Dependencies
	stores, err := initStores(cfg, log)
	if err != nil {
		return nil, err
	}
	store := project.NewStore(stores.projects, project.StoreOptions{
		RetainedResults: cfg.RetainedResults,
		Logger:          logger.Module(log, "project"),
	})
	if err := store.Load(ctx); err != nil {
		stores.close(log)
		return nil, fmt.Errorf("failed to load projects: %w", err)
	}

	limiter := llm.NewTokenBucket(cfg.Retry.RateLimitRPS, cfg.Retry.RateLimitBurst)
	svc, err := workspace.New(ctx, workspace.Options{
		Store:     store,
		Cache:     translation.NewCache(cfg.Translation.CacheSize),
		Artifacts: stores.artifact,
		Factory:   newBackendFactory(cfg.Gemini, logger.Module(log, "llm")),
		APIKey:    cfg.Gemini.APIKey,
		Backoff:   llm.Backoff{MaxRetries: cfg.Retry.MaxRetries, InitialDelay: cfg.Retry.InitialDelay},
		Limiter:   limiter,
		Debounce:  cfg.Translation.Debounce,
		Logger:    logger.Module(log, "workspace"),
	})
	if err != nil {
		limiter.Stop()
		stores.close(log)
		return nil, fmt.Errorf("failed to init workspace: %w", err)
	}

	// Routing & Server
	h := handler.New(svc, logger.Module(log, "handler"))
	mux := server.NewMux(h, logger.Module(log, "http"))
	srv := server.New(cfg.Port, mux, log)

	return &App{
		server:  srv,
		svc:     svc,
		stores:  stores,
		limiter: limiter,
		log:     log,
	}, nil
}

func (a *App) Logger() *zap.Logger { return a.log }

func (a *App) Start() error {
	return a.server.Start()
}

// Shutdown stops the listener, cancels pending translations and closes
// the stores.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	a.svc.Close()
	a.limiter.Stop()
	a.stores.close(a.log)
	if syncErr := a.log.Sync(); syncErr != nil && !isSyncNoise(syncErr) {
		err = errors.Join(err, syncErr)
	}
	return err
}

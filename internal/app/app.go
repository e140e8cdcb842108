// Package app initializes and holds the long-lived services every command
// shares: configuration, the logger, the database store and the portal
// HTTP client.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ngmonitor/courtharvest/internal/config"
	"github.com/ngmonitor/courtharvest/internal/fetch"
	"github.com/ngmonitor/courtharvest/internal/logging"
	"github.com/ngmonitor/courtharvest/internal/metrics"
	"github.com/ngmonitor/courtharvest/internal/store/postgres"
)

// App is the dependency container built once at startup and handed to the
// subcommands through the command context.
type App struct {
	cfg     config.Config
	logger  *zap.Logger
	store   *postgres.Store
	fetcher *fetch.Client
}

// New builds the container: config first, then everything config feeds.
// It fails fast if any critical service cannot be initialized.
func New(ctx context.Context, configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	metrics.Init()

	store, err := postgres.New(ctx, postgres.Config{
		DSN:             cfg.DB.DSN,
		MaxConns:        int32(cfg.DB.MaxConns),
		MinConns:        int32(cfg.DB.MinConns),
		MaxConnLifetime: cfg.ConnLifetime(),
	})
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	fetcher, err := fetch.NewClient(fetch.Config{
		UserAgent:      cfg.HTTP.UserAgent,
		RequestTimeout: cfg.RequestTimeout(),
		Parallelism:    cfg.HTTP.Parallelism,
		Delay:          cfg.RequestDelay(),
	}, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init fetcher: %w", err)
	}

	logger.Info("Application services initialized",
		zap.String("portal", cfg.Portal.BaseURL),
		zap.Int("harvest_concurrency", cfg.Harvest.Concurrency),
	)
	return &App{cfg: cfg, logger: logger, store: store, fetcher: fetcher}, nil
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the shared zap logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// Store returns the Postgres-backed harvest store.
func (a *App) Store() *postgres.Store { return a.store }

// Fetcher returns the portal HTTP client.
func (a *App) Fetcher() *fetch.Client { return a.fetcher }

// Close shuts the container down. Safe to call once after any successful New.
func (a *App) Close() {
	a.logger.Info("Shutting down application services")
	a.store.Close()
	// Best effort: stderr sync fails on some platforms and that is fine.
	_ = a.logger.Sync()
}

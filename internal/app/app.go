package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/branchtalk/internal/config"
	"github.com/specialistvlad/branchtalk/internal/ctxlog"
	"github.com/specialistvlad/branchtalk/internal/localsession"
	"github.com/specialistvlad/branchtalk/internal/metrics"
	"github.com/specialistvlad/branchtalk/internal/session"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW    io.Writer
	logger  *slog.Logger
	config  *Config
	model   *config.Model
	factory session.SessionFactory
	metrics *metrics.Collector
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its own isolated logger and metrics
// registry. A nil factory means a local session backed by the configured
// collaborator.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, factory session.SessionFactory) (*App, error) {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, appConfig.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Debug("Configuration loaded and translated into unified model.")

	collector := metrics.New("branchtalk")
	switch f := factory.(type) {
	case nil:
		factory = &localsession.SessionFactory{Observer: collector}
	case *localsession.SessionFactory:
		if f.Observer == nil {
			f.Observer = collector
		}
	}

	return &App{
		outW:    outW,
		logger:  logger,
		config:  appConfig,
		model:   model,
		factory: factory,
		metrics: collector,
	}, nil
}

// Model returns the loaded configuration. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}

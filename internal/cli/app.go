// Package cli provides the command-line interface for chatdock.
package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/chatdock/chatdock/internal/application/port"
	"github.com/chatdock/chatdock/internal/infrastructure/config"
	"github.com/chatdock/chatdock/internal/infrastructure/persistence/sqlite"
	"github.com/chatdock/chatdock/internal/logging"
)

// App holds the shared dependencies of the CLI commands: configuration,
// logger, the state database and its repository.
type App struct {
	ConfigManager *config.Manager
	Config        *config.Config
	Logger        zerolog.Logger
	DB            *sql.DB
	Store         port.StateStore
	Theme         *Theme
}

// NewApp loads configuration, builds the logger, and opens the state
// database.
func NewApp() (*App, error) {
	mgr, err := config.NewManager()
	if err != nil {
		return nil, fmt.Errorf("create config manager: %w", err)
	}
	if err := mgr.Load(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := mgr.Get()

	logger := logging.NewFromConfigValues(cfg.Logging.Level, cfg.Logging.Format)
	ctx := logging.WithContext(context.Background(), logger)

	db, err := sqlite.NewConnection(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}

	return &App{
		ConfigManager: mgr,
		Config:        cfg,
		Logger:        logger,
		DB:            db,
		Store:         sqlite.NewStateRepository(db),
		Theme:         NewTheme(),
	}, nil
}

// Context returns a background context carrying the app logger.
func (a *App) Context() context.Context {
	return logging.WithContext(context.Background(), a.Logger)
}

// Close releases the state database.
func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

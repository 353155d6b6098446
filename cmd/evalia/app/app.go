// Package app provides the application context and dependency management
// for the evalia CLI. It centralizes configuration, logging, backend
// selection and the client lifecycle.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/evalia-ai/evalia"
	"github.com/evalia-ai/evalia/internal/cmd/application"
	"github.com/evalia-ai/evalia/pkg/errors"
)

// App represents the evalia application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Client instance (lazy-initialized, singleton)
	mu     sync.Mutex
	client evalia.Client
}

// Ensure App implements application.Application at compile time.
var _ application.Application = (*App)(nil)

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// StoreDriver returns the configured database driver.
func (a *App) StoreDriver() string {
	return a.config.DatabaseDriver
}

// Discord returns the Discord notification settings.
func (a *App) Discord() (string, string) {
	return a.config.DiscordToken, a.config.DiscordChannelID
}

// Client returns the started client, creating it on first use.
func (a *App) Client(ctx context.Context) (evalia.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.client != nil {
		return a.client, nil
	}

	opts, err := a.clientOptions(ctx)
	if err != nil {
		return nil, err
	}
	client, err := evalia.New(opts...)
	if err != nil {
		return nil, errors.WrapResource("create", "client", "", err)
	}
	if err := client.Start(ctx); err != nil {
		_ = client.Close()
		return nil, errors.WrapResource("start", "client", "", err)
	}

	a.client = client
	return client, nil
}

// Shutdown stops the evaluation workers and releases the backends.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.Lock()
	client := a.client
	a.client = nil
	a.mu.Unlock()

	if client == nil {
		return nil
	}
	if err := client.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close client during shutdown")
		return err
	}
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithClient sets a custom client (useful for testing).
func WithClient(client evalia.Client) Option {
	return func(a *App) error {
		a.client = client
		return nil
	}
}

// Package application provides the application interface for EvalIA commands.
//
// Commands accept the interface rather than the concrete App type so they
// can be tested against a Mock with an in-memory client.
//
//	mock := &application.Mock{
//	    ClientFunc: func(context.Context) (evalia.Client, error) {
//	        return client, nil
//	    },
//	}
//	cmd := events.NewCommand(mock)
package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/evalia-ai/evalia"
	"github.com/evalia-ai/evalia/internal/store"
)

// Application provides what commands need from the running app.
//
// Thread Safety: All methods must be safe for concurrent access.
type Application interface {
	// Client returns the shared, started client. It is created on first use
	// from the configured backends.
	Client(ctx context.Context) (evalia.Client, error)

	// OpenStore opens the configured store, applying the schema. The caller
	// owns the returned store and must close it.
	OpenStore(ctx context.Context) (store.Store, error)

	// StoreDriver names the configured store backend (memory, sqlite, postgres).
	StoreDriver() string

	// Discord returns the bot token and channel for realtime notifications.
	// Both are empty when notifications are off.
	Discord() (token, channelID string)

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (table, json, yaml...).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}

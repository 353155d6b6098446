package application

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/evalia-ai/evalia"
	"github.com/evalia-ai/evalia/internal/store"
	"github.com/evalia-ai/evalia/internal/store/memory"
)

// Mock provides a mock implementation of Application for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
type Mock struct {
	ClientFunc       func(ctx context.Context) (evalia.Client, error)
	OpenStoreFunc    func(ctx context.Context) (store.Store, error)
	StoreDriverFunc  func() string
	DiscordFunc      func() (string, string)
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

// Client returns a client using the mock function or nil.
func (m *Mock) Client(ctx context.Context) (evalia.Client, error) {
	if m.ClientFunc != nil {
		return m.ClientFunc(ctx)
	}
	return nil, nil
}

// OpenStore returns a store using the mock function or a fresh memory store.
func (m *Mock) OpenStore(ctx context.Context) (store.Store, error) {
	if m.OpenStoreFunc != nil {
		return m.OpenStoreFunc(ctx)
	}
	return memory.New(), nil
}

// StoreDriver returns the driver using the mock function or "memory".
func (m *Mock) StoreDriver() string {
	if m.StoreDriverFunc != nil {
		return m.StoreDriverFunc()
	}
	return "memory"
}

// Discord returns Discord settings using the mock function or empty values.
func (m *Mock) Discord() (string, string) {
	if m.DiscordFunc != nil {
		return m.DiscordFunc()
	}
	return "", ""
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builtBy using the mock function or "test".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "test"
}

// Ensure Mock implements Application at compile time.
var _ Application = (*Mock)(nil)

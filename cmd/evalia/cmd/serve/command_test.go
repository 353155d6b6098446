package serve

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalia-ai/evalia"
	"github.com/evalia-ai/evalia/internal/cmd/application"
	"github.com/evalia-ai/evalia/internal/server"
	"github.com/evalia-ai/evalia/internal/store/memory"
)

func TestParseConfigDefaults(t *testing.T) {
	cmd := NewCommand(&application.Mock{})
	require.NoError(t, cmd.ParseFlags(nil))

	cfg := parseConfig(cmd, &application.Mock{})
	want := server.DefaultConfig()
	assert.Equal(t, want.Port, cfg.Port)
	assert.Equal(t, want.Host, cfg.Host)
	assert.Equal(t, want.PathPrefix, cfg.PathPrefix)
	assert.Equal(t, want.RateLimit, cfg.RateLimit)
	assert.Equal(t, want.CacheTTL, cfg.CacheTTL)
	assert.Equal(t, want.MaxUploadMB, cfg.MaxUploadMB)
	assert.False(t, cfg.CORSEnabled)
	assert.Empty(t, cfg.DiscordToken)
}

func TestParseConfigFlags(t *testing.T) {
	mock := &application.Mock{
		DiscordFunc: func() (string, string) { return "bot-token", "chan-1" },
	}
	cmd := NewCommand(mock)
	require.NoError(t, cmd.ParseFlags([]string{
		"--port", "9090",
		"--host", "0.0.0.0",
		"--cors-origins", "http://localhost:5173,https://evalia.app",
		"--rate-limit", "0",
		"--cache-ttl", "5s",
		"--max-upload-mb", "250",
		"--metrics=false",
	}))

	cfg := parseConfig(cmd, mock)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.True(t, cfg.CORSEnabled, "explicit origins enable CORS")
	assert.Equal(t, []string{"http://localhost:5173", "https://evalia.app"}, cfg.CORSOrigins)
	assert.Equal(t, 0, cfg.RateLimit)
	assert.Equal(t, 5*time.Second, cfg.CacheTTL)
	assert.Equal(t, 250, cfg.MaxUploadMB)
	assert.False(t, cfg.MetricsEnabled)
	assert.Equal(t, "bot-token", cfg.DiscordToken)
	assert.Equal(t, "chan-1", cfg.DiscordChannelID)
}

func TestRunStopsOnCancel(t *testing.T) {
	client, err := evalia.New(evalia.WithStore(memory.New()), evalia.WithArtifactsDir(t.TempDir()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	mock := &application.Mock{
		ClientFunc: func(context.Context) (evalia.Client, error) { return client, nil },
	}
	cfg := server.DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- run(ctx, io.Discard, mock, cfg) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}
}

package application

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/evalia-ai/evalia"
	"github.com/evalia-ai/evalia/internal/store/memory"
)

// NewTestMock returns a Mock backed by a started in-memory client loaded
// with the demo seed. The client is closed when the test ends.
func NewTestMock(t testing.TB, format string) *Mock {
	t.Helper()

	nop := zerolog.Nop()
	client, err := evalia.New(
		evalia.WithStore(memory.New()),
		evalia.WithArtifactsDir(t.TempDir()),
		evalia.WithSeed(true),
		evalia.WithEvaluationDelay(time.Millisecond),
		evalia.WithLogger(&nop),
	)
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	if err := client.Start(context.Background()); err != nil {
		t.Fatalf("starting client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return &Mock{
		ClientFunc:       func(context.Context) (evalia.Client, error) { return client, nil },
		OutputFormatFunc: func() string { return format },
	}
}

package sse

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalia-ai/evalia/internal/server/events"
)

func newRunning(t *testing.T) *Broadcaster {
	t.Helper()
	logger := zerolog.Nop()
	b := NewBroadcaster(&logger)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go b.Run(ctx)
	return b
}

func TestBroadcasterScope(t *testing.T) {
	b := newRunning(t)
	scoped := &client{ch: make(chan Event, 8), scope: events.Scope{EventID: "1"}}
	all := &client{ch: make(chan Event, 8)}
	b.newClients <- scoped
	b.newClients <- all
	require.Eventually(t, func() bool { return b.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	b.Broadcast(Event{Event: "leaderboard.updated", EventID: "2"})
	b.Broadcast(Event{Event: "leaderboard.updated", EventID: "1"})

	require.Eventually(t, func() bool { return len(all.ch) == 2 }, time.Second, 5*time.Millisecond)
	require.Len(t, scoped.ch, 1)
	assert.Equal(t, "1", (<-scoped.ch).EventID)
}

func TestServeHTTPStreamsEvents(t *testing.T) {
	b := newRunning(t)
	srv := httptest.NewServer(b)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"?event_id=7", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readFrame := func() string {
		var lines []string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if line == "\n" {
				return strings.Join(lines, "")
			}
			lines = append(lines, line)
		}
	}

	assert.Contains(t, readFrame(), "event: connected")
	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	b.Broadcast(Event{Event: "submission.evaluated", ID: "1", EventID: "7", Data: map[string]any{"score": 0.91}})
	frame := readFrame()
	assert.Contains(t, frame, "event: submission.evaluated")
	assert.Contains(t, frame, `"score":0.91`)

	cancel()
	assert.Eventually(t, func() bool { return b.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

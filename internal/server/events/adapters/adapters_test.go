package adapters

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalia-ai/evalia/internal/server/events"
	"github.com/evalia-ai/evalia/internal/server/sse"
	ws "github.com/evalia-ai/evalia/internal/server/websocket"
	"github.com/evalia-ai/evalia/pkg/competitions"
)

func nop() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// Adapters must satisfy the subscriber interface.
var (
	_ events.Subscriber = (*SSESubscriber)(nil)
	_ events.Subscriber = (*WebSocketSubscriber)(nil)
	_ events.Subscriber = (*DiscordSubscriber)(nil)
	_ events.Filter     = (*DiscordSubscriber)(nil)
)

func TestTransportSubscribers(t *testing.T) {
	hub := ws.NewHub(nop())
	broadcaster := sse.NewBroadcaster(nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)
	go broadcaster.Run(ctx)

	event := events.Event{Type: events.LeaderboardUpdated, EventID: "1", Timestamp: time.Now(), Data: map[string]any{"event_id": "1"}}
	assert.NoError(t, NewWebSocketSubscriber(hub).Send(event))
	assert.NoError(t, NewSSESubscriber(broadcaster).Send(event))
	assert.NoError(t, NewWebSocketSubscriber(hub).Close())
	assert.NoError(t, NewSSESubscriber(broadcaster).Close())
}

type fakeMessenger struct {
	mu      sync.Mutex
	channel string
	embeds  []*discordgo.MessageEmbed
	err     error
}

func (f *fakeMessenger) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.channel = channelID
	f.embeds = append(f.embeds, embed)
	return &discordgo.Message{ChannelID: channelID}, nil
}

func TestDiscordSubscriber(t *testing.T) {
	score, rank := 0.9134, 2
	evaluated := &competitions.Submission{
		ID: "s1", UserName: "Alice Martin", EventTitle: "Classification d'Images Médicales",
		FileName: "model.pkl", Score: &score, Rank: &rank,
	}
	event := &competitions.Event{
		Title: "Vision", Theme: competitions.ThemeVision, Difficulty: competitions.DifficultyAdvanced,
		Organizer: competitions.Organizer{Name: "Dr. Sophie Laurent"},
	}

	tests := []struct {
		name   string
		event  events.Event
		embeds int
		title  string
	}{
		{name: "evaluated submission", event: events.Event{Type: events.SubmissionEvaluated, Data: evaluated}, embeds: 1, title: "Nouvelle soumission évaluée"},
		{name: "new event", event: events.Event{Type: events.EventCreated, Data: event}, embeds: 1, title: "Vision"},
		{name: "private event", event: events.Event{Type: events.EventCreated, Data: &competitions.Event{IsPrivate: true}}},
		{name: "unscored submission", event: events.Event{Type: events.SubmissionEvaluated, Data: &competitions.Submission{}}},
		{name: "other type", event: events.Event{Type: events.EventJoined, Data: map[string]any{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeMessenger{}
			sub := NewDiscordSubscriber(m, "chan-1", nop())
			require.NoError(t, sub.Send(tt.event))
			require.Len(t, m.embeds, tt.embeds)
			if tt.embeds > 0 {
				assert.Equal(t, "chan-1", m.channel)
				assert.Equal(t, tt.title, m.embeds[0].Title)
			}
		})
	}

	t.Run("wants", func(t *testing.T) {
		sub := NewDiscordSubscriber(&fakeMessenger{}, "chan-1", nop())
		assert.True(t, sub.Wants(events.SubmissionEvaluated))
		assert.True(t, sub.Wants(events.EventCreated))
		assert.False(t, sub.Wants(events.LeaderboardUpdated))
	})

	t.Run("fields", func(t *testing.T) {
		embed := submissionEmbed(evaluated)
		require.Len(t, embed.Fields, 3)
		assert.Equal(t, "0.9134", embed.Fields[0].Value)
		assert.Equal(t, "#2", embed.Fields[1].Value)
	})

	t.Run("send error", func(t *testing.T) {
		m := &fakeMessenger{err: fmt.Errorf("HTTP 403 Forbidden")}
		err := NewDiscordSubscriber(m, "chan-1", nop()).Send(events.Event{Type: events.SubmissionEvaluated, Data: evaluated})
		assert.ErrorContains(t, err, "403")
	})
}

func TestNewDiscordSession(t *testing.T) {
	_, err := NewDiscordSession("")
	assert.Error(t, err)

	s, err := NewDiscordSession("token")
	require.NoError(t, err)
	assert.Equal(t, "Bot token", s.Token)
}

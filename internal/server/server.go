// Package server provides the HTTP server of the EvalIA API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/evalia-ai/evalia"
	"github.com/evalia-ai/evalia/internal/server/cache"
	"github.com/evalia-ai/evalia/internal/server/events"
	"github.com/evalia-ai/evalia/internal/server/events/adapters"
	"github.com/evalia-ai/evalia/internal/server/handlers"
	"github.com/evalia-ai/evalia/internal/server/middleware"
	"github.com/evalia-ai/evalia/internal/server/sse"
	ws "github.com/evalia-ai/evalia/internal/server/websocket"
	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
	"github.com/evalia-ai/evalia/pkg/logging"
)

// rateLimitCleanupInterval is how often idle rate limit buckets are dropped.
const rateLimitCleanupInterval = time.Minute

// Server holds the HTTP server state and dependencies.
type Server struct {
	client         evalia.Client
	cache          *cache.Cache
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	handlers       *handlers.Handlers
	rateLimiter    *middleware.RateLimiter
	logger         *zerolog.Logger
	config         Config
	ctx            context.Context
	cancel         context.CancelFunc
	startTime      time.Time
}

// New creates a new server instance for client. The client's hooks are
// connected to the realtime broker; the client itself is started and closed
// by the caller.
func New(client evalia.Client, cfg Config, logger *zerolog.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger.Debug().Msg("Creating new server instance")

	if cfg.CacheTTL == 0 {
		cfg.CacheTTL = 30 * time.Second
	}
	if cfg.PathPrefix == "" {
		cfg.PathPrefix = "/api/v1"
	}

	broker := events.NewBroker(logger)
	wsHub := ws.NewHub(logger)
	sseBroadcaster := sse.NewBroadcaster(logger)

	// Subscribe transports to broker
	broker.Subscribe(adapters.NewWebSocketSubscriber(wsHub))
	broker.Subscribe(adapters.NewSSESubscriber(sseBroadcaster))
	logger.Debug().Msg("Realtime transports subscribed to event broker")

	if cfg.DiscordToken != "" {
		session, err := adapters.NewDiscordSession(cfg.DiscordToken)
		if err != nil {
			return nil, err
		}
		broker.Subscribe(adapters.NewDiscordSubscriber(session, cfg.DiscordChannelID, logger))
		logger.Info().Str("channel_id", cfg.DiscordChannelID).Msg("Discord notifications enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())

	c := cache.New(cfg.CacheTTL, cfg.CacheTTL*2)
	s := &Server{
		client:         client,
		cache:          c,
		broker:         broker,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		logger:         logger,
		config:         cfg,
		ctx:            ctx,
		cancel:         cancel,
		startTime:      time.Now(),
	}
	if cfg.RateLimit > 0 {
		s.rateLimiter = middleware.NewRateLimiter(cfg.RateLimit, logger)
	}

	s.handlers = handlers.New(handlers.Deps{
		Client: client,
		Cache:  c,
		Broker: broker,
		Hub:    wsHub,
		SSE:    sseBroadcaster,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true // Allow all origins for WebSocket
			},
		},
		Logger:         logger,
		MaxUploadBytes: int64(cfg.MaxUploadMB) << 20,
	})

	s.connectHooks()

	logger.Debug().Msg("Server instance created successfully")
	return s, nil
}

// connectHooks registers platform hooks that publish to the broker and
// keep the leaderboard cache fresh. Realtime clients are not scoped per
// user, so activity in private events is never published.
func (s *Server) connectHooks() {
	s.client.OnEventCreated(func(e *competitions.Event) {
		if !e.IsPrivate {
			s.broker.Publish(events.EventCreated, e.ID, e)
		}
	})

	s.client.OnEventUpdated(func(e *competitions.Event) {
		s.invalidate(e.ID)
		if !e.IsPrivate {
			s.broker.Publish(events.EventUpdated, e.ID, e)
		}
	})

	s.client.OnEventJoined(func(e *competitions.Event, userID string) {
		if !e.IsPrivate {
			s.broker.Publish(events.EventJoined, e.ID, membership(e, userID))
		}
	})

	s.client.OnEventLeft(func(e *competitions.Event, userID string) {
		if !e.IsPrivate {
			s.broker.Publish(events.EventLeft, e.ID, membership(e, userID))
		}
	})

	s.client.OnSubmissionCreated(func(sub *competitions.Submission) {
		if s.public(sub.EventID) {
			s.broker.Publish(events.SubmissionCreated, sub.EventID, sub)
		}
	})

	s.client.OnSubmissionEvaluated(func(sub *competitions.Submission) {
		s.invalidate(sub.EventID)
		if !s.public(sub.EventID) {
			return
		}
		s.broker.Publish(events.SubmissionEvaluated, sub.EventID, sub)
		s.broker.Publish(events.LeaderboardUpdated, sub.EventID, map[string]any{
			"event_id":      sub.EventID,
			"submission_id": sub.ID,
			"user_id":       sub.UserID,
		})
		s.logger.Debug().
			Str("event_id", sub.EventID).
			Str("submission_id", sub.ID).
			Msg("Leaderboard update published")
	})

	s.client.OnSubmissionFailed(func(sub *competitions.Submission) {
		if s.public(sub.EventID) {
			s.broker.Publish(events.SubmissionFailed, sub.EventID, sub)
		}
	})

	s.logger.Info().Msg("Platform hooks connected to event broker")
}

// public reports whether an anonymous viewer can see eventID.
func (s *Server) public(eventID string) bool {
	_, err := s.client.GetEvent(s.ctx, nil, eventID)
	if err != nil && !errors.IsNotFound(err) {
		s.logger.Warn().Err(err).Str("event_id", eventID).Msg("Event lookup failed, update not published")
	}
	return err == nil
}

func membership(e *competitions.Event, userID string) map[string]any {
	return map[string]any{
		"event_id":           e.ID,
		"user_id":            userID,
		"participants_count": e.Stats.ParticipantsCount,
	}
}

// invalidate drops the cached leaderboards that depend on eventID.
func (s *Server) invalidate(eventID string) {
	n := s.cache.DeletePrefix(cache.PrefixEventLeaderboard + eventID + ":")
	n += s.cache.DeletePrefix(cache.PrefixGlobalLeaderboard)
	if n > 0 {
		s.logger.Debug().Str("event_id", eventID).Int("entries", n).Msg("Leaderboard cache invalidated")
	}
}

// Start starts background services (broker, WebSocket hub, SSE broadcaster,
// rate limiter cleanup) and marks the server ready.
func (s *Server) Start() {
	s.logger.Debug().Msg("Starting background services")

	go s.broker.Run(s.ctx)
	go s.wsHub.Run(s.ctx)
	go s.sseBroadcaster.Run(s.ctx)

	if s.rateLimiter != nil {
		go func() {
			ticker := time.NewTicker(rateLimitCleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-s.ctx.Done():
					return
				case now := <-ticker.C:
					s.rateLimiter.Cleanup(now)
				}
			}
		}()
	}

	s.handlers.SetReady(true)
	s.logger.Debug().Msg("All background services started")
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// Shutdown stops background services. Realtime clients are disconnected.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down server background services")
	s.handlers.SetReady(false)
	s.cancel()

	select {
	case <-ctx.Done():
		s.logger.Warn().Msg("Background services shutdown timed out")
		return ctx.Err()
	case <-time.After(100 * time.Millisecond):
		s.logger.Info().Msg("Background services shut down successfully")
	}
	return nil
}

// Cache returns the server's cache instance.
func (s *Server) Cache() *cache.Cache {
	return s.cache
}

// Broker returns the event broker for publishing events.
func (s *Server) Broker() *events.Broker {
	return s.broker
}

// StartTime returns the server start time for uptime calculations.
func (s *Server) StartTime() time.Time {
	return s.startTime
}

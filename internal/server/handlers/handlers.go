// Package handlers provides HTTP request handlers for the EvalIA API.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/evalia-ai/evalia"
	"github.com/evalia-ai/evalia/internal/auth"
	"github.com/evalia-ai/evalia/internal/server/cache"
	"github.com/evalia-ai/evalia/internal/server/events"
	"github.com/evalia-ai/evalia/internal/server/response"
	"github.com/evalia-ai/evalia/internal/server/sse"
	ws "github.com/evalia-ai/evalia/internal/server/websocket"
	"github.com/evalia-ai/evalia/pkg/competitions"
	pkgerrors "github.com/evalia-ai/evalia/pkg/errors"
	"github.com/evalia-ai/evalia/pkg/logging"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	client         evalia.Client
	cache          *cache.Cache
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger

	maxUploadBytes int64
	startedAt      time.Time
	ready          atomic.Bool
}

// Deps groups the collaborators of the handlers.
type Deps struct {
	Client         evalia.Client
	Cache          *cache.Cache
	Broker         *events.Broker
	Hub            *ws.Hub
	SSE            *sse.Broadcaster
	Upgrader       websocket.Upgrader
	Logger         *zerolog.Logger
	MaxUploadBytes int64
}

// New creates a new Handlers instance.
func New(d Deps) *Handlers {
	logger := d.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Handlers{
		client:         d.Client,
		cache:          d.Cache,
		broker:         d.Broker,
		wsHub:          d.Hub,
		sseBroadcaster: d.SSE,
		upgrader:       d.Upgrader,
		logger:         logger,
		maxUploadBytes: d.MaxUploadBytes,
		startedAt:      time.Now(),
	}
}

// SetReady flips the readiness probe.
func (h *Handlers) SetReady(ready bool) {
	h.ready.Store(ready)
}

// fail writes the response for err. Errors that map to 500 are logged
// with the request-scoped logger since their details are not returned.
func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	if response.StatusOf(err) >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error().Err(err).Msg("Request failed")
	}
	response.ErrorFromType(w, err)
}

// invalidateLeaderboards drops every cached leaderboard. It is used after
// deletions, which carry no event ID to scope the invalidation.
func (h *Handlers) invalidateLeaderboards() {
	h.cache.DeletePrefix(cache.PrefixEventLeaderboard)
	h.cache.DeletePrefix(cache.PrefixGlobalLeaderboard)
}

// currentUser returns the authenticated user of the request, or nil.
func currentUser(r *http.Request) *competitions.User {
	return auth.UserFrom(r.Context())
}

// decodeJSON reads a JSON body into v. An empty body leaves v untouched
// when allowEmpty is set.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	err := json.NewDecoder(r.Body).Decode(v)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF) && allowEmpty:
		return nil
	case errors.Is(err, io.EOF):
		return pkgerrors.NewParseError("json", "", "request body is empty", err)
	}
	return pkgerrors.NewParseError("json", "", "malformed request body", err)
}

package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/evalia-ai/evalia/internal/server/events"
	ws "github.com/evalia-ai/evalia/internal/server/websocket"
)

// HandleWebSocket handles WebSocket connections at /api/v1/updates/ws.
// @Summary WebSocket updates
// @Description WebSocket connection for real-time platform updates. event_id restricts the stream to one competition and types to a comma-separated list of event types.
// @Tags updates
// @Param event_id query string false "Competition ID"
// @Param types query string false "Event types"
// @Success 101 "Switching Protocols"
// @Router /api/v1/updates/ws [get].
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	scope := events.ScopeFromQuery(r.URL.Query())
	client := ws.NewClient(uuid.NewString(), scope, h.wsHub, conn)
	h.wsHub.Register(client)

	h.wsHub.Broadcast(ws.Message{
		Type:      string(events.ClientConnected),
		EventID:   scope.EventID,
		Timestamp: time.Now().UTC(),
		Data: map[string]any{
			"message": "Client connected to EvalIA updates",
		},
	})

	go client.WritePump()
	go client.ReadPump()
}

// HandleSSE handles Server-Sent Events at /api/v1/updates/stream.
// @Summary SSE updates stream
// @Description Server-Sent Events stream of platform updates, narrowed like the WebSocket endpoint.
// @Tags updates
// @Produce text/event-stream
// @Param event_id query string false "Competition ID"
// @Param types query string false "Event types"
// @Success 200 "Event stream"
// @Router /api/v1/updates/stream [get].
func (h *Handlers) HandleSSE(w http.ResponseWriter, r *http.Request) {
	h.sseBroadcaster.ServeHTTP(w, r)
}

package handlers

import (
	"net/http"
	"strings"

	"github.com/evalia-ai/evalia/internal/server/cache"
	"github.com/evalia-ai/evalia/internal/server/response"
	"github.com/evalia-ai/evalia/pkg/errors"
	"github.com/evalia-ai/evalia/pkg/leaderboard"
)

// HandleEventLeaderboard handles GET /api/v1/events/{id}/leaderboard.
// @Summary Event leaderboard
// @Description Ranked participants of an event. Search filters rows by name and keeps their ranks.
// @Tags leaderboards
// @Produce json
// @Param id path string true "Event ID or slug"
// @Param search query string false "Case-insensitive participant name filter"
// @Success 200 {object} response.Response{data=[]competitions.LeaderboardEntry}
// @Failure 404 {object} response.Response{error=response.Error}
// @Router /api/v1/events/{id}/leaderboard [get].
func (h *Handlers) HandleEventLeaderboard(w http.ResponseWriter, r *http.Request) {
	// The event is resolved first so private events stay hidden and the
	// cache is keyed by ID whichever form the path used.
	e, err := h.client.GetEvent(r.Context(), currentUser(r), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	search := strings.TrimSpace(r.URL.Query().Get("search"))
	cacheKey := cache.PrefixEventLeaderboard + e.ID + ":" + strings.ToLower(search)
	if cached, found := h.cache.Get(cacheKey); found {
		response.OK(w, cached)
		return
	}

	entries, err := h.client.EventLeaderboard(r.Context(), e.ID, search)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.cache.Set(cacheKey, entries)
	response.OK(w, entries)
}

// HandleGlobalLeaderboard handles GET /api/v1/leaderboard.
// @Summary Global leaderboard
// @Description Participants ranked across every event
// @Tags leaderboards
// @Produce json
// @Param order query string false "participation (default) or average_score"
// @Param search query string false "Case-insensitive participant name filter"
// @Success 200 {object} response.Response{data=[]competitions.GlobalEntry}
// @Failure 400 {object} response.Response{error=response.Error}
// @Router /api/v1/leaderboard [get].
func (h *Handlers) HandleGlobalLeaderboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	order, ok := leaderboard.ParseOrder(q.Get("order"))
	if !ok {
		h.fail(w, r, errors.NewValidationError("order", q.Get("order"), "must be participation or average_score"))
		return
	}

	search := strings.TrimSpace(q.Get("search"))
	cacheKey := cache.PrefixGlobalLeaderboard + string(order) + ":" + strings.ToLower(search)
	if cached, found := h.cache.Get(cacheKey); found {
		response.OK(w, cached)
		return
	}

	entries, err := h.client.GlobalLeaderboard(r.Context(), order, search)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.cache.Set(cacheKey, entries)
	response.OK(w, entries)
}

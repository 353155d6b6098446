package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/evalia-ai/evalia/internal/server/filter"
	"github.com/evalia-ai/evalia/internal/server/response"
	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
)

// HandleListEvents handles GET /api/v1/events.
// @Summary List events
// @Description List competitions with optional filtering. Private events are only listed for their members.
// @Tags events
// @Produce json
// @Param status query string false "upcoming, active, finished, archived or all"
// @Param difficulty query string false "beginner, intermediate, advanced or all"
// @Param theme query string false "classification, regression, nlp, vision, other or all"
// @Param search query string false "Case-insensitive match on title and short description"
// @Param featured query boolean false "Only featured (or non-featured) events"
// @Param organizer query string false "Organizer user ID"
// @Param limit query integer false "Maximum number of results (default: 50, max: 200)"
// @Param offset query integer false "Result offset for pagination"
// @Success 200 {object} response.Response{data=object}
// @Failure 400 {object} response.Response{error=response.Error}
// @Router /api/v1/events [get].
func (h *Handlers) HandleListEvents(w http.ResponseWriter, r *http.Request) {
	q, err := filter.ParseEventQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	list, err := h.client.ListEvents(r.Context(), currentUser(r), q.EventFilter)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	page := filter.Paginate(list, q.Page)
	response.OK(w, map[string]any{
		"events": page,
		"pagination": map[string]any{
			"total":  len(list),
			"limit":  q.Limit,
			"offset": q.Offset,
			"count":  len(page),
		},
	})
}

// HandleCreateEvent handles POST /api/v1/events.
// @Summary Create event
// @Description Create an upcoming competition organized by the current user
// @Tags events
// @Accept json
// @Produce json
// @Success 201 {object} response.Response{data=competitions.Event}
// @Failure 400 {object} response.Response{error=response.Error}
// @Failure 403 {object} response.Response{error=response.Error}
// @Security BearerAuth
// @Router /api/v1/events [post].
func (h *Handlers) HandleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var draft competitions.EventDraft
	if err := decodeJSON(w, r, &draft, false); err != nil {
		h.fail(w, r, err)
		return
	}

	e, err := h.client.CreateEvent(r.Context(), currentUser(r), draft)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, e)
}

// HandleGetEvent handles GET /api/v1/events/{id}.
// @Summary Get event
// @Description Retrieve an event by ID or slug
// @Tags events
// @Produce json
// @Param id path string true "Event ID or slug"
// @Success 200 {object} response.Response{data=competitions.Event}
// @Failure 404 {object} response.Response{error=response.Error}
// @Router /api/v1/events/{id} [get].
func (h *Handlers) HandleGetEvent(w http.ResponseWriter, r *http.Request) {
	e, err := h.client.GetEvent(r.Context(), currentUser(r), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, e)
}

// HandleDeleteEvent handles DELETE /api/v1/events/{id}.
// @Summary Delete event
// @Tags events
// @Param id path string true "Event ID"
// @Success 204
// @Failure 403 {object} response.Response{error=response.Error}
// @Failure 404 {object} response.Response{error=response.Error}
// @Security BearerAuth
// @Router /api/v1/events/{id} [delete].
func (h *Handlers) HandleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.client.DeleteEvent(r.Context(), currentUser(r), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	h.invalidateLeaderboards()
	response.NoContent(w)
}

type statusRequest struct {
	Status competitions.EventStatus `json:"status"`
}

// HandleUpdateEventStatus handles PATCH /api/v1/events/{id}/status.
// @Summary Change event status
// @Tags events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Response{data=competitions.Event}
// @Failure 400 {object} response.Response{error=response.Error}
// @Failure 403 {object} response.Response{error=response.Error}
// @Security BearerAuth
// @Router /api/v1/events/{id}/status [patch].
func (h *Handlers) HandleUpdateEventStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}

	e, err := h.client.UpdateEventStatus(r.Context(), currentUser(r), r.PathValue("id"), req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, e)
}

type featuredRequest struct {
	Featured *bool `json:"featured"`
}

// HandleSetFeatured handles PATCH /api/v1/events/{id}/featured.
// @Summary Feature event
// @Tags events
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Response{data=competitions.Event}
// @Failure 403 {object} response.Response{error=response.Error}
// @Security BearerAuth
// @Router /api/v1/events/{id}/featured [patch].
func (h *Handlers) HandleSetFeatured(w http.ResponseWriter, r *http.Request) {
	var req featuredRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Featured == nil {
		h.fail(w, r, errors.NewValidationError("featured", nil, "is required"))
		return
	}

	e, err := h.client.SetFeatured(r.Context(), currentUser(r), r.PathValue("id"), *req.Featured)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, e)
}

type joinRequest struct {
	AccessCode string `json:"access_code"`
}

// HandleJoinEvent handles POST /api/v1/events/{id}/join.
// @Summary Join event
// @Description Register the current user as a participant. Private events need their access code.
// @Tags events
// @Accept json
// @Produce json
// @Param id path string true "Event ID or slug"
// @Success 200 {object} response.Response{data=competitions.Event}
// @Failure 403 {object} response.Response{error=response.Error}
// @Failure 409 {object} response.Response{error=response.Error}
// @Security BearerAuth
// @Router /api/v1/events/{id}/join [post].
func (h *Handlers) HandleJoinEvent(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		h.fail(w, r, err)
		return
	}

	e, err := h.client.JoinEvent(r.Context(), currentUser(r), r.PathValue("id"), req.AccessCode)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, e)
}

// HandleLeaveEvent handles POST /api/v1/events/{id}/leave.
// @Summary Leave event
// @Tags events
// @Produce json
// @Param id path string true "Event ID or slug"
// @Success 200 {object} response.Response{data=competitions.Event}
// @Failure 404 {object} response.Response{error=response.Error}
// @Security BearerAuth
// @Router /api/v1/events/{id}/leave [post].
func (h *Handlers) HandleLeaveEvent(w http.ResponseWriter, r *http.Request) {
	e, err := h.client.LeaveEvent(r.Context(), currentUser(r), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, e)
}

// HandleListParticipants handles GET /api/v1/events/{id}/participants.
// @Summary List participants
// @Description Participants of an event, as JSON or as a CSV export with format=csv
// @Tags events
// @Produce json
// @Produce text/csv
// @Param id path string true "Event ID or slug"
// @Param format query string false "json (default) or csv"
// @Success 200 {object} response.Response{data=[]competitions.Participant}
// @Failure 403 {object} response.Response{error=response.Error}
// @Security BearerAuth
// @Router /api/v1/events/{id}/participants [get].
func (h *Handlers) HandleListParticipants(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	participants, err := h.client.ListParticipants(r.Context(), currentUser(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		h.writeParticipantsCSV(w, id, participants)
		return
	}
	response.OK(w, participants)
}

var participantsCSVHeader = []string{"user_id", "name", "email", "status", "joined_at", "submissions_count", "best_score"}

func (h *Handlers) writeParticipantsCSV(w http.ResponseWriter, id string, participants []competitions.Participant) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "participants-"+id+".csv"))
	w.WriteHeader(http.StatusOK)

	cw := csv.NewWriter(w)
	_ = cw.Write(participantsCSVHeader)
	for _, p := range participants {
		best := ""
		if p.BestScore != nil {
			best = strconv.FormatFloat(*p.BestScore, 'f', -1, 64)
		}
		_ = cw.Write([]string{
			p.UserID,
			p.Name,
			p.Email,
			string(p.Status),
			p.JoinedAt.UTC().Format(time.RFC3339),
			strconv.Itoa(p.SubmissionsCount),
			best,
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.logger.Error().Err(err).Str("event_id", id).Msg("Failed to write participants export")
	}
}

// HandleExcludeParticipant handles DELETE /api/v1/events/{id}/participants/{userID}.
// @Summary Exclude participant
// @Tags events
// @Param id path string true "Event ID"
// @Param userID path string true "User ID"
// @Success 204
// @Failure 403 {object} response.Response{error=response.Error}
// @Failure 404 {object} response.Response{error=response.Error}
// @Security BearerAuth
// @Router /api/v1/events/{id}/participants/{userID} [delete].
func (h *Handlers) HandleExcludeParticipant(w http.ResponseWriter, r *http.Request) {
	if err := h.client.ExcludeParticipant(r.Context(), currentUser(r), r.PathValue("id"), r.PathValue("userID")); err != nil {
		h.fail(w, r, err)
		return
	}
	response.NoContent(w)
}

// HandleMyEvents handles GET /api/v1/me/events.
// @Summary My events
// @Tags events
// @Produce json
// @Success 200 {object} response.Response{data=[]competitions.Event}
// @Failure 401 {object} response.Response{error=response.Error}
// @Security BearerAuth
// @Router /api/v1/me/events [get].
func (h *Handlers) HandleMyEvents(w http.ResponseWriter, r *http.Request) {
	list, err := h.client.MyEvents(r.Context(), currentUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, list)
}

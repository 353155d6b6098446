package handlers

import (
	"net/http"

	"github.com/evalia-ai/evalia/internal/server/response"
	"github.com/evalia-ai/evalia/pkg/competitions"
	"github.com/evalia-ai/evalia/pkg/errors"
)

// HandleListUsers handles GET /api/v1/admin/users.
// @Summary List users
// @Tags admin
// @Produce json
// @Param search query string false "Case-insensitive match on name or email"
// @Success 200 {object} response.Response{data=[]competitions.User}
// @Failure 403 {object} response.Response{error=response.Error}
// @Security BearerAuth
// @Router /api/v1/admin/users [get].
func (h *Handlers) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.client.ListUsers(r.Context(), currentUser(r), r.URL.Query().Get("search"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, users)
}

type userStatusRequest struct {
	Status competitions.UserStatus `json:"status"`
}

// HandleSetUserStatus handles PATCH /api/v1/admin/users/{id}/status.
// @Summary Suspend or reactivate a user
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Response{data=competitions.User}
// @Failure 400 {object} response.Response{error=response.Error}
// @Failure 403 {object} response.Response{error=response.Error}
// @Security BearerAuth
// @Router /api/v1/admin/users/{id}/status [patch].
func (h *Handlers) HandleSetUserStatus(w http.ResponseWriter, r *http.Request) {
	var req userStatusRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}

	u, err := h.client.SetUserStatus(r.Context(), currentUser(r), r.PathValue("id"), req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, u)
}

type userRoleRequest struct {
	Role string `json:"role"`
}

// HandleSetUserRole handles PATCH /api/v1/admin/users/{id}/role.
// @Summary Change a user's role
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Response{data=competitions.User}
// @Failure 400 {object} response.Response{error=response.Error}
// @Failure 403 {object} response.Response{error=response.Error}
// @Security BearerAuth
// @Router /api/v1/admin/users/{id}/role [patch].
func (h *Handlers) HandleSetUserRole(w http.ResponseWriter, r *http.Request) {
	var req userRoleRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}
	role, err := competitions.ParseRole(req.Role)
	if err != nil {
		h.fail(w, r, errors.NewValidationError("role", req.Role, "unknown role"))
		return
	}

	u, err := h.client.SetUserRole(r.Context(), currentUser(r), r.PathValue("id"), role)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, u)
}

// HandlePlatformStats handles GET /api/v1/admin/stats.
// @Summary Platform statistics
// @Description Counters of the admin dashboard
// @Tags admin
// @Produce json
// @Success 200 {object} response.Response{data=evalia.PlatformStats}
// @Failure 403 {object} response.Response{error=response.Error}
// @Security BearerAuth
// @Router /api/v1/admin/stats [get].
func (h *Handlers) HandlePlatformStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.client.PlatformStats(r.Context(), currentUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, stats)
}

package handlers

import (
	"net/http"

	"github.com/evalia-ai/evalia"
	"github.com/evalia-ai/evalia/internal/server/middleware"
	"github.com/evalia-ai/evalia/internal/server/response"
	"github.com/evalia-ai/evalia/pkg/errors"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleRegister handles POST /api/v1/auth/register.
// @Summary Register
// @Description Create a participant or organizer account and open a session
// @Tags auth
// @Accept json
// @Produce json
// @Success 201 {object} response.Response{data=evalia.Session}
// @Failure 400 {object} response.Response{error=response.Error}
// @Failure 409 {object} response.Response{error=response.Error}
// @Router /api/v1/auth/register [post].
func (h *Handlers) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var reg evalia.Registration
	if err := decodeJSON(w, r, &reg, false); err != nil {
		h.fail(w, r, err)
		return
	}

	session, err := h.client.Register(r.Context(), reg)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Created(w, session)
}

// HandleLogin handles POST /api/v1/auth/login.
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Response{data=evalia.Session}
// @Failure 401 {object} response.Response{error=response.Error}
// @Router /api/v1/auth/login [post].
func (h *Handlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		h.fail(w, r, err)
		return
	}

	session, err := h.client.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, session)
}

// HandleLogout handles POST /api/v1/auth/logout.
// @Summary Logout
// @Description Revoke the session token of the request
// @Tags auth
// @Success 204
// @Failure 401 {object} response.Response{error=response.Error}
// @Security BearerAuth
// @Router /api/v1/auth/logout [post].
func (h *Handlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" || currentUser(r) == nil {
		h.fail(w, r, errors.NewAuthenticationError("session", "login required", nil))
		return
	}
	if err := h.client.Logout(r.Context(), token); err != nil {
		h.fail(w, r, err)
		return
	}
	response.NoContent(w)
}

// HandleMe handles GET /api/v1/auth/me.
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} response.Response{data=competitions.User}
// @Failure 401 {object} response.Response{error=response.Error}
// @Security BearerAuth
// @Router /api/v1/auth/me [get].
func (h *Handlers) HandleMe(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		h.fail(w, r, errors.NewAuthenticationError("session", "login required", nil))
		return
	}
	response.OK(w, user)
}

// HandleUpdateMe handles PATCH /api/v1/auth/me.
// @Summary Update profile
// @Description Change the name or avatar of the current user
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} response.Response{data=competitions.User}
// @Failure 400 {object} response.Response{error=response.Error}
// @Failure 401 {object} response.Response{error=response.Error}
// @Security BearerAuth
// @Router /api/v1/auth/me [patch].
func (h *Handlers) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var update evalia.ProfileUpdate
	if err := decodeJSON(w, r, &update, false); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.client.UpdateProfile(r.Context(), currentUser(r), update)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, user)
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/evalia-ai/evalia"
	"github.com/evalia-ai/evalia/internal/server/filter"
	"github.com/evalia-ai/evalia/internal/server/response"
	pkgerrors "github.com/evalia-ai/evalia/pkg/errors"
)

// multipartMemory is the part of an upload kept in memory; the rest
// spills to temporary files.
const multipartMemory = 8 << 20

// HandleSubmit handles POST /api/v1/events/{id}/submissions.
// @Summary Submit model
// @Description Upload a model file (multipart field "file") for evaluation
// @Tags submissions
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Event ID or slug"
// @Param file formData file true "Model file"
// @Param description formData string false "Free-text description"
// @Success 202 {object} response.Response{data=competitions.Submission}
// @Failure 400 {object} response.Response{error=response.Error}
// @Failure 403 {object} response.Response{error=response.Error}
// @Failure 429 {object} response.Response{error=response.Error}
// @Security BearerAuth
// @Router /api/v1/events/{id}/submissions [post].
func (h *Handlers) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		// Leave room for the multipart envelope; the event rules enforce
		// the exact file size.
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartMemory)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, r, pkgerrors.NewValidationError("file", tooLarge.Limit, "upload exceeds the server limit"))
			return
		}
		h.fail(w, r, pkgerrors.NewParseError("multipart", "", "malformed upload", err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, pkgerrors.NewValidationError("file", nil, "is required"))
		return
	}
	defer func() { _ = file.Close() }()

	sub, err := h.client.Submit(r.Context(), currentUser(r), r.PathValue("id"), evalia.Upload{
		FileName:    header.Filename,
		Size:        header.Size,
		Content:     file,
		Description: r.FormValue("description"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.Accepted(w, sub)
}

// HandleListEventSubmissions handles GET /api/v1/events/{id}/submissions.
// @Summary Event submissions
// @Description Submissions of an event visible to the current user. Participants see their own, organizers and admins see all.
// @Tags submissions
// @Produce json
// @Param id path string true "Event ID or slug"
// @Param status query string false "pending, processing, evaluated or error"
// @Success 200 {object} response.Response{data=[]competitions.Submission}
// @Failure 401 {object} response.Response{error=response.Error}
// @Security BearerAuth
// @Router /api/v1/events/{id}/submissions [get].
func (h *Handlers) HandleListEventSubmissions(w http.ResponseWriter, r *http.Request) {
	q, err := filter.ParseSubmissionQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	q.EventID = r.PathValue("id")

	list, err := h.client.ListSubmissions(r.Context(), currentUser(r), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, list)
}

// HandleMySubmissions handles GET /api/v1/me/submissions.
// @Summary My submissions
// @Tags submissions
// @Produce json
// @Param status query string false "pending, processing, evaluated or error"
// @Success 200 {object} response.Response{data=[]competitions.Submission}
// @Failure 401 {object} response.Response{error=response.Error}
// @Security BearerAuth
// @Router /api/v1/me/submissions [get].
func (h *Handlers) HandleMySubmissions(w http.ResponseWriter, r *http.Request) {
	q, err := filter.ParseSubmissionQuery(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	viewer := currentUser(r)
	if viewer == nil {
		h.fail(w, r, pkgerrors.NewAuthenticationError("session", "login required", nil))
		return
	}
	q.UserID = viewer.ID

	list, err := h.client.ListSubmissions(r.Context(), viewer, q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, list)
}

// HandleGetSubmission handles GET /api/v1/submissions/{id}.
// @Summary Get submission
// @Tags submissions
// @Produce json
// @Param id path string true "Submission ID"
// @Success 200 {object} response.Response{data=competitions.Submission}
// @Failure 404 {object} response.Response{error=response.Error}
// @Security BearerAuth
// @Router /api/v1/submissions/{id} [get].
func (h *Handlers) HandleGetSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := h.client.GetSubmission(r.Context(), currentUser(r), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	response.OK(w, sub)
}

// HandleDeleteSubmission handles DELETE /api/v1/submissions/{id}.
// @Summary Delete submission
// @Tags submissions
// @Param id path string true "Submission ID"
// @Success 204
// @Failure 403 {object} response.Response{error=response.Error}
// @Failure 404 {object} response.Response{error=response.Error}
// @Security BearerAuth
// @Router /api/v1/submissions/{id} [delete].
func (h *Handlers) HandleDeleteSubmission(w http.ResponseWriter, r *http.Request) {
	if err := h.client.DeleteSubmission(r.Context(), currentUser(r), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	h.invalidateLeaderboards()
	response.NoContent(w)
}

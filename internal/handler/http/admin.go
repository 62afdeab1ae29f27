package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/ClientReviews/internal/domain"
	"github.com/utafrali/ClientReviews/internal/service"
	apperrors "github.com/utafrali/ClientReviews/pkg/errors"
	"github.com/utafrali/ClientReviews/pkg/httputil"
	"github.com/utafrali/ClientReviews/pkg/middleware"
	"github.com/utafrali/ClientReviews/pkg/pagination"
	"github.com/utafrali/ClientReviews/pkg/validator"
)

// AdminRole is the token role allowed to moderate.
const AdminRole = service.AdminRole

// AdminHandler handles the moderation API.
type AdminHandler struct {
	service *service.ModerationService
	logger  *slog.Logger
}

// NewAdminHandler creates a new moderation HTTP handler.
func NewAdminHandler(svc *service.ModerationService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// UpdateStatusRequest is the JSON body of PUT /{id}/status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// --- Handlers ---

// ListReviews handles GET /api/v1/admin/reviews.
func (h *AdminHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	params := pagination.FromRequest(r)
	q := r.URL.Query()

	reviews, total, err := h.service.List(r.Context(), service.ListInput{
		Status:  q.Get("status"),
		OrderBy: q.Get("order_by"),
		Order:   q.Get("order"),
		Limit:   params.PerPage,
		Offset:  params.Offset,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.NewPaginatedResponse(reviews, total, params.Page, params.PerPage))
}

// GetReview handles GET /api/v1/admin/reviews/{id}.
func (h *AdminHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	review, err := h.service.Get(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// UpdateStatus handles PUT /api/v1/admin/reviews/{id}/status.
func (h *AdminHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		var vErr *validator.ValidationError
		if errors.As(err, &vErr) {
			httputil.WriteError(w, r, &apperrors.AppError{
				Code:    "INVALID_INPUT",
				Message: "status is required",
				Fields:  vErr.Fields(),
				Status:  http.StatusBadRequest,
				Err:     apperrors.ErrInvalidInput,
			}, h.logger)
			return
		}
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body"), h.logger)
		return
	}

	review, err := h.service.ChangeStatus(r.Context(), id, req.Status, middleware.SubjectFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: review})
}

// DeleteReview handles DELETE /api/v1/admin/reviews/{id}.
func (h *AdminHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Statuses handles GET /api/v1/admin/statuses.
func (h *AdminHandler) Statuses(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: domain.ValidStatuses()})
}

package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/ClientReviews/internal/service"
	apperrors "github.com/utafrali/ClientReviews/pkg/errors"
	"github.com/utafrali/ClientReviews/pkg/httputil"
	"github.com/utafrali/ClientReviews/pkg/validator"
)

const maxLoginBytes = 4 << 10

// AuthHandler exchanges the admin password for a bearer token.
type AuthHandler struct {
	service *service.AdminAuthService
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(svc *service.AdminAuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: svc, logger: logger}
}

// LoginRequest is the JSON body of POST /api/v1/admin/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=72"`
}

// Login handles POST /api/v1/admin/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxLoginBytes)

	var req LoginRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("username and password are required"), h.logger)
		return
	}

	token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: token})
}

package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apperrors "github.com/utafrali/ClientReviews/pkg/errors"
	"github.com/utafrali/ClientReviews/pkg/logger"
)

// Response is the JSON envelope used by the API endpoints.
type Response struct {
	Data  any            `json:"data,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing meaningful can be done if encoding fails.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err onto the envelope. AppErrors keep their code, message
// and fields; anything else becomes a logged 500 with a generic message.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallback *slog.Logger) {
	l := logger.FromContext(r.Context())
	if l == slog.Default() && fallback != nil {
		l = fallback
	}
	requestID := logger.CorrelationIDFromContext(r.Context())

	if appErr, ok := apperrors.As(err); ok {
		if appErr.Status >= http.StatusInternalServerError {
			l.ErrorContext(r.Context(), "request failed",
				slog.String("code", appErr.Code),
				slog.String("error", err.Error()),
				slog.String("path", r.URL.Path),
			)
		}
		WriteJSON(w, appErr.Status, Response{Error: &ErrorResponse{
			Code:      appErr.Code,
			Message:   appErr.Message,
			Fields:    appErr.Fields,
			RequestID: requestID,
		}})
		return
	}

	status := apperrors.HTTPStatus(err)
	code, message := "INTERNAL_ERROR", "an internal error occurred"
	switch status {
	case http.StatusNotFound:
		code, message = "NOT_FOUND", "resource not found"
	case http.StatusBadRequest:
		code, message = "INVALID_INPUT", "invalid input"
	}

	if status >= http.StatusInternalServerError {
		l.ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	WriteJSON(w, status, Response{Error: &ErrorResponse{Code: code, Message: message, RequestID: requestID}})
}

// PaginatedResponse is the list envelope.
type PaginatedResponse[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
}

func NewPaginatedResponse[T any](data []T, totalCount, page, perPage int) PaginatedResponse[T] {
	totalPages := 0
	if perPage > 0 {
		totalPages = (totalCount + perPage - 1) / perPage
	}
	if data == nil {
		data = []T{}
	}
	return PaginatedResponse[T]{
		Data:       data,
		TotalCount: totalCount,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// ParseUUID writes a 400 and returns false when param is not a UUID.
func ParseUUID(w http.ResponseWriter, param string) (string, bool) {
	id, err := uuid.Parse(param)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, Response{Error: &ErrorResponse{
			Code:    "INVALID_PARAMETER",
			Message: "invalid id: " + param,
		}})
		return "", false
	}
	return id.String(), true
}

package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/ClientReviews/pkg/errors"
	"github.com/utafrali/ClientReviews/pkg/logger"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *ErrorResponse {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, Response{Data: map[string]string{"id": "1"}})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"id":"1"}}`, rec.Body.String())
}

func TestWriteError_AppErrorWithFieldsAndRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/api/v1/admin/reviews/x/status", nil)
	req = req.WithContext(logger.WithCorrelationID(req.Context(), "corr-1"))
	rec := httptest.NewRecorder()

	WriteError(rec, req, apperrors.ValidationFailed(map[string]string{"status": "must be one of"}), testLogger())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, "VALIDATION_FAILED", e.Code)
	assert.Equal(t, "corr-1", e.RequestID)
	assert.Equal(t, "must be one of", e.Fields["status"])
}

func TestWriteError_WrappedSentinel(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil),
		fmt.Errorf("get review: %w", apperrors.ErrNotFound), testLogger())

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeError(t, rec).Code)
}

func TestWriteError_UnknownErrorHidesDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: password leaked"), testLogger())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	e := decodeError(t, rec)
	assert.Equal(t, "INTERNAL_ERROR", e.Code)
	assert.NotContains(t, e.Message, "leaked")
}

func TestNewPaginatedResponse(t *testing.T) {
	tests := []struct {
		total, page, perPage int
		wantPages            int
		wantNext             bool
	}{
		{0, 1, 20, 0, false},
		{20, 1, 20, 1, false},
		{21, 1, 20, 2, true},
		{45, 3, 20, 3, false},
	}
	for _, tt := range tests {
		p := NewPaginatedResponse[string](nil, tt.total, tt.page, tt.perPage)
		assert.Equal(t, tt.wantPages, p.TotalPages, "total=%d", tt.total)
		assert.Equal(t, tt.wantNext, p.HasNext, "total=%d", tt.total)
		assert.NotNil(t, p.Data)
	}
}

func TestParseUUID(t *testing.T) {
	rec := httptest.NewRecorder()
	id, ok := ParseUUID(rec, "6F9619FF-8B86-D011-B42D-00C04FC964FF")
	assert.True(t, ok)
	assert.Equal(t, "6f9619ff-8b86-d011-b42d-00c04fc964ff", id)

	rec = httptest.NewRecorder()
	_, ok = ParseUUID(rec, "nope")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PARAMETER", decodeError(t, rec).Code)
}

package httpclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastConfig(retries int) Config {
	cfg := DefaultConfig()
	cfg.MaxRetries = retries
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 5 * time.Millisecond
	return cfg
}

// --- Client ---

func TestClient_Post_SendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"a":1}`, string(body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	resp, err := New(fastConfig(0)).Post(context.Background(), srv.URL, "application/json", strings.NewReader(`{"a":1}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestClient_RetriesServerErrorsWithRewoundBody(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "payload", string(body))
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := New(fastConfig(3)).Post(context.Background(), srv.URL, "text/plain", strings.NewReader("payload"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	resp, err := New(DefaultConfig()).Post(context.Background(), srv.URL, "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := New(fastConfig(2)).Post(ctx, srv.URL, "text/plain", strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

// --- Errors ---

func TestParseResponseError(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusBadRequest,
		Body:       io.NopCloser(strings.NewReader("  bad payload \n")),
	}

	err := ParseResponseError(resp, "webhook")
	var re *ResponseError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusBadRequest, re.StatusCode)
	assert.Equal(t, "bad payload", re.Body)
	assert.False(t, re.Temporary())
	assert.Equal(t, "webhook returned status 400: bad payload", err.Error())
}

func TestIsSuccess(t *testing.T) {
	assert.True(t, IsSuccess(200))
	assert.True(t, IsSuccess(204))
	assert.False(t, IsSuccess(301))
	assert.False(t, IsSuccess(500))
}

// --- Circuit breaker ---

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := DefaultCircuitBreakerConfig("webhook-test")
	cfg.MinRequests = 2
	cb := NewCircuitBreakerClient(New(fastConfig(0)), cfg, testLogger())

	for i := 0; i < 2; i++ {
		_, err := cb.Post(context.Background(), srv.URL, "text/plain", strings.NewReader("x"))
		var re *ResponseError
		require.ErrorAs(t, err, &re)
		assert.True(t, re.Temporary())
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.Post(context.Background(), srv.URL, "text/plain", strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, IsCircuitOpen(err))
	assert.Equal(t, int32(2), calls.Load())
}

func TestCircuitBreaker_ClientErrorsPassThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cb := NewCircuitBreakerClient(New(fastConfig(0)), DefaultCircuitBreakerConfig("webhook-4xx"), testLogger())
	resp, err := cb.Post(context.Background(), srv.URL, "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

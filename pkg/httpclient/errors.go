package httpclient

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 4 << 10

// ResponseError describes a non-2xx reply from a remote endpoint.
type ResponseError struct {
	Target     string
	StatusCode int
	Body       string
}

func (e *ResponseError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned status %d", e.Target, e.StatusCode)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Target, e.StatusCode, e.Body)
}

// Temporary reports whether retrying later may succeed.
func (e *ResponseError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// ParseResponseError drains and closes resp.Body and returns a ResponseError
// carrying at most 4 KiB of the body.
func ParseResponseError(resp *http.Response, target string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", target, resp.StatusCode, err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	return &ResponseError{
		Target:     target,
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

// IsSuccess reports whether status is 2xx.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}

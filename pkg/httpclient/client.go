package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// Config holds HTTP client configuration.
type Config struct {
	Timeout         time.Duration
	MaxRetries      int
	RetryWaitMin    time.Duration
	RetryWaitMax    time.Duration
	MaxConnsPerHost int
}

// DefaultConfig returns defaults for outbound notification calls: a short
// timeout and no retries.
func DefaultConfig() Config {
	return Config{
		Timeout:         5 * time.Second,
		MaxRetries:      0,
		RetryWaitMin:    200 * time.Millisecond,
		RetryWaitMax:    2 * time.Second,
		MaxConnsPerHost: 10,
	}
}

// Client wraps http.Client with optional retry on network errors and 5xx.
type Client struct {
	httpClient *http.Client
	config     Config
}

// New creates a client with its own pooled transport.
func New(cfg Config) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   cfg.MaxConnsPerHost,
		MaxConnsPerHost:       cfg.MaxConnsPerHost,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	return NewWithHTTPClient(&http.Client{Transport: transport, Timeout: cfg.Timeout}, cfg)
}

// NewWithHTTPClient uses hc as-is, for tests and custom transports.
func NewWithHTTPClient(hc *http.Client, cfg Config) *Client {
	return &Client{httpClient: hc, config: cfg}
}

// Do executes req, retrying up to MaxRetries times. Requests with a body are
// only retried when req.GetBody is set.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)

	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := c.wait(ctx, attempt); err != nil {
				return nil, err
			}
			if req.Body != nil && req.Body != http.NoBody {
				if req.GetBody == nil {
					return nil, lastErr
				}
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("rewind request body: %w", err)
				}
				req.Body = body
			}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request failed after %d attempts: %w", attempt+1, err)
			if isRetryableError(err) {
				continue
			}
			return nil, lastErr
		}

		if resp.StatusCode >= 500 && resp.StatusCode != http.StatusNotImplemented && attempt < c.config.MaxRetries {
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("server error %d", resp.StatusCode)
			continue
		}
		return resp, nil
	}
	return nil, lastErr
}

func (c *Client) wait(ctx context.Context, attempt int) error {
	wait := c.config.RetryWaitMin << (attempt - 1)
	if wait > c.config.RetryWaitMax {
		wait = c.config.RetryWaitMax
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post sends body with the given content type.
func (c *Client) Post(ctx context.Context, url, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("create POST request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.Do(ctx, req)
}

func isRetryableError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

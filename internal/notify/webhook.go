package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/utafrali/ClientReviews/pkg/httpclient"
)

// WebhookSender posts each Message as JSON to a fixed URL through a
// circuit breaker, so a dead endpoint stops costing a timeout per review.
type WebhookSender struct {
	url    string
	client *httpclient.CircuitBreakerClient
}

func NewWebhookSender(url string, client *httpclient.CircuitBreakerClient) *WebhookSender {
	return &WebhookSender{url: url, client: client}
}

func (s *WebhookSender) Name() string {
	return "webhook"
}

func (s *WebhookSender) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	resp, err := s.client.Post(ctx, s.url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if !httpclient.IsSuccess(resp.StatusCode) {
		return httpclient.ParseResponseError(resp, "webhook")
	}
	return nil
}

package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Sender posts a JSON payload to a webhook.
type Sender interface {
	Send(ctx context.Context, url string, payload any) error
}

var _ Sender = (*WebhookSender)(nil)

type WebhookSender struct {
	httpClient *http.Client
	userAgent  string
}

func NewWebhookSender(httpClient *http.Client, userAgent string) *WebhookSender {
	return &WebhookSender{
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

func (s *WebhookSender) Send(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		const readLimit = 1024
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, readLimit))
		return fmt.Errorf("HTTP error: %d %s: %s", resp.StatusCode, resp.Status, bytes.TrimSpace(detail))
	}

	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

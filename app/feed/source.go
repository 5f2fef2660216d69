package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Source yields the current contents of a review feed. Each call is an
// independent fetch.
type Source interface {
	Fetch(ctx context.Context) (*Batch, error)
}

var _ Source = (*HTTPSource)(nil)

type HTTPSource struct {
	url        string
	timeout    time.Duration
	userAgent  string
	httpClient *http.Client
	parser     *Parser
}

func NewHTTPSource(url string, timeout time.Duration, httpClient *http.Client, parser *Parser, userAgent string) *HTTPSource {
	return &HTTPSource{
		url:        url,
		timeout:    timeout,
		userAgent:  userAgent,
		httpClient: httpClient,
		parser:     parser,
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) (*Batch, error) {
	data, err := s.fetchFeed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	batch, err := s.parser.Run(data)
	if err != nil {
		return nil, err
	}

	return batch, nil
}

func (s *HTTPSource) fetchFeed(ctx context.Context) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}

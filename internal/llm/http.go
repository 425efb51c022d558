package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Veraticus/bankfeed-autopilot/internal/common"
)

const defaultTimeout = 30 * time.Second

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// postJSON sends body to url and decodes a 200 response into out.
// 429 and 5xx responses are marked retryable; other failures are not.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return &common.RetryableError{Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return &common.RetryableError{Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return &common.RetryableError{Err: fmt.Errorf("request failed: %w", err), Retryable: ctx.Err() == nil}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &common.RetryableError{Err: fmt.Errorf("failed to read response: %w", err), Retryable: true}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w (status %d): %s", common.ErrRateLimit, resp.StatusCode, string(respBody))
	case resp.StatusCode >= http.StatusInternalServerError:
		return &common.RetryableError{Err: fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody)), Retryable: true}
	case resp.StatusCode != http.StatusOK:
		return &common.RetryableError{Err: fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &common.RetryableError{Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	return nil
}

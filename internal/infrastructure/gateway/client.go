// Package gateway implements the outbound HTTP ports: the settlement ledger,
// the payment service provider and the ticketing system.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// errNotFound marks a 404 response; callers translate it to a nil result.
type errNotFound struct {
	url string
}

func (e errNotFound) Error() string {
	return fmt.Sprintf("resource not found: %s", e.url)
}

// httpClient wraps a base URL with JSON encoding and bounded retry. Transient
// failures (network errors, 5xx) are retried up to three attempts with
// exponential backoff starting at 100ms; 4xx responses fail immediately
// because repeating a rejected request cannot change the outcome.
type httpClient struct {
	baseURL string
	client  *http.Client
}

func newHTTPClient(baseURL string) httpClient {
	return httpClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c httpClient) retryPolicy(ctx context.Context) backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	return backoff.WithContext(backoff.WithMaxRetries(policy, 2), ctx)
}

// doJSON sends one JSON request and decodes the response into out (skipped
// when out is nil). A 404 is returned as errNotFound without retrying.
func (c httpClient) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	url := c.baseURL + path
	attempt := func() error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(errNotFound{url: url})
		case resp.StatusCode >= 500:
			return fmt.Errorf("server error (status %d): %s", resp.StatusCode, string(respBody))
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return backoff.Permanent(fmt.Errorf("request rejected (status %d): %s", resp.StatusCode, string(respBody)))
		}

		if out != nil {
			if err := json.Unmarshal(respBody, out); err != nil {
				return backoff.Permanent(fmt.Errorf("failed to parse response: %w", err))
			}
		}
		return nil
	}

	return backoff.Retry(attempt, c.retryPolicy(ctx))
}

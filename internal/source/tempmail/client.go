// Package tempmail is the HTTP client for the disposable-mailbox backend.
package tempmail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/tempmail/internal/model"
	"github.com/nhle/tempmail/internal/source"
)

// APIError is returned when the backend answers with a non-2xx status or
// with a "status" other than "success".
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	Method     string
	Path       string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Status
	}
	return fmt.Sprintf("tempmail API error (%d) on %s %s: %s", e.StatusCode, e.Method, e.Path, msg)
}

// IsMailboxGone reports whether err says the backend no longer knows the
// mailbox. The backend answers 400 for unknown addresses.
func IsMailboxGone(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusNotFound
}

// Client is a thin HTTP client for the temp-mail REST API. It handles JSON
// decoding, the status envelope and automatic retry with exponential
// backoff on HTTP 429.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	logger     *zap.Logger

	// sleep is replaced in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

var _ source.Source = (*Client)(nil)

// NewClient creates a client for the backend rooted at baseURL
// (e.g., http://localhost:8080).
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: 3,
		logger:     logger,
		sleep:      sleepCtx,
	}
}

// NewMailbox asks the backend to issue a fresh mailbox address.
func (c *Client) NewMailbox(ctx context.Context) (string, error) {
	var resp newMailboxResponse
	if err := c.do(ctx, http.MethodGet, "/api/email/new", &resp); err != nil {
		return "", err
	}
	if resp.Email == "" {
		return "", fmt.Errorf("backend returned an empty mailbox address")
	}
	return resp.Email, nil
}

// Messages returns every message currently held for address, in the order
// the backend sent them.
func (c *Client) Messages(ctx context.Context, address string) ([]model.Message, error) {
	if address == "" {
		return nil, source.ErrEmptyAddress
	}
	var resp messagesResponse
	if err := c.do(ctx, http.MethodGet, "/api/email/"+url.PathEscape(address)+"/messages", &resp); err != nil {
		return nil, err
	}
	if resp.Messages == nil {
		return []model.Message{}, nil
	}
	return resp.Messages, nil
}

// ListMailboxes returns the mailboxes the backend considers active.
func (c *Client) ListMailboxes(ctx context.Context) ([]string, error) {
	var resp listResponse
	if err := c.do(ctx, http.MethodGet, "/api/email/list", &resp); err != nil {
		return nil, err
	}
	return resp.Emails, nil
}

// DeleteMailbox destroys address and its messages on the backend.
func (c *Client) DeleteMailbox(ctx context.Context, address string) error {
	if address == "" {
		return source.ErrEmptyAddress
	}
	var resp statusResponse
	return c.do(ctx, http.MethodDelete, "/api/email/"+url.PathEscape(address), &resp)
}

// do builds the request, retries on rate limiting and decodes the JSON
// envelope into result.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	result enveloped,
) error {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request %s %s: %w", method, path, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := retryAfterDuration(resp, attempt)
			lastErr = &APIError{
				StatusCode: resp.StatusCode,
				Status:     statusError,
				Message:    "rate limited",
				Method:     method,
				Path:       path,
			}
			c.logger.Warn("rate limited by backend",
				zap.String("path", path),
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
			)
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := &APIError{
				StatusCode: resp.StatusCode,
				Status:     statusError,
				Method:     method,
				Path:       path,
			}
			var env statusResponse
			if json.Unmarshal(respBody, &env) == nil && env.Message != "" {
				apiErr.Message = env.Message
			} else {
				apiErr.Message = strings.TrimSpace(string(respBody))
			}
			return apiErr
		}

		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
		}

		if env := result.envelope(); env.Status != statusSuccess {
			return &APIError{
				StatusCode: resp.StatusCode,
				Status:     env.Status,
				Message:    env.Message,
				Method:     method,
				Path:       path,
			}
		}

		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package writer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/notesync/notesync/internal/errors"
	"github.com/notesync/notesync/internal/models"
)

// Client talks to the page-writing service. Requests are throttled through a
// shared token-bucket limiter because the destination service enforces a low
// external rate limit.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *logrus.Logger

	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// ClientOption allows configuring the writer client
type ClientOption func(*Client)

// WithRetryConfig configures retry behavior
func WithRetryConfig(maxRetries int, initialBackoff, maxBackoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.initialBackoff = initialBackoff
		c.maxBackoff = maxBackoff
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = timeout
	}
}

// NewClient creates a writer client for one user's destination token.
// The limiter is shared by all workers of a job so fan-out never exceeds
// the destination service's request budget.
func NewClient(baseURL, token string, limiter *rate.Limiter, logger *logrus.Logger, opts ...ClientOption) *Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	httpClient := oauth2.NewClient(context.Background(), ts)
	httpClient.Timeout = 60 * time.Second

	client := &Client{
		baseURL:        baseURL,
		client:         httpClient,
		limiter:        limiter,
		logger:         logger,
		maxRetries:     3,
		initialBackoff: time.Second,
		maxBackoff:     30 * time.Second,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

type writePageRequest struct {
	ContainerID string      `json:"container_id,omitempty"`
	Note        models.Note `json:"note"`
}

type writePageResponse struct {
	PageID string `json:"page_id"`
}

// WritePage creates or updates the destination page for one note and returns
// the destination page id. When existingPageID is set the call is an update
// and is safe to repeat; the destination service never appends a duplicate.
func (c *Client) WritePage(ctx context.Context, containerID string, note models.Note, existingPageID string) (string, error) {
	var method, reqURL string
	var wantStatus int
	payload := writePageRequest{Note: note}

	if existingPageID != "" {
		method = http.MethodPatch
		reqURL = fmt.Sprintf("%s/internal/pages/%s", c.baseURL, existingPageID)
		wantStatus = http.StatusOK
	} else {
		method = http.MethodPost
		reqURL = fmt.Sprintf("%s/internal/pages", c.baseURL)
		wantStatus = http.StatusCreated
		payload.ContainerID = containerID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode page request: %w", err)
	}

	var result writePageResponse
	if err := c.doRequestWithBackoff(ctx, method, reqURL, body, wantStatus, &result); err != nil {
		return "", err
	}

	return result.PageID, nil
}

// doRequestWithBackoff performs a rate-limited request with exponential
// backoff, rebuilding the request body on every attempt.
func (c *Client) doRequestWithBackoff(ctx context.Context, method, reqURL string, body []byte, wantStatus int, result interface{}) error {
	var lastErr error
	backoff := c.initialBackoff

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait canceled: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to build page request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = errors.NewUnavailableError("writer service request failed", err)
			c.logger.Warnf("Writer request attempt %d failed: %v", attempt+1, err)
			if !c.sleep(ctx, backoff) {
				return lastErr
			}
			backoff = time.Duration(math.Min(float64(backoff*2), float64(c.maxBackoff)))
			continue
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return errors.NewUnauthorizedError("writer service rejected destination token", nil)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = errors.NewUnavailableError(
				fmt.Sprintf("writer service returned %d", resp.StatusCode), nil)
			c.logger.Warnf("Writer request attempt %d got status %d", attempt+1, resp.StatusCode)
			if !c.sleep(ctx, backoff) {
				return lastErr
			}
			backoff = time.Duration(math.Min(float64(backoff*2), float64(c.maxBackoff)))
			continue
		case resp.StatusCode != wantStatus:
			return errors.NewInternalError(
				fmt.Sprintf("writer service returned %d: %s", resp.StatusCode, string(respBody)), nil)
		}

		if readErr != nil {
			return fmt.Errorf("failed to read writer response: %w", readErr)
		}
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode writer response: %w", err)
		}
		return nil
	}

	return lastErr
}

func (c *Client) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/notesync/notesync/internal/errors"
	"github.com/notesync/notesync/internal/models"
)

// Client talks to the note-extraction service. One client is built per job
// with that user's decrypted source token; the token rides as a bearer
// header on every request.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *logrus.Logger

	noteLimit      int
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
}

// ClientOption allows configuring the extraction client
type ClientOption func(*Client)

// WithRetryConfig configures retry behavior
func WithRetryConfig(maxRetries int, initialBackoff, maxBackoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.initialBackoff = initialBackoff
		c.maxBackoff = maxBackoff
	}
}

// WithNoteLimit caps the number of notes fetched per call (testing aid)
func WithNoteLimit(limit int) ClientOption {
	return func(c *Client) {
		c.noteLimit = limit
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = timeout
	}
}

// NewClient creates an extraction client for one user's source token
func NewClient(baseURL, token string, logger *logrus.Logger, opts ...ClientOption) *Client {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	httpClient := oauth2.NewClient(context.Background(), ts)
	httpClient.Timeout = 60 * time.Second

	client := &Client{
		baseURL:        baseURL,
		client:         httpClient,
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

type notesResponse struct {
	Notes []models.Note `json:"notes"`
}

// FetchNotes returns the current note set for a user. Authentication
// failures surface as UNAUTHORIZED (job-fatal at the orchestrator);
// transient network and server failures are retried and then surface as
// UNAVAILABLE.
func (c *Client) FetchNotes(ctx context.Context, userID string) ([]models.Note, error) {
	params := url.Values{}
	params.Set("user_id", userID)
	if c.noteLimit > 0 {
		params.Set("limit", strconv.Itoa(c.noteLimit))
	}

	reqURL := fmt.Sprintf("%s/internal/notes?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build notes request: %w", err)
	}

	var result notesResponse
	if err := c.doRequestWithBackoff(req, &result); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"count":   len(result.Notes),
	}).Info("Fetched notes from extraction service")

	return result.Notes, nil
}

// doRequestWithBackoff performs an HTTP request with exponential backoff
func (c *Client) doRequestWithBackoff(req *http.Request, result interface{}) error {
	var lastErr error
	backoff := c.initialBackoff

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = errors.NewUnavailableError("extraction service request failed", err)
			c.logger.Warnf("Extraction request attempt %d failed: %v", attempt+1, err)
			if !c.sleep(req.Context(), backoff) {
				return lastErr
			}
			backoff = time.Duration(math.Min(float64(backoff*2), float64(c.maxBackoff)))
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return errors.NewUnauthorizedError("extraction service rejected source token", nil)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = errors.NewUnavailableError(
				fmt.Sprintf("extraction service returned %d", resp.StatusCode), nil)
			c.logger.Warnf("Extraction request attempt %d got status %d", attempt+1, resp.StatusCode)
			if !c.sleep(req.Context(), backoff) {
				return lastErr
			}
			backoff = time.Duration(math.Min(float64(backoff*2), float64(c.maxBackoff)))
			continue
		case resp.StatusCode != http.StatusOK:
			return errors.NewInternalError(
				fmt.Sprintf("extraction service returned %d: %s", resp.StatusCode, string(body)), nil)
		}

		if readErr != nil {
			return fmt.Errorf("failed to read extraction response: %w", readErr)
		}
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("failed to decode extraction response: %w", err)
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

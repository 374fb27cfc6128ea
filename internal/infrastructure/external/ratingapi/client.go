// Package ratingapi implements the client for the remote rating endpoint.
// It fetches the roster and the achievement catalog and pushes score updates.
// Each call is made exactly once: no retries.
package ratingapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mathclass/rating-hub/internal/domain/achievement"
	"github.com/mathclass/rating-hub/internal/domain/shared"
	"github.com/mathclass/rating-hub/internal/domain/student"
	"github.com/mathclass/rating-hub/pkg/logger"
)

// Endpoint selectors for GET requests.
const (
	EndpointStudents     = "students"
	EndpointAchievements = "achievements"
)

// RequestIDHeader carries the per-request trace id.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody bounds how much of a failed response is kept in StatusError.
const maxErrorBody = 512

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the rating API client.
type ClientConfig struct {
	// BaseURL is the full endpoint URL, e.g. https://host/api/rating
	BaseURL string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client

	Logger *logger.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client talks to the rating endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClient creates a new rating API client.
func NewClient(config ClientConfig) (*Client, error) {
	u, err := url.Parse(config.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("ratingapi: invalid base url %q", config.BaseURL)
	}
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: httpClient,
		logger:     config.Logger.With(logger.Component("ratingapi")),
	}, nil
}

// FetchStudents loads the full roster.
func (c *Client) FetchStudents(ctx context.Context) ([]student.Student, error) {
	var resp StudentsResponse
	if err := c.doRequest(ctx, http.MethodGet, EndpointStudents, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch students: %w", err)
	}

	out := make([]student.Student, 0, len(resp.Students))
	for _, dto := range resp.Students {
		s := dto.ToDomain()
		if drift, ok := s.RatingDrift(); ok && drift != 0 {
			c.logger.Debug("reported rating differs from recomputed",
				logger.StudentID(s.ID),
				logger.Int("drift", drift),
			)
		}
		out = append(out, s)
	}
	return out, nil
}

// FetchAchievements loads the badge catalog.
func (c *Client) FetchAchievements(ctx context.Context) ([]achievement.Achievement, error) {
	var resp AchievementsResponse
	if err := c.doRequest(ctx, http.MethodGet, EndpointAchievements, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch achievements: %w", err)
	}

	out := make([]achievement.Achievement, len(resp.Achievements))
	for i, dto := range resp.Achievements {
		out[i] = dto.ToDomain()
	}
	return out, nil
}

// UpdateScores sends a student's full score triple. Any non-2xx status is an error.
func (c *Client) UpdateScores(ctx context.Context, update student.ScoreUpdate) error {
	body := NewUpdateScoresRequest(update)

	var resp UpdateScoresResponse
	if err := c.doRequest(ctx, http.MethodPost, "", body, &resp); err != nil {
		return fmt.Errorf("update scores for student %d: %w", update.StudentID, err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP
// ══════════════════════════════════════════════════════════════════════════════

// doRequest performs a single HTTP request. endpoint, when set, becomes the ?endpoint= selector.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body interface{}, result interface{}) error {
	fullURL := c.baseURL
	if endpoint != "" {
		fullURL += "?endpoint=" + url.QueryEscape(endpoint)
	}

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.logger.With(
		logger.String("method", method),
		logger.Endpoint(endpointName(method, endpoint)),
		logger.String(logger.RequestIDKey, requestID),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug("rating api request failed", logger.Err(err), logger.Latency(time.Since(start)))
		return shared.WrapError("ratingapi", method, shared.ErrServiceUnavailable, "request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	log.Debug("rating api response",
		logger.Int("status", resp.StatusCode),
		logger.Latency(time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp.StatusCode, respBody)
	}

	if result != nil && len(bytes.TrimSpace(respBody)) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return shared.WrapError("ratingapi", "Decode", shared.ErrExternalService, "invalid response body", err)
		}
	}

	return nil
}

func endpointName(method, endpoint string) string {
	if endpoint != "" {
		return endpoint
	}
	return strings.ToLower(method)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Message    string
}

func newStatusError(code int, body []byte) *StatusError {
	msg := ""
	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		msg = er.Error
	} else {
		msg = strings.TrimSpace(string(body))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
	}
	return &StatusError{StatusCode: code, Message: msg}
}

// Error implements error.
func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("rating api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("rating api: status %d: %s", e.StatusCode, e.Message)
}

// Is maps status classes onto the shared error kinds.
func (e *StatusError) Is(target error) bool {
	switch target {
	case shared.ErrExternalService:
		return true
	case shared.ErrServiceUnavailable:
		return e.StatusCode >= 500
	case shared.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

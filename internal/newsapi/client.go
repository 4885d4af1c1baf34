// Package newsapi is a client for newsapi.org compatible HTTP APIs.
package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/newshub/apiserver/config"
	"github.com/newshub/apiserver/internal/apperr"
)

const (
	maxBodyBytes   = 8 << 20
	maxAttempts    = 3
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 2 * time.Second
)

// upstream error codes and the status relayed to clients.
var errorStatus = map[string]int{
	"apiKeyMissing":          http.StatusUnauthorized,
	"apiKeyInvalid":          http.StatusUnauthorized,
	"apiKeyDisabled":         http.StatusUnauthorized,
	"apiKeyExhausted":        http.StatusUnauthorized,
	"rateLimited":            http.StatusTooManyRequests,
	"maximumResultsReached":  http.StatusTooManyRequests,
	"sourcesTooMany":         http.StatusBadRequest,
	"sourceDoesNotExist":     http.StatusBadRequest,
	"parameterInvalid":       http.StatusBadRequest,
	"parametersMissing":      http.StatusBadRequest,
	"parametersIncompatible": http.StatusBadRequest,
	"unexpectedError":        http.StatusBadGateway,
}

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = apperr.New(apperr.KindConfig, "NEWS_API_KEY not configured")

// Client fetches JSON documents from the news API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger

	initialBackoff time.Duration
}

// New creates a client from config.
func New(cfg config.NewsAPIConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
		logger:  logger.With("component", "newsapi"),

		initialBackoff: initialBackoff,
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type envelope struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Get performs GET path?params and returns the raw JSON body. Transport
// failures and non-JSON 5xx responses are retried. Upstream error documents
// are final and returned as *apperr.Error carrying the upstream code.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	target := c.baseURL + path
	if encoded := params.Encode(); encoded != "" {
		target += "?" + encoded
	}

	var status int
	operation := func() ([]byte, error) {
		body, code, err := c.doRequest(ctx, target)
		if err != nil {
			return nil, err
		}
		status = code
		if upstream, ok := parseError(body); ok {
			return nil, backoff.Permanent(upstream)
		}
		if code >= http.StatusInternalServerError {
			return nil, fmt.Errorf("unexpected status: %d", code)
		}
		return body, nil
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("request failed, retrying",
			"path", path,
			"backoff", wait,
			"error", err,
		)
	}

	body, err := backoff.RetryNotifyWithData(operation, c.retryPolicy(ctx), notify)
	if err != nil {
		var upstream *apperr.Error
		if errors.As(err, &upstream) {
			return nil, upstream
		}
		return nil, apperr.Wrap(apperr.KindUpstream, "News service unavailable", err)
	}

	if !json.Valid(body) {
		return nil, apperr.Wrap(apperr.KindUpstream, "Invalid response from news service",
			fmt.Errorf("status %d: body is not json", status))
	}
	return json.RawMessage(body), nil
}

// retryPolicy allows maxAttempts tries in total with capped exponential waits.
func (c *Client) retryPolicy(ctx context.Context) backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initialBackoff
	policy.MaxInterval = maxBackoff
	policy.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(policy, maxAttempts-1), ctx)
}

func (c *Client) doRequest(ctx context.Context, target string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// parseError converts a {"status":"error"} document into an *apperr.Error.
func parseError(body []byte) (*apperr.Error, bool) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Status != "error" {
		return nil, false
	}

	code := env.Code
	if code == "" {
		code = "upstream_error"
	}
	message := env.Message
	if message == "" {
		message = "Upstream error"
	}
	status, ok := errorStatus[code]
	if !ok {
		status = http.StatusBadGateway
	}
	return &apperr.Error{
		Kind:       apperr.KindUpstream,
		Message:    message,
		Code:       code,
		HTTPStatus: status,
		Err:        errors.New(code),
	}, true
}

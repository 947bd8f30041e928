package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 15 * time.Second

// ResendResult is the parsed outcome of a resend request. Success mirrors
// the server's success flag; Error carries the failure message when the
// server rejected the request.
type ResendResult struct {
	Success    bool
	StatusCode int
	Message    string
	Email      string
	Error      string
	RetryAfter time.Duration
}

type apiDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type apiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Email   string      `json:"email"`
	Details []apiDetail `json:"details"`
}

// Client is a thin HTTP client for the verification endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises the client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient constructs a client for the given base URL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ResendVerification posts a resend request and parses the response
// envelope. A non-2xx answer is not a Go error; transport failures are.
func (c *Client) ResendVerification(ctx context.Context, email string) (ResendResult, error) {
	body, err := json.Marshal(map[string]string{"email": email})
	if err != nil {
		return ResendResult{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/auth/resend-verification", bytes.NewReader(body))
	if err != nil {
		return ResendResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ResendResult{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return ResendResult{}, fmt.Errorf("decode response: %w", err)
	}

	result := ResendResult{
		Success:    parsed.Success,
		StatusCode: resp.StatusCode,
		Message:    parsed.Message,
		Email:      parsed.Email,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}

	if !parsed.Success {
		result.Error = parsed.Message
		if len(parsed.Details) > 0 && parsed.Details[0].Message != "" {
			result.Error = parsed.Details[0].Message
		}
	}

	return result, nil
}

func parseRetryAfter(raw string) time.Duration {
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// Package cliniko is an authenticated client for the Cliniko practice-management
// REST API. It exposes one CRUD surface per entity kind (patients, appointments,
// invoices, practitioners) and classifies upstream failures into typed kinds so
// callers can map them without inspecting HTTP details.
package cliniko

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
)

const (
	// defaultBaseURL is the AU1 shard; Cliniko accounts live on regional shards
	// and the configured API key only works against its own shard.
	defaultBaseURL = "https://api.au1.cliniko.com/v1"

	// defaultUserAgent is sent on every request; the Cliniko API rejects
	// requests without an identifying User-Agent.
	defaultUserAgent = "cliniko-mcp (support@clinovate.dev)"

	// defaultCallTimeout caps a single API round-trip. Timeout enforcement
	// lives here, not in the dispatch layer.
	defaultCallTimeout = 30 * time.Second
)

// Record is an opaque entity record. Field shapes are owned by the upstream
// API; this client relays them without inspection.
type Record map[string]any

// Config configures the API client.
type Config struct {
	APIKey    string `env:"CLINIKO_API_KEY"`
	BaseURL   string `env:"CLINIKO_BASE_URL"`
	UserAgent string `env:"CLINIKO_USER_AGENT"`
}

// Client performs authenticated calls against the Cliniko REST API.
type Client struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
}

// New creates a client from config, applying shard and agent defaults.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("cliniko: API key is required")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: defaultCallTimeout},
	}, nil
}

// doJSON performs one API round-trip and decodes the JSON response body.
// rawURL must be absolute; pagination follows upstream-provided absolute links.
func (c *Client) doJSON(ctx context.Context, method, rawURL string, body any) (map[string]any, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	// Cliniko authenticates with the API key as the basic-auth username.
	req.SetBasicAuth(c.apiKey, "")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Message: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode >= 400 {
		return nil, &Error{
			Kind:    kindForStatus(resp.StatusCode),
			Status:  resp.StatusCode,
			Message: upstreamMessage(payload, resp.StatusCode),
		}
	}

	if resp.StatusCode == http.StatusNoContent || len(payload) == 0 {
		return map[string]any{}, nil
	}

	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, &Error{Kind: KindUnknown, Status: resp.StatusCode, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return decoded, nil
}

// classifyTransportError converts http.Client errors into typed kinds.
func classifyTransportError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: err.Error()}
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return &Error{Kind: KindTimeout, Message: err.Error()}
	}
	return &Error{Kind: KindUnavailable, Message: err.Error()}
}

// upstreamMessage extracts a human-readable detail from an error body.
func upstreamMessage(payload []byte, status int) string {
	var body struct {
		Message string `json:"message"`
		Errors  any    `json:"errors"`
	}
	if err := json.Unmarshal(payload, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Errors != nil {
			if data, err := json.Marshal(body.Errors); err == nil {
				return string(data)
			}
		}
	}
	return http.StatusText(status)
}

func (c *Client) resourceURL(resource string, extra ...string) string {
	parts := append([]string{c.baseURL, resource}, extra...)
	return strings.Join(parts, "/")
}

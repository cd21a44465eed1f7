package elevenlabs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const signedURLPath = "/v1/convai/conversation/get_signed_url"

// Client provides HTTP client functionality for the ElevenLabs REST API.
// It is safe for concurrent use; every call fetches its own signed URL.
type Client struct {
	config     Config
	httpClient *http.Client
}

// Config contains ElevenLabs API client configuration
type Config struct {
	AgentID string
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// signedURLResponse is the body of a successful signed-URL exchange.
type signedURLResponse struct {
	SignedURL string `json:"signed_url"`
}

// NewClient creates a new ElevenLabs API client
func NewClient(config Config) (*Client, error) {
	if config.AgentID == "" {
		return nil, fmt.Errorf("agent ID cannot be empty")
	}

	if config.APIKey == "" {
		return nil, fmt.Errorf("API key cannot be empty")
	}

	if config.BaseURL == "" {
		config.BaseURL = "https://api.elevenlabs.io"
	}

	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
	}, nil
}

// SignedURL exchanges the agent identifier and API key for a one-time
// signed WebSocket URL. The URL is valid for a single conversation; a
// failure here is fatal for the call being set up, and is never retried.
func (c *Client) SignedURL(ctx context.Context) (string, error) {
	endpoint := fmt.Sprintf("%s%s?agent_id=%s",
		c.config.BaseURL, signedURLPath, url.QueryEscape(c.config.AgentID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create signed URL request: %w", err)
	}
	req.Header.Set("xi-api-key", c.config.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("signed URL request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("signed URL request returned status %d: %s",
			resp.StatusCode, string(body))
	}

	var parsed signedURLResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode signed URL response: %w", err)
	}

	if parsed.SignedURL == "" {
		return "", fmt.Errorf("signed URL response missing signed_url field")
	}

	return parsed.SignedURL, nil
}

// Package notify is an HTTP client for the external push dispatch function.
// Delivery is fire-and-forget: callers get an HTTP-style success or failure
// and nothing more.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrDisabled is returned when the client was built without an endpoint.
var ErrDisabled = errors.New("push dispatch is not configured")

// Client handles communication with the push dispatch function.
type Client struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new push client. An empty endpoint yields a disabled
// client whose sends fail with ErrDisabled; the moderation workflow treats
// that like any other best-effort failure.
func NewClient(endpoint, apiKey string) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type pushRequest struct {
	Token    string `json:"token,omitempty"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Body     string `json:"body"`
}

type pushResponse struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Error   string `json:"error"`
}

// Send dispatches a notification to a single device token.
func (c *Client) Send(ctx context.Context, token, title, subtitle, body string) error {
	if token == "" {
		return errors.New("empty device token")
	}
	_, err := c.dispatch(ctx, pushRequest{Token: token, Title: title, Subtitle: subtitle, Body: body})
	return err
}

// Broadcast dispatches a notification to every registered device and returns
// the recipient count reported by the function.
func (c *Client) Broadcast(ctx context.Context, title, subtitle, body string) (int, error) {
	return c.dispatch(ctx, pushRequest{Title: title, Subtitle: subtitle, Body: body})
}

func (c *Client) dispatch(ctx context.Context, payload pushRequest) (int, error) {
	if c.endpoint == "" {
		return 0, ErrDisabled
	}

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal push request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		return 0, fmt.Errorf("failed to create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call push function: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, fmt.Errorf("push function returned status %d", resp.StatusCode)
	}

	var result pushResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to decode push response: %w", err)
	}
	if !result.Success {
		if result.Error != "" {
			return 0, fmt.Errorf("push function rejected dispatch: %s", result.Error)
		}
		return 0, errors.New("push function rejected dispatch")
	}

	return result.Count, nil
}

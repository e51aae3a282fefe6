// Package storage is a thin HTTP client for the hosted object storage API
// that keeps the listing image files. The service never stores files itself;
// it only lists and deletes objects under per-listing folders.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const listPageSize = 100

// Client handles communication with the object storage API.
type Client struct {
	baseURL    string
	bucket     string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new storage client for one bucket.
func NewClient(baseURL, bucket, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		bucket:  bucket,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type listRequest struct {
	Prefix string `json:"prefix"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

type objectInfo struct {
	Name string `json:"name"`
}

type removeRequest struct {
	Prefixes []string `json:"prefixes"`
}

// List returns the object names under a folder prefix, in the order the
// storage API reports them. That order is not guaranteed stable across
// providers and is passed through untouched.
func (c *Client) List(ctx context.Context, prefix string) ([]string, error) {
	reqBody, err := json.Marshal(listRequest{Prefix: prefix, Limit: listPageSize})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal list request: %w", err)
	}

	url := fmt.Sprintf("%s/object/list/%s", c.baseURL, c.bucket)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create list request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to list objects under %q: %w", prefix, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("storage list returned status %d", resp.StatusCode)
	}

	var objects []objectInfo
	if err := json.NewDecoder(resp.Body).Decode(&objects); err != nil {
		return nil, fmt.Errorf("failed to decode list response: %w", err)
	}

	names := make([]string, 0, len(objects))
	for _, o := range objects {
		names = append(names, o.Name)
	}
	return names, nil
}

// PublicURL derives the public download URL for an object path.
func (c *Client) PublicURL(path string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", c.baseURL, c.bucket, strings.TrimLeft(path, "/"))
}

// Remove deletes a batch of object paths. A nil or empty batch is a no-op.
func (c *Client) Remove(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	reqBody, err := json.Marshal(removeRequest{Prefixes: paths})
	if err != nil {
		return fmt.Errorf("failed to marshal remove request: %w", err)
	}

	url := fmt.Sprintf("%s/object/%s", c.baseURL, c.bucket)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return fmt.Errorf("failed to create remove request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to remove %d objects: %w", len(paths), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("storage remove returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

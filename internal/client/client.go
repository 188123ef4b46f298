// Package client talks to the gym buddy API server and push channel on behalf
// of the interactive app.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"gym-buddy/internal/config"
	"gym-buddy/internal/imtypes"
)

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx response from the API server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return e.Message
}

// ErrorCode returns the machine readable code, e.g. "auth/wrong-password".
func (e *APIError) ErrorCode() string { return e.Code }

// Client is a thin JSON client holding the current bearer token.
type Client struct {
	baseURL   string
	notifyURL string
	http      *http.Client

	mu    sync.RWMutex
	token string
}

// New creates a client from the client section of the config.
func New(cfg config.ClientConfig) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.APIBaseURL, "/"),
		notifyURL: cfg.NotifyURL,
		http:      &http.Client{Timeout: timeout},
	}
}

// Token returns the current bearer token, empty when signed out.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the bearer token used for /api/v1 calls.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		var errResp imtypes.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			apiErr.Code = errResp.Code
			apiErr.Message = errResp.Error
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

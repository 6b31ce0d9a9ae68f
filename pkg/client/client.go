// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-fileprotect.
//
// go-fileprotect is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package client provides a Go client for the fileprotect REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/jeremyhahn/go-fileprotect/pkg/engine"
)

// Common errors
var (
	// ErrConnectionFailed indicates the server could not be reached.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrRequestRejected indicates the server rejected the request as
	// invalid (HTTP 400).
	ErrRequestRejected = errors.New("request rejected")

	// ErrServerFault indicates the server failed while processing the
	// request (HTTP 5xx).
	ErrServerFault = errors.New("server fault")
)

// Config holds the client configuration.
type Config struct {
	// Address is the server address (host:port or full URL)
	Address string

	// Timeout is the per-request timeout (default: 90s, engine calls on
	// large files are slow)
	Timeout time.Duration

	// Headers are additional headers sent with every request
	Headers map[string]string
}

// HealthResponse is the server's legacy health reply.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Client talks to a fileprotect server over HTTP.
type Client struct {
	config     *Config
	httpClient *http.Client
	baseURL    string
}

// New creates a fileprotect client.
func New(cfg *Config) (*Client, error) {
	if cfg == nil || cfg.Address == "" {
		return nil, fmt.Errorf("server address is required")
	}

	baseURL := cfg.Address
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 90 * time.Second
	}

	return &Client{
		config:  cfg,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// doRequest performs an HTTP request against the server.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.config.Headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Printf("failed to close response body: %v", closeErr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		message := string(respBody)
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			message = errResp.Error
		}
		if resp.StatusCode == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: %s", ErrRequestRejected, message)
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrServerFault, resp.StatusCode, message)
	}

	return respBody, nil
}

// post sends an operation request and decodes the engine result.
func (c *Client) post(ctx context.Context, path string, body interface{}) (engine.Result, error) {
	data, err := c.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return engine.Result{}, err
	}

	var result engine.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return engine.Result{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return result, nil
}

// InspectFile reports the protection state of a file.
func (c *Client) InspectFile(ctx context.Context, req engine.FileDescriptor) (engine.Result, error) {
	return c.post(ctx, "/v1/inspect_file", req)
}

// ProtectFile applies protection to a file.
func (c *Client) ProtectFile(ctx context.Context, req engine.ProtectRequest) (engine.Result, error) {
	return c.post(ctx, "/v1/protect_file", req)
}

// UnprotectFile removes protection from a file.
func (c *Client) UnprotectFile(ctx context.Context, req engine.UnprotectRequest) (engine.Result, error) {
	return c.post(ctx, "/v1/unprotect_file", req)
}

// Health checks the health of the server.
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}

	var resp HealthResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &resp, nil
}

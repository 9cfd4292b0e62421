package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goodtune/snstimer/internal/config"
)

// apiClient talks to a running daemon.
type apiClient struct {
	baseURL string
	http    *http.Client
}

// newAPIClient resolves the daemon URL from --server, falling back to the
// configured bind address and port.
func newAPIClient() (*apiClient, error) {
	base := serverURL
	if base == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration: %w", err)
		}
		host := cfg.Server.BindAddress
		if host == "" || host == "0.0.0.0" || host == "::" {
			host = "127.0.0.1"
		}
		base = fmt.Sprintf("http://%s:%d", host, cfg.Server.APIPort)
	}

	return &apiClient{
		baseURL: strings.TrimRight(base, "/") + "/api/v1",
		http:    &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// do sends a request and returns the response body. Non-2xx responses
// become errors carrying the server's message.
func (c *apiClient) do(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to reach snstimer at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			return resp, data, fmt.Errorf("%s: %s", resp.Status, apiErr.Message)
		}
		return resp, data, fmt.Errorf("%s", resp.Status)
	}

	return resp, data, nil
}

func (c *apiClient) getJSON(ctx context.Context, path string, out any) error {
	_, data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

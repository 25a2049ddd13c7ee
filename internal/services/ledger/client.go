package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"kvitt/internal/config"
	"kvitt/internal/services"
)

// HTTPDoer describes the HTTP client used by the ledger service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the expense backend: attachments, expenses, and the
// campus/department directory.
type Client struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

// NewClient builds a backend client from configuration.
func NewClient(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.Ledger.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return NewClientWithDoer(cfg.Ledger.URL, cfg.Ledger.APIKey, &http.Client{Timeout: timeout})
}

// NewClientWithDoer constructs a backend client with a custom HTTP client.
func NewClientWithDoer(baseURL, apiKey string, client HTTPDoer) *Client {
	if client == nil {
		client = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  client,
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return services.Wrap(services.ErrExternalService, "ledger", method+" "+path, "encode request", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "ledger", method+" "+path, "build request", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrExternalService, "ledger", method+" "+path, "call backend", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return services.Wrap(services.ErrNotFound, "ledger", method+" "+path, fmt.Sprintf("backend returned %d", resp.StatusCode), nil)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return services.Wrap(services.ErrExternalService, "ledger", method+" "+path, fmt.Sprintf("backend returned %d", resp.StatusCode), nil)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrExternalService, "ledger", method+" "+path, "decode response", err)
	}
	return nil
}

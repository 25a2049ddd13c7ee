package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"kvitt/internal/services"
)

// HTTPDoer describes the HTTP client used by the remote scanner.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type remoteScanner struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

// NewRemoteScanner builds a scanner that posts uploaded file references to
// an extraction endpoint.
func NewRemoteScanner(baseURL, apiKey string, client HTTPDoer, timeoutSeconds int) Scanner {
	if client == nil {
		timeout := time.Duration(timeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &remoteScanner{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  client,
	}
}

type extractRequest struct {
	FileID  string `json:"fileId"`
	FileURL string `json:"fileUrl,omitempty"`
}

type extractResponse struct {
	Success bool        `json:"success"`
	Data    *resultWire `json:"data"`
	Error   string      `json:"error"`
}

func (s *remoteScanner) Extract(ctx context.Context, ref FileRef) (*Result, error) {
	payload, err := json.Marshal(extractRequest{FileID: ref.FileID, FileURL: ref.FileURL})
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "ocr", "extract", "encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/extract", bytes.NewReader(payload))
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "ocr", "extract", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalService, "ocr", "extract", "call extraction endpoint", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, services.Wrap(services.ErrExternalService, "ocr", "extract", fmt.Sprintf("extraction returned %d", resp.StatusCode), nil)
	}

	var decoded extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, services.Wrap(services.ErrExternalService, "ocr", "extract", "decode response", err)
	}
	if !decoded.Success || decoded.Data == nil {
		message := strings.TrimSpace(decoded.Error)
		if message == "" {
			message = "extraction failed"
		}
		return nil, services.Wrap(services.ErrExternalService, "ocr", "extract", message, nil)
	}
	return decoded.Data.toResult(), nil
}

package vault

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"kvitt/internal/config"
	"kvitt/internal/services"
)

// Service defines the file upload surface consumed by the ingestion
// pipeline.
type Service interface {
	// Upload stores a document and returns its remote file id.
	Upload(ctx context.Context, fileName, mimeType string, content io.Reader) (string, error)
	// FileURL returns the fetchable URL for an uploaded file id.
	FileURL(fileID string) string
}

// HTTPDoer describes the HTTP client used by the vault service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type httpService struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

// NewService builds an upload client from configuration.
func NewService(cfg *config.Config) Service {
	timeout := time.Duration(cfg.Vault.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return NewHTTPService(cfg.Vault.URL, cfg.Vault.APIKey, &http.Client{Timeout: timeout})
}

// NewHTTPService constructs an upload client against the given endpoint.
func NewHTTPService(baseURL, apiKey string, client HTTPDoer) Service {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpService{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
		client:  client,
	}
}

type uploadResponse struct {
	Success bool `json:"success"`
	File    *struct {
		ID string `json:"id"`
	} `json:"file"`
	Error string `json:"error"`
}

func (s *httpService) Upload(ctx context.Context, fileName, mimeType string, content io.Reader) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return "", services.Wrap(services.ErrExternalService, "vault", "upload", "build multipart payload", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", services.Wrap(services.ErrExternalService, "vault", "upload", "read file content", err)
	}
	if mimeType != "" {
		if err := writer.WriteField("mime_type", mimeType); err != nil {
			return "", services.Wrap(services.ErrExternalService, "vault", "upload", "write mime field", err)
		}
	}
	if err := writer.Close(); err != nil {
		return "", services.Wrap(services.ErrExternalService, "vault", "upload", "finalize multipart payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/files", &body)
	if err != nil {
		return "", services.Wrap(services.ErrExternalService, "vault", "upload", "build request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrExternalService, "vault", "upload", "send file", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return "", services.Wrap(services.ErrExternalService, "vault", "upload", fmt.Sprintf("upload returned %d", resp.StatusCode), nil)
	}

	var decoded uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", services.Wrap(services.ErrExternalService, "vault", "upload", "decode response", err)
	}
	if !decoded.Success || decoded.File == nil || decoded.File.ID == "" {
		message := strings.TrimSpace(decoded.Error)
		if message == "" {
			message = "upload failed"
		}
		return "", services.Wrap(services.ErrExternalService, "vault", "upload", message, nil)
	}
	return decoded.File.ID, nil
}

func (s *httpService) FileURL(fileID string) string {
	if fileID == "" {
		return ""
	}
	return s.baseURL + "/files/" + fileID
}

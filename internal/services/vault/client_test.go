package vault_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kvitt/internal/services"
	"kvitt/internal/services/vault"
)

func TestUpload(t *testing.T) {
	var gotAuth, gotName, gotContent, gotMime string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/files" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		gotName = header.Filename
		var content strings.Builder
		if _, err := io.Copy(&content, file); err != nil {
			t.Errorf("read file: %v", err)
		}
		gotContent = content.String()
		gotMime = r.FormValue("mime_type")

		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"file":    map[string]string{"id": "file-7"},
		})
	}))
	defer server.Close()

	service := vault.NewHTTPService(server.URL, "secret", server.Client())
	id, err := service.Upload(context.Background(), "receipt.pdf", "application/pdf", strings.NewReader("receipt bytes"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if id != "file-7" {
		t.Fatalf("id = %q", id)
	}
	if gotAuth != "Bearer secret" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotName != "receipt.pdf" || gotContent != "receipt bytes" || gotMime != "application/pdf" {
		t.Fatalf("upload payload: name=%q content=%q mime=%q", gotName, gotContent, gotMime)
	}
}

func TestUploadBackendRefusal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "quota exceeded"})
	}))
	defer server.Close()

	service := vault.NewHTTPService(server.URL, "", server.Client())
	_, err := service.Upload(context.Background(), "receipt.pdf", "application/pdf", strings.NewReader("x"))
	if err == nil {
		t.Fatal("expected refusal error")
	}
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("refusal reason lost: %v", err)
	}
}

func TestUploadHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	service := vault.NewHTTPService(server.URL, "", server.Client())
	if _, err := service.Upload(context.Background(), "receipt.pdf", "", strings.NewReader("x")); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestFileURL(t *testing.T) {
	service := vault.NewHTTPService("https://vault.example/", "", nil)
	if got := service.FileURL("abc"); got != "https://vault.example/files/abc" {
		t.Fatalf("FileURL = %q", got)
	}
	if got := service.FileURL(""); got != "" {
		t.Fatalf("empty id must yield empty URL, got %q", got)
	}
}

package ocr_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"kvitt/internal/services"
	"kvitt/internal/services/ocr"
	"kvitt/internal/testsupport"
)

func TestRemoteExtract(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/extract" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"description":  "Team lunch",
				"vendor":       "Kafe Sol",
				"amount":       480.0,
				"date":         "28.08.2026",
				"currency":     "nok",
				"exchangeRate": 0,
				"confidence":   0.92,
			},
		})
	}))
	defer server.Close()

	scanner := ocr.NewRemoteScanner(server.URL, "secret", server.Client(), 0)
	result, err := scanner.Extract(context.Background(), ocr.FileRef{FileID: "file-1", FileURL: "https://vault.test/files/file-1"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if gotBody["fileId"] != "file-1" {
		t.Fatalf("request body = %v", gotBody)
	}
	if result.Vendor != "Kafe Sol" {
		t.Fatalf("vendor = %q", result.Vendor)
	}
	if result.Date != "2026-08-28" {
		t.Fatalf("date not normalized: %q", result.Date)
	}
	if result.Currency != "NOK" {
		t.Fatalf("currency not upper-cased: %q", result.Currency)
	}
	if !result.Amount.Equal(decimal.RequireFromString("480")) {
		t.Fatalf("amount = %s", result.Amount)
	}
}

func TestRemoteExtractBackendRefusal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false, "error": "unreadable document"})
	}))
	defer server.Close()

	scanner := ocr.NewRemoteScanner(server.URL, "", server.Client(), 0)
	_, err := scanner.Extract(context.Background(), ocr.FileRef{FileID: "file-1"})
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestNewScannerSelectsBackend(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithOCRBackend("remote"))
	if _, err := ocr.NewScanner(cfg); err != nil {
		t.Fatalf("remote backend: %v", err)
	}

	cfg = testsupport.NewConfig(t, testsupport.WithOCRBackend("unknown"))
	if _, err := ocr.NewScanner(cfg); err == nil {
		t.Fatal("expected unknown backend to be rejected")
	}
}

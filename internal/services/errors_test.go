package services_test

import (
	"errors"
	"testing"

	"kvitt/internal/services"
)

func TestWrapTagsSentinel(t *testing.T) {
	cause := errors.New("connection refused")
	err := services.Wrap(services.ErrExternalService, "vault", "upload", "send file", cause)

	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("sentinel lost: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause lost: %v", err)
	}
	if errors.Is(err, services.ErrValidation) {
		t.Fatal("wrong sentinel matched")
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "ocr", "extract", "flaky backend", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
}

func TestReasonStripsSentinelPrefix(t *testing.T) {
	err := services.Wrap(services.ErrExternalService, "vault", "upload", "quota exceeded", nil)
	if got := services.Reason(err); got != "vault: upload: quota exceeded" {
		t.Fatalf("Reason = %q", got)
	}
	if got := services.Reason(nil); got != "" {
		t.Fatalf("Reason(nil) = %q", got)
	}
	if got := services.Reason(errors.New("plain")); got != "plain" {
		t.Fatalf("Reason(plain) = %q", got)
	}
}

package ocr

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"kvitt/internal/config"
)

// FileRef points the extractor at an uploaded document.
type FileRef struct {
	FileID    string
	FileURL   string
	LocalPath string
	FileName  string
	MimeType  string
}

// Result contains the fields extracted from a receipt document.
type Result struct {
	Description string
	Vendor      string
	// Date in ISO 8601 (YYYY-MM-DD).
	Date string
	// Amount in the document currency.
	Amount decimal.Decimal
	// SettlementAmount is a settlement-currency figure the extractor read
	// directly off the document (e.g. a card charge line); HasSettlement
	// distinguishes a genuine zero from absence.
	SettlementAmount decimal.Decimal
	HasSettlement    bool
	// Currency is the ISO 4217 code of the document, empty when unknown.
	Currency string
	// ExchangeRate into the settlement currency, zero when unknown.
	ExchangeRate decimal.Decimal
	// Confidence is the extraction trust score (0-1).
	Confidence float64
}

// Scanner defines the extraction surface consumed by the ingestion
// pipeline.
type Scanner interface {
	// Extract analyzes an uploaded receipt and returns its fields.
	Extract(ctx context.Context, ref FileRef) (*Result, error)
}

// NewScanner selects the configured extraction backend.
func NewScanner(cfg *config.Config) (Scanner, error) {
	switch cfg.OCR.Backend {
	case "remote":
		return NewRemoteScanner(cfg.OCR.URL, cfg.OCR.APIKey, nil, cfg.OCR.RequestTimeout), nil
	case "gemini":
		return NewGemini(cfg.OCR.APIKey, cfg.OCR.Model)
	default:
		return nil, fmt.Errorf("ocr backend: unsupported value %q", cfg.OCR.Backend)
	}
}

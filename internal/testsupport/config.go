package testsupport

import (
	"path/filepath"
	"testing"

	"kvitt/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Vault.URL = "http://127.0.0.1:0"
	cfg.Vault.APIKey = "test"
	cfg.Ledger.URL = "http://127.0.0.1:0"
	cfg.Ledger.APIKey = "test"
	cfg.OCR.URL = "http://127.0.0.1:0"
	cfg.OCR.APIKey = "test"
	cfg.Pipeline.AnalyzingDelayMS = 0

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithSettlement overrides the settlement currency on the test config.
func WithSettlement(code string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Currency.Settlement = code
	}
}

// WithOCRBackend selects the extraction backend on the test config.
func WithOCRBackend(backend string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.OCR.Backend = backend
	}
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Vault contains configuration for the file upload service.
type Vault struct {
	URL            string `toml:"url"`
	APIKey         string `toml:"api_key"`
	RequestTimeout int    `toml:"request_timeout"`
}

// OCR contains configuration for receipt extraction.
type OCR struct {
	// Backend selects the extraction implementation: "remote" posts the
	// uploaded file reference to an extraction endpoint, "gemini" sends
	// the document to Google Gemini directly.
	Backend        string `toml:"backend"`
	URL            string `toml:"url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Ledger contains configuration for the expense backend API.
type Ledger struct {
	URL            string `toml:"url"`
	APIKey         string `toml:"api_key"`
	BankAccount    string `toml:"bank_account"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Currency contains settlement currency settings.
type Currency struct {
	Settlement string `toml:"settlement"`
	Locale     string `toml:"locale"`
}

// Pipeline contains ingestion timing knobs.
type Pipeline struct {
	// AnalyzingDelayMS is the minimum time a receipt stays visible in the
	// analyzing state before it becomes ready.
	AnalyzingDelayMS int `toml:"analyzing_delay_ms"`
	UploadTimeout    int `toml:"upload_timeout"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for kvitt.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories
//   - Vault: file upload service endpoint and credentials
//   - OCR: receipt extraction backend (remote endpoint or Gemini)
//   - Ledger: expense backend API and the submitter's bank account
//   - Currency: settlement currency and display locale
//   - Pipeline: ingestion timing (analyzing delay, upload timeout)
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Vault         Vault         `toml:"vault"`
	OCR           OCR           `toml:"ocr"`
	Ledger        Ledger        `toml:"ledger"`
	Currency      Currency      `toml:"currency"`
	Pipeline      Pipeline      `toml:"pipeline"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/kvitt/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("kvitt.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// WriteSample writes the sample configuration to the given path, refusing to
// overwrite an existing file.
func WriteSample(path string) (string, error) {
	expanded, err := expandPath(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(expanded); err == nil {
		return "", fmt.Errorf("config already exists at %s", expanded)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return expanded, nil
}

// EnsureDirectories creates the directories the tool writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	c.Vault.URL = strings.TrimRight(strings.TrimSpace(c.Vault.URL), "/")
	if c.Vault.APIKey == "" {
		if value, ok := os.LookupEnv("KVITT_VAULT_API_KEY"); ok {
			c.Vault.APIKey = strings.TrimSpace(value)
		}
	}

	c.OCR.Backend = strings.ToLower(strings.TrimSpace(c.OCR.Backend))
	if c.OCR.Backend == "" {
		c.OCR.Backend = defaultOCRBackend
	}
	c.OCR.URL = strings.TrimRight(strings.TrimSpace(c.OCR.URL), "/")
	if c.OCR.APIKey == "" {
		if value, ok := os.LookupEnv("GEMINI_API_KEY"); ok {
			c.OCR.APIKey = strings.TrimSpace(value)
		}
	}
	if strings.TrimSpace(c.OCR.Model) == "" {
		c.OCR.Model = defaultOCRModel
	}

	c.Ledger.URL = strings.TrimRight(strings.TrimSpace(c.Ledger.URL), "/")
	if c.Ledger.APIKey == "" {
		if value, ok := os.LookupEnv("KVITT_LEDGER_API_KEY"); ok {
			c.Ledger.APIKey = strings.TrimSpace(value)
		}
	}
	c.Ledger.BankAccount = strings.TrimSpace(c.Ledger.BankAccount)

	c.Currency.Settlement = strings.ToUpper(strings.TrimSpace(c.Currency.Settlement))
	if c.Currency.Settlement == "" {
		c.Currency.Settlement = defaultSettlementCurrency
	}
	c.Currency.Locale = strings.TrimSpace(c.Currency.Locale)
	if c.Currency.Locale == "" {
		c.Currency.Locale = defaultCurrencyLocale
	}

	if c.Pipeline.AnalyzingDelayMS < 0 {
		c.Pipeline.AnalyzingDelayMS = 0
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

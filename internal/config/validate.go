package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateVault(); err != nil {
		return err
	}
	if err := c.validateOCR(); err != nil {
		return err
	}
	if err := c.validateLedger(); err != nil {
		return err
	}
	if err := c.validateCurrency(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateVault() error {
	if c.Vault.URL == "" {
		return errors.New("vault.url is required (the file upload endpoint)")
	}
	if c.Vault.RequestTimeout <= 0 {
		return errors.New("vault.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateOCR() error {
	switch c.OCR.Backend {
	case "remote":
		if c.OCR.URL == "" {
			return errors.New("ocr.url is required when ocr.backend is \"remote\"")
		}
	case "gemini":
		if c.OCR.APIKey == "" {
			return errors.New("ocr.api_key is required when ocr.backend is \"gemini\" (or set GEMINI_API_KEY)")
		}
	default:
		return fmt.Errorf("ocr.backend: unsupported value %q (expected \"remote\" or \"gemini\")", c.OCR.Backend)
	}
	if c.OCR.RequestTimeout <= 0 {
		return errors.New("ocr.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLedger() error {
	if c.Ledger.URL == "" {
		return errors.New("ledger.url is required (the expense backend)")
	}
	if c.Ledger.RequestTimeout <= 0 {
		return errors.New("ledger.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateCurrency() error {
	if len(c.Currency.Settlement) != 3 {
		return fmt.Errorf("currency.settlement: %q is not an ISO 4217 code", c.Currency.Settlement)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

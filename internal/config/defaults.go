package config

const (
	defaultDataDir            = "~/.local/share/kvitt"
	defaultLogDir             = "~/.local/share/kvitt/logs"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultRequestTimeout     = 30
	defaultUploadTimeout      = 120
	defaultAnalyzingDelayMS   = 800
	defaultOCRBackend         = "remote"
	defaultOCRModel           = "gemini-2.5-flash"
	defaultSettlementCurrency = "NOK"
	defaultCurrencyLocale     = "nb-NO"
	defaultNotifyTimeout      = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Vault: Vault{
			RequestTimeout: defaultUploadTimeout,
		},
		OCR: OCR{
			Backend:        defaultOCRBackend,
			Model:          defaultOCRModel,
			RequestTimeout: defaultRequestTimeout,
		},
		Ledger: Ledger{
			RequestTimeout: defaultRequestTimeout,
		},
		Currency: Currency{
			Settlement: defaultSettlementCurrency,
			Locale:     defaultCurrencyLocale,
		},
		Pipeline: Pipeline{
			AnalyzingDelayMS: defaultAnalyzingDelayMS,
			UploadTimeout:    defaultUploadTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

package config

import "time"

// DefaultPath is where the config file is looked up when --config is not given.
const DefaultPath = ".pneumabot.yml"

// modelPresets maps each provider to its default chat model.
var modelPresets = map[ProviderType]string{
	ProviderOpenRouter: "openai/gpt-4o-mini",
	ProviderOpenAI:     "gpt-4o-mini",
}

// DefaultPolicy returns the conversation bounds used in production.
func DefaultPolicy() Policy {
	return Policy{
		MaxDiameterMM:       1000,
		MaxStrokeMM:         2000,
		ConfidenceThreshold: 0.7,
		FallbackConfidence:  0.6,
		OracleTimeout:       15 * time.Second,
		HistoryLimit:        10,
		InquiryTopK:         5,
		ShortlistLimit:      10,
		DispatchCutoffHour:  16,
		Timezone:            "Europe/Istanbul",
		SessionIdleTimeout:  30 * time.Minute,
	}
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:          ProviderOpenRouter,
			Model:             modelPresets[ProviderOpenRouter],
			RequestsPerMinute: 60,
		},
		Embedding: EmbeddingConfig{
			Provider: EmbeddingLocal,
		},
		Catalog: CatalogConfig{
			Backend:    BackendSQLite,
			SQLitePath: "pneumabot.db",
			MaxConns:   8,
			IndexDir:   ".pneumabot/index",
		},
		Server: ServerConfig{
			Port: 8080,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Policy: DefaultPolicy(),
	}
}

// DefaultModel returns the preset chat model for provider, or "" if unknown.
func DefaultModel(provider ProviderType) string {
	return modelPresets[provider]
}

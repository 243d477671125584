package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "PNEUMABOT_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (PNEUMABOT_*). Nested keys use a double
// underscore: PNEUMABOT_POLICY__MAX_DIAMETER_MM -> policy.max_diameter_mm.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validProviders = map[ProviderType]bool{
	ProviderOpenRouter: true,
	ProviderOpenAI:     true,
	ProviderNone:       true,
}

var validEmbeddingProviders = map[EmbeddingProviderType]bool{
	EmbeddingOpenAI: true,
	EmbeddingLocal:  true,
	EmbeddingNone:   true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if !validProviders[c.LLM.Provider] {
		return fmt.Errorf("invalid llm.provider %q: must be one of openrouter, openai, none", c.LLM.Provider)
	}
	if c.LLM.Provider != ProviderNone && c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.LLM.RequestsPerMinute < 0 {
		return fmt.Errorf("llm.requests_per_minute must be non-negative")
	}

	if c.Embedding.Provider != "" && !validEmbeddingProviders[c.Embedding.Provider] {
		return fmt.Errorf("invalid embedding.provider %q", c.Embedding.Provider)
	}

	switch c.Catalog.Backend {
	case BackendSQLite:
		if c.Catalog.SQLitePath == "" {
			return fmt.Errorf("catalog.sqlite_path is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.Catalog.PostgresURL == "" {
			return fmt.Errorf("catalog.postgres_url is required for the postgres backend")
		}
	default:
		return fmt.Errorf("invalid catalog.backend %q: must be sqlite or postgres", c.Catalog.Backend)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}

	return c.Policy.Validate()
}

// Validate checks the policy bounds.
func (p Policy) Validate() error {
	if p.MaxDiameterMM <= 0 || p.MaxStrokeMM <= 0 {
		return fmt.Errorf("policy: dimension bounds must be positive")
	}
	if p.ConfidenceThreshold < 0 || p.ConfidenceThreshold > 1 {
		return fmt.Errorf("policy.confidence_threshold must be in [0,1]")
	}
	if p.FallbackConfidence < 0 || p.FallbackConfidence > 1 {
		return fmt.Errorf("policy.fallback_confidence must be in [0,1]")
	}
	if p.OracleTimeout <= 0 {
		return fmt.Errorf("policy.oracle_timeout must be positive")
	}
	if p.HistoryLimit <= 0 || p.InquiryTopK <= 0 || p.ShortlistLimit <= 0 {
		return fmt.Errorf("policy: history_limit, inquiry_top_k and shortlist_limit must be positive")
	}
	if p.DispatchCutoffHour < 0 || p.DispatchCutoffHour > 23 {
		return fmt.Errorf("policy.dispatch_cutoff_hour must be in [0,23]")
	}
	return nil
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderOpenRouter:
		return "OPENROUTER_API_KEY"
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.LLM.Provider != ProviderOpenRouter {
		t.Errorf("expected default provider %q, got %q", ProviderOpenRouter, cfg.LLM.Provider)
	}
	if cfg.Catalog.Backend != BackendSQLite {
		t.Errorf("expected default backend sqlite, got %q", cfg.Catalog.Backend)
	}
	p := cfg.Policy
	if p.MaxDiameterMM != 1000 || p.MaxStrokeMM != 2000 {
		t.Errorf("unexpected bounds: %d/%d", p.MaxDiameterMM, p.MaxStrokeMM)
	}
	if p.ConfidenceThreshold != 0.7 || p.FallbackConfidence != 0.6 {
		t.Errorf("unexpected confidences: %v/%v", p.ConfidenceThreshold, p.FallbackConfidence)
	}
	if p.OracleTimeout != 15*time.Second {
		t.Errorf("expected 15s oracle timeout, got %v", p.OracleTimeout)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.pneumabot.yml")

	original := DefaultConfig()
	original.LLM.Provider = ProviderOpenAI
	original.LLM.Model = "gpt-4o"
	original.Catalog.Backend = BackendPostgres
	original.Catalog.PostgresURL = "postgres://db/pneuma"
	original.Policy.OracleTimeout = 5 * time.Second
	original.Policy.ConfidenceThreshold = 0.8

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.LLM.Provider != original.LLM.Provider {
		t.Errorf("provider: got %q, want %q", loaded.LLM.Provider, original.LLM.Provider)
	}
	if loaded.LLM.Model != original.LLM.Model {
		t.Errorf("model: got %q, want %q", loaded.LLM.Model, original.LLM.Model)
	}
	if loaded.Catalog.PostgresURL != original.Catalog.PostgresURL {
		t.Errorf("postgres_url: got %q", loaded.Catalog.PostgresURL)
	}
	if loaded.Policy.OracleTimeout != 5*time.Second {
		t.Errorf("oracle_timeout: got %v", loaded.Policy.OracleTimeout)
	}
	if loaded.Policy.ConfidenceThreshold != 0.8 {
		t.Errorf("confidence_threshold: got %v", loaded.Policy.ConfidenceThreshold)
	}
	if loaded.Policy.HistoryLimit != 10 {
		t.Errorf("history_limit: got %d", loaded.Policy.HistoryLimit)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.LLM.Provider != ProviderOpenRouter {
		t.Errorf("expected default provider, got %q", cfg.LLM.Provider)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	if err := DefaultConfig().Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("PNEUMABOT_LLM__PROVIDER", "openai")
	t.Setenv("PNEUMABOT_POLICY__MAX_DIAMETER_MM", "500")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.LLM.Provider != ProviderOpenAI {
		t.Errorf("env override failed: got %q, want %q", loaded.LLM.Provider, ProviderOpenAI)
	}
	if loaded.Policy.MaxDiameterMM != 500 {
		t.Errorf("nested env override failed: got %d", loaded.Policy.MaxDiameterMM)
	}
}

func TestEnvKey(t *testing.T) {
	if got := envKey("PNEUMABOT_SERVER__BRIDGE_SECRET"); got != "server.bridge_secret" {
		t.Errorf("envKey = %q", got)
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"invalid provider", func(c *Config) { c.LLM.Provider = "invalid" }},
		{"empty model", func(c *Config) { c.LLM.Model = "" }},
		{"bad backend", func(c *Config) { c.Catalog.Backend = "mongo" }},
		{"postgres without url", func(c *Config) { c.Catalog.Backend = BackendPostgres }},
		{"negative bound", func(c *Config) { c.Policy.MaxStrokeMM = -1 }},
		{"threshold above one", func(c *Config) { c.Policy.ConfidenceThreshold = 1.5 }},
		{"zero timeout", func(c *Config) { c.Policy.OracleTimeout = 0 }},
		{"cutoff hour", func(c *Config) { c.Policy.DispatchCutoffHour = 24 }},
		{"port", func(c *Config) { c.Server.Port = 70000 }},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}

func TestValidateNoneProviderNeedsNoModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Provider = ProviderNone
	cfg.LLM.Model = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("rules-only config should be valid: %v", err)
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider ProviderType
		want     string
	}{
		{ProviderOpenRouter, "OPENROUTER_API_KEY"},
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderNone, ""},
	}
	for _, tt := range tests {
		got := APIKeyEnvVar(tt.provider)
		if got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestPolicyLocationFallsBack(t *testing.T) {
	p := DefaultPolicy()
	p.Timezone = "Not/AZone"
	_, off := time.Date(2025, 1, 1, 12, 0, 0, 0, p.Location()).Zone()
	if off != 3*60*60 {
		t.Errorf("fallback offset = %d", off)
	}
}

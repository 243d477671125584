package config

import "time"

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderOpenRouter ProviderType = "openrouter"
	ProviderOpenAI     ProviderType = "openai"
	// ProviderNone disables the oracle; only the deterministic extractor runs.
	ProviderNone ProviderType = "none"
)

// EmbeddingProviderType identifies how product names are embedded for the
// semantic index.
type EmbeddingProviderType string

const (
	EmbeddingOpenAI EmbeddingProviderType = "openai"
	EmbeddingLocal  EmbeddingProviderType = "local"
	EmbeddingNone   EmbeddingProviderType = "none"
)

// Backend selects the catalog store.
type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// Config is the top-level pneumabot configuration, corresponding to .pneumabot.yml.
type Config struct {
	LLM       LLMConfig       `yaml:"llm" koanf:"llm"`
	Embedding EmbeddingConfig `yaml:"embedding" koanf:"embedding"`
	Catalog   CatalogConfig   `yaml:"catalog" koanf:"catalog"`
	Server    ServerConfig    `yaml:"server" koanf:"server"`
	Log       LogConfig       `yaml:"log" koanf:"log"`
	Policy    Policy          `yaml:"policy" koanf:"policy"`
}

// LLMConfig configures the understanding oracle transport.
type LLMConfig struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	BaseURL           string       `yaml:"base_url,omitempty" koanf:"base_url"`
	RequestsPerMinute int          `yaml:"requests_per_minute" koanf:"requests_per_minute"`
}

// EmbeddingConfig configures the semantic product index.
type EmbeddingConfig struct {
	Provider EmbeddingProviderType `yaml:"provider" koanf:"provider"`
	Model    string                `yaml:"model,omitempty" koanf:"model"`
}

// CatalogConfig selects and locates the catalog store.
type CatalogConfig struct {
	Backend     Backend `yaml:"backend" koanf:"backend"`
	SQLitePath  string  `yaml:"sqlite_path" koanf:"sqlite_path"`
	PostgresURL string  `yaml:"postgres_url,omitempty" koanf:"postgres_url"`
	MaxConns    int32   `yaml:"max_conns" koanf:"max_conns"`
	IndexDir    string  `yaml:"index_dir" koanf:"index_dir"`
}

// ServerConfig holds HTTP adapter settings.
type ServerConfig struct {
	Port            int    `yaml:"port" koanf:"port"`
	AllowAllOrigins bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	BridgeSecret    string `yaml:"bridge_secret,omitempty" koanf:"bridge_secret"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}

// Policy holds the conversation thresholds and bounds.
type Policy struct {
	MaxDiameterMM       int           `yaml:"max_diameter_mm" koanf:"max_diameter_mm"`
	MaxStrokeMM         int           `yaml:"max_stroke_mm" koanf:"max_stroke_mm"`
	ConfidenceThreshold float64       `yaml:"confidence_threshold" koanf:"confidence_threshold"`
	FallbackConfidence  float64       `yaml:"fallback_confidence" koanf:"fallback_confidence"`
	OracleTimeout       time.Duration `yaml:"oracle_timeout" koanf:"oracle_timeout"`
	HistoryLimit        int           `yaml:"history_limit" koanf:"history_limit"`
	InquiryTopK         int           `yaml:"inquiry_top_k" koanf:"inquiry_top_k"`
	ShortlistLimit      int           `yaml:"shortlist_limit" koanf:"shortlist_limit"`
	DispatchCutoffHour  int           `yaml:"dispatch_cutoff_hour" koanf:"dispatch_cutoff_hour"`
	Timezone            string        `yaml:"timezone" koanf:"timezone"`
	SessionIdleTimeout  time.Duration `yaml:"session_idle_timeout" koanf:"session_idle_timeout"`
}

// istanbulFallback is used when the host has no zoneinfo database.
var istanbulFallback = time.FixedZone("+03", 3*60*60)

// Location resolves the policy timezone.
func (p Policy) Location() *time.Location {
	if p.Timezone == "" {
		return istanbulFallback
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return istanbulFallback
	}
	return loc
}

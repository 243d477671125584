package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard, saves the result to
// path and returns it.
func RunWizard(path string) (*Config, error) {
	fmt.Println("Welcome to pneumabot! Let's configure the assistant.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Oracle provider.
	providerPrompt := promptui.Select{
		Label: "Select LLM provider for understanding",
		Items: []string{"openrouter", "openai", "none (rules only)"},
	}
	idx, _, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	cfg.LLM.Provider = []ProviderType{ProviderOpenRouter, ProviderOpenAI, ProviderNone}[idx]

	// 2. Model.
	if cfg.LLM.Provider != ProviderNone {
		modelPrompt := promptui.Prompt{
			Label:   "Model",
			Default: DefaultModel(cfg.LLM.Provider),
		}
		model, err := modelPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("model: %w", err)
		}
		cfg.LLM.Model = strings.TrimSpace(model)
	} else {
		cfg.LLM.Model = ""
	}

	// 3. Catalog backend.
	backendPrompt := promptui.Select{
		Label: "Catalog database",
		Items: []string{"sqlite", "postgres"},
	}
	_, backend, err := backendPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("backend selection: %w", err)
	}
	cfg.Catalog.Backend = Backend(backend)

	if cfg.Catalog.Backend == BackendPostgres {
		urlPrompt := promptui.Prompt{
			Label:   "PostgreSQL URL",
			Default: "postgres://localhost:5432/pneumabot",
		}
		u, err := urlPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("postgres url: %w", err)
		}
		cfg.Catalog.PostgresURL = strings.TrimSpace(u)
	} else {
		pathPrompt := promptui.Prompt{
			Label:   "SQLite database file",
			Default: cfg.Catalog.SQLitePath,
		}
		p, err := pathPrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("sqlite path: %w", err)
		}
		cfg.Catalog.SQLitePath = strings.TrimSpace(p)
	}

	// 4. HTTP port.
	portPrompt := promptui.Prompt{
		Label:   "HTTP port",
		Default: strconv.Itoa(cfg.Server.Port),
		Validate: func(s string) error {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 || n > 65535 {
				return fmt.Errorf("enter a port between 1 and 65535")
			}
			return nil
		},
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	cfg.Server.Port, _ = strconv.Atoi(portStr)

	if cfg.LLM.Provider == ProviderOpenAI {
		cfg.Embedding.Provider = EmbeddingOpenAI
		cfg.Embedding.Model = "text-embedding-3-small"
	}

	if envVar := APIKeyEnvVar(cfg.LLM.Provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before running pneumabot serve.\n", envVar)
	}

	if path == "" {
		path = DefaultPath
	}
	if err := cfg.Save(path); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", path)
	return cfg, nil
}

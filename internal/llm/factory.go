package llm

import (
	"fmt"
	"os"
)

// NewProvider creates a provider for the given type and model. API keys are
// read from OPENROUTER_API_KEY or OPENAI_API_KEY. A non-empty baseURL
// overrides the provider's default endpoint.
func NewProvider(providerType, model, baseURL string) (Provider, error) {
	switch providerType {
	case "openrouter":
		apiKey := os.Getenv("OPENROUTER_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENROUTER_API_KEY environment variable is not set")
		}
		p := NewOpenRouterProvider(apiKey, model)
		if baseURL != "" {
			p = NewCompatibleProvider(CompatibleOptions{Name: "openrouter", APIKey: apiKey, Model: model, BaseURL: baseURL})
		}
		return p, nil

	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return NewCompatibleProvider(CompatibleOptions{Name: "openai", APIKey: apiKey, Model: model, BaseURL: baseURL}), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}

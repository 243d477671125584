package llm

import (
	"context"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// OpenRouterBaseURL is the OpenAI-compatible endpoint of OpenRouter.
const OpenRouterBaseURL = "https://openrouter.ai/api/v1"

// CompatibleOptions configures an OpenAI-compatible chat endpoint.
type CompatibleOptions struct {
	Name    string // reported by Name(), e.g. "openrouter"
	APIKey  string
	Model   string
	BaseURL string // empty means api.openai.com
	// Headers are added to every request. OpenRouter uses HTTP-Referer and
	// X-Title to attribute traffic.
	Headers map[string]string
}

// CompatibleProvider implements Provider for any endpoint speaking the OpenAI
// Chat Completions protocol (OpenAI itself, OpenRouter).
type CompatibleProvider struct {
	name   string
	client *openai.Client
	model  string
}

// NewCompatibleProvider creates a provider for an OpenAI-compatible endpoint.
func NewCompatibleProvider(opts CompatibleOptions) *CompatibleProvider {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if len(opts.Headers) > 0 {
		cfg.HTTPClient = &http.Client{Transport: headerTransport{
			base:    http.DefaultTransport,
			headers: opts.Headers,
		}}
	}
	name := opts.Name
	if name == "" {
		name = "openai"
	}
	return &CompatibleProvider{
		name:   name,
		client: openai.NewClientWithConfig(cfg),
		model:  opts.Model,
	}
}

// NewOpenRouterProvider creates a provider talking to OpenRouter.
func NewOpenRouterProvider(apiKey, model string) *CompatibleProvider {
	return NewCompatibleProvider(CompatibleOptions{
		Name:    "openrouter",
		APIKey:  apiKey,
		Model:   model,
		BaseURL: OpenRouterBaseURL,
		Headers: map[string]string{
			"HTTP-Referer": "https://github.com/ziadkadry99/pneumabot",
			"X-Title":      "pneumabot",
		},
	})
}

// NewOpenAIProvider creates a provider talking to the OpenAI API.
func NewOpenAIProvider(apiKey, model string) *CompatibleProvider {
	return NewCompatibleProvider(CompatibleOptions{Name: "openai", APIKey: apiKey, Model: model})
}

func (p *CompatibleProvider) Name() string {
	return p.name
}

func (p *CompatibleProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	apiReq := buildChatRequest(req, p.model)

	resp, err := p.client.CreateChatCompletion(ctx, apiReq)
	if err != nil {
		return nil, err
	}

	out := &CompletionResponse{
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		Model:        resp.Model,
	}
	if len(resp.Choices) > 0 {
		out.Content = resp.Choices[0].Message.Content
		out.FinishReason = string(resp.Choices[0].FinishReason)
	}
	return out, nil
}

func buildChatRequest(req CompletionRequest, defaultModel string) openai.ChatCompletionRequest {
	model := req.Model
	if model == "" {
		model = defaultModel
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	apiReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(req.Temperature),
	}
	if req.JSONMode {
		apiReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return apiReq
}

type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t headerTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	for k, v := range t.headers {
		r.Header.Set(k, v)
	}
	return t.base.RoundTrip(r)
}

// Package llm is the chat-completion transport behind the understanding
// oracle. Every backend speaks the OpenAI wire format.
package llm

import "context"

// Provider sends one completion request to a model.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Name() string
}

// Role is the author of a prompt message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one prompt message.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest is a prompt plus sampling settings. An empty Model uses
// the provider's configured model. JSONMode asks for a single JSON object,
// which classification and quantity prompts rely on.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// CompletionResponse is the model's answer with token accounting for the
// request log.
type CompletionResponse struct {
	Content      string
	Model        string
	FinishReason string
	InputTokens  int
	OutputTokens int
}

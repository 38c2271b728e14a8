package llm

import (
	"context"
	"errors"
)

// Provider defines the contract for calling the gateway's OpenAI-compatible
// /v1/chat/completions endpoint.
type Provider interface {
	CreateChatCompletion(reqCtx context.Context, req ChatCompletionRequest) (*ChatCompletionResponse, error)
}

// Gateway failure kinds. The router treats them differently: rate limiting is
// transient and retryable without persisting a bot turn, unavailability is
// surfaced as-is, and anything else is recovered with a fallback reply.
var (
	ErrRateLimited = errors.New("gateway rate limited")
	ErrUnavailable = errors.New("gateway unavailable")
)

// Message roles in the gateway wire format.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatCompletionRequest mirrors the OpenAI-compatible request shape.
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

// ChatMessage represents a single message in the conversation history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionResponse captures the completion payload.
type ChatCompletionResponse struct {
	ID      string                 `json:"id"`
	Object  string                 `json:"object"`
	Created int64                  `json:"created"`
	Model   string                 `json:"model"`
	Choices []ChatCompletionChoice `json:"choices"`
	Usage   *Usage                 `json:"usage,omitempty"`
}

// ChatCompletionChoice represents one completion choice.
type ChatCompletionChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// Usage contains token accounting metadata.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// FirstChoiceContent returns the assistant text of the first choice, or ""
// when the gateway returned no usable content.
func (r *ChatCompletionResponse) FirstChoiceContent() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].Message.Content
}

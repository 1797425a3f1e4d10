// Package llm talks to hosted language models. Every backend implements
// Provider and returns JSON that has already been checked against the
// request's schema; retry and request logging are layered on as decorators.
package llm

import (
	"context"
	"encoding/json"
)

// Provider generates a structured completion.
type Provider interface {
	// Generate sends req and returns the model output. When req.Schema is
	// set the content is JSON that validated against it.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the model the provider sends requests to.
	ModelID() string
}

// Request is a single-turn or multi-turn prompt.
type Request struct {
	System      string
	Messages    []Message
	Schema      *Schema // nil for free text
	MaxTokens   int
	Temperature float64 // 0 leaves the provider default
}

// Message is one turn of the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema for structured output. Name is kebab-case
// and doubles as the cache key for the compiled validator.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response is the model output.
type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string // model that actually served the request
	StopReason string // "end" or "max_tokens"
}

// Usage is the token accounting of one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Stop reasons normalized across providers.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
)

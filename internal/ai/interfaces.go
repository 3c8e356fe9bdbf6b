package ai

import (
	"context"
)

// TextGenerator sends a prompt to an LLM backend and returns its reply text.
// Implementations own transport concerns (retries, breaking, tracing); the
// scorer owns prompt building and response parsing.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (Generation, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// Generation is one LLM reply.
type Generation struct {
	Text  string
	Usage *TokenUsage
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

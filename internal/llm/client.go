package llm

import (
	"context"
	"time"
)

// Client is a language-model provider that answers a single prompt with text.
type Client interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Config holds configuration for an LLM provider.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	MaxRetries  int
	RetryDelay  time.Duration
	Timeout     time.Duration
	RateLimit   int // requests per minute
}

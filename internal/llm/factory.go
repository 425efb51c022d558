package llm

import (
	"fmt"
	"strings"

	"github.com/Veraticus/bankfeed-autopilot/internal/common"
)

// Supported provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// NewClient creates a throttled, retrying client for the configured provider.
func NewClient(cfg Config) (Client, error) {
	var (
		inner Client
		err   error
	)

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		inner, err = newOpenAIClient(cfg)
	case ProviderAnthropic:
		inner, err = newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider: %s", common.ErrInvalidConfig, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return newThrottledClient(inner, cfg), nil
}

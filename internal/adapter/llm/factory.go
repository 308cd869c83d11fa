package llm

import (
	"context"
	"fmt"
	"time"

	"learnnest/internal/config"
	"learnnest/internal/domain"
)

// Supported provider names.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// NewCompleter builds the completer selected by provider. Credentials and the
// per-call timeout come from llmCfg.
func NewCompleter(ctx context.Context, provider config.ProviderConfig, llmCfg config.LLMConfig) (domain.TextCompleter, error) {
	var (
		completer domain.TextCompleter
		err       error
	)
	switch provider.Provider {
	case ProviderOpenAI:
		completer, err = NewOpenAICompleter(llmCfg.OpenAIAPIKey, provider.Model)
	case ProviderGemini:
		completer, err = NewGeminiCompleter(ctx, llmCfg.GeminiAPIKey, provider.Model)
	case ProviderOllama:
		completer, err = NewOllamaCompleter(llmCfg.OllamaServer, provider.Model)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithTimeout(completer, llmCfg.Timeout), nil
}

type timeoutCompleter struct {
	next    domain.TextCompleter
	timeout time.Duration
}

// WithTimeout bounds every call to next. A non-positive timeout returns next unchanged.
func WithTimeout(next domain.TextCompleter, timeout time.Duration) domain.TextCompleter {
	if timeout <= 0 {
		return next
	}
	return &timeoutCompleter{next: next, timeout: timeout}
}

func (c *timeoutCompleter) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.next.Complete(ctx, req)
}

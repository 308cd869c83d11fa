package llm

import (
	"context"
	"errors"
	"fmt"

	"learnnest/internal/domain"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// LangchainCompleter adapts any langchaingo llms.Model to domain.TextCompleter.
// It is used for self-hosted models served by Ollama.
type LangchainCompleter struct {
	model llms.Model
	name  string
}

func NewLangchainCompleter(model llms.Model, name string) *LangchainCompleter {
	return &LangchainCompleter{model: model, name: name}
}

// NewOllamaCompleter connects to an Ollama server.
func NewOllamaCompleter(serverURL, modelName string) (*LangchainCompleter, error) {
	if serverURL == "" {
		return nil, fmt.Errorf("ollama server URL cannot be empty")
	}
	if modelName == "" {
		return nil, fmt.Errorf("ollama model name cannot be empty")
	}
	model, err := ollama.New(ollama.WithServerURL(serverURL), ollama.WithModel(modelName))
	if err != nil {
		return nil, fmt.Errorf("failed to create LangchainGo Ollama client: %w", err)
	}
	return NewLangchainCompleter(model, "ollama/"+modelName), nil
}

func (c *LangchainCompleter) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	messages := make([]llms.MessageContent, 0, 2)
	if req.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, req.Prompt))

	resp, err := c.model.GenerateContent(ctx, messages, llms.WithTemperature(req.Temperature))
	if err != nil {
		return "", fmt.Errorf("%s generate content: %w", c.name, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", errors.New(c.name + " returned no choices")
	}
	return resp.Choices[0].Content, nil
}

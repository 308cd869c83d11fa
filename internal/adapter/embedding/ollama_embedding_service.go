package embedding

import (
	"fmt"
	"time"

	"learnnest/internal/domain"

	"github.com/tmc/langchaingo/embeddings"
	ollamaLLM "github.com/tmc/langchaingo/llms/ollama"
	"go.uber.org/zap"
)

// NewOllamaEmbeddingService builds a cached embedding service backed by a local
// Ollama server. The vector index must have been built with the same model.
func NewOllamaEmbeddingService(serverURL, modelName string, c domain.Cache, ttl time.Duration, logger *zap.Logger) (*CachedService, error) {
	if serverURL == "" {
		return nil, fmt.Errorf("ollama server URL cannot be empty")
	}
	if modelName == "" {
		return nil, fmt.Errorf("ollama model name cannot be empty")
	}

	llm, err := ollamaLLM.New(
		ollamaLLM.WithModel(modelName),
		ollamaLLM.WithServerURL(serverURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create LangchainGo Ollama client for embedder: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder from Ollama client: %w", err)
	}
	return NewCachedService("ollama", embedder, c, ttl, logger), nil
}

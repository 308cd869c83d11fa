package embedding

import (
	"fmt"
	"time"

	"learnnest/internal/domain"

	"github.com/tmc/langchaingo/embeddings"
	openaiLLM "github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// NewOpenAIEmbeddingService builds a cached embedding service backed by the
// OpenAI embeddings API.
func NewOpenAIEmbeddingService(apiKey, modelName string, c domain.Cache, ttl time.Duration, logger *zap.Logger) (*CachedService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key cannot be empty")
	}
	if modelName == "" {
		modelName = "text-embedding-3-small"
	}

	llm, err := openaiLLM.New(
		openaiLLM.WithToken(apiKey),
		openaiLLM.WithEmbeddingModel(modelName),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create LangchainGo OpenAI client for embedder: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder from OpenAI client: %w", err)
	}
	return NewCachedService("openai", embedder, c, ttl, logger), nil
}

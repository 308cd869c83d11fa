package quizgen

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"learnnest/internal/domain"

	"go.uber.org/zap"
)

// DefaultTopK is the number of passages fetched from the vector index.
const DefaultTopK = 5

const passageSeparator = "\n---\n"

// RetrievalResult is the reference context assembled for one run.
type RetrievalResult struct {
	Context string
	Sources []domain.RetrievedSource
}

// Retriever builds reference context for a source text: the secondary completer
// extracts a keyword seed, the seed is embedded and the index's nearest passages
// are joined into one context string.
type Retriever struct {
	completer domain.TextCompleter
	embedder  domain.EmbeddingService
	index     domain.VectorIndex
	topK      int
	logger    *zap.Logger
}

func NewRetriever(completer domain.TextCompleter, embedder domain.EmbeddingService, index domain.VectorIndex, topK int, logger *zap.Logger) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retriever{
		completer: completer,
		embedder:  embedder,
		index:     index,
		topK:      topK,
		logger:    logger,
	}
}

// Retrieve returns the reference context for sourceText. Every failure is a
// RETRIEVAL_ERROR.
func (r *Retriever) Retrieve(ctx context.Context, sourceText string) (RetrievalResult, error) {
	if r.completer == nil || r.embedder == nil || r.index == nil {
		return RetrievalResult{}, domain.NewRetrievalError(errors.New("retrieval capabilities are not configured"))
	}

	seed, err := r.completer.Complete(ctx, domain.CompletionRequest{
		System: keywordSystemPrompt,
		Prompt: buildKeywordPrompt(sourceText),
	})
	if err != nil {
		return RetrievalResult{}, domain.NewRetrievalError(fmt.Errorf("keyword extraction failed: %w", err))
	}
	seed = strings.TrimSpace(stripCodeFences(seed))
	if seed == "" {
		return RetrievalResult{}, domain.NewRetrievalError(errors.New("keyword extraction returned no keywords"))
	}

	vector, err := r.embedder.Generate(ctx, seed)
	if err != nil {
		return RetrievalResult{}, domain.NewRetrievalError(fmt.Errorf("seed embedding failed: %w", err))
	}

	matches, err := r.index.Query(ctx, vector, r.topK, true)
	if err != nil {
		return RetrievalResult{}, domain.NewRetrievalError(fmt.Errorf("vector query failed: %w", err))
	}

	var result RetrievalResult
	passages := make([]string, 0, len(matches))
	for _, m := range matches {
		if strings.TrimSpace(m.Text) != "" {
			passages = append(passages, m.Text)
		}
		result.Sources = append(result.Sources, domain.RetrievedSource{
			ID:    m.ID,
			Title: m.Title,
			URL:   m.URL,
			Score: m.Score,
		})
	}
	result.Context = strings.Join(passages, passageSeparator)

	r.logger.Info("Retrieved reference context",
		zap.String("seed", seed),
		zap.Int("matches", len(matches)),
		zap.Int("context_chars", len(result.Context)))
	return result, nil
}

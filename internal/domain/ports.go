package domain

import (
	"context"
	"time"
)

// CompletionRequest is a single prompt sent to a generative-text model.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
}

// TextCompleter is a generative-text capability. The pipeline uses one for
// question drafting and another for keyword seeding and semantic validation.
type TextCompleter interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// EmbeddingService defines the interface for generating text embeddings.
type EmbeddingService interface {
	Generate(ctx context.Context, text string) ([]float32, error)
}

// VectorMatch is one nearest-neighbour hit from the vector index.
type VectorMatch struct {
	ID       string
	Score    float32
	Text     string
	Title    string
	URL      string
	Metadata map[string]any
}

// VectorIndex queries a fixed, named corpus of embedded passages.
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, topK int, includeMetadata bool) ([]VectorMatch, error)
}

// AuditLogStore durably appends audit records under a collection path.
type AuditLogStore interface {
	Append(ctx context.Context, collectionPath string, record *AuditRecord) error
}

// QuizResultRepository reads back persisted pipeline results. It returns
// nil, nil when no result with that id belongs to userID.
type QuizResultRepository interface {
	GetQuizResult(ctx context.Context, userID, quizID string) (*QuizResult, error)
}

// CacheError represents an error originating from the cache.
type CacheError string

func (e CacheError) Error() string {
	return string(e)
}

// ErrCacheMiss is returned when a key is not found in the cache.
const ErrCacheMiss = CacheError("cache: key not found")

// Cache defines the interface (port) for caching operations.
type Cache interface {
	// Get returns ErrCacheMiss if the key is not found.
	Get(ctx context.Context, key string) (string, error)

	// Set overwrites any existing value. An expiration of 0 keeps the key indefinitely.
	Set(ctx context.Context, key string, value string, expiration time.Duration) error

	// Delete does not fail when the key is absent.
	Delete(ctx context.Context, key string) error

	Ping(ctx context.Context) error
}

// TransactionManager runs fn inside a storage transaction carried by ctx.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

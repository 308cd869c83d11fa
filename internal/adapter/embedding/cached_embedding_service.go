package embedding

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"time"

	"learnnest/internal/cache"
	"learnnest/internal/domain"

	"github.com/tmc/langchaingo/embeddings"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long an embedding stays cached when no TTL is configured.
const DefaultTTL = 168 * time.Hour

// CachedService implements domain.EmbeddingService with a langchaingo embedder.
// Vectors are gob-encoded into the cache, and concurrent requests for the same
// text share a single embedder call.
type CachedService struct {
	provider string
	embedder embeddings.Embedder
	cache    domain.Cache
	ttl      time.Duration
	sfGroup  singleflight.Group
	logger   *zap.Logger
}

// NewCachedService wraps embedder. cache may be nil, which disables caching.
func NewCachedService(provider string, embedder embeddings.Embedder, c domain.Cache, ttl time.Duration, logger *zap.Logger) *CachedService {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedService{
		provider: provider,
		embedder: embedder,
		cache:    c,
		ttl:      ttl,
		logger:   logger,
	}
}

func (s *CachedService) Generate(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("input text cannot be empty for embedding")
	}

	cacheKey := cache.EmbeddingKey(s.provider, text)
	if vector, ok := s.fromCache(ctx, cacheKey); ok {
		return vector, nil
	}

	res, err, shared := s.sfGroup.Do(cacheKey, func() (interface{}, error) {
		vector, err := s.embedder.EmbedQuery(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("failed to generate embedding using %s: %w", s.provider, err)
		}
		if len(vector) == 0 {
			return nil, fmt.Errorf("received empty embedding from %s", s.provider)
		}
		s.store(ctx, cacheKey, vector)
		return vector, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("Shared in-flight embedding request", zap.String("provider", s.provider))
	}

	vector, ok := res.([]float32)
	if !ok {
		return nil, fmt.Errorf("unexpected type from singleflight.Do for %s embedding: %T", s.provider, res)
	}
	return vector, nil
}

func (s *CachedService) fromCache(ctx context.Context, key string) ([]float32, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			s.logger.Warn("Embedding cache read failed", zap.String("cache_key", key), zap.Error(err))
		}
		return nil, false
	}

	var vector []float32
	if err := gob.NewDecoder(bytes.NewReader([]byte(raw))).Decode(&vector); err != nil || len(vector) == 0 {
		s.logger.Warn("Discarding undecodable cached embedding", zap.String("cache_key", key), zap.Error(err))
		return nil, false
	}
	s.logger.Debug("Embedding cache hit", zap.String("provider", s.provider))
	return vector, true
}

// store caches vector; failures are logged and otherwise ignored.
func (s *CachedService) store(ctx context.Context, key string, vector []float32) {
	if s.cache == nil {
		return
	}
	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(vector); err != nil {
		s.logger.Error("Failed to gob encode embedding", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, buffer.String(), s.ttl); err != nil {
		s.logger.Warn("Failed to cache embedding", zap.String("cache_key", key), zap.Error(err))
	}
}

var _ domain.EmbeddingService = (*CachedService)(nil)

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"learnnest/internal/cache"
	"learnnest/internal/domain"
	"learnnest/internal/logger"

	"go.uber.org/zap"
)

// ErrQuizResultNotFound is returned when a result is not in the cache.
var ErrQuizResultNotFound = errors.New("quiz result not found in cache")

// QuizResultCacheService caches pipeline results per owner.
type QuizResultCacheService interface {
	Put(ctx context.Context, result *domain.QuizResult) error
	Get(ctx context.Context, userID, quizID string) (*domain.QuizResult, error)
}

type quizResultCacheServiceImpl struct {
	cache domain.Cache
	ttl   time.Duration
}

func NewQuizResultCacheService(c domain.Cache, ttl time.Duration) QuizResultCacheService {
	if c == nil {
		logger.Get().Warn("QuizResultCacheService initialized with nil cache. Service will be no-op.")
		return &noopQuizResultCacheService{}
	}
	return &quizResultCacheServiceImpl{cache: c, ttl: ttl}
}

func (s *quizResultCacheServiceImpl) Put(ctx context.Context, result *domain.QuizResult) error {
	if result == nil {
		return domain.NewInvalidArgumentError("cannot cache nil result")
	}

	key := cache.QuizResultKey(result.UserID, result.ID)
	data, err := json.Marshal(result)
	if err != nil {
		return domain.NewInternalError("failed to marshal quiz result for caching", err)
	}
	if err := s.cache.Set(ctx, key, string(data), s.ttl); err != nil {
		return domain.NewInternalError(fmt.Sprintf("failed to set quiz result to cache for key %s", key), err)
	}
	logger.Get().Debug("Cached quiz result", zap.String("key", key), zap.Duration("ttl", s.ttl))
	return nil
}

func (s *quizResultCacheServiceImpl) Get(ctx context.Context, userID, quizID string) (*domain.QuizResult, error) {
	key := cache.QuizResultKey(userID, quizID)
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			return nil, ErrQuizResultNotFound
		}
		return nil, domain.NewInternalError(fmt.Sprintf("failed to get quiz result from cache for key %s", key), err)
	}
	if data == "" {
		return nil, ErrQuizResultNotFound
	}

	var result domain.QuizResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		return nil, domain.NewInternalError(fmt.Sprintf("failed to unmarshal quiz result from cache for key %s", key), err)
	}
	return &result, nil
}

type noopQuizResultCacheService struct{}

func (noopQuizResultCacheService) Put(context.Context, *domain.QuizResult) error { return nil }

func (noopQuizResultCacheService) Get(context.Context, string, string) (*domain.QuizResult, error) {
	return nil, ErrQuizResultNotFound
}

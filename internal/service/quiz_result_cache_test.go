package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"learnnest/internal/cache"
	"learnnest/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestQuizResultCacheService(t *testing.T) {
	ctx := context.Background()
	key := cache.QuizResultKey("user-1", "quiz-1")
	result := sampleResult()
	payload, err := json.Marshal(result)
	require.NoError(t, err)

	t.Run("put", func(t *testing.T) {
		mc := new(MockCache)
		mc.On("Set", ctx, key, string(payload), 24*time.Hour).Return(nil).Once()

		require.NoError(t, NewQuizResultCacheService(mc, 24*time.Hour).Put(ctx, result))
		mc.AssertExpectations(t)
	})

	t.Run("put errors", func(t *testing.T) {
		mc := new(MockCache)
		mc.On("Set", ctx, key, mock.Anything, time.Hour).Return(errors.New("redis down")).Once()
		svc := NewQuizResultCacheService(mc, time.Hour)

		assert.True(t, domain.IsCode(svc.Put(ctx, result), domain.ErrInternal))
		assert.True(t, domain.IsCode(svc.Put(ctx, nil), domain.ErrInvalidArgument))
	})

	t.Run("get hit", func(t *testing.T) {
		mc := new(MockCache)
		mc.On("Get", ctx, key).Return(string(payload), nil).Once()

		got, err := NewQuizResultCacheService(mc, time.Hour).Get(ctx, "user-1", "quiz-1")
		require.NoError(t, err)
		assert.Equal(t, result.Title, got.Title)
		require.Len(t, got.Questions, 1)
		assert.Equal(t, "true", got.Questions[0].CorrectAnswer.String())
	})

	t.Run("get miss", func(t *testing.T) {
		mc := new(MockCache)
		mc.On("Get", ctx, key).Return("", domain.ErrCacheMiss).Once()

		_, err := NewQuizResultCacheService(mc, time.Hour).Get(ctx, "user-1", "quiz-1")
		assert.ErrorIs(t, err, ErrQuizResultNotFound)
	})

	t.Run("get corrupt entry", func(t *testing.T) {
		mc := new(MockCache)
		mc.On("Get", ctx, key).Return("{", nil).Once()

		_, err := NewQuizResultCacheService(mc, time.Hour).Get(ctx, "user-1", "quiz-1")
		assert.True(t, domain.IsCode(err, domain.ErrInternal))
	})

	t.Run("nil cache is a no-op", func(t *testing.T) {
		svc := NewQuizResultCacheService(nil, time.Hour)
		assert.NoError(t, svc.Put(ctx, result))
		_, err := svc.Get(ctx, "user-1", "quiz-1")
		assert.ErrorIs(t, err, ErrQuizResultNotFound)
	})
}

package service

import (
	"context"
	"time"

	"learnnest/internal/domain"
	"learnnest/internal/quizgen"

	"github.com/stretchr/testify/mock"
)

type MockPipeline struct {
	mock.Mock
}

func (m *MockPipeline) Run(ctx context.Context, in quizgen.RunInput) (*domain.QuizResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuizResult), args.Error(1)
}

type MockQuizResultRepository struct {
	mock.Mock
}

func (m *MockQuizResultRepository) GetQuizResult(ctx context.Context, userID, quizID string) (*domain.QuizResult, error) {
	args := m.Called(ctx, userID, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuizResult), args.Error(1)
}

type MockLogLister struct {
	mock.Mock
}

func (m *MockLogLister) ListLogs(ctx context.Context, collectionPath string, limit int) ([]*domain.AuditRecord, error) {
	args := m.Called(ctx, collectionPath, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AuditRecord), args.Error(1)
}

type MockQuizResultCache struct {
	mock.Mock
}

func (m *MockQuizResultCache) Put(ctx context.Context, result *domain.QuizResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

func (m *MockQuizResultCache) Get(ctx context.Context, userID, quizID string) (*domain.QuizResult, error) {
	args := m.Called(ctx, userID, quizID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuizResult), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

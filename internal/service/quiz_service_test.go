package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"learnnest/internal/domain"
	"learnnest/internal/dto"
	"learnnest/internal/quizgen"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleResult() *domain.QuizResult {
	return &domain.QuizResult{
		ID:            "quiz-1",
		UserID:        "user-1",
		Title:         "Easy Quiz - Oct 14, 2026 9:30 AM",
		Difficulty:    "easy",
		QuestionCount: 1,
		Questions:     []domain.Question{{ID: "q1", Type: domain.QuestionTypeTrueFalse, Question: "ATP stores energy.", CorrectAnswer: domain.NewAnswer("true")}},
	}
}

func TestToRunInput(t *testing.T) {
	tests := []struct {
		name     string
		userID   string
		req      *dto.GenerateQuizRequest
		wantCode domain.ErrorCode
		check    func(t *testing.T, in quizgen.RunInput)
	}{
		{
			name:     "missing identity",
			req:      &dto.GenerateQuizRequest{Text: "cells"},
			wantCode: domain.ErrUnauthenticated,
		},
		{
			name:     "nil body",
			userID:   "user-1",
			wantCode: domain.ErrInvalidArgument,
		},
		{
			name:     "body user mismatch",
			userID:   "user-1",
			req:      &dto.GenerateQuizRequest{Text: "cells", UserID: "user-2"},
			wantCode: domain.ErrUnauthenticated,
		},
		{
			name:     "blank text",
			userID:   "user-1",
			req:      &dto.GenerateQuizRequest{Text: " \n\t"},
			wantCode: domain.ErrInvalidArgument,
		},
		{
			name:     "text too long",
			userID:   "user-1",
			req:      &dto.GenerateQuizRequest{Text: strings.Repeat("é", MaxSourceTextRunes+1)},
			wantCode: domain.ErrInvalidArgument,
		},
		{
			name:     "too many questions",
			userID:   "user-1",
			req:      &dto.GenerateQuizRequest{Text: "cells", NumberOfQuestions: MaxQuestionCount + 1},
			wantCode: domain.ErrInvalidArgument,
		},
		{
			name:     "negative questions",
			userID:   "user-1",
			req:      &dto.GenerateQuizRequest{Text: "cells", NumberOfQuestions: -1},
			wantCode: domain.ErrInvalidArgument,
		},
		{
			name:     "unknown difficulty",
			userID:   "user-1",
			req:      &dto.GenerateQuizRequest{Text: "cells", Difficulty: "extreme"},
			wantCode: domain.ErrInvalidArgument,
		},
		{
			name:     "unknown question type",
			userID:   "user-1",
			req:      &dto.GenerateQuizRequest{Text: "cells", QuestionTypes: []string{"essay"}},
			wantCode: domain.ErrInvalidArgument,
		},
		{
			name:   "normalizes fields",
			userID: "user-1",
			req: &dto.GenerateQuizRequest{
				Text:              strings.Repeat("é", MaxSourceTextRunes),
				UserID:            "user-1",
				NumberOfQuestions: 5,
				Difficulty:        " HARD ",
				QuestionTypes:     []string{"True-False", "fill-blank", "true-false"},
				LanguageCode:      " es ",
				ContentSource:     "upload",
			},
			check: func(t *testing.T, in quizgen.RunInput) {
				assert.Equal(t, "user-1", in.UserID)
				assert.Equal(t, 5, in.NumberOfQuestions)
				assert.Equal(t, "hard", in.Difficulty)
				assert.Equal(t, []domain.QuestionType{domain.QuestionTypeTrueFalse, domain.QuestionTypeFillBlank}, in.QuestionTypes)
				assert.Equal(t, "es", in.LanguageCode)
				assert.Equal(t, "upload", in.ContentSource)
			},
		},
		{
			name:   "leaves defaults to the pipeline",
			userID: "user-1",
			req:    &dto.GenerateQuizRequest{Text: "cells"},
			check: func(t *testing.T, in quizgen.RunInput) {
				assert.Zero(t, in.NumberOfQuestions)
				assert.Empty(t, in.Difficulty)
				assert.Nil(t, in.QuestionTypes)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := toRunInput(tt.userID, tt.req)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, domain.CodeOf(err))
				return
			}
			require.NoError(t, err)
			tt.check(t, in)
		})
	}
}

func TestQuizService_GenerateValidatedQuiz(t *testing.T) {
	ctx := context.Background()
	req := &dto.GenerateQuizRequest{Text: "Mitochondria produce ATP.", NumberOfQuestions: 1}

	t.Run("caches the result", func(t *testing.T) {
		pipeline := new(MockPipeline)
		rc := new(MockQuizResultCache)
		result := sampleResult()

		pipeline.On("Run", ctx, mock.MatchedBy(func(in quizgen.RunInput) bool {
			return in.UserID == "user-1" && in.NumberOfQuestions == 1
		})).Return(result, nil).Once()
		rc.On("Put", ctx, result).Return(nil).Once()

		got, err := NewQuizService(pipeline, nil, nil, rc).GenerateValidatedQuiz(ctx, "user-1", req)
		require.NoError(t, err)
		assert.Same(t, result, got)
		pipeline.AssertExpectations(t)
		rc.AssertExpectations(t)
	})

	t.Run("cache failure does not fail the request", func(t *testing.T) {
		pipeline := new(MockPipeline)
		rc := new(MockQuizResultCache)
		pipeline.On("Run", ctx, mock.Anything).Return(sampleResult(), nil).Once()
		rc.On("Put", ctx, mock.Anything).Return(errors.New("redis down")).Once()

		got, err := NewQuizService(pipeline, nil, nil, rc).GenerateValidatedQuiz(ctx, "user-1", req)
		require.NoError(t, err)
		assert.Equal(t, "quiz-1", got.ID)
	})

	t.Run("pipeline error is returned as is", func(t *testing.T) {
		pipeline := new(MockPipeline)
		pipelineErr := domain.NewFailedPreconditionError("generation capability is unavailable")
		pipeline.On("Run", ctx, mock.Anything).Return(nil, pipelineErr).Once()

		_, err := NewQuizService(pipeline, nil, nil, nil).GenerateValidatedQuiz(ctx, "user-1", req)
		assert.Same(t, pipelineErr, err)
	})

	t.Run("invalid request never reaches the pipeline", func(t *testing.T) {
		pipeline := new(MockPipeline)
		_, err := NewQuizService(pipeline, nil, nil, nil).GenerateValidatedQuiz(ctx, "", req)
		assert.True(t, domain.IsCode(err, domain.ErrUnauthenticated))
		pipeline.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
	})
}

func TestQuizService_GetQuiz(t *testing.T) {
	ctx := context.Background()

	t.Run("cache hit", func(t *testing.T) {
		rc := new(MockQuizResultCache)
		repo := new(MockQuizResultRepository)
		rc.On("Get", ctx, "user-1", "quiz-1").Return(sampleResult(), nil).Once()

		got, err := NewQuizService(nil, repo, nil, rc).GetQuiz(ctx, "user-1", "quiz-1")
		require.NoError(t, err)
		assert.Equal(t, "quiz-1", got.ID)
		repo.AssertNotCalled(t, "GetQuizResult", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cache miss falls back to the store and re-caches", func(t *testing.T) {
		rc := new(MockQuizResultCache)
		repo := new(MockQuizResultRepository)
		result := sampleResult()
		rc.On("Get", ctx, "user-1", "quiz-1").Return(nil, ErrQuizResultNotFound).Once()
		repo.On("GetQuizResult", ctx, "user-1", "quiz-1").Return(result, nil).Once()
		rc.On("Put", ctx, result).Return(nil).Once()

		got, err := NewQuizService(nil, repo, nil, rc).GetQuiz(ctx, "user-1", "quiz-1")
		require.NoError(t, err)
		assert.Same(t, result, got)
		rc.AssertExpectations(t)
		repo.AssertExpectations(t)
	})

	t.Run("cache error falls back to the store", func(t *testing.T) {
		rc := new(MockQuizResultCache)
		repo := new(MockQuizResultRepository)
		rc.On("Get", ctx, "user-1", "quiz-1").Return(nil, errors.New("redis down")).Once()
		repo.On("GetQuizResult", ctx, "user-1", "quiz-1").Return(sampleResult(), nil).Once()
		rc.On("Put", ctx, mock.Anything).Return(nil).Once()

		_, err := NewQuizService(nil, repo, nil, rc).GetQuiz(ctx, "user-1", "quiz-1")
		require.NoError(t, err)
	})

	t.Run("other owner is not found", func(t *testing.T) {
		rc := new(MockQuizResultCache)
		repo := new(MockQuizResultRepository)
		rc.On("Get", ctx, "user-2", "quiz-1").Return(nil, ErrQuizResultNotFound).Once()
		repo.On("GetQuizResult", ctx, "user-2", "quiz-1").Return(nil, nil).Once()

		_, err := NewQuizService(nil, repo, nil, rc).GetQuiz(ctx, "user-2", "quiz-1")
		assert.True(t, domain.IsCode(err, domain.ErrNotFound))
	})

	t.Run("no store configured", func(t *testing.T) {
		_, err := NewQuizService(nil, nil, nil, nil).GetQuiz(ctx, "user-1", "quiz-1")
		assert.True(t, domain.IsCode(err, domain.ErrNotFound))
	})

	t.Run("store error", func(t *testing.T) {
		repo := new(MockQuizResultRepository)
		repo.On("GetQuizResult", ctx, "user-1", "quiz-1").Return(nil, errors.New("ORA-03113")).Once()

		_, err := NewQuizService(nil, repo, nil, nil).GetQuiz(ctx, "user-1", "quiz-1")
		assert.True(t, domain.IsCode(err, domain.ErrInternal))
	})

	t.Run("arguments", func(t *testing.T) {
		svc := NewQuizService(nil, nil, nil, nil)
		_, err := svc.GetQuiz(ctx, "", "quiz-1")
		assert.True(t, domain.IsCode(err, domain.ErrUnauthenticated))
		_, err = svc.GetQuiz(ctx, "user-1", "")
		assert.True(t, domain.IsCode(err, domain.ErrInvalidArgument))
	})
}

func TestQuizService_ListGenerationLogs(t *testing.T) {
	ctx := context.Background()
	path := quizgen.AuditCollectionPath("user-1")
	createdAt := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

	t.Run("maps records and clamps the limit", func(t *testing.T) {
		logs := new(MockLogLister)
		logs.On("ListLogs", ctx, path, MaxLogsLimit).Return([]*domain.AuditRecord{
			{ID: "log-1", RunID: "run-1", QuizID: "quiz-1", RequestedCount: 5, ReturnedCount: 4, Degraded: []string{"retrieval"}, CreatedAt: createdAt},
			{ID: "log-2", RunID: "run-2"},
		}, nil).Once()

		resp, err := NewQuizService(nil, nil, logs, nil).ListGenerationLogs(ctx, "user-1", 1000)
		require.NoError(t, err)
		require.Len(t, resp.Logs, 2)
		assert.Equal(t, "quiz-1", resp.Logs[0].QuizID)
		assert.Equal(t, []string{"retrieval"}, resp.Logs[0].DegradedSteps)
		assert.Equal(t, []string{}, resp.Logs[1].DegradedSteps)
		logs.AssertExpectations(t)
	})

	t.Run("default limit", func(t *testing.T) {
		logs := new(MockLogLister)
		logs.On("ListLogs", ctx, path, DefaultLogsLimit).Return([]*domain.AuditRecord{}, nil).Once()

		resp, err := NewQuizService(nil, nil, logs, nil).ListGenerationLogs(ctx, "user-1", 0)
		require.NoError(t, err)
		assert.Empty(t, resp.Logs)
		logs.AssertExpectations(t)
	})

	t.Run("store error", func(t *testing.T) {
		logs := new(MockLogLister)
		logs.On("ListLogs", ctx, path, DefaultLogsLimit).Return(nil, errors.New("ORA-12541")).Once()

		_, err := NewQuizService(nil, nil, logs, nil).ListGenerationLogs(ctx, "user-1", 0)
		assert.True(t, domain.IsCode(err, domain.ErrInternal))
	})

	t.Run("no store configured", func(t *testing.T) {
		resp, err := NewQuizService(nil, nil, nil, nil).ListGenerationLogs(ctx, "user-1", 0)
		require.NoError(t, err)
		assert.NotNil(t, resp.Logs)
	})
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"learnnest/internal/domain"
	"learnnest/internal/dto"
	"learnnest/internal/logger"
	"learnnest/internal/quizgen"

	"go.uber.org/zap"
)

const (
	MaxQuestionCount   = 50
	MaxSourceTextRunes = 200_000
	DefaultLogsLimit   = 20
	MaxLogsLimit       = 100
)

// QuizPipeline runs one validated-quiz generation.
type QuizPipeline interface {
	Run(ctx context.Context, in quizgen.RunInput) (*domain.QuizResult, error)
}

// GenerationLogLister reads the audit trail back.
type GenerationLogLister interface {
	ListLogs(ctx context.Context, collectionPath string, limit int) ([]*domain.AuditRecord, error)
}

// QuizService is the caller-facing surface of the quiz pipeline.
type QuizService interface {
	GenerateValidatedQuiz(ctx context.Context, userID string, req *dto.GenerateQuizRequest) (*domain.QuizResult, error)
	GetQuiz(ctx context.Context, userID, quizID string) (*domain.QuizResult, error)
	ListGenerationLogs(ctx context.Context, userID string, limit int) (*dto.GenerationLogsResponse, error)
}

type quizService struct {
	pipeline    QuizPipeline
	results     domain.QuizResultRepository
	logs        GenerationLogLister
	resultCache QuizResultCacheService
}

// NewQuizService wires the pipeline with the stores used to read results back.
// results and logs may be nil when no database is configured.
func NewQuizService(
	pipeline QuizPipeline,
	results domain.QuizResultRepository,
	logs GenerationLogLister,
	resultCache QuizResultCacheService,
) QuizService {
	if resultCache == nil {
		resultCache = &noopQuizResultCacheService{}
	}
	return &quizService{
		pipeline:    pipeline,
		results:     results,
		logs:        logs,
		resultCache: resultCache,
	}
}

// toRunInput validates a request and normalizes it into pipeline input.
func toRunInput(userID string, req *dto.GenerateQuizRequest) (quizgen.RunInput, error) {
	if userID == "" {
		return quizgen.RunInput{}, domain.NewUnauthenticatedError("caller identity is required")
	}
	if req == nil {
		return quizgen.RunInput{}, domain.NewInvalidArgumentError("request body is required")
	}
	if req.UserID != "" && req.UserID != userID {
		return quizgen.RunInput{}, domain.NewUnauthenticatedError("userId does not match the authenticated caller")
	}

	text := strings.TrimSpace(req.Text)
	if text == "" {
		return quizgen.RunInput{}, domain.NewInvalidArgumentError("text is required")
	}
	if n := utf8.RuneCountInString(req.Text); n > MaxSourceTextRunes {
		return quizgen.RunInput{}, domain.NewInvalidArgumentError(
			fmt.Sprintf("text is %d characters; the limit is %d", n, MaxSourceTextRunes))
	}

	if req.NumberOfQuestions < 0 || req.NumberOfQuestions > MaxQuestionCount {
		return quizgen.RunInput{}, domain.NewInvalidArgumentError(
			fmt.Sprintf("numberOfQuestions must be between 1 and %d", MaxQuestionCount))
	}

	difficulty := strings.ToLower(strings.TrimSpace(req.Difficulty))
	if difficulty != "" && !domain.IsValidDifficulty(difficulty) {
		return quizgen.RunInput{}, domain.NewInvalidArgumentError(fmt.Sprintf("unknown difficulty %q", req.Difficulty))
	}

	var types []domain.QuestionType
	seen := make(map[domain.QuestionType]bool)
	for _, raw := range req.QuestionTypes {
		qt := domain.QuestionType(strings.ToLower(strings.TrimSpace(raw)))
		if !domain.IsValidQuestionType(qt) {
			return quizgen.RunInput{}, domain.NewInvalidArgumentError(fmt.Sprintf("unknown question type %q", raw))
		}
		if !seen[qt] {
			seen[qt] = true
			types = append(types, qt)
		}
	}

	return quizgen.RunInput{
		SourceText:        req.Text,
		UserID:            userID,
		NumberOfQuestions: req.NumberOfQuestions,
		Difficulty:        difficulty,
		QuestionTypes:     types,
		LanguageCode:      strings.TrimSpace(req.LanguageCode),
		ContentSource:     strings.TrimSpace(req.ContentSource),
	}, nil
}

func (s *quizService) GenerateValidatedQuiz(ctx context.Context, userID string, req *dto.GenerateQuizRequest) (*domain.QuizResult, error) {
	in, err := toRunInput(userID, req)
	if err != nil {
		return nil, err
	}

	result, err := s.pipeline.Run(ctx, in)
	if err != nil {
		return nil, err
	}

	if err := s.resultCache.Put(ctx, result); err != nil {
		logger.Get().Warn("Failed to cache quiz result",
			zap.String("quizID", result.ID), zap.String("userID", userID), zap.Error(err))
	}
	return result, nil
}

func (s *quizService) GetQuiz(ctx context.Context, userID, quizID string) (*domain.QuizResult, error) {
	if userID == "" {
		return nil, domain.NewUnauthenticatedError("caller identity is required")
	}
	if quizID == "" {
		return nil, domain.NewInvalidArgumentError("quiz id is required")
	}

	result, err := s.resultCache.Get(ctx, userID, quizID)
	if err == nil {
		return result, nil
	}
	if !errors.Is(err, ErrQuizResultNotFound) {
		logger.Get().Warn("Quiz result cache lookup failed, falling back to the store",
			zap.String("quizID", quizID), zap.Error(err))
	}

	if s.results == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf("quiz %s not found", quizID))
	}
	result, err = s.results.GetQuizResult(ctx, userID, quizID)
	if err != nil {
		return nil, domain.NewInternalError("failed to load quiz result", err)
	}
	if result == nil {
		return nil, domain.NewNotFoundError(fmt.Sprintf("quiz %s not found", quizID))
	}

	if err := s.resultCache.Put(ctx, result); err != nil {
		logger.Get().Warn("Failed to re-cache quiz result", zap.String("quizID", quizID), zap.Error(err))
	}
	return result, nil
}

func (s *quizService) ListGenerationLogs(ctx context.Context, userID string, limit int) (*dto.GenerationLogsResponse, error) {
	if userID == "" {
		return nil, domain.NewUnauthenticatedError("caller identity is required")
	}
	if limit <= 0 {
		limit = DefaultLogsLimit
	}
	limit = min(limit, MaxLogsLimit)

	resp := &dto.GenerationLogsResponse{Logs: []dto.GenerationLogResponse{}}
	if s.logs == nil {
		return resp, nil
	}

	records, err := s.logs.ListLogs(ctx, quizgen.AuditCollectionPath(userID), limit)
	if err != nil {
		return nil, domain.NewInternalError("failed to list generation logs", err)
	}
	for _, r := range records {
		degraded := r.Degraded
		if degraded == nil {
			degraded = []string{}
		}
		resp.Logs = append(resp.Logs, dto.GenerationLogResponse{
			ID:             r.ID,
			RunID:          r.RunID,
			QuizID:         r.QuizID,
			RequestedCount: r.RequestedCount,
			ReturnedCount:  r.ReturnedCount,
			TotalGenerated: r.TotalGenerated,
			FilteredOut:    r.FilteredOut,
			Difficulty:     r.Difficulty,
			LanguageCode:   r.Language,
			ContentSource:  r.ContentSource,
			DegradedSteps:  degraded,
			CreatedAt:      r.CreatedAt,
		})
	}
	return resp, nil
}

package handler

import (
	"learnnest/internal/domain"
	"learnnest/internal/dto"
	"learnnest/internal/logger"
	"learnnest/internal/middleware"
	"learnnest/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// QuizHandler handles quiz-related HTTP requests
type QuizHandler struct {
	service service.QuizService
}

func NewQuizHandler(service service.QuizService) *QuizHandler {
	return &QuizHandler{service: service}
}

// GenerateValidatedQuiz handles POST /api/quizzes/validated.
// @Summary Generate a validated quiz
// @Description Generates quiz questions from study text, validates them and returns the accepted set.
// @Tags quizzes
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param request body dto.GenerateQuizRequest true "Source text and quiz options"
// @Success 200 {object} domain.QuizResult
// @Failure 400 {object} dto.ErrorResponse "Invalid request"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 412 {object} dto.ErrorResponse "Generation models not configured"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/quizzes/validated [post]
func (h *QuizHandler) GenerateValidatedQuiz(c *fiber.Ctx) error {
	var req dto.GenerateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.NewError(domain.ErrInvalidArgument, "Request body must be a JSON object", err)
	}

	userID := middleware.UserIDFromContext(c)
	result, err := h.service.GenerateValidatedQuiz(c.UserContext(), userID, &req)
	if err != nil {
		return err
	}

	logger.Get().Info("Validated quiz generated",
		zap.String("request_id", middleware.RequestIDFromContext(c)),
		zap.String("userID", userID),
		zap.String("quizID", result.ID),
		zap.Int("requested", result.RequestedCount),
		zap.Int("returned", result.QuestionCount),
		zap.Int("diagnostics", len(result.Diagnostics)),
	)
	return c.JSON(result)
}

// GetQuiz handles GET /api/quizzes/:id.
// @Summary Get a generated quiz
// @Tags quizzes
// @Security ApiKeyAuth
// @Produce json
// @Param id path string true "Quiz ID"
// @Success 200 {object} domain.QuizResult
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Quiz not found"
// @Router /api/quizzes/{id} [get]
func (h *QuizHandler) GetQuiz(c *fiber.Ctx) error {
	result, err := h.service.GetQuiz(c.UserContext(), middleware.UserIDFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// ListGenerationLogs handles GET /api/quizzes/logs?limit=N.
// @Summary List quiz generation runs
// @Description Returns the caller's most recent generation audit records, newest first.
// @Tags quizzes
// @Security ApiKeyAuth
// @Produce json
// @Param limit query int false "Number of records (default 20, max 100)"
// @Success 200 {object} dto.GenerationLogsResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid limit"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /api/quizzes/logs [get]
func (h *QuizHandler) ListGenerationLogs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 0)
	if limit < 0 {
		return domain.NewInvalidArgumentError("limit must not be negative")
	}
	resp, err := h.service.ListGenerationLogs(c.UserContext(), middleware.UserIDFromContext(c), limit)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

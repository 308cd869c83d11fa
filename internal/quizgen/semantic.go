package quizgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"learnnest/internal/domain"

	"go.uber.org/zap"
)

// SemanticInput is one batched review request.
type SemanticInput struct {
	Questions    []domain.Question
	RAGContext   string
	Difficulty   string
	LanguageCode string
}

// SemanticValidator fact-checks candidates with the secondary text completer.
type SemanticValidator struct {
	completer   domain.TextCompleter
	temperature float64
	logger      *zap.Logger
}

func NewSemanticValidator(completer domain.TextCompleter, temperature float64, logger *zap.Logger) *SemanticValidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemanticValidator{completer: completer, temperature: temperature, logger: logger}
}

// reasonList accepts either a JSON array of strings or a single string.
type reasonList []string

func (r *reasonList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*r = nil
		return nil
	case strings.HasPrefix(trimmed, "["):
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*r = list
		return nil
	default:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*r = nil
		} else {
			*r = []string{s}
		}
		return nil
	}
}

type semanticVerdict struct {
	Valid   bool       `json:"valid"`
	Reasons reasonList `json:"reasons"`
}

// Validate returns one verdict per question, in input order. The reviewer's
// answer must contain exactly one element per question; anything else is a
// SEMANTIC_VALIDATION_ERROR.
func (v *SemanticValidator) Validate(ctx context.Context, in SemanticInput) ([]domain.ValidationVerdict, error) {
	if len(in.Questions) == 0 {
		return nil, nil
	}

	prompt, err := buildSemanticPrompt(in)
	if err != nil {
		return nil, domain.NewSemanticValidationError(err)
	}

	raw, err := v.completer.Complete(ctx, domain.CompletionRequest{
		System:      semanticSystemPrompt,
		Prompt:      prompt,
		Temperature: v.temperature,
	})
	if err != nil {
		return nil, domain.NewSemanticValidationError(fmt.Errorf("review call failed: %w", err))
	}

	parsed, err := parseJSONArray[semanticVerdict](raw)
	if err != nil {
		return nil, domain.NewSemanticValidationError(err)
	}
	if len(parsed) != len(in.Questions) {
		return nil, domain.NewSemanticValidationError(fmt.Errorf("reviewer returned %d verdicts for %d questions", len(parsed), len(in.Questions)))
	}

	verdicts := make([]domain.ValidationVerdict, len(parsed))
	invalid := 0
	for i, p := range parsed {
		verdicts[i] = domain.ValidationVerdict{
			QuestionID: in.Questions[i].ID,
			Valid:      p.Valid,
			Reasons:    []string(p.Reasons),
		}
		if !p.Valid {
			invalid++
		}
	}
	v.logger.Info("Semantic validation finished",
		zap.Int("questions", len(verdicts)),
		zap.Int("invalid", invalid))
	return verdicts, nil
}

// allValid is the verdict set used when semantic validation is unavailable.
func allValid(questions []domain.Question) []domain.ValidationVerdict {
	out := make([]domain.ValidationVerdict, len(questions))
	for i, q := range questions {
		out[i] = domain.ValidationVerdict{QuestionID: q.ID, Valid: true}
	}
	return out
}

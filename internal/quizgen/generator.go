package quizgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"learnnest/internal/domain"
	"learnnest/internal/util"

	"go.uber.org/zap"
)

// GenerateInput describes one generation call, usually for a single chunk.
type GenerateInput struct {
	ChunkText    string
	RAGContext   string
	RAGSources   []domain.RetrievedSource
	Count        int
	Difficulty   string
	AllowedTypes []domain.QuestionType
	LanguageCode string
}

// Generator drafts quiz questions with the primary text completer.
type Generator struct {
	completer   domain.TextCompleter
	temperature float64
	newPrefix   func() string
	logger      *zap.Logger
}

// NewGenerator creates a Generator. A nil logger disables logging.
func NewGenerator(completer domain.TextCompleter, temperature float64, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		completer:   completer,
		temperature: temperature,
		newPrefix:   util.NewULID,
		logger:      logger,
	}
}

// Generate asks the model for in.Count questions and returns at most that many.
// Questions without an id, or whose id repeats an earlier one in the batch, get
// "<ulid>-<index>" instead.
func (g *Generator) Generate(ctx context.Context, in GenerateInput) ([]domain.Question, error) {
	if in.Count <= 0 {
		return nil, nil
	}
	if len(in.AllowedTypes) == 0 {
		in.AllowedTypes = domain.DefaultQuestionTypes
	}

	prompt := buildGeneratorPrompt(in)
	g.logger.Debug("Requesting quiz questions",
		zap.Int("count", in.Count),
		zap.Int("chunk_chars", len(in.ChunkText)),
		zap.Int("context_chars", len(in.RAGContext)))

	raw, err := g.completer.Complete(ctx, domain.CompletionRequest{
		System:      generatorSystemPrompt,
		Prompt:      prompt,
		Temperature: g.temperature,
	})
	if err != nil {
		return nil, domain.NewLLMServiceError(fmt.Errorf("question generation call failed: %w", err))
	}

	elements, err := parseJSONArray[json.RawMessage](raw)
	if err != nil {
		g.logger.Warn("Failed to parse generated questions",
			zap.Error(err),
			zap.String("response_head", truncateRunes(raw, 300)))
		return nil, err
	}

	questions := make([]domain.Question, 0, len(elements))
	for i, element := range elements {
		q, ok := decodeQuestion(element)
		if !ok {
			g.logger.Warn("Dropping generated element that is not a JSON object",
				zap.Int("index", i),
				zap.String("element", truncateRunes(string(element), 200)))
			continue
		}
		questions = append(questions, q)
	}
	if len(elements) > 0 && len(questions) == 0 {
		return nil, domain.NewGenerationParseError(errors.New("no generated element is a JSON object"))
	}

	if len(questions) > in.Count {
		questions = questions[:in.Count]
	}

	prefix := g.newPrefix()
	seen := make(map[string]struct{}, len(questions))
	for i := range questions {
		q := &questions[i]
		q.ID = strings.TrimSpace(q.ID)
		if _, dup := seen[q.ID]; q.ID == "" || dup {
			q.ID = fmt.Sprintf("%s-%d", prefix, i)
		}
		seen[q.ID] = struct{}{}
		if q.LanguageCode == "" {
			q.LanguageCode = in.LanguageCode
		}
		q.Type = normalizeQuestionType(q.Type)
		if domain.IsValidQuestionType(q.Type) && !containsType(in.AllowedTypes, q.Type) {
			q.Issues = append(q.Issues, ReasonTypeNotRequested)
		}
	}

	g.logger.Info("Generated quiz questions",
		zap.Int("requested", in.Count),
		zap.Int("returned", len(questions)))
	return questions, nil
}

// decodeQuestion decodes one generated element. A field with the wrong JSON
// type is left empty and recorded in Issues so the rest of the question
// survives. It reports false when the element is not a JSON object.
func decodeQuestion(raw json.RawMessage) (domain.Question, bool) {
	if strings.TrimSpace(string(raw)) == "null" {
		return domain.Question{}, false
	}
	var q domain.Question
	if err := json.Unmarshal(raw, &q); err == nil {
		return q, true
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return domain.Question{}, false
	}

	q = domain.Question{}
	targets := []struct {
		name string
		dst  any
	}{
		{"id", &q.ID},
		{"type", &q.Type},
		{"question", &q.Question},
		{"options", &q.Options},
		{"correctAnswer", &q.CorrectAnswer},
		{"explanation", &q.Explanation},
		{"cognitiveLevel", &q.CognitiveLevel},
		{"sources", &q.Sources},
		{"languageCode", &q.LanguageCode},
		{"accessibilityNote", &q.AccessibilityNote},
	}
	for _, t := range targets {
		value, ok := lookupField(fields, t.name)
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, t.dst); err != nil {
			q.Issues = append(q.Issues, malformedFieldReason(t.name))
		}
	}
	return q, true
}

// lookupField matches keys case-insensitively, as encoding/json does.
func lookupField(fields map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	if v, ok := fields[name]; ok {
		return v, true
	}
	for k, v := range fields {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

var questionTypeAliases = map[string]domain.QuestionType{
	"mc":                 domain.QuestionTypeMultipleChoice,
	"mcq":                domain.QuestionTypeMultipleChoice,
	"multiplechoice":     domain.QuestionTypeMultipleChoice,
	"multiple-choices":   domain.QuestionTypeMultipleChoice,
	"single-choice":      domain.QuestionTypeMultipleChoice,
	"tf":                 domain.QuestionTypeTrueFalse,
	"truefalse":          domain.QuestionTypeTrueFalse,
	"true/false":         domain.QuestionTypeTrueFalse,
	"true-or-false":      domain.QuestionTypeTrueFalse,
	"boolean":            domain.QuestionTypeTrueFalse,
	"short":              domain.QuestionTypeShortAnswer,
	"shortanswer":        domain.QuestionTypeShortAnswer,
	"open-ended":         domain.QuestionTypeShortAnswer,
	"fillblank":          domain.QuestionTypeFillBlank,
	"fill-in":            domain.QuestionTypeFillBlank,
	"fill-in-blank":      domain.QuestionTypeFillBlank,
	"fill-in-the-blank":  domain.QuestionTypeFillBlank,
	"fill-in-the-blanks": domain.QuestionTypeFillBlank,
	"fill-blanks":        domain.QuestionTypeFillBlank,
	"cloze":              domain.QuestionTypeFillBlank,
}

var questionTypeSeparators = strings.NewReplacer("_", "-", " ", "-")

// normalizeQuestionType maps the spellings models commonly use onto the known
// question types. Unrecognized values are returned lowercased.
func normalizeQuestionType(t domain.QuestionType) domain.QuestionType {
	s := questionTypeSeparators.Replace(strings.ToLower(strings.TrimSpace(string(t))))
	if alias, ok := questionTypeAliases[s]; ok {
		return alias
	}
	return domain.QuestionType(s)
}

func containsType(types []domain.QuestionType, t domain.QuestionType) bool {
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}

package quizgen

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"learnnest/internal/domain"
)

const (
	minQuestionChars   = 5
	maxExplanationChar = 400
	multipleChoiceSize = 4
)

// Structural check reasons. They are stable strings so clients can match on them.
const (
	ReasonQuestionTooShort   = "question text is missing or shorter than 5 characters"
	ReasonOptionsCount       = "multiple-choice question must have exactly 4 options"
	ReasonOptionsNotUnique   = "multiple-choice options are not unique"
	ReasonExplanationTooLong = "explanation is longer than 400 characters"
	ReasonUnknownType        = "question type must be one of multiple-choice, true-false, short-answer, fill-blank"
	ReasonTypeNotRequested   = "question type was not among the requested types"
)

// malformedFieldReason reports a field whose JSON value had the wrong type.
func malformedFieldReason(field string) string {
	return fmt.Sprintf("field %q has the wrong JSON type", field)
}

// CheckStructure runs the local shape checks on q and returns one reason per
// failed rule. An empty result means the question is structurally sound.
func CheckStructure(q domain.Question) []string {
	var reasons []string

	if utf8.RuneCountInString(strings.TrimSpace(q.Question)) < minQuestionChars {
		reasons = append(reasons, ReasonQuestionTooShort)
	}

	if !domain.IsValidQuestionType(q.Type) {
		reasons = append(reasons, ReasonUnknownType)
	}

	if q.Type == domain.QuestionTypeMultipleChoice {
		if len(q.Options) != multipleChoiceSize {
			reasons = append(reasons, ReasonOptionsCount)
		} else if !optionsUnique(q.Options) {
			reasons = append(reasons, ReasonOptionsNotUnique)
		}
	}

	if utf8.RuneCountInString(q.Explanation) > maxExplanationChar {
		reasons = append(reasons, ReasonExplanationTooLong)
	}
	return append(reasons, q.Issues...)
}

func optionsUnique(options []string) bool {
	seen := make(map[string]struct{}, len(options))
	for _, o := range options {
		key := strings.ToLower(strings.TrimSpace(o))
		if _, dup := seen[key]; dup {
			return false
		}
		seen[key] = struct{}{}
	}
	return true
}

// checkAll runs CheckStructure over every candidate. The result is index-aligned
// with questions.
func checkAll(questions []domain.Question) [][]string {
	out := make([][]string, len(questions))
	for i, q := range questions {
		out[i] = CheckStructure(q)
	}
	return out
}

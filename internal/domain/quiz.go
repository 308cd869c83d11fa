package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// QuestionType is the kind of quiz question a generator may produce.
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple-choice"
	QuestionTypeTrueFalse      QuestionType = "true-false"
	QuestionTypeShortAnswer    QuestionType = "short-answer"
	QuestionTypeFillBlank      QuestionType = "fill-blank"
)

// DefaultQuestionTypes is used when a request does not name any types.
var DefaultQuestionTypes = []QuestionType{
	QuestionTypeMultipleChoice,
	QuestionTypeTrueFalse,
	QuestionTypeShortAnswer,
}

// IsValidQuestionType reports whether t is one of the known question types.
func IsValidQuestionType(t QuestionType) bool {
	switch t {
	case QuestionTypeMultipleChoice, QuestionTypeTrueFalse, QuestionTypeShortAnswer, QuestionTypeFillBlank:
		return true
	}
	return false
}

// CognitiveLevels lists the Bloom taxonomy tags a question can carry.
var CognitiveLevels = []string{"remember", "understand", "apply", "analyze", "evaluate", "create"}

// Difficulty values accepted by the pipeline.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// IsValidDifficulty reports whether d is a known difficulty.
func IsValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Chunk is a contiguous slice of the source text. Start and End are rune offsets.
type Chunk struct {
	Text   string
	Start  int
	End    int
	Weight int
}

// RetrievedSource is the provenance of a passage returned by the vector index.
type RetrievedSource struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	URL   string  `json:"url,omitempty"`
	Score float32 `json:"score"`
}

// Answer holds a correct answer, which models return either as a single string
// or, for fill-blank questions, as a list of acceptable strings.
type Answer struct {
	Values []string
	IsList bool
}

// NewAnswer builds a single-string answer.
func NewAnswer(v string) Answer {
	return Answer{Values: []string{v}}
}

// NewAnswerList builds a list answer.
func NewAnswerList(vs ...string) Answer {
	return Answer{Values: vs, IsList: true}
}

// String returns the answer joined for display.
func (a Answer) String() string {
	return strings.Join(a.Values, " | ")
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.IsList {
		if a.Values == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.Values)
	}
	if len(a.Values) == 0 {
		return json.Marshal("")
	}
	return json.Marshal(a.Values[0])
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*a = Answer{}
		return nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var list []any
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		values := make([]string, 0, len(list))
		for _, v := range list {
			values = append(values, fmt.Sprint(v))
		}
		*a = Answer{Values: values, IsList: true}
		return nil
	}
	var single any
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	// Models sometimes answer true-false questions with a bare boolean.
	*a = Answer{Values: []string{fmt.Sprint(single)}}
	return nil
}

// Question is a candidate or accepted quiz question.
type Question struct {
	ID                string       `json:"id"`
	Type              QuestionType `json:"type"`
	Question          string       `json:"question"`
	Options           []string     `json:"options,omitempty"`
	CorrectAnswer     Answer       `json:"correctAnswer"`
	Explanation       string       `json:"explanation,omitempty"`
	CognitiveLevel    string       `json:"cognitiveLevel,omitempty"`
	Sources           []string     `json:"sources,omitempty"`
	LanguageCode      string       `json:"languageCode,omitempty"`
	AccessibilityNote string       `json:"accessibilityNote,omitempty"`
	// Issues lists problems found while decoding the model's output for this
	// question. They are reported as structural reasons and never serialized.
	Issues            []string     `json:"-"`
}

// ValidationVerdict is one validator's opinion of one question.
type ValidationVerdict struct {
	QuestionID string   `json:"questionId"`
	Valid      bool     `json:"valid"`
	Reasons    []string `json:"reasons"`
}

// Merge combines two verdicts: validity is ANDed and reasons are concatenated.
func (v ValidationVerdict) Merge(other ValidationVerdict) ValidationVerdict {
	reasons := make([]string, 0, len(v.Reasons)+len(other.Reasons))
	reasons = append(reasons, v.Reasons...)
	reasons = append(reasons, other.Reasons...)
	return ValidationVerdict{
		QuestionID: v.QuestionID,
		Valid:      v.Valid && other.Valid,
		Reasons:    reasons,
	}
}

// RejectedQuestion is a candidate that did not make it into the final quiz.
type RejectedQuestion struct {
	ID      string   `json:"id"`
	Reasons []string `json:"reasons"`
}

// ValidationReport summarizes how candidates fared against the validators.
type ValidationReport struct {
	TotalGenerated int                `json:"totalGenerated"`
	Passed         int                `json:"passed"`
	FilteredOut    int                `json:"filteredOut"`
	Rejected       []RejectedQuestion `json:"rejected"`
}

// Diagnostic records a sub-step that did not complete normally.
type Diagnostic struct {
	Step    string `json:"step"`
	Outcome string `json:"outcome"`
	Detail  string `json:"detail"`
}

// QuizResult is the single artifact a pipeline run produces.
type QuizResult struct {
	ID               string            `json:"id"`
	UserID           string            `json:"userId"`
	Title            string            `json:"title"`
	Difficulty       string            `json:"difficulty"`
	RequestedCount   int               `json:"requestedCount"`
	QuestionCount    int               `json:"questionCount"`
	Questions        []Question        `json:"questions"`
	Language         string            `json:"language"`
	ContentSource    string            `json:"contentSource"`
	ValidationReport ValidationReport  `json:"validationReport"`
	RetrievedSources []RetrievedSource `json:"retrievedSources"`
	Diagnostics      []Diagnostic      `json:"diagnostics,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
}

// AuditRecord is what the pipeline emits to the audit log after every run.
type AuditRecord struct {
	ID             string
	RunID          string
	UserID         string
	QuizID         string
	RequestedCount int
	ReturnedCount  int
	TotalGenerated int
	FilteredOut    int
	Difficulty     string
	Language       string
	ContentSource  string
	Degraded       []string
	Result         *QuizResult
	CreatedAt      time.Time
}

package dto

import "time"

// GenerateQuizRequest is the body of POST /api/quizzes/validated.
type GenerateQuizRequest struct {
	Text              string   `json:"text"`
	UserID            string   `json:"userId,omitempty"`
	NumberOfQuestions int      `json:"numberOfQuestions,omitempty"`
	Difficulty        string   `json:"difficulty,omitempty"`
	QuestionTypes     []string `json:"questionTypes,omitempty"`
	LanguageCode      string   `json:"languageCode,omitempty"`
	ContentSource     string   `json:"contentSource,omitempty"`
}

// GenerationLogResponse is one entry of GET /api/quizzes/logs.
type GenerationLogResponse struct {
	ID             string    `json:"id"`
	RunID          string    `json:"runId"`
	QuizID         string    `json:"quizId,omitempty"`
	RequestedCount int       `json:"requestedCount"`
	ReturnedCount  int       `json:"returnedCount"`
	TotalGenerated int       `json:"totalGenerated"`
	FilteredOut    int       `json:"filteredOut"`
	Difficulty     string    `json:"difficulty"`
	LanguageCode   string    `json:"languageCode"`
	ContentSource  string    `json:"contentSource"`
	DegradedSteps  []string  `json:"degradedSteps"`
	CreatedAt      time.Time `json:"createdAt"`
}

// GenerationLogsResponse wraps a page of generation logs.
type GenerationLogsResponse struct {
	Logs []GenerationLogResponse `json:"logs"`
}

// ErrorResponse is the structured error body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

// HealthResponse reports dependency status.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

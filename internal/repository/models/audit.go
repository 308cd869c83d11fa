package models

import (
	"database/sql"
	"time"
)

// QuizGenerationLog is one row of QUIZ_GENERATION_LOGS.
type QuizGenerationLog struct {
	ID             string         `db:"ID"`
	CollectionPath string         `db:"COLLECTION_PATH"`
	RunID          string         `db:"RUN_ID"`
	UserID         string         `db:"USER_ID"`
	QuizID         sql.NullString `db:"QUIZ_ID"`
	RequestedCount int            `db:"REQUESTED_COUNT"`
	ReturnedCount  int            `db:"RETURNED_COUNT"`
	TotalGenerated int            `db:"TOTAL_GENERATED"`
	FilteredOut    int            `db:"FILTERED_OUT"`
	Difficulty     string         `db:"DIFFICULTY"`
	LanguageCode   string         `db:"LANGUAGE_CODE"`
	ContentSource  string         `db:"CONTENT_SOURCE"`
	DegradedSteps  StringSlice    `db:"DEGRADED_STEPS"`
	CreatedAt      time.Time      `db:"CREATED_AT"`
}

// GeneratedQuiz is one row of GENERATED_QUIZZES. Payload holds the full
// QuizResult as JSON.
type GeneratedQuiz struct {
	ID        string    `db:"ID"`
	UserID    string    `db:"USER_ID"`
	Title     string    `db:"TITLE"`
	Payload   string    `db:"PAYLOAD"`
	CreatedAt time.Time `db:"CREATED_AT"`
}

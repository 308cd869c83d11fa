package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"learnnest/internal/domain"
	"learnnest/internal/repository/models"
	"learnnest/internal/util"

	"github.com/jmoiron/sqlx"
)

const (
	insertGenerationLogQuery = `INSERT INTO QUIZ_GENERATION_LOGS
		(ID, COLLECTION_PATH, RUN_ID, USER_ID, QUIZ_ID, REQUESTED_COUNT, RETURNED_COUNT,
		 TOTAL_GENERATED, FILTERED_OUT, DIFFICULTY, LANGUAGE_CODE, CONTENT_SOURCE, DEGRADED_STEPS, CREATED_AT)
		VALUES (:1, :2, :3, :4, :5, :6, :7, :8, :9, :10, :11, :12, :13, :14)`

	insertGeneratedQuizQuery = `INSERT INTO GENERATED_QUIZZES (ID, USER_ID, TITLE, PAYLOAD, CREATED_AT)
		VALUES (:1, :2, :3, :4, :5)`

	selectGeneratedQuizQuery = `SELECT ID, USER_ID, TITLE, PAYLOAD, CREATED_AT
		FROM GENERATED_QUIZZES WHERE ID = :1 AND USER_ID = :2`

	selectGenerationLogsQuery = `SELECT ID, COLLECTION_PATH, RUN_ID, USER_ID, QUIZ_ID, REQUESTED_COUNT,
		RETURNED_COUNT, TOTAL_GENERATED, FILTERED_OUT, DIFFICULTY, LANGUAGE_CODE, CONTENT_SOURCE,
		DEGRADED_STEPS, CREATED_AT
		FROM QUIZ_GENERATION_LOGS WHERE COLLECTION_PATH = :1
		ORDER BY CREATED_AT DESC FETCH FIRST :2 ROWS ONLY`
)

// QuizLogRepository is the Oracle-backed audit log. Each appended record
// writes one QUIZ_GENERATION_LOGS row and, when the run produced a result,
// one GENERATED_QUIZZES row, both in a single transaction.
type QuizLogRepository struct {
	db *sqlx.DB
	tx domain.TransactionManager
}

func NewQuizLogRepository(db *sqlx.DB, tx domain.TransactionManager) *QuizLogRepository {
	if tx == nil {
		tx = NewTransactionManagerAdapter(db)
	}
	return &QuizLogRepository{db: db, tx: tx}
}

func toGenerationLog(collectionPath string, record *domain.AuditRecord) *models.QuizGenerationLog {
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return &models.QuizGenerationLog{
		ID:             record.ID,
		CollectionPath: collectionPath,
		RunID:          record.RunID,
		UserID:         record.UserID,
		QuizID:         util.StringToNullString(record.QuizID),
		RequestedCount: record.RequestedCount,
		ReturnedCount:  record.ReturnedCount,
		TotalGenerated: record.TotalGenerated,
		FilteredOut:    record.FilteredOut,
		Difficulty:     record.Difficulty,
		LanguageCode:   record.Language,
		ContentSource:  record.ContentSource,
		DegradedSteps:  models.StringSlice(record.Degraded),
		CreatedAt:      createdAt,
	}
}

func toDomainAuditRecord(row *models.QuizGenerationLog) *domain.AuditRecord {
	if row == nil {
		return nil
	}
	return &domain.AuditRecord{
		ID:             row.ID,
		RunID:          row.RunID,
		UserID:         row.UserID,
		QuizID:         row.QuizID.String,
		RequestedCount: row.RequestedCount,
		ReturnedCount:  row.ReturnedCount,
		TotalGenerated: row.TotalGenerated,
		FilteredOut:    row.FilteredOut,
		Difficulty:     row.Difficulty,
		Language:       row.LanguageCode,
		ContentSource:  row.ContentSource,
		Degraded:       []string(row.DegradedSteps),
		CreatedAt:      row.CreatedAt,
	}
}

// Append implements domain.AuditLogStore.
func (r *QuizLogRepository) Append(ctx context.Context, collectionPath string, record *domain.AuditRecord) error {
	if record == nil {
		return fmt.Errorf("audit record cannot be nil")
	}
	if collectionPath == "" {
		return fmt.Errorf("audit collection path cannot be empty")
	}

	row := toGenerationLog(collectionPath, record)

	var quiz *models.GeneratedQuiz
	if record.Result != nil {
		payload, err := json.Marshal(record.Result)
		if err != nil {
			return fmt.Errorf("failed to encode quiz result %s: %w", record.Result.ID, err)
		}
		quiz = &models.GeneratedQuiz{
			ID:        record.Result.ID,
			UserID:    record.Result.UserID,
			Title:     record.Result.Title,
			Payload:   string(payload),
			CreatedAt: row.CreatedAt,
		}
	}

	return r.tx.WithTransaction(ctx, func(ctx context.Context) error {
		exec := GetExecutor(ctx, r.db)
		_, err := exec.ExecContext(ctx, insertGenerationLogQuery,
			row.ID, row.CollectionPath, row.RunID, row.UserID, row.QuizID,
			row.RequestedCount, row.ReturnedCount, row.TotalGenerated, row.FilteredOut,
			row.Difficulty, row.LanguageCode, row.ContentSource, row.DegradedSteps, row.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert generation log %s: %w", row.ID, err)
		}

		if quiz == nil {
			return nil
		}
		_, err = exec.ExecContext(ctx, insertGeneratedQuizQuery,
			quiz.ID, quiz.UserID, quiz.Title, quiz.Payload, quiz.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert generated quiz %s: %w", quiz.ID, err)
		}
		return nil
	})
}

// GetQuizResult implements domain.QuizResultRepository.
func (r *QuizLogRepository) GetQuizResult(ctx context.Context, userID, quizID string) (*domain.QuizResult, error) {
	var row models.GeneratedQuiz
	err := GetExecutor(ctx, r.db).GetContext(ctx, &row, selectGeneratedQuizQuery, quizID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get generated quiz %s: %w", quizID, err)
	}

	var result domain.QuizResult
	if err := json.Unmarshal([]byte(row.Payload), &result); err != nil {
		return nil, fmt.Errorf("failed to decode generated quiz %s: %w", quizID, err)
	}
	return &result, nil
}

// ListLogs returns up to limit audit records under collectionPath, newest first.
func (r *QuizLogRepository) ListLogs(ctx context.Context, collectionPath string, limit int) ([]*domain.AuditRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []models.QuizGenerationLog
	if err := GetExecutor(ctx, r.db).SelectContext(ctx, &rows, selectGenerationLogsQuery, collectionPath, limit); err != nil {
		return nil, fmt.Errorf("failed to list generation logs under %s: %w", collectionPath, err)
	}

	records := make([]*domain.AuditRecord, 0, len(rows))
	for i := range rows {
		records = append(records, toDomainAuditRecord(&rows[i]))
	}
	return records, nil
}

// Ping checks database connectivity.
func (r *QuizLogRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

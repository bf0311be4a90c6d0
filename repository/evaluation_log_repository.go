package repository

import (
	"context"
	"fmt"
	"time"

	"rubricscore-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// defaultLogCount is how many log entries ListRecent returns when the caller
// does not ask for a specific count.
const defaultLogCount = 50

// EvaluationLogRepository handles database operations for evaluation logs.
type EvaluationLogRepository struct {
	db *pgxpool.Pool
}

// NewEvaluationLogRepository creates a new evaluation log repository.
func NewEvaluationLogRepository(db *pgxpool.Pool) *EvaluationLogRepository {
	return &EvaluationLogRepository{db: db}
}

// Create persists a completed evaluation.
func (r *EvaluationLogRepository) Create(ctx context.Context, entry *models.EvaluationLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO evaluation_logs (id, sector, document_name, document_path, evaluation_score, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entry.ID, entry.Sector, entry.DocumentName, entry.DocumentPath,
		entry.EvaluationScore, entry.DurationMs, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert evaluation log: %w", err)
	}
	return nil
}

// ListRecent returns the most recent evaluations, newest first. A count of
// zero or less falls back to the default of 50.
func (r *EvaluationLogRepository) ListRecent(ctx context.Context, count int) ([]*models.EvaluationLog, error) {
	if count <= 0 {
		count = defaultLogCount
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, sector, document_name, document_path, evaluation_score, duration_ms, created_at
		FROM evaluation_logs
		ORDER BY created_at DESC
		LIMIT $1`,
		count,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query evaluation logs: %w", err)
	}
	defer rows.Close()

	var entries []*models.EvaluationLog
	for rows.Next() {
		var entry models.EvaluationLog
		err := rows.Scan(
			&entry.ID, &entry.Sector, &entry.DocumentName, &entry.DocumentPath,
			&entry.EvaluationScore, &entry.DurationMs, &entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan evaluation log: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating evaluation logs: %w", err)
	}
	return entries, nil
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// EvaluationLog is one completed document evaluation, persisted for the
// activity feed.
type EvaluationLog struct {
	ID              uuid.UUID `json:"id"`
	Sector          string    `json:"sector"`
	DocumentName    string    `json:"document_name"`
	DocumentPath    string    `json:"document_path,omitempty"`
	EvaluationScore float64   `json:"evaluation_score"`
	DurationMs      int64     `json:"duration_ms"`
	CreatedAt       time.Time `json:"created_at"`
}

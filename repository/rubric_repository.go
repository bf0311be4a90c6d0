package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"rubricscore-backend/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSectorNotFound indicates no rubric is stored for the requested sector.
var ErrSectorNotFound = errors.New("sector not found")

// RubricRepository handles database operations for sector rubrics.
type RubricRepository struct {
	db *pgxpool.Pool
}

// NewRubricRepository creates a new rubric repository.
func NewRubricRepository(db *pgxpool.Pool) *RubricRepository {
	return &RubricRepository{db: db}
}

// GetBySector loads the rubric sections stored for a sector. Each call
// unmarshals a fresh tree, so callers own the returned nodes exclusively.
func (r *RubricRepository) GetBySector(ctx context.Context, sector string) (models.SectionList, error) {
	var raw []byte
	err := r.db.QueryRow(ctx,
		`SELECT criteria FROM sector_rubrics WHERE sector = $1`,
		sector,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSectorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sector rubric: %w", err)
	}

	var sections models.SectionList
	if err := json.Unmarshal(raw, &sections); err != nil {
		return nil, fmt.Errorf("failed to decode rubric for sector %s: %w", sector, err)
	}
	return sections, nil
}

// ListSectors returns every sector identifier with a stored rubric.
func (r *RubricRepository) ListSectors(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT sector FROM sector_rubrics ORDER BY sector`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sectors: %w", err)
	}
	defer rows.Close()

	var sectors []string
	for rows.Next() {
		var sector string
		if err := rows.Scan(&sector); err != nil {
			return nil, fmt.Errorf("failed to scan sector: %w", err)
		}
		sectors = append(sectors, sector)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sectors: %w", err)
	}
	return sectors, nil
}

// Upsert stores or replaces the rubric for a sector.
func (r *RubricRepository) Upsert(ctx context.Context, sector, displayName string, sections models.SectionList) error {
	raw, err := json.Marshal(sections)
	if err != nil {
		return fmt.Errorf("failed to encode rubric for sector %s: %w", sector, err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO sector_rubrics (sector, display_name, criteria, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (sector)
		DO UPDATE SET display_name = $2, criteria = $3, updated_at = NOW()`,
		sector, displayName, raw,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert rubric for sector %s: %w", sector, err)
	}
	return nil
}

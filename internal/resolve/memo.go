package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"jobportal/ingestion-service/internal/model"
)

// PGMemoStore persists confirmed mappings in the similar_content table.
// Append-only; Lookup picks the highest-confidence row.
type PGMemoStore struct {
	db DB
}

func NewPGMemoStore(db DB) *PGMemoStore { return &PGMemoStore{db: db} }

func (s *PGMemoStore) Lookup(ctx context.Context, entityType model.EntityType, name string) (string, float64, bool, error) {
	var parent string
	var confidence float64
	err := s.db.QueryRow(ctx,
		`SELECT parent_name, confidence_score
		   FROM similar_content
		  WHERE type = $1 AND LOWER(similar_name) = LOWER($2)
		  ORDER BY confidence_score DESC
		  LIMIT 1`,
		string(entityType), name).Scan(&parent, &confidence)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", 0, false, nil
		}
		return "", 0, false, fmt.Errorf("memo lookup: %w", err)
	}
	return parent, confidence, true, nil
}

func (s *PGMemoStore) Record(ctx context.Context, entityType model.EntityType, parent, similar string, confidence float64) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO similar_content (type, parent_name, similar_name, confidence_score, processed)
		 SELECT $1, $2, $3, $4, FALSE
		  WHERE NOT EXISTS (
		        SELECT 1 FROM similar_content
		         WHERE type = $1
		           AND LOWER(parent_name) = LOWER($2)
		           AND LOWER(similar_name) = LOWER($3))`,
		string(entityType), parent, similar, confidence)
	if err != nil {
		return fmt.Errorf("memo record: %w", err)
	}
	return nil
}

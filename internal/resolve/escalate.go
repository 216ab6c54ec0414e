package resolve

import (
	"context"
	"fmt"

	"jobportal/ingestion-service/internal/model"
)

// PGEscalationStore queues unresolved names in the pending_content table for
// offline curation. The unique constraint on (entity_name, entity_type) makes
// the insert idempotent across source records.
type PGEscalationStore struct {
	db DB
}

func NewPGEscalationStore(db DB) *PGEscalationStore { return &PGEscalationStore{db: db} }

func (s *PGEscalationStore) InsertIfAbsent(ctx context.Context, esc model.PendingEscalation) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO pending_content (entity_name, entity_type, source_table, source_id, portal_name, notes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (entity_name, entity_type) DO NOTHING`,
		esc.EntityName, string(esc.EntityType), esc.SourceTable, esc.SourceID, esc.PortalName, esc.Notes)
	if err != nil {
		return fmt.Errorf("escalation insert: %w", err)
	}
	return nil
}

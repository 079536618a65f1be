package repository

import (
	"context"

	"attrschema/internal/domain/entity"

	"github.com/google/uuid"
)

// HistoryRepository is the insert-only audit trail. It deliberately offers
// no update or delete.
type HistoryRepository interface {
	// Append stores a new history record.
	Append(ctx context.Context, record *entity.HistoryRecord) error

	// ListByDefinition returns the newest records for a definition first.
	ListByDefinition(ctx context.Context, definitionID uuid.UUID, limit int) ([]*entity.HistoryRecord, error)
}

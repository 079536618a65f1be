package repository

import (
	"context"
	"errors"
	"time"

	"attrschema/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrPurgeNotFound is returned when no purge is pending for a definition.
var ErrPurgeNotFound = errors.New("pending purge not found")

// PurgeRepository stores purges scheduled by dependent-data deletes.
type PurgeRepository interface {
	// Schedule inserts or replaces the pending purge of a definition.
	Schedule(ctx context.Context, purge *entity.PendingPurge) error

	// Find returns the pending purge of a definition.
	Find(ctx context.Context, definitionID uuid.UUID) (*entity.PendingPurge, error)

	// ListDue returns purges whose due time is at or before now, oldest first.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*entity.PendingPurge, error)

	// Remove deletes the pending purge of a definition. Removing a missing purge is not an error.
	Remove(ctx context.Context, definitionID uuid.UUID) error
}

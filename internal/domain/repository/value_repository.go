package repository

import (
	"context"
	"errors"

	"attrschema/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrValueNotFound is returned when a principal has no value for a definition.
var ErrValueNotFound = errors.New("attribute value not found")

// ValueRepository defines the storage operations for per-principal values.
type ValueRepository interface {
	// Find retrieves the value a principal holds for a definition.
	Find(ctx context.Context, principalID, definitionID uuid.UUID) (*entity.AttributeValue, error)

	// ListByPrincipal returns every value stored for a principal.
	ListByPrincipal(ctx context.Context, principalID uuid.UUID) ([]*entity.AttributeValue, error)

	// ListByDefinition returns every value stored for a definition.
	ListByDefinition(ctx context.Context, definitionID uuid.UUID) ([]*entity.AttributeValue, error)

	// Upsert inserts or replaces the value keyed by (principal, definition).
	Upsert(ctx context.Context, value *entity.AttributeValue) error

	// Delete removes one principal's value for a definition.
	Delete(ctx context.Context, principalID, definitionID uuid.UUID) error

	// DeleteByDefinition removes every value of a definition and returns how many were removed.
	DeleteByDefinition(ctx context.Context, definitionID uuid.UUID) (int64, error)

	// CountByDefinition returns the number of principals holding a value for the definition.
	CountByDefinition(ctx context.Context, definitionID uuid.UUID) (int64, error)
}

package repository

import (
	"context"
	"errors"

	"attrschema/internal/domain/entity"
)

// ErrGroupNotFound is returned when no group metadata exists for a key.
var ErrGroupNotFound = errors.New("attribute group not found")

// GroupRepository defines the storage operations for group metadata.
type GroupRepository interface {
	// List returns all groups ordered by their order, then key.
	List(ctx context.Context) ([]*entity.AttributeGroup, error)

	// Find retrieves a group by key.
	Find(ctx context.Context, key string) (*entity.AttributeGroup, error)

	// Save inserts or replaces a group.
	Save(ctx context.Context, group *entity.AttributeGroup) error
}

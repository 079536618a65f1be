// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"
	"strings"

	"attrschema/internal/domain/entity"

	"github.com/google/uuid"
)

var (
	// ErrDefinitionNotFound is returned when no definition matches the lookup.
	ErrDefinitionNotFound = errors.New("attribute definition not found")

	// ErrDuplicateDefinitionName is returned when the unique constraint on the
	// definition name rejects a write.
	ErrDuplicateDefinitionName = errors.New("attribute definition name already exists")
)

// Columns a caller may sort definition listings by. Keys are the public
// names, values the storage columns.
var definitionOrderColumns = map[string]string{
	"order":      "sort_order",
	"name":       "name",
	"label":      "label",
	"kind":       "kind",
	"group":      "group_key",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// DefaultOrderBy is used when a filter names no, or an unknown, order column.
const DefaultOrderBy = "order"

const (
	// DefaultListLimit is the page size when a filter does not set one.
	DefaultListLimit = 50
	// MaxListLimit caps the page size.
	MaxListLimit = 500
)

// DefinitionFilter selects definitions for listing.
type DefinitionFilter struct {
	Statuses   []entity.Status `json:"statuses,omitempty"`
	Kinds      []string        `json:"kinds,omitempty"`
	Groups     []string        `json:"groups,omitempty"`
	Searchable *bool           `json:"searchable,omitempty"`
	Public     *bool           `json:"public,omitempty"`
	Search     string          `json:"search,omitempty"` // Case-insensitive match on name or label.
	OrderBy    string          `json:"order_by,omitempty"`
	Desc       bool            `json:"desc,omitempty"`
	Limit      int             `json:"limit,omitempty"`
	Offset     int             `json:"offset,omitempty"`
}

// Normalize clamps paging and replaces an unknown order column with the default.
func (f DefinitionFilter) Normalize() DefinitionFilter {
	out := f
	if _, ok := definitionOrderColumns[strings.ToLower(out.OrderBy)]; !ok {
		out.OrderBy = DefaultOrderBy
	}
	out.OrderBy = strings.ToLower(out.OrderBy)
	if out.Limit <= 0 {
		out.Limit = DefaultListLimit
	}
	if out.Limit > MaxListLimit {
		out.Limit = MaxListLimit
	}
	if out.Offset < 0 {
		out.Offset = 0
	}

	return out
}

// OrderColumn returns the storage column for the filter's order key.
// Only values from the allow-list are ever returned.
func (f DefinitionFilter) OrderColumn() string {
	if col, ok := definitionOrderColumns[strings.ToLower(f.OrderBy)]; ok {
		return col
	}

	return definitionOrderColumns[DefaultOrderBy]
}

// DefinitionStats aggregates definition counts.
type DefinitionStats struct {
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
	ByKind   map[string]int64 `json:"by_kind"`
}

// DefinitionRepository defines the storage operations for attribute definitions.
type DefinitionRepository interface {
	// FindByID retrieves a single definition by its unique ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.AttributeDefinition, error)

	// FindByName retrieves a single definition by its unique name.
	FindByName(ctx context.Context, name string) (*entity.AttributeDefinition, error)

	// List returns one page of definitions matching the filter and the total match count.
	List(ctx context.Context, filter DefinitionFilter) ([]*entity.AttributeDefinition, int64, error)

	// Create persists a new definition. A name collision yields ErrDuplicateDefinitionName.
	Create(ctx context.Context, definition *entity.AttributeDefinition) error

	// Update persists every column of an existing definition except its name and ID.
	Update(ctx context.Context, definition *entity.AttributeDefinition) error

	// UpdatePlacement changes only the order and group of a definition.
	UpdatePlacement(ctx context.Context, id uuid.UUID, order int, group string) error

	// Delete removes a definition row.
	Delete(ctx context.Context, id uuid.UUID) error

	// MaxOrder returns the highest order in the group, or found=false for an empty group.
	MaxOrder(ctx context.Context, group string) (maxOrder int, found bool, err error)

	// Stats aggregates counts by status and kind.
	Stats(ctx context.Context) (*DefinitionStats, error)
}

package usecase

import (
	"context"

	"attrschema/internal/attrkind"
	"attrschema/internal/domain/entity"

	"github.com/google/uuid"
)

// ValueUsecase stores and reads the per-principal values of attribute definitions.
type ValueUsecase interface {
	SaveValue(ctx context.Context, input *SaveValueInput) (*entity.AttributeValue, error)
	// SaveValues validates a whole submission keyed by definition name and
	// stores it only when every visible field is valid.
	SaveValues(ctx context.Context, principalID uuid.UUID, values map[string]any, privacy entity.Privacy) (*SubmissionResult, error)
	GetValues(ctx context.Context, principalID uuid.UUID) ([]*entity.AttributeValue, error)
	DeleteValue(ctx context.Context, principalID, definitionID uuid.UUID) error
	// RenderForm renders the active definitions of a group prefilled with the principal's values.
	RenderForm(ctx context.Context, principalID uuid.UUID, group string, args attrkind.RenderArgs) (string, error)
}

// --- Input DTOs ---

// SaveValueInput defines one value write.
type SaveValueInput struct {
	PrincipalID  uuid.UUID      `json:"principal_id"`
	DefinitionID uuid.UUID      `json:"definition_id"`
	Value        any            `json:"value"`
	Privacy      entity.Privacy `json:"privacy,omitempty"`
	IsVerified   bool           `json:"is_verified,omitempty"`
}

// --- Output DTOs ---

// SubmissionResult reports a multi-field save.
type SubmissionResult struct {
	Saved  map[string]any        `json:"saved"`
	Errors []attrkind.FieldError `json:"errors,omitempty"`
}

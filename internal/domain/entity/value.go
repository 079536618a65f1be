package entity

import (
	"time"

	"github.com/google/uuid"
)

// Privacy controls who may see a stored value.
type Privacy string

const (
	PrivacyPublic  Privacy = "public"
	PrivacyMembers Privacy = "members"
	PrivacyPrivate Privacy = "private"
)

// IsValid checks if the Privacy is a valid value.
func (p Privacy) IsValid() bool {
	switch p {
	case PrivacyPublic, PrivacyMembers, PrivacyPrivate:
		return true
	default:
		return false
	}
}

// AttributeValue is one principal's value for one definition.
// (PrincipalID, DefinitionID) is unique.
type AttributeValue struct {
	ID           uuid.UUID  `json:"id"`
	PrincipalID  uuid.UUID  `json:"principal_id"`
	DefinitionID uuid.UUID  `json:"definition_id"`
	Value        any        `json:"value"`
	NumericValue *float64   `json:"numeric_value,omitempty"` // Projection for range queries on numeric kinds.
	DateValue    *time.Time `json:"date_value,omitempty"`    // Projection for range queries on date kinds.
	Privacy      Privacy    `json:"privacy"`
	IsVerified   bool       `json:"is_verified"`
	UpdatedBy    string     `json:"updated_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AttributeValueModel mirrors the 'attribute_values' table.
// (principal_id, definition_id) is unique; numeric_value and date_value are
// projections of the jsonb value for range queries.
type AttributeValueModel struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key"`
	PrincipalID  uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_values_principal_definition,priority:1"`
	DefinitionID uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_values_principal_definition,priority:2"`
	Value        datatypes.JSON `gorm:"type:jsonb"`
	NumericValue *float64       `gorm:"index"`
	DateValue    *time.Time     `gorm:"index"`
	Privacy      string         `gorm:"type:varchar(16);not null;default:'private'"`
	IsVerified   bool           `gorm:"not null;default:false"`
	UpdatedBy    string         `gorm:"type:varchar(255)"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Definition *AttributeDefinitionModel `gorm:"foreignKey:DefinitionID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (AttributeValueModel) TableName() string {
	return "attribute_values"
}

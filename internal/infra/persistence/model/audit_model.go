package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DefinitionHistoryModel mirrors the insert-only 'attribute_definition_history' table.
// Seq breaks ties between records written in the same instant.
type DefinitionHistoryModel struct {
	Seq          int64          `gorm:"primaryKey;autoIncrement"`
	ID           uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null"`
	DefinitionID uuid.UUID      `gorm:"type:uuid;not null;index"`
	ChangeType   string         `gorm:"type:varchar(16);not null"`
	OldSnapshot  datatypes.JSON `gorm:"type:jsonb"`
	NewSnapshot  datatypes.JSON `gorm:"type:jsonb"`
	Actor        string         `gorm:"type:varchar(255);not null"`
	Reason       string         `gorm:"type:text"`
	Origin       string         `gorm:"type:varchar(64)"`
	CreatedAt    time.Time      `gorm:"index"`
}

// TableName explicitly sets the table name for GORM.
func (DefinitionHistoryModel) TableName() string {
	return "attribute_definition_history"
}

// PendingPurgeModel mirrors the 'attribute_pending_purges' table.
type PendingPurgeModel struct {
	DefinitionID   uuid.UUID      `gorm:"type:uuid;primaryKey"`
	DefinitionName string         `gorm:"type:varchar(64);not null"`
	UsageCount     int64          `gorm:"not null;default:0"`
	Snapshot       datatypes.JSON `gorm:"type:jsonb"`
	ScheduledAt    time.Time      `gorm:"not null"`
	DueAt          time.Time      `gorm:"not null;index"`
	RequestedBy    string         `gorm:"type:varchar(255)"`
}

// TableName explicitly sets the table name for GORM.
func (PendingPurgeModel) TableName() string {
	return "attribute_pending_purges"
}

// All lists every persistence model, in dependency order, for migrations and code generation.
func All() []any {
	return []any{
		&AttributeDefinitionModel{},
		&AttributeGroupModel{},
		&AttributeValueModel{},
		&DefinitionHistoryModel{},
		&PendingPurgeModel{},
	}
}

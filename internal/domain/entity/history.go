package entity

import (
	"time"

	"github.com/google/uuid"
)

// ChangeType classifies a history record.
type ChangeType string

const (
	ChangeCreated      ChangeType = "created"
	ChangeUpdated      ChangeType = "updated"
	ChangeDeleted      ChangeType = "deleted"
	ChangeStatusChange ChangeType = "status_change"
)

// HistoryRecord is one append-only audit entry for a definition.
type HistoryRecord struct {
	ID           uuid.UUID  `json:"id"`
	DefinitionID uuid.UUID  `json:"definition_id"`
	ChangeType   ChangeType `json:"change_type"`
	OldSnapshot  *Document  `json:"old_snapshot,omitempty"`
	NewSnapshot  *Document  `json:"new_snapshot,omitempty"`
	Actor        string     `json:"actor"`
	Reason       string     `json:"reason,omitempty"`
	Origin       string     `json:"origin,omitempty"` // Network address of the caller.
	CreatedAt    time.Time  `json:"created_at"`
}

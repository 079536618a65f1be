package entity

import (
	"time"

	"github.com/google/uuid"
)

// PendingPurge records a deprecated definition whose values are due for removal.
// An external scheduler reads due records and calls back into a forced delete.
type PendingPurge struct {
	DefinitionID   uuid.UUID `json:"definition_id"`
	DefinitionName string    `json:"definition_name"`
	UsageCount     int64     `json:"usage_count"`
	Snapshot       *Document `json:"snapshot,omitempty"` // Definition as it was before deprecation.
	ScheduledAt    time.Time `json:"scheduled_at"`
	DueAt          time.Time `json:"due_at"`
	RequestedBy    string    `json:"requested_by"`
}

// IsDue reports whether the purge may run at now.
func (p *PendingPurge) IsDue(now time.Time) bool {
	return !now.Before(p.DueAt)
}

package service

import (
	"context"
	"time"
)

// Schema event types.
const (
	EventDefinitionCreated    = "definition.created"
	EventDefinitionUpdated    = "definition.updated"
	EventDefinitionDeleted    = "definition.deleted"
	EventDefinitionDeprecated = "definition.deprecated"
	EventDefinitionsReordered = "definitions.reordered"
	EventPurgeScheduled       = "purge.scheduled"
	EventDefinitionsImported  = "definitions.imported"
)

// SchemaEvent announces a committed schema change to downstream consumers
// such as search indexers or the purge scheduler.
type SchemaEvent struct {
	RequestID      string     `json:"request_id,omitempty"` // For distributed tracing
	EventID        string     `json:"event_id"`
	Type           string     `json:"type"`
	DefinitionID   string     `json:"definition_id,omitempty"`
	DefinitionName string     `json:"definition_name,omitempty"`
	Actor          string     `json:"actor,omitempty"`
	UsageCount     int64      `json:"usage_count,omitempty"`
	PurgeDueAt     *time.Time `json:"purge_due_at,omitempty"`
	OccurredAt     time.Time  `json:"occurred_at"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishSchemaEvent publishes a schema change event
	PublishSchemaEvent(ctx context.Context, event *SchemaEvent) error

	// Close releases any resources held by the publisher
	Close() error
}

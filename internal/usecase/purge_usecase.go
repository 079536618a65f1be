package usecase

import (
	"context"

	"github.com/google/uuid"
)

// PurgeUsecase runs the deferred purges of deprecated definitions.
type PurgeUsecase interface {
	// RunDue purges at most limit definitions whose retention window has
	// passed. A failing purge does not stop the rest of the batch.
	RunDue(ctx context.Context, limit int) (*PurgeReport, error)
}

// PurgeFailure describes one purge that could not be executed.
type PurgeFailure struct {
	DefinitionID   uuid.UUID `json:"definition_id"`
	DefinitionName string    `json:"definition_name"`
	Error          string    `json:"error"`
}

// PurgeReport summarizes one purge run.
type PurgeReport struct {
	Due      int            `json:"due"`
	Purged   int            `json:"purged"`
	Failures []PurgeFailure `json:"failures,omitempty"`
}

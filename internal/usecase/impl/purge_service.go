package impl

import (
	"context"
	"log/slog"
	"time"

	"attrschema/config"
	deliverycontext "attrschema/internal/delivery/context"
	"attrschema/internal/domain/entity"
	"attrschema/internal/domain/service"
	"attrschema/internal/errors"
	"attrschema/internal/usecase"

	"go.uber.org/fx"
)

// purgeService implements the PurgeUsecase interface on top of the definition service.
type purgeService struct {
	definitions usecase.DefinitionUsecase
	batchSize   int
	logger      *slog.Logger
	now         func() time.Time
}

// PurgeServiceParams holds dependencies for PurgeService, injected by Fx.
type PurgeServiceParams struct {
	fx.In

	Definitions usecase.DefinitionUsecase
	Config      *config.Config
	Logger      *slog.Logger
}

// NewPurgeService is the constructor for purgeService.
func NewPurgeService(params PurgeServiceParams) usecase.PurgeUsecase {
	batchSize := defaultPurgeBatch
	if params.Config != nil && params.Config.Schema != nil && params.Config.Schema.PurgeBatchSize > 0 {
		batchSize = params.Config.Schema.PurgeBatchSize
	}

	return &purgeService{
		definitions: params.Definitions,
		batchSize:   batchSize,
		logger:      params.Logger,
		now:         time.Now,
	}
}

func (srv *purgeService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// RunDue purges every definition whose retention window has passed.
// Purges run as the system actor.
func (srv *purgeService) RunDue(ctx context.Context, limit int) (*usecase.PurgeReport, error) {
	if limit <= 0 {
		limit = srv.batchSize
	}
	ctx = service.WithActor(ctx, entity.SystemActor)

	due, err := srv.definitions.DuePurges(ctx, srv.now(), limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list due purges")
	}

	report := &usecase.PurgeReport{Due: len(due)}
	for _, purge := range due {
		if err := ctx.Err(); err != nil {
			return report, errors.WithStack(err)
		}

		if err := srv.definitions.Purge(ctx, purge.DefinitionID); err != nil {
			srv.log(ctx).Error("Failed to purge attribute definition",
				slog.String("definition_id", purge.DefinitionID.String()),
				slog.String("definition_name", purge.DefinitionName),
				slog.Any("error", err),
			)
			report.Failures = append(report.Failures, usecase.PurgeFailure{
				DefinitionID:   purge.DefinitionID,
				DefinitionName: purge.DefinitionName,
				Error:          err.Error(),
			})

			continue
		}
		report.Purged++
	}

	srv.log(ctx).Info("Purge run completed",
		slog.Int("due", report.Due),
		slog.Int("purged", report.Purged),
		slog.Int("failed", len(report.Failures)),
	)

	return report, nil
}

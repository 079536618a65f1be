package worker

import (
	"context"
	"log/slog"
	"time"

	"attrschema/config"
	"attrschema/internal/delivery"
	"attrschema/internal/usecase"

	"go.uber.org/fx"
)

type purgeScheduler struct {
	interval time.Duration
	purgeUC  usecase.PurgeUsecase
	logger   *slog.Logger
	done     chan struct{}
}

// SchedulerParams holds dependencies for the purge scheduler
type SchedulerParams struct {
	fx.In

	Lc      fx.Lifecycle
	Cfg     *config.Config
	Logger  *slog.Logger
	PurgeUC usecase.PurgeUsecase
}

// NewPurgeScheduler runs due purges every schema.purgeInterval. With no
// interval configured it only waits for shutdown, leaving purges to pushes
// and the scheduler endpoint.
func NewPurgeScheduler(params SchedulerParams) delivery.Delivery {
	var interval time.Duration
	if params.Cfg.Schema != nil {
		interval = params.Cfg.Schema.PurgeInterval
	}

	s := &purgeScheduler{
		interval: interval,
		purgeUC:  params.PurgeUC,
		logger:   params.Logger,
		done:     make(chan struct{}),
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			close(s.done)

			return nil
		},
	})

	return s
}

// Serve blocks until the application stops or ctx is canceled.
func (s *purgeScheduler) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		s.logger.Info("Purge ticker disabled")
		select {
		case <-s.done:
		case <-ctx.Done():
		}

		return nil
	}

	s.logger.Info("Starting purge ticker", slog.Duration("interval", s.interval))
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return nil
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *purgeScheduler) runOnce(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-runCtx.Done():
		}
	}()

	if _, err := s.purgeUC.RunDue(runCtx, 0); err != nil {
		s.logger.Error("Scheduled purge run failed", slog.Any("error", err))
	}
}

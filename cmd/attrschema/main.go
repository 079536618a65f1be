package main

import (
	"context"
	"log/slog"
	"os"

	"attrschema/config"
	"attrschema/internal/attrkind"
	"attrschema/internal/delivery"
	"attrschema/internal/delivery/api"
	"attrschema/internal/delivery/api/router/handler"
	"attrschema/internal/delivery/middleware"
	"attrschema/internal/domain/service"
	"attrschema/internal/infra/auth"
	"attrschema/internal/infra/blob"
	"attrschema/internal/infra/cache"
	logs "attrschema/internal/infra/log"
	"attrschema/internal/infra/persistence/postgres"
	"attrschema/internal/infra/pubsub"
	"attrschema/internal/usecase/impl"
	"attrschema/internal/validation"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle
	fx.Shutdowner

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		postgres.New,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewTransactionManager,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewJWTService,
			service.NewContextAuthorizer,
			cache.New,
			pubsub.NewEventPublisher,
			blob.New,
			attrkind.NewDefaultRegistry,
			validation.NewFromConfig,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewDefinitionService,
			impl.NewValueService,
			impl.NewTransferService,
			impl.NewPurgeService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewDefinitionHandler,
			handler.NewValueHandler,
			handler.NewTransferHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))

				if shutdownErr := params.Shutdown(); shutdownErr != nil {
					slog.Error("Failed to shutdown gracefully", slog.Any("error", shutdownErr))
					os.Exit(1)
				}
			}
		}()
	}
}

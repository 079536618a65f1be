// Command schemactl administers an attribute schema deployment from the shell:
// database migrations, import and export documents, due purges and admin tokens.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"attrschema/config"
	"attrschema/internal/attrkind"
	"attrschema/internal/domain/entity"
	"attrschema/internal/domain/lifecycle"
	"attrschema/internal/domain/service"
	"attrschema/internal/errors"
	"attrschema/internal/infra/blob"
	"attrschema/internal/infra/cache"
	logs "attrschema/internal/infra/log"
	"attrschema/internal/infra/persistence/postgres"
	"attrschema/internal/infra/pubsub"
	"attrschema/internal/usecase/impl"
	"attrschema/internal/validation"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

const cliOrigin = "schemactl"

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

type rootFlags struct {
	actor string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "schemactl",
		Short:         "Administer attribute definitions and their stored values",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.actor, "actor", "system", "actor id recorded in the definition history")

	rootCmd.AddCommand(
		newMigrateCmd(),
		newExportCmd(flags),
		newImportCmd(flags),
		newValidateCmd(),
		newPurgeCmd(flags),
		newTokenCmd(),
	)

	return rootCmd
}

// actorContext marks ctx as a full-capability operator call.
func actorContext(ctx context.Context, flags *rootFlags) context.Context {
	actor := entity.SystemActor
	if flags.actor != "" {
		actor.ID = flags.actor
	}
	actor.Origin = cliOrigin

	return service.WithActor(ctx, actor)
}

func newCLILogger(cfg *config.Config) (*slog.Logger, error) {
	return logs.NewWithWriter(cfg, os.Stderr)
}

func baseOptions(ctx context.Context) fx.Option {
	return fx.Options(
		fx.NopLogger,
		fx.Provide(
			config.New,
			newCLILogger,
			func() context.Context { return ctx },
		),
	)
}

func storageOptions() fx.Option {
	return fx.Provide(
		postgres.New,
		postgres.NewTransactionManager,
		service.NewContextAuthorizer,
		cache.New,
		pubsub.NewEventPublisher,
		blob.New,
		attrkind.NewDefaultRegistry,
		validation.NewFromConfig,
		impl.NewDefinitionService,
		impl.NewTransferService,
		impl.NewPurgeService,
	)
}

// startApp builds and starts a short-lived fx graph, fills targets and
// returns the function that stops it.
func startApp(ctx context.Context, opts fx.Option, targets ...any) (func(), error) {
	app := fx.New(
		baseOptions(ctx),
		opts,
		fx.Populate(targets...),
	)

	startCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return nil, errors.Wrap(err, "failed to start schemactl")
	}

	return func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), lifecycle.DefaultTimeout)
		defer cancel()
		if err := app.Stop(stopCtx); err != nil {
			slog.Warn("Failed to stop schemactl cleanly", slog.Any("error", err))
		}
	}, nil
}

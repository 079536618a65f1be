package pubsub

import (
	"context"
	"log/slog"

	"attrschema/config"
	"attrschema/internal/domain/constants"
	"attrschema/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// discardPublisher drops schema events when no provider is configured.
type discardPublisher struct {
	logger *slog.Logger
}

func (p *discardPublisher) PublishSchemaEvent(_ context.Context, event *service.SchemaEvent) error {
	p.logger.Debug("Schema event dropped, no pubsub provider configured",
		slog.String("event_type", event.Type),
		slog.String("definition_id", event.DefinitionID),
		slog.String("definition_name", event.DefinitionName),
		slog.Int64("usage_count", event.UsageCount),
	)

	return nil
}

func (p *discardPublisher) Close() error {
	return nil
}

// PublisherParams holds dependencies for EventPublisher, injected by Fx
type PublisherParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewEventPublisher builds the schema event publisher for the configured
// provider and closes it when the app stops.
func NewEventPublisher(params PublisherParams) (service.EventPublisher, error) {
	logger := params.Logger.With(slog.String("component", "schema-events"))

	publisher, err := openPublisher(params.Ctx, params.Config.PubSub, logger)
	if err != nil {
		return nil, err
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing schema event publisher")

			return publisher.Close()
		},
	})

	return publisher, nil
}

// openPublisher picks the publisher for cfg. A nil config or an empty
// provider disables publishing.
func openPublisher(ctx context.Context, cfg *config.PubSubConfig, logger *slog.Logger) (service.EventPublisher, error) {
	if cfg == nil || cfg.Provider == "" {
		logger.Info("Schema events are not published: pubsub provider is empty")

		return &discardPublisher{logger: logger}, nil
	}

	switch cfg.Provider {
	case constants.PubSubProviderLocal:
		if cfg.LocalEndpoint == "" {
			return nil, errors.New("pubsub.localEndpoint is required for the local provider")
		}
		logger.Info("Pushing schema events to local endpoint", slog.String("endpoint", cfg.LocalEndpoint))

		return NewLocalHTTPPublisher(cfg.LocalEndpoint, logger), nil

	case constants.PubSubProviderGoogle:
		if cfg.ProjectID == "" || cfg.TopicID == "" {
			return nil, errors.New("pubsub.projectId and pubsub.topicId are required for the google provider")
		}
		logger.Info("Publishing schema events to Google Pub/Sub",
			slog.String("project_id", cfg.ProjectID),
			slog.String("topic_id", cfg.TopicID),
		)

		return NewGooglePubSubPublisher(ctx, cfg.ProjectID, cfg.TopicID, logger)

	default:
		return nil, errors.Errorf("unknown pubsub provider %q, want %q or %q",
			cfg.Provider, constants.PubSubProviderLocal, constants.PubSubProviderGoogle)
	}
}

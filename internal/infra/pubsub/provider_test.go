package pubsub

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"attrschema/config"
	"attrschema/internal/domain/constants"
	"attrschema/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenPublisher(t *testing.T) {
	t.Parallel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name    string
		cfg     *config.PubSubConfig
		want    service.EventPublisher
		wantErr string
	}{
		{name: "missing section", cfg: nil, want: &discardPublisher{}},
		{name: "empty provider", cfg: &config.PubSubConfig{}, want: &discardPublisher{}},
		{
			name: "local",
			cfg:  &config.PubSubConfig{Provider: constants.PubSubProviderLocal, LocalEndpoint: "http://localhost:8081/push"},
			want: &localHTTPPublisher{},
		},
		{
			name:    "local without endpoint",
			cfg:     &config.PubSubConfig{Provider: constants.PubSubProviderLocal},
			wantErr: "pubsub.localEndpoint",
		},
		{
			name:    "google without topic",
			cfg:     &config.PubSubConfig{Provider: constants.PubSubProviderGoogle, ProjectID: "attrschema-dev"},
			wantErr: "pubsub.topicId",
		},
		{
			name:    "unknown provider",
			cfg:     &config.PubSubConfig{Provider: "kafka"},
			wantErr: `unknown pubsub provider "kafka"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			publisher, err := openPublisher(context.Background(), tt.cfg, logger)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				assert.Nil(t, publisher)

				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, publisher)
			assert.NoError(t, publisher.Close())
		})
	}
}

func TestDiscardPublisher_AcceptsEvents(t *testing.T) {
	t.Parallel()

	publisher := &discardPublisher{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	err := publisher.PublishSchemaEvent(context.Background(), &service.SchemaEvent{
		Type:           service.EventDefinitionUpdated,
		DefinitionID:   "0b4f4e4a-6c5d-4a53-9d3b-8d8c7a0f3b11",
		DefinitionName: "eye_color",
	})
	assert.NoError(t, err)
}

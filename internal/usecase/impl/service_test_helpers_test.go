package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"attrschema/config"
	"attrschema/internal/attrkind"
	"attrschema/internal/domain/entity"
	"attrschema/internal/domain/repository"
	"attrschema/internal/domain/service"
	"attrschema/internal/errors"
	"attrschema/internal/infra/cache"
	"attrschema/internal/infra/persistence/memory"
	"attrschema/internal/usecase"
	"attrschema/internal/validation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	return &config.Config{
		Schema: &config.SchemaConfig{PurgeRetentionDays: 30, StatsTTL: time.Minute},
		Export: &config.ExportConfig{Origin: "test"},
	}
}

// mockPublisher records published schema events.
type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishSchemaEvent(ctx context.Context, event *service.SchemaEvent) error {
	args := m.Called(ctx, event)

	return args.Error(0)
}

func (m *mockPublisher) Close() error {
	return nil
}

func (m *mockPublisher) eventTypes() []string {
	var types []string
	for _, call := range m.Calls {
		if call.Method != "PublishSchemaEvent" {
			continue
		}
		types = append(types, call.Arguments.Get(1).(*service.SchemaEvent).Type)
	}

	return types
}

// schemaFixtures holds all test dependencies for the schema services.
type schemaFixtures struct {
	store       *memory.Store
	txManager   repository.TransactionManager
	cache       *cache.GroupedCache
	publisher   *mockPublisher
	definitions *definitionService
	values      *valueService
	transfer    *transferService
	clock       time.Time
}

var testClock = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func createTestSchemaServices(t *testing.T) schemaFixtures {
	t.Helper()

	store := memory.NewStore()
	txManager := memory.NewTransactionManager(store)
	groupedCache := cache.NewGroupedCache(time.Hour, 0, newDiscardLogger())
	publisher := &mockPublisher{}
	publisher.On("PublishSchemaEvent", mock.Anything, mock.Anything).Return(nil).Maybe()
	validator := validation.New(attrkind.NewDefaultRegistry(), validation.DefaultPolicy())
	cfg := newTestConfig()
	logger := newDiscardLogger()

	definitions := newDefinitionService(DefinitionServiceParams{
		TxManager: txManager,
		Validator: validator,
		Cache:     groupedCache,
		Publisher: publisher,
		Config:    cfg,
		Logger:    logger,
	})
	values := NewValueService(ValueServiceParams{
		TxManager: txManager,
		Validator: validator,
		Cache:     groupedCache,
		Logger:    logger,
	}).(*valueService)
	transfer := newTransferService(TransferServiceParams{
		TxManager:   txManager,
		Validator:   validator,
		Cache:       groupedCache,
		Publisher:   publisher,
		ExportStore: newMemoryExportStore(),
		Config:      cfg,
		Logger:      logger,
	})

	clock := func() time.Time { return testClock }
	definitions.now = clock
	values.now = clock
	transfer.now = clock
	transfer.definitions.now = clock
	transfer.values.now = clock

	return schemaFixtures{
		store:       store,
		txManager:   txManager,
		cache:       groupedCache,
		publisher:   publisher,
		definitions: definitions,
		values:      values,
		transfer:    transfer,
		clock:       testClock,
	}
}

func adminContext() context.Context {
	return service.WithActor(context.Background(), entity.SystemActor)
}

func memberContext(principalID uuid.UUID) context.Context {
	return service.WithActor(context.Background(), entity.Actor{ID: principalID.String()})
}

func eyeColorInput() *usecase.DefinitionInput {
	return &usecase.DefinitionInput{
		Name:    "eye_color",
		Label:   "Eye Color",
		Kind:    "select",
		Options: entity.NewDocument("choices", entity.NewDocument("brown", "Brown", "blue", "Blue", "green", "Green")),
		Group:   "appearance",
	}
}

func textInput(name, group string) *usecase.DefinitionInput {
	return &usecase.DefinitionInput{
		Name:  name,
		Label: name,
		Kind:  "text",
		Group: group,
	}
}

func ptr[T any](v T) *T {
	return &v
}

// seedDefinition stores def directly, bypassing the service rules.
func seedDefinition(t *testing.T, f schemaFixtures, def *entity.AttributeDefinition) *entity.AttributeDefinition {
	t.Helper()

	if def.ID == uuid.Nil {
		def.ID = uuid.New()
	}
	err := f.txManager.Execute(context.Background(), func(repoFactory repository.RepositoryFactory) error {
		return repoFactory.DefinitionRepo().Create(context.Background(), def)
	})
	require.NoError(t, err)

	return def
}

// memoryExportStore keeps export documents in a map.
type memoryExportStore struct {
	objects map[string][]byte
}

func newMemoryExportStore() *memoryExportStore {
	return &memoryExportStore{objects: map[string][]byte{}}
}

func (s *memoryExportStore) Write(_ context.Context, key string, data []byte) error {
	s.objects[key] = append([]byte(nil), data...)

	return nil
}

func (s *memoryExportStore) Read(_ context.Context, key string) ([]byte, error) {
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.Wrap(service.ErrObjectNotFound, key)
	}

	return data, nil
}

func (s *memoryExportStore) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	for key := range s.objects {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			keys = append(keys, key)
		}
	}

	return keys, nil
}

func (s *memoryExportStore) Close() error {
	return nil
}

package impl

import (
	"context"
	"testing"
	"time"

	"attrschema/internal/domain/entity"
	"attrschema/internal/errors"
	"attrschema/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPurgeService(f schemaFixtures, now time.Time) *purgeService {
	srv := NewPurgeService(PurgeServiceParams{
		Definitions: f.definitions,
		Config:      newTestConfig(),
		Logger:      newDiscardLogger(),
	}).(*purgeService)
	srv.now = func() time.Time { return now }

	return srv
}

func deprecateWithValue(t *testing.T, f schemaFixtures, input *usecase.DefinitionInput) (*entity.AttributeDefinition, uuid.UUID) {
	t.Helper()
	ctx := adminContext()

	created, err := f.definitions.Create(ctx, input)
	require.NoError(t, err)
	principal := uuid.New()
	_, err = f.values.SaveValue(ctx, &usecase.SaveValueInput{PrincipalID: principal, DefinitionID: created.ID, Value: "brown"})
	require.NoError(t, err)
	require.Error(t, f.definitions.Delete(ctx, created.ID, false))

	return created, principal
}

func TestPurgeService_RunDue_PurgesExpired(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)
	created, principal := deprecateWithValue(t, f, eyeColorInput())

	// Runs without an actor in the context: purges execute as the system actor.
	early := newTestPurgeService(f, f.clock.Add(24*time.Hour))
	report, err := early.RunDue(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Due)

	late := newTestPurgeService(f, f.clock.Add(31*24*time.Hour))
	report, err = late.RunDue(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Due)
	assert.Equal(t, 1, report.Purged)
	assert.Empty(t, report.Failures)

	_, err = f.definitions.Get(adminContext(), created.ID)
	require.Error(t, err)
	values, err := f.values.GetValues(adminContext(), principal)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestPurgeService_RunDue_RespectsLimit(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)
	deprecateWithValue(t, f, eyeColorInput())
	second := eyeColorInput()
	second.Name = "hair_color"
	second.Label = "Hair Color"
	deprecateWithValue(t, f, second)

	srv := newTestPurgeService(f, f.clock.Add(31*24*time.Hour))
	report, err := srv.RunDue(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Due)
	assert.Equal(t, 1, report.Purged)

	report, err = srv.RunDue(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Purged)

	report, err = srv.RunDue(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Due)
}

func TestPurgeService_RunDue_ReactivatedDefinitionSurvives(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)
	created, principal := deprecateWithValue(t, f, eyeColorInput())

	_, err := f.definitions.ChangeStatus(adminContext(), created.ID, entity.StatusActive, "still needed")
	require.NoError(t, err)

	srv := newTestPurgeService(f, f.clock.Add(31*24*time.Hour))
	report, err := srv.RunDue(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, report.Failures)

	got, err := f.definitions.Get(adminContext(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusActive, got.Status)
	values, err := f.values.GetValues(adminContext(), principal)
	require.NoError(t, err)
	assert.Len(t, values, 1)
}

func TestPurgeService_RunDue_StorageFailureIsReported(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)
	deprecateWithValue(t, f, eyeColorInput())

	f.store.WithWriteError(errors.New("disk full"))
	t.Cleanup(func() { f.store.WithWriteError(nil) })

	srv := newTestPurgeService(f, f.clock.Add(31*24*time.Hour))
	report, err := srv.RunDue(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Due)
	assert.Equal(t, 0, report.Purged)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "eye_color", report.Failures[0].DefinitionName)
}

package impl

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"attrschema/internal/domain/entity"
	domainerrors "attrschema/internal/domain/errors"
	"attrschema/internal/domain/repository"
	"attrschema/internal/domain/service"
	"attrschema/internal/errors"
	"attrschema/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestDefinitionService_Create_AppliesDefaults(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)
	ctx := adminContext()

	created, err := f.definitions.Create(ctx, &usecase.DefinitionInput{Name: "nickname", Label: "Nickname", Kind: "text"})
	require.NoError(t, err)

	got, err := f.definitions.GetByName(ctx, "nickname")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, entity.StatusActive, got.Status)
	assert.Equal(t, entity.WidthFull, got.Width)
	assert.Equal(t, entity.DefaultGroup, got.Group)
	assert.Equal(t, 10, got.Order)
	assert.True(t, got.IsPublic)
	assert.True(t, got.IsEditable)
	assert.False(t, got.IsSystem)
	assert.Equal(t, entity.SystemActor.ID, got.CreatedBy)
	assert.Equal(t, f.clock, got.CreatedAt)
	assert.Equal(t, []string{service.EventDefinitionCreated}, f.publisher.eventTypes())
}

func TestDefinitionService_Create_AppendsToGroup(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)
	ctx := adminContext()

	order := 30
	height := textInput("height_note", "appearance")
	height.Order = &order
	_, err := f.definitions.Create(ctx, height)
	require.NoError(t, err)

	created, err := f.definitions.Create(ctx, eyeColorInput())
	require.NoError(t, err)
	assert.Equal(t, 40, created.Order)

	other, err := f.definitions.Create(ctx, textInput("motto", "about"))
	require.NoError(t, err)
	assert.Equal(t, 10, other.Order, "an empty group starts at the first step")

	history, err := f.definitions.History(ctx, created.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entity.ChangeCreated, history[0].ChangeType)
	assert.Nil(t, history[0].OldSnapshot)
	assert.Equal(t, "eye_color", history[0].NewSnapshot.String("name"))
}

func TestDefinitionService_Create_DuplicateName(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)
	ctx := adminContext()

	_, err := f.definitions.Create(ctx, eyeColorInput())
	require.NoError(t, err)

	_, err = f.definitions.Create(ctx, eyeColorInput())
	assert.ErrorIs(t, err, domainerrors.ErrDuplicateName)
}

func TestDefinitionService_Create_ConcurrentSameName(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)
	ctx := adminContext()

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		dupes     int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.definitions.Create(ctx, eyeColorInput())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, domainerrors.ErrDuplicateName):
				dupes++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, dupes)
}

func TestDefinitionService_Create_ReportsEveryProblem(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)

	_, err := f.definitions.Create(adminContext(), &usecase.DefinitionInput{Name: "1bad", Label: "", Kind: "hologram"})
	require.ErrorIs(t, err, domainerrors.ErrValidationFailed)

	ve, ok := errors.AsType[*domainerrors.ValidationError](err)
	require.True(t, ok)
	assert.True(t, ve.HasField("name"), "fields: %+v", ve.Fields)
	assert.True(t, ve.HasField("label"), "fields: %+v", ve.Fields)
	assert.True(t, ve.HasField("kind"), "fields: %+v", ve.Fields)
	assert.Empty(t, f.publisher.eventTypes())
}

func TestDefinitionService_Create_PermissionDenied(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)

	_, err := f.definitions.Create(memberContext(uuid.New()), eyeColorInput())
	require.ErrorIs(t, err, domainerrors.ErrPermissionDenied)

	_, err = f.definitions.GetByName(adminContext(), "eye_color")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestDefinitionService_Create_StripsMarkupFromText(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)

	input := eyeColorInput()
	input.HelpText = "Pick <b>one</b>"
	created, err := f.definitions.Create(adminContext(), input)
	require.NoError(t, err)
	assert.Equal(t, "Pick one", created.HelpText)
}

func TestDefinitionService_Create_RollsBackOnStorageFailure(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)
	ctx := adminContext()

	f.store.WithWriteError(errors.New("disk full"))
	_, err := f.definitions.Create(ctx, eyeColorInput())
	require.ErrorIs(t, err, domainerrors.ErrStorage)

	f.store.WithWriteError(nil)
	_, err = f.definitions.GetByName(ctx, "eye_color")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	created, err := f.definitions.Create(ctx, eyeColorInput())
	require.NoError(t, err)
	assert.Equal(t, 10, created.Order)
}

func TestDefinitionService_Create_OrdersIncreaseWithinGroup(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		f := createTestSchemaServices(t)
		ctx := adminContext()

		n := rapid.IntRange(1, 8).Draw(rt, "count")
		group := rapid.SampledFrom([]string{"general", "appearance", "about"}).Draw(rt, "group")
		for i := range n {
			created, err := f.definitions.Create(ctx, textInput(fmt.Sprintf("field_%d", i), group))
			if err != nil {
				rt.Fatalf("create %d: %v", i, err)
			}
			if created.Order != (i+1)*orderStep {
				rt.Fatalf("definition %d got order %d", i, created.Order)
			}
		}
	})
}

func TestDefinitionService_Update(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)
	ctx := adminContext()

	created, err := f.definitions.Create(ctx, eyeColorInput())
	require.NoError(t, err)

	// Warm the cache so the update has to invalidate it.
	_, err = f.definitions.Get(ctx, created.ID)
	require.NoError(t, err)

	input := eyeColorInput()
	input.Label = "Colour of eyes"
	updated, err := f.definitions.Update(ctx, created.ID, input, false)
	require.NoError(t, err)
	assert.Equal(t, "Colour of eyes", updated.Label)
	assert.Equal(t, created.Order, updated.Order, "order is kept when the group is unchanged")
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)

	got, err := f.definitions.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Colour of eyes", got.Label)

	history, err := f.definitions.History(ctx, created.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, entity.ChangeUpdated, history[0].ChangeType)
	assert.Equal(t, "Eye Color", history[0].OldSnapshot.String("label"))
}

func TestDefinitionService_Update_KeepsOmittedFields(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)
	ctx := adminContext()

	nickname, err := f.definitions.Create(ctx, &usecase.DefinitionInput{
		Name:            "nickname",
		Label:           "Nickname",
		Kind:            "text",
		Description:     "What friends call you",
		HelpText:        "Shown on the profile card",
		MaxLength:       ptr(20),
		ValidationRules: entity.ValidationRules{Required: true, MaxLength: ptr(20)},
		IsRequired:      ptr(true),
		IsSearchable:    ptr(true),
	})
	require.NoError(t, err)

	updated, err := f.definitions.Update(ctx, nickname.ID, &usecase.DefinitionInput{Label: "Nick", Kind: "text"}, false)
	require.NoError(t, err)
	assert.Equal(t, "Nick", updated.Label)
	assert.Equal(t, "What friends call you", updated.Description)
	assert.Equal(t, "Shown on the profile card", updated.HelpText)
	require.NotNil(t, updated.MaxLength)
	assert.Equal(t, 20, *updated.MaxLength)
	assert.Equal(t, nickname.ValidationRules, updated.ValidationRules)
	assert.True(t, updated.IsRequired)
	assert.True(t, updated.IsSearchable)
	assert.True(t, updated.IsPublic)

	// Clearing a flag needs an explicit false.
	updated, err = f.definitions.Update(ctx, nickname.ID, &usecase.DefinitionInput{IsSearchable: ptr(false)}, false)
	require.NoError(t, err)
	assert.False(t, updated.IsSearchable)
	assert.True(t, updated.IsRequired)
	assert.Equal(t, "Nick", updated.Label)

	// A select keeps its choices when only the label changes.
	eyeColor, err := f.definitions.Create(ctx, eyeColorInput())
	require.NoError(t, err)
	updated, err = f.definitions.Update(ctx, eyeColor.ID, &usecase.DefinitionInput{Label: "Iris", Kind: "select"}, false)
	require.NoError(t, err)
	assert.Equal(t, "Iris", updated.Label)
	assert.Equal(t, eyeColor.Options, updated.Options)
	assert.Equal(t, "appearance", updated.Group)
	assert.Equal(t, eyeColor.Order, updated.Order)
}

func TestDefinitionService_Update_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		system  bool
		force   bool
		mutate  func(in *usecase.DefinitionInput)
		wantErr error
	}{
		{
			name:    "rename is rejected",
			mutate:  func(in *usecase.DefinitionInput) { in.Name = "iris_color" },
			wantErr: domainerrors.ErrValidationFailed,
		},
		{
			name:    "system definition without force",
			system:  true,
			mutate:  func(in *usecase.DefinitionInput) { in.Label = "Eyes" },
			wantErr: domainerrors.ErrSystemProtected,
		},
		{
			name:   "system definition with force",
			system: true,
			force:  true,
			mutate: func(in *usecase.DefinitionInput) { in.Label = "Eyes" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := createTestSchemaServices(t)
			ctx := adminContext()

			def := seedDefinition(t, f, &entity.AttributeDefinition{
				Name:       "eye_color",
				Label:      "Eye Color",
				Kind:       "text",
				Group:      "appearance",
				Order:      10,
				Status:     entity.StatusActive,
				Width:      entity.WidthFull,
				IsPublic:   true,
				IsEditable: true,
				IsSystem:   tt.system,
			})

			input := usecase.DefinitionInputFrom(def)
			tt.mutate(input)
			_, err := f.definitions.Update(ctx, def.ID, input, tt.force)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)

				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDefinitionService_Update_NotFound(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)

	_, err := f.definitions.Update(adminContext(), uuid.New(), eyeColorInput(), false)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestDefinitionService_Delete_WithoutValues(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)
	ctx := adminContext()

	created, err := f.definitions.Create(ctx, eyeColorInput())
	require.NoError(t, err)

	require.NoError(t, f.definitions.Delete(ctx, created.ID, false))

	_, err = f.definitions.Get(ctx, created.ID)
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	history, err := f.definitions.History(ctx, created.ID, 10)
	require.NoError(t, err)
	require.NotEmpty(t, history)
	assert.Equal(t, entity.ChangeDeleted, history[0].ChangeType)
	assert.Contains(t, f.publisher.eventTypes(), service.EventDefinitionDeleted)
}

func TestDefinitionService_Delete_WithValuesDeprecates(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)
	ctx := adminContext()

	created, err := f.definitions.Create(ctx, eyeColorInput())
	require.NoError(t, err)
	principal := uuid.New()
	_, err = f.values.SaveValue(ctx, &usecase.SaveValueInput{PrincipalID: principal, DefinitionID: created.ID, Value: "brown"})
	require.NoError(t, err)

	err = f.definitions.Delete(ctx, created.ID, false)
	require.ErrorIs(t, err, domainerrors.ErrHasDependentData)
	dependent, ok := errors.AsType[*domainerrors.DependentDataError](err)
	require.True(t, ok)
	assert.Equal(t, int64(1), dependent.UsageCount)
	assert.Contains(t, f.publisher.eventTypes(), service.EventDefinitionDeprecated)
	assert.Contains(t, f.publisher.eventTypes(), service.EventPurgeScheduled)

	got, err := f.definitions.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDeprecated, got.Status)

	values, err := f.values.GetValues(ctx, principal)
	require.NoError(t, err)
	assert.Len(t, values, 1, "values survive until the purge runs")

	due, err := f.definitions.DuePurges(ctx, f.clock, 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = f.definitions.DuePurges(ctx, f.clock.Add(31*24*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, created.ID, due[0].DefinitionID)
	assert.Equal(t, f.clock.Add(30*24*time.Hour), due[0].DueAt)

	// A second delete keeps the original schedule.
	err = f.definitions.Delete(ctx, created.ID, false)
	require.ErrorIs(t, err, domainerrors.ErrHasDependentData)

	require.NoError(t, f.definitions.Purge(ctx, created.ID))

	_, err = f.definitions.Get(ctx, created.ID)
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
	values, err = f.values.GetValues(ctx, principal)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestDefinitionService_Delete_ForceRemovesValues(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)
	ctx := adminContext()

	created, err := f.definitions.Create(ctx, eyeColorInput())
	require.NoError(t, err)
	principal := uuid.New()
	_, err = f.values.SaveValue(ctx, &usecase.SaveValueInput{PrincipalID: principal, DefinitionID: created.ID, Value: "blue"})
	require.NoError(t, err)

	require.NoError(t, f.definitions.Delete(ctx, created.ID, true))

	values, err := f.values.GetValues(ctx, principal)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestDefinitionService_Delete_SystemProtected(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)

	def := seedDefinition(t, f, &entity.AttributeDefinition{
		Name: "display_name", Label: "Display name", Kind: "text", Group: entity.DefaultGroup,
		Status: entity.StatusActive, Width: entity.WidthFull, IsSystem: true,
	})

	err := f.definitions.Delete(adminContext(), def.ID, false)
	assert.ErrorIs(t, err, domainerrors.ErrSystemProtected)
}

func TestDefinitionService_ChangeStatus_ReactivationCancelsPurge(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)
	ctx := adminContext()

	created, err := f.definitions.Create(ctx, eyeColorInput())
	require.NoError(t, err)
	_, err = f.values.SaveValue(ctx, &usecase.SaveValueInput{PrincipalID: uuid.New(), DefinitionID: created.ID, Value: "green"})
	require.NoError(t, err)
	require.ErrorIs(t, f.definitions.Delete(ctx, created.ID, false), domainerrors.ErrHasDependentData)

	reactivated, err := f.definitions.ChangeStatus(ctx, created.ID, entity.StatusActive, "still in use")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusActive, reactivated.Status)

	due, err := f.definitions.DuePurges(ctx, f.clock.Add(365*24*time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	err = f.definitions.Purge(ctx, created.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestDefinitionService_ChangeStatus_RejectsTransition(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)
	ctx := adminContext()

	input := eyeColorInput()
	input.Status = entity.StatusDraft
	created, err := f.definitions.Create(ctx, input)
	require.NoError(t, err)

	_, err = f.definitions.ChangeStatus(ctx, created.ID, entity.StatusArchived, "")
	require.ErrorIs(t, err, domainerrors.ErrValidationFailed)

	activated, err := f.definitions.ChangeStatus(ctx, created.ID, entity.StatusActive, "ready")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusActive, activated.Status)

	history, err := f.definitions.History(ctx, created.ID, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, entity.ChangeStatusChange, history[0].ChangeType)
	assert.Equal(t, "ready", history[0].Reason)
}

func TestDefinitionService_BulkChangeStatus(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)
	ctx := adminContext()

	created, err := f.definitions.Create(ctx, eyeColorInput())
	require.NoError(t, err)
	missing := uuid.New()

	result, err := f.definitions.BulkChangeStatus(ctx, []uuid.UUID{created.ID, missing}, entity.StatusInactive, "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, entity.StatusInactive, result.Outcomes[0].Status)
	assert.Equal(t, missing, result.Outcomes[1].ID)
	assert.NotEmpty(t, result.Outcomes[1].Error)
}

func TestDefinitionService_Reorder(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)
	ctx := adminContext()

	a, err := f.definitions.Create(ctx, textInput("field_a", "appearance"))
	require.NoError(t, err)
	b, err := f.definitions.Create(ctx, textInput("field_b", "appearance"))
	require.NoError(t, err)

	// Warm the listing cache.
	_, err = f.definitions.List(ctx, repository.DefinitionFilter{Groups: []string{"appearance"}})
	require.NoError(t, err)

	err = f.definitions.Reorder(ctx, map[uuid.UUID]usecase.Placement{
		a.ID: {Order: 20},
		b.ID: {Order: 10},
	})
	require.NoError(t, err)

	page, err := f.definitions.List(ctx, repository.DefinitionFilter{Groups: []string{"appearance"}})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, []string{"field_b", "field_a"}, []string{page.Items[0].Name, page.Items[1].Name})
}

func TestDefinitionService_Reorder_UnknownIDRollsBack(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)
	ctx := adminContext()

	a, err := f.definitions.Create(ctx, textInput("field_a", "appearance"))
	require.NoError(t, err)

	err = f.definitions.Reorder(ctx, map[uuid.UUID]usecase.Placement{
		a.ID:       {Order: 99, Group: "about"},
		uuid.New(): {Order: 1},
	})
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	got, err := f.definitions.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Order)
	assert.Equal(t, "appearance", got.Group)
}

func TestDefinitionService_Duplicate(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)
	ctx := adminContext()

	source, err := f.definitions.Create(ctx, eyeColorInput())
	require.NoError(t, err)

	first, err := f.definitions.Duplicate(ctx, source.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "eye_color_copy", first.Name)
	assert.Equal(t, entity.StatusDraft, first.Status)
	assert.Equal(t, 20, first.Order)
	assert.Equal(t, source.Choices().Values(), first.Choices().Values())

	second, err := f.definitions.Duplicate(ctx, source.ID, "about")
	require.NoError(t, err)
	assert.Equal(t, "eye_color_copy_1", second.Name)
	assert.Equal(t, "about", second.Group)
	assert.Equal(t, 10, second.Order)
}

func TestDefinitionService_ListGroupsAndStats(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)
	ctx := adminContext()

	_, err := f.definitions.SaveGroup(ctx, &usecase.GroupInput{Key: "appearance", Label: "Appearance", Order: 1})
	require.NoError(t, err)
	_, err = f.definitions.Create(ctx, eyeColorInput())
	require.NoError(t, err)
	_, err = f.definitions.Create(ctx, textInput("motto", "about"))
	require.NoError(t, err)

	groups, err := f.definitions.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "about", groups[0].Key)
	assert.Equal(t, 1, groups[0].Count)
	assert.Equal(t, "appearance", groups[1].Key)
	assert.Equal(t, "Appearance", groups[1].Label)

	stats, err := f.definitions.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(1), stats.ByKind["select"])

	_, err = f.definitions.Create(ctx, textInput("nickname", ""))
	require.NoError(t, err)
	stats, err = f.definitions.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
}

func TestDefinitionService_SaveGroup_Invalid(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)

	_, err := f.definitions.SaveGroup(adminContext(), &usecase.GroupInput{Key: "Bad Key", Label: "Bad"})
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}

func TestDefinitionService_History_RequiresCapability(t *testing.T) {
	t.Parallel()
	f := createTestSchemaServices(t)

	_, err := f.definitions.History(memberContext(uuid.New()), uuid.New(), 10)
	assert.ErrorIs(t, err, domainerrors.ErrPermissionDenied)

	_, err = f.definitions.DuePurges(context.Background(), time.Now(), 10)
	assert.ErrorIs(t, err, domainerrors.ErrPermissionDenied)
}

// Package impl contains the application-specific business rules implementations.
package impl

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"attrschema/config"
	"attrschema/internal/attrkind"
	deliverycontext "attrschema/internal/delivery/context"
	"attrschema/internal/domain/constants"
	"attrschema/internal/domain/entity"
	domainerrors "attrschema/internal/domain/errors"
	"attrschema/internal/domain/repository"
	"attrschema/internal/domain/service"
	"attrschema/internal/errors"
	"attrschema/internal/usecase"
	"attrschema/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

const (
	orderStep          = 10
	maxNameLength      = 64
	maxNameAttempts    = 1000
	defaultHistorySize = 50
	defaultPurgeBatch  = 100
)

// definitionService implements the DefinitionUsecase interface.
type definitionService struct {
	txManager  repository.TransactionManager
	validator  *validation.Validator
	cache      schemaCache
	publisher  service.EventPublisher
	authorizer service.Authorizer
	retention  time.Duration
	statsTTL   time.Duration
	logger     *slog.Logger
	now        func() time.Time
}

// DefinitionServiceParams holds dependencies for DefinitionService, injected by Fx.
type DefinitionServiceParams struct {
	fx.In

	TxManager  repository.TransactionManager
	Validator  *validation.Validator
	Cache      service.Cache          `optional:"true"`
	Publisher  service.EventPublisher `optional:"true"`
	Authorizer service.Authorizer     `optional:"true"`
	Config     *config.Config
	Logger     *slog.Logger
}

// NewDefinitionService is the constructor for definitionService.
func NewDefinitionService(params DefinitionServiceParams) usecase.DefinitionUsecase {
	return newDefinitionService(params)
}

func newDefinitionService(params DefinitionServiceParams) *definitionService {
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	authorizer := params.Authorizer
	if authorizer == nil {
		authorizer = service.NewContextAuthorizer()
	}

	var schemaCfg *config.SchemaConfig
	if params.Config != nil {
		schemaCfg = params.Config.Schema
	}
	statsTTL := 5 * time.Minute
	if schemaCfg != nil && schemaCfg.StatsTTL > 0 {
		statsTTL = schemaCfg.StatsTTL
	}

	return &definitionService{
		txManager:  params.TxManager,
		validator:  params.Validator,
		cache:      schemaCache{cache: params.Cache, logger: logger},
		publisher:  params.Publisher,
		authorizer: authorizer,
		retention:  schemaCfg.PurgeRetention(),
		statsTTL:   statsTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *definitionService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *definitionService) authorize(ctx context.Context, capability string) error {
	if srv.authorizer.Can(ctx, capability) {
		return nil
	}
	actor := service.ActorFromContext(ctx)
	srv.log(ctx).Warn("Permission denied", "actor", actor.ID, "capability", capability)

	return errors.Wrapf(domainerrors.ErrPermissionDenied, "actor %s lacks %s", actor.ID, capability)
}

// Create validates and stores a new definition.
func (srv *definitionService) Create(ctx context.Context, input *usecase.DefinitionInput) (*entity.AttributeDefinition, error) {
	srv.log(ctx).Info("Creating attribute definition", "name", input.Name, "kind", input.Kind)

	if err := srv.authorize(ctx, constants.CapabilityManage); err != nil {
		return nil, err
	}

	var created *entity.AttributeDefinition
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		def, err := srv.createInTx(ctx, repoFactory, input)
		if err != nil {
			return err
		}
		created = def

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create attribute definition")
	}

	srv.cache.invalidateDefinitions(ctx, created)
	srv.publish(ctx, definitionEvent(service.EventDefinitionCreated, created))

	return created, nil
}

// createInTx runs the create pipeline inside an open transaction.
func (srv *definitionService) createInTx(ctx context.Context, repoFactory repository.RepositoryFactory, input *usecase.DefinitionInput) (*entity.AttributeDefinition, error) {
	definitionRepo := repoFactory.DefinitionRepo()

	// 1. Apply defaults and build the candidate
	in := *input
	in.Normalize()
	def := &entity.AttributeDefinition{ID: uuid.New(), Name: in.Name}
	in.Apply(def)
	sanitizeDefinitionText(def)

	// 2. Validate every field at once
	report := srv.validator.ValidateDefinition(def, nil)
	srv.logWarnings(ctx, def.Name, report)
	if err := report.Err(); err != nil {
		return nil, err
	}

	// 3. Reject a taken name before touching storage
	if _, err := definitionRepo.FindByName(ctx, def.Name); err == nil {
		return nil, errors.Wrapf(domainerrors.ErrDuplicateName, "name %q", def.Name)
	} else if !errors.Is(err, repository.ErrDefinitionNotFound) {
		return nil, storageError(err, "failed to check definition name")
	}

	// 4. Append to the end of the group unless an order was given
	if input.Order == nil {
		order, err := srv.nextOrder(ctx, definitionRepo, def.Group)
		if err != nil {
			return nil, err
		}
		def.Order = order
	}

	actor := service.ActorFromContext(ctx)
	now := srv.now()
	def.CreatedBy, def.UpdatedBy = actor.ID, actor.ID
	def.CreatedAt, def.UpdatedAt = now, now

	// 5. Persist; the unique constraint settles racing creates
	if err := definitionRepo.Create(ctx, def); err != nil {
		if errors.Is(err, repository.ErrDuplicateDefinitionName) {
			return nil, errors.Wrapf(domainerrors.ErrDuplicateName, "name %q", def.Name)
		}

		return nil, storageError(err, "failed to create definition")
	}

	// 6. Audit
	if err := srv.appendHistory(ctx, repoFactory, def.ID, entity.ChangeCreated, nil, def, ""); err != nil {
		return nil, err
	}

	return def, nil
}

func (srv *definitionService) nextOrder(ctx context.Context, repo repository.DefinitionRepository, group string) (int, error) {
	maxOrder, found, err := repo.MaxOrder(ctx, group)
	if err != nil {
		return 0, storageError(err, "failed to read group order")
	}
	if !found {
		maxOrder = 0
	}

	return maxOrder + orderStep, nil
}

// Update changes the mutable fields of a definition. Fields the input leaves
// out keep their stored value.
func (srv *definitionService) Update(ctx context.Context, id uuid.UUID, input *usecase.DefinitionInput, force bool) (*entity.AttributeDefinition, error) {
	srv.log(ctx).Info("Updating attribute definition", "id", id, "force", force)

	if err := srv.authorize(ctx, constants.CapabilityManage); err != nil {
		return nil, err
	}

	var before, after *entity.AttributeDefinition
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		existing, err := findDefinition(ctx, repoFactory.DefinitionRepo(), id)
		if err != nil {
			return err
		}
		updated, err := srv.updateInTx(ctx, repoFactory, existing, input, force)
		if err != nil {
			return err
		}
		before, after = existing, updated

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to update attribute definition")
	}

	srv.cache.invalidateDefinitions(ctx, before, after)
	srv.publish(ctx, definitionEvent(service.EventDefinitionUpdated, after))

	return after, nil
}

// updateInTx applies input over existing inside an open transaction.
func (srv *definitionService) updateInTx(
	ctx context.Context,
	repoFactory repository.RepositoryFactory,
	existing *entity.AttributeDefinition,
	input *usecase.DefinitionInput,
	force bool,
) (*entity.AttributeDefinition, error) {
	// 1. System definitions only change when forced
	if existing.IsSystem && !force {
		return nil, errors.Wrapf(domainerrors.ErrSystemProtected, "definition %q", existing.Name)
	}

	// 2. Fields left out keep their stored value
	in := *input
	in.KeepStored(existing)
	in.Normalize()

	updated := existing.Clone()
	in.Apply(updated)
	updated.Name = in.Name
	sanitizeDefinitionText(updated)

	// 3. Validate against the stored version; names are immutable
	report := srv.validator.ValidateDefinition(updated, existing)
	srv.logWarnings(ctx, existing.Name, report)
	if err := report.Err(); err != nil {
		return nil, err
	}

	if updated.Group != existing.Group && input.Order == nil {
		order, err := srv.nextOrder(ctx, repoFactory.DefinitionRepo(), updated.Group)
		if err != nil {
			return nil, err
		}
		updated.Order = order
	}

	updated.UpdatedBy = service.ActorFromContext(ctx).ID
	updated.UpdatedAt = srv.now()

	// 4. Persist and audit
	if err := repoFactory.DefinitionRepo().Update(ctx, updated); err != nil {
		return nil, storageError(err, "failed to update definition")
	}
	if err := srv.clearPurgeOnReactivation(ctx, repoFactory, existing, updated); err != nil {
		return nil, err
	}
	if err := srv.appendHistory(ctx, repoFactory, updated.ID, entity.ChangeUpdated, existing, updated, ""); err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes a definition, or deprecates it when principals hold values.
func (srv *definitionService) Delete(ctx context.Context, id uuid.UUID, force bool) error {
	srv.log(ctx).Info("Deleting attribute definition", "id", id, "force", force)

	if err := srv.authorize(ctx, constants.CapabilityManage); err != nil {
		return err
	}

	var (
		target        *entity.AttributeDefinition
		usage         int64
		deprecated    bool
		valuesRemoved int64
		purge         *entity.PendingPurge
	)
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		definitionRepo := repoFactory.DefinitionRepo()

		// 1. Find the definition
		existing, err := findDefinition(ctx, definitionRepo, id)
		if err != nil {
			return err
		}
		target = existing

		// 2. System definitions only go when forced
		if existing.IsSystem && !force {
			return errors.Wrapf(domainerrors.ErrSystemProtected, "definition %q", existing.Name)
		}

		// 3. Count principals holding a value
		usage, err = repoFactory.ValueRepo().CountByDefinition(ctx, id)
		if err != nil {
			return storageError(err, "failed to count stored values")
		}

		// 4. Stored values turn the delete into a deprecation with a scheduled purge
		if usage > 0 && !force {
			deprecated = true
			purge, err = srv.deprecateInTx(ctx, repoFactory, existing, usage)

			return err
		}

		// 5. Hard delete, values first
		if usage > 0 {
			valuesRemoved, err = repoFactory.ValueRepo().DeleteByDefinition(ctx, id)
			if err != nil {
				return storageError(err, "failed to delete stored values")
			}
		}
		if err := definitionRepo.Delete(ctx, id); err != nil {
			return storageError(err, "failed to delete definition")
		}
		if err := repoFactory.PurgeRepo().Remove(ctx, id); err != nil {
			return storageError(err, "failed to clear pending purge")
		}

		return srv.appendHistory(ctx, repoFactory, id, entity.ChangeDeleted, existing, nil, "")
	})
	if err != nil {
		return errors.Wrap(err, "failed to delete attribute definition")
	}

	srv.cache.invalidateDefinitions(ctx, target)
	if valuesRemoved > 0 {
		srv.cache.flush(ctx, service.CacheGroupValues)
	}

	if deprecated {
		srv.log(ctx).Info("Attribute definition deprecated instead of deleted", "id", id, "usageCount", usage, "purgeDueAt", purge.DueAt)
		event := definitionEvent(service.EventDefinitionDeprecated, target)
		event.UsageCount = usage
		event.PurgeDueAt = &purge.DueAt
		srv.publish(ctx, event)

		scheduled := definitionEvent(service.EventPurgeScheduled, target)
		scheduled.UsageCount = usage
		scheduled.PurgeDueAt = &purge.DueAt
		srv.publish(ctx, scheduled)

		return domainerrors.NewDependentDataError(id.String(), usage)
	}

	event := definitionEvent(service.EventDefinitionDeleted, target)
	event.UsageCount = valuesRemoved
	srv.publish(ctx, event)

	return nil
}

// deprecateInTx marks a definition deprecated and schedules the purge of its
// values. An already scheduled purge keeps its original due time.
func (srv *definitionService) deprecateInTx(ctx context.Context, repoFactory repository.RepositoryFactory, existing *entity.AttributeDefinition, usage int64) (*entity.PendingPurge, error) {
	purgeRepo := repoFactory.PurgeRepo()

	if pending, err := purgeRepo.Find(ctx, existing.ID); err == nil {
		return pending, nil
	} else if !errors.Is(err, repository.ErrPurgeNotFound) {
		return nil, storageError(err, "failed to read pending purge")
	}

	now := srv.now()
	actor := service.ActorFromContext(ctx)

	if existing.Status != entity.StatusDeprecated {
		deprecated := existing.Clone()
		deprecated.Status = entity.StatusDeprecated
		deprecated.UpdatedBy = actor.ID
		deprecated.UpdatedAt = now
		if err := repoFactory.DefinitionRepo().Update(ctx, deprecated); err != nil {
			return nil, storageError(err, "failed to deprecate definition")
		}
		reason := "deleted with " + strconv.FormatInt(usage, 10) + " stored values"
		if err := srv.appendHistory(ctx, repoFactory, existing.ID, entity.ChangeStatusChange, existing, deprecated, reason); err != nil {
			return nil, err
		}
	}

	purge := &entity.PendingPurge{
		DefinitionID:   existing.ID,
		DefinitionName: existing.Name,
		UsageCount:     usage,
		Snapshot:       existing.Snapshot(),
		ScheduledAt:    now,
		DueAt:          now.Add(srv.retention),
		RequestedBy:    actor.ID,
	}
	if err := purgeRepo.Schedule(ctx, purge); err != nil {
		return nil, storageError(err, "failed to schedule purge")
	}

	return purge, nil
}

// clearPurgeOnReactivation drops the pending purge when a deprecated
// definition goes back to active.
func (srv *definitionService) clearPurgeOnReactivation(ctx context.Context, repoFactory repository.RepositoryFactory, before, after *entity.AttributeDefinition) error {
	if before.Status != entity.StatusDeprecated || after.Status != entity.StatusActive {
		return nil
	}
	if err := repoFactory.PurgeRepo().Remove(ctx, after.ID); err != nil {
		return storageError(err, "failed to cancel pending purge")
	}

	return nil
}

// Reorder applies every placement in one transaction.
func (srv *definitionService) Reorder(ctx context.Context, placements map[uuid.UUID]usecase.Placement) error {
	srv.log(ctx).Info("Reordering attribute definitions", "count", len(placements))

	if err := srv.authorize(ctx, constants.CapabilityManage); err != nil {
		return err
	}
	if len(placements) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(placements))
	for id := range placements {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return strings.Compare(a.String(), b.String()) })

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		definitionRepo := repoFactory.DefinitionRepo()
		for _, id := range ids {
			placement := placements[id]
			existing, err := findDefinition(ctx, definitionRepo, id)
			if err != nil {
				return err
			}

			group := strings.TrimSpace(placement.Group)
			if group == "" {
				group = existing.Group
			}
			if report := srv.validator.ValidateGroup(&entity.AttributeGroup{Key: group}); !report.Valid() {
				return report.Err()
			}

			if err := definitionRepo.UpdatePlacement(ctx, id, placement.Order, group); err != nil {
				return storageError(err, "failed to update placement")
			}
		}

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to reorder attribute definitions")
	}

	srv.cache.invalidateAll(ctx)
	srv.publish(ctx, &service.SchemaEvent{Type: service.EventDefinitionsReordered})

	return nil
}

// Duplicate clones a definition under a fresh name as a draft at the end of the target group.
func (srv *definitionService) Duplicate(ctx context.Context, id uuid.UUID, targetGroup string) (*entity.AttributeDefinition, error) {
	srv.log(ctx).Info("Duplicating attribute definition", "id", id, "targetGroup", targetGroup)

	if err := srv.authorize(ctx, constants.CapabilityManage); err != nil {
		return nil, err
	}

	var created *entity.AttributeDefinition
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		definitionRepo := repoFactory.DefinitionRepo()

		source, err := findDefinition(ctx, definitionRepo, id)
		if err != nil {
			return err
		}

		name, err := freeName(ctx, definitionRepo, source.Name+"_copy")
		if err != nil {
			return err
		}

		input := usecase.DefinitionInputFrom(source)
		input.Name = name
		input.Status = entity.StatusDraft
		input.Order = nil
		if strings.TrimSpace(targetGroup) != "" {
			input.Group = targetGroup
		}

		created, err = srv.createInTx(ctx, repoFactory, input)

		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to duplicate attribute definition")
	}

	srv.cache.invalidateDefinitions(ctx, created)
	srv.publish(ctx, definitionEvent(service.EventDefinitionCreated, created))

	return created, nil
}

// freeName returns first when it is unused, otherwise first_1, first_2 and so on.
func freeName(ctx context.Context, repo repository.DefinitionRepository, first string) (string, error) {
	for attempt := range maxNameAttempts {
		candidate := first
		if attempt > 0 {
			suffix := "_" + strconv.Itoa(attempt)
			candidate = truncateName(first, maxNameLength-len(suffix)) + suffix
		} else {
			candidate = truncateName(candidate, maxNameLength)
		}

		_, err := repo.FindByName(ctx, candidate)
		if errors.Is(err, repository.ErrDefinitionNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", storageError(err, "failed to check definition name")
		}
	}

	return "", errors.Wrapf(domainerrors.ErrDuplicateName, "no free name derived from %q", first)
}

func truncateName(name string, limit int) string {
	if len(name) <= limit {
		return name
	}

	return strings.TrimRight(name[:limit], "_")
}

// ChangeStatus moves a definition through its lifecycle.
func (srv *definitionService) ChangeStatus(ctx context.Context, id uuid.UUID, status entity.Status, reason string) (*entity.AttributeDefinition, error) {
	srv.log(ctx).Info("Changing attribute definition status", "id", id, "status", status)

	if err := srv.authorize(ctx, constants.CapabilityManage); err != nil {
		return nil, err
	}

	return srv.changeStatus(ctx, id, status, reason)
}

func (srv *definitionService) changeStatus(ctx context.Context, id uuid.UUID, status entity.Status, reason string) (*entity.AttributeDefinition, error) {
	var before, after *entity.AttributeDefinition
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		existing, err := findDefinition(ctx, repoFactory.DefinitionRepo(), id)
		if err != nil {
			return err
		}
		if existing.IsSystem {
			return errors.Wrapf(domainerrors.ErrSystemProtected, "definition %q", existing.Name)
		}
		if err := srv.validator.ValidateTransition(existing.Status, status).Err(); err != nil {
			return err
		}
		if existing.Status == status {
			before, after = existing, existing

			return nil
		}

		updated := existing.Clone()
		updated.Status = status
		updated.UpdatedBy = service.ActorFromContext(ctx).ID
		updated.UpdatedAt = srv.now()
		if err := repoFactory.DefinitionRepo().Update(ctx, updated); err != nil {
			return storageError(err, "failed to update status")
		}
		if err := srv.clearPurgeOnReactivation(ctx, repoFactory, existing, updated); err != nil {
			return err
		}
		if err := srv.appendHistory(ctx, repoFactory, id, entity.ChangeStatusChange, existing, updated, reason); err != nil {
			return err
		}
		before, after = existing, updated

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to change attribute definition status")
	}

	if before.Status != after.Status {
		srv.cache.invalidateDefinitions(ctx, after)
		eventType := service.EventDefinitionUpdated
		if after.Status == entity.StatusDeprecated {
			eventType = service.EventDefinitionDeprecated
		}
		srv.publish(ctx, definitionEvent(eventType, after))
	}

	return after, nil
}

// BulkChangeStatus changes the status of each definition independently.
// A failing entry is recorded and the rest continue.
func (srv *definitionService) BulkChangeStatus(ctx context.Context, ids []uuid.UUID, status entity.Status, reason string) (*usecase.BulkStatusResult, error) {
	srv.log(ctx).Info("Changing attribute definition status in bulk", "count", len(ids), "status", status)

	if err := srv.authorize(ctx, constants.CapabilityManage); err != nil {
		return nil, err
	}

	result := &usecase.BulkStatusResult{Outcomes: make([]usecase.StatusOutcome, 0, len(ids))}
	for _, id := range ids {
		def, err := srv.changeStatus(ctx, id, status, reason)
		if err != nil {
			srv.log(ctx).Warn("Bulk status change entry failed", "id", id, "error", err)
			result.Failed++
			result.Outcomes = append(result.Outcomes, usecase.StatusOutcome{ID: id, Error: err.Error()})

			continue
		}
		result.Updated++
		result.Outcomes = append(result.Outcomes, usecase.StatusOutcome{ID: id, Status: def.Status})
	}

	return result, nil
}

// SaveGroup inserts or replaces the metadata of a group.
func (srv *definitionService) SaveGroup(ctx context.Context, input *usecase.GroupInput) (*entity.AttributeGroup, error) {
	srv.log(ctx).Info("Saving attribute group", "key", input.Key)

	if err := srv.authorize(ctx, constants.CapabilityManage); err != nil {
		return nil, err
	}

	group := &entity.AttributeGroup{
		Key:         strings.TrimSpace(input.Key),
		Label:       strings.TrimSpace(input.Label),
		Icon:        strings.TrimSpace(input.Icon),
		Description: attrkind.StripMarkup(input.Description),
		Order:       input.Order,
	}
	if err := srv.validator.ValidateGroup(group).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to save attribute group")
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		return srv.saveGroupInTx(ctx, repoFactory, group)
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to save attribute group")
	}

	srv.cache.flush(ctx, service.CacheGroupListings)

	return group, nil
}

func (srv *definitionService) saveGroupInTx(ctx context.Context, repoFactory repository.RepositoryFactory, group *entity.AttributeGroup) error {
	groupRepo := repoFactory.GroupRepo()
	now := srv.now()

	group.CreatedAt = now
	if existing, err := groupRepo.Find(ctx, group.Key); err == nil {
		group.CreatedAt = existing.CreatedAt
	} else if !errors.Is(err, repository.ErrGroupNotFound) {
		return storageError(err, "failed to find group")
	}
	group.UpdatedAt = now

	if err := groupRepo.Save(ctx, group); err != nil {
		return storageError(err, "failed to save group")
	}

	return nil
}

// Purge executes a due purge: the definition and all its values are removed.
func (srv *definitionService) Purge(ctx context.Context, id uuid.UUID) error {
	srv.log(ctx).Info("Purging attribute definition", "id", id)

	if err := srv.authorize(ctx, constants.CapabilityManage); err != nil {
		return err
	}

	var stale bool
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if _, err := repoFactory.PurgeRepo().Find(ctx, id); err != nil {
			if errors.Is(err, repository.ErrPurgeNotFound) {
				return errors.Wrapf(domainerrors.ErrNotFound, "no pending purge for %s", id)
			}

			return storageError(err, "failed to read pending purge")
		}

		// A purge whose definition is gone or was reactivated is dropped.
		def, err := repoFactory.DefinitionRepo().FindByID(ctx, id)
		switch {
		case errors.Is(err, repository.ErrDefinitionNotFound):
			stale = true
		case err != nil:
			return storageError(err, "failed to find definition")
		case def.Status != entity.StatusDeprecated:
			stale = true
		}
		if !stale {
			return nil
		}
		if err := repoFactory.PurgeRepo().Remove(ctx, id); err != nil {
			return storageError(err, "failed to clear pending purge")
		}

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to purge attribute definition")
	}
	if stale {
		srv.log(ctx).Info("Dropped stale pending purge", "id", id)

		return nil
	}

	return srv.Delete(ctx, id, true)
}

func (srv *definitionService) appendHistory(
	ctx context.Context,
	repoFactory repository.RepositoryFactory,
	definitionID uuid.UUID,
	change entity.ChangeType,
	before, after *entity.AttributeDefinition,
	reason string,
) error {
	actor := service.ActorFromContext(ctx)
	record := &entity.HistoryRecord{
		ID:           uuid.New(),
		DefinitionID: definitionID,
		ChangeType:   change,
		OldSnapshot:  before.Snapshot(),
		NewSnapshot:  after.Snapshot(),
		Actor:        actor.ID,
		Reason:       reason,
		Origin:       actor.Origin,
		CreatedAt:    srv.now(),
	}
	if err := repoFactory.HistoryRepo().Append(ctx, record); err != nil {
		return storageError(err, "failed to append history")
	}

	return nil
}

func (srv *definitionService) publish(ctx context.Context, event *service.SchemaEvent) {
	if srv.publisher == nil || event == nil {
		return
	}
	event.EventID = uuid.NewString()
	event.RequestID = deliverycontext.GetRequestIDFromContext(ctx)
	event.Actor = service.ActorFromContext(ctx).ID
	event.OccurredAt = srv.now()

	if err := srv.publisher.PublishSchemaEvent(ctx, event); err != nil {
		srv.log(ctx).Warn("Failed to publish schema event", "type", event.Type, "definitionID", event.DefinitionID, "error", err)
	}
}

func (srv *definitionService) logWarnings(ctx context.Context, name string, report *validation.Report) {
	for _, w := range report.Warnings {
		srv.log(ctx).Warn("Attribute definition warning", "name", name, "field", w.Field, "code", w.Code, "message", w.Message)
	}
}

func definitionEvent(eventType string, def *entity.AttributeDefinition) *service.SchemaEvent {
	event := &service.SchemaEvent{Type: eventType}
	if def != nil {
		event.DefinitionID = def.ID.String()
		event.DefinitionName = def.Name
	}

	return event
}

func findDefinition(ctx context.Context, repo repository.DefinitionRepository, id uuid.UUID) (*entity.AttributeDefinition, error) {
	def, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrDefinitionNotFound) {
			return nil, errors.Wrapf(domainerrors.ErrNotFound, "definition %s", id)
		}

		return nil, storageError(err, "failed to find definition")
	}

	return def, nil
}

func storageError(err error, details string) error {
	return errors.WithStack(domainerrors.NewStorageError(err, details))
}

// sanitizeDefinitionText strips markup from the free-text fields.
func sanitizeDefinitionText(def *entity.AttributeDefinition) {
	def.Description = strings.TrimSpace(attrkind.StripMarkup(def.Description))
	def.HelpText = strings.TrimSpace(attrkind.StripMarkup(def.HelpText))
	def.Placeholder = strings.TrimSpace(attrkind.StripMarkup(def.Placeholder))
}

package impl

import (
	"context"
	"slices"
	"strings"
	"time"

	"attrschema/internal/domain/constants"
	"attrschema/internal/domain/entity"
	domainerrors "attrschema/internal/domain/errors"
	"attrschema/internal/domain/repository"
	"attrschema/internal/domain/service"
	"attrschema/internal/errors"
	"attrschema/internal/usecase"

	"github.com/google/uuid"
)

// Get retrieves a definition by ID.
func (srv *definitionService) Get(ctx context.Context, id uuid.UUID) (*entity.AttributeDefinition, error) {
	key := definitionCacheKey(id)
	if def, ok := cacheLoad[*entity.AttributeDefinition](ctx, srv.cache, service.CacheGroupDefinitions, key); ok {
		return def, nil
	}

	var def *entity.AttributeDefinition
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var err error
		def, err = findDefinition(ctx, repoFactory.DefinitionRepo(), id)

		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get attribute definition")
	}

	cacheStore(ctx, srv.cache, service.CacheGroupDefinitions, key, def, 0)

	return def, nil
}

// GetByName retrieves a definition by its unique name.
func (srv *definitionService) GetByName(ctx context.Context, name string) (*entity.AttributeDefinition, error) {
	name = strings.TrimSpace(name)
	key := definitionNameCacheKey(name)
	if def, ok := cacheLoad[*entity.AttributeDefinition](ctx, srv.cache, service.CacheGroupDefinitions, key); ok {
		return def, nil
	}

	var def *entity.AttributeDefinition
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		found, err := repoFactory.DefinitionRepo().FindByName(ctx, name)
		if err != nil {
			if errors.Is(err, repository.ErrDefinitionNotFound) {
				return errors.Wrapf(domainerrors.ErrNotFound, "definition %q", name)
			}

			return storageError(err, "failed to find definition")
		}
		def = found

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get attribute definition")
	}

	cacheStore(ctx, srv.cache, service.CacheGroupDefinitions, key, def, 0)

	return def, nil
}

// List returns one page of definitions matching the filter.
func (srv *definitionService) List(ctx context.Context, filter repository.DefinitionFilter) (*usecase.DefinitionPage, error) {
	filter = filter.Normalize()
	key := definitionListCacheKey(filter)
	if page, ok := cacheLoad[*usecase.DefinitionPage](ctx, srv.cache, service.CacheGroupListings, key); ok {
		return page, nil
	}

	page := &usecase.DefinitionPage{Limit: filter.Limit, Offset: filter.Offset}
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		items, total, err := repoFactory.DefinitionRepo().List(ctx, filter)
		if err != nil {
			return storageError(err, "failed to list definitions")
		}
		page.Items, page.Total = items, total

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list attribute definitions")
	}

	cacheStore(ctx, srv.cache, service.CacheGroupListings, key, page, 0)

	return page, nil
}

// ListGroups returns every group that has metadata or definitions, with its
// definition count, ordered by group order then key.
func (srv *definitionService) ListGroups(ctx context.Context) ([]*usecase.GroupSummary, error) {
	if groups, ok := cacheLoad[[]*usecase.GroupSummary](ctx, srv.cache, service.CacheGroupListings, groupsCacheKey); ok {
		return groups, nil
	}

	summaries := make(map[string]*usecase.GroupSummary)
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		groups, err := repoFactory.GroupRepo().List(ctx)
		if err != nil {
			return storageError(err, "failed to list groups")
		}
		for _, g := range groups {
			summaries[g.Key] = &usecase.GroupSummary{
				Key:         g.Key,
				Label:       g.Label,
				Icon:        g.Icon,
				Description: g.Description,
				Order:       g.Order,
			}
		}

		return forEachDefinition(ctx, repoFactory.DefinitionRepo(), repository.DefinitionFilter{}, func(def *entity.AttributeDefinition) {
			summary, ok := summaries[def.Group]
			if !ok {
				summary = &usecase.GroupSummary{Key: def.Group, Label: def.Group}
				summaries[def.Group] = summary
			}
			summary.Count++
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list attribute groups")
	}

	out := make([]*usecase.GroupSummary, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b *usecase.GroupSummary) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}

		return strings.Compare(a.Key, b.Key)
	})

	cacheStore(ctx, srv.cache, service.CacheGroupListings, groupsCacheKey, out, 0)

	return out, nil
}

// forEachDefinition pages through every definition matching filter.
func forEachDefinition(ctx context.Context, repo repository.DefinitionRepository, filter repository.DefinitionFilter, fn func(*entity.AttributeDefinition)) error {
	filter.Limit = repository.MaxListLimit
	filter.Offset = 0
	for {
		items, total, err := repo.List(ctx, filter)
		if err != nil {
			return storageError(err, "failed to list definitions")
		}
		for _, def := range items {
			fn(def)
		}
		filter.Offset += len(items)
		if len(items) == 0 || int64(filter.Offset) >= total {
			return nil
		}
	}
}

// History returns the newest audit records of a definition.
func (srv *definitionService) History(ctx context.Context, id uuid.UUID, limit int) ([]*entity.HistoryRecord, error) {
	if err := srv.authorize(ctx, constants.CapabilityManage); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultHistorySize
	}

	var records []*entity.HistoryRecord
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var err error
		records, err = repoFactory.HistoryRepo().ListByDefinition(ctx, id, limit)
		if err != nil {
			return storageError(err, "failed to list history")
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get attribute definition history")
	}

	return records, nil
}

// DuePurges lists the purges whose retention window has passed at now.
func (srv *definitionService) DuePurges(ctx context.Context, now time.Time, limit int) ([]*entity.PendingPurge, error) {
	if err := srv.authorize(ctx, constants.CapabilityManage); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPurgeBatch
	}

	var due []*entity.PendingPurge
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var err error
		due, err = repoFactory.PurgeRepo().ListDue(ctx, now, limit)
		if err != nil {
			return storageError(err, "failed to list due purges")
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list due purges")
	}

	return due, nil
}

// Stats returns aggregate definition counts.
func (srv *definitionService) Stats(ctx context.Context) (*repository.DefinitionStats, error) {
	if stats, ok := cacheLoad[*repository.DefinitionStats](ctx, srv.cache, service.CacheGroupStats, statsCacheKey); ok {
		return stats, nil
	}

	var stats *repository.DefinitionStats
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		var err error
		stats, err = repoFactory.DefinitionRepo().Stats(ctx)
		if err != nil {
			return storageError(err, "failed to aggregate definitions")
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get attribute definition stats")
	}

	cacheStore(ctx, srv.cache, service.CacheGroupStats, statsCacheKey, stats, srv.statsTTL)

	return stats, nil
}

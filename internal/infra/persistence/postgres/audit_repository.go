package postgres

import (
	"context"
	"time"

	"attrschema/internal/domain/entity"
	"attrschema/internal/domain/repository"
	"attrschema/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// groupRepository implements the repository.GroupRepository interface.
type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository is the constructor for groupRepository.
func NewGroupRepository(db *gorm.DB) repository.GroupRepository {
	return &groupRepository{db: db}
}

// List returns all groups ordered by their order, then key.
func (repo *groupRepository) List(ctx context.Context) ([]*entity.AttributeGroup, error) {
	var groupModels []*model.AttributeGroupModel

	if err := repo.db.WithContext(ctx).Order("sort_order").Order("key").Find(&groupModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list attribute groups")
	}

	groups := make([]*entity.AttributeGroup, 0, len(groupModels))
	for _, groupM := range groupModels {
		groups = append(groups, toGroupDomain(groupM))
	}

	return groups, nil
}

// Find retrieves a group by key.
func (repo *groupRepository) Find(ctx context.Context, key string) (*entity.AttributeGroup, error) {
	var groupM model.AttributeGroupModel

	if err := repo.db.WithContext(ctx).Where("key = ?", key).First(&groupM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrGroupNotFound
		}

		return nil, errors.Wrap(err, "failed to find attribute group")
	}

	return toGroupDomain(&groupM), nil
}

// Save inserts or replaces a group. The original creation time is kept.
func (repo *groupRepository) Save(ctx context.Context, group *entity.AttributeGroup) error {
	groupM := fromGroupDomain(group)

	err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"label", "icon", "description", "sort_order", "updated_at"}),
		}).
		Create(groupM).Error
	if err != nil {
		return errors.Wrap(err, "failed to save attribute group")
	}

	return nil
}

// historyRepository implements the insert-only repository.HistoryRepository interface.
type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository is the constructor for historyRepository.
func NewHistoryRepository(db *gorm.DB) repository.HistoryRepository {
	return &historyRepository{db: db}
}

// Append stores a new history record.
func (repo *historyRepository) Append(ctx context.Context, record *entity.HistoryRecord) error {
	recordM, err := fromHistoryDomain(record)
	if err != nil {
		return err
	}

	if err := repo.db.WithContext(ctx).Create(recordM).Error; err != nil {
		return errors.Wrap(err, "failed to append definition history")
	}

	return nil
}

// ListByDefinition returns the newest records for a definition first.
func (repo *historyRepository) ListByDefinition(ctx context.Context, definitionID uuid.UUID, limit int) ([]*entity.HistoryRecord, error) {
	var recordModels []*model.DefinitionHistoryModel

	query := repo.db.WithContext(ctx).
		Where("definition_id = ?", definitionID).
		Order("created_at DESC").
		Order("seq DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&recordModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list definition history")
	}

	records := make([]*entity.HistoryRecord, 0, len(recordModels))
	for _, recordM := range recordModels {
		record, err := toHistoryDomain(recordM)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}

// purgeRepository implements the repository.PurgeRepository interface.
type purgeRepository struct {
	db *gorm.DB
}

// NewPurgeRepository is the constructor for purgeRepository.
func NewPurgeRepository(db *gorm.DB) repository.PurgeRepository {
	return &purgeRepository{db: db}
}

// Schedule inserts or replaces the pending purge of a definition.
func (repo *purgeRepository) Schedule(ctx context.Context, purge *entity.PendingPurge) error {
	purgeM, err := fromPurgeDomain(purge)
	if err != nil {
		return err
	}

	err = repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "definition_id"}},
			UpdateAll: true,
		}).
		Create(purgeM).Error
	if err != nil {
		return errors.Wrap(err, "failed to schedule purge")
	}

	return nil
}

// Find returns the pending purge of a definition.
func (repo *purgeRepository) Find(ctx context.Context, definitionID uuid.UUID) (*entity.PendingPurge, error) {
	var purgeM model.PendingPurgeModel

	if err := repo.db.WithContext(ctx).Where("definition_id = ?", definitionID).First(&purgeM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrPurgeNotFound
		}

		return nil, errors.Wrap(err, "failed to find pending purge")
	}

	return toPurgeDomain(&purgeM)
}

// ListDue returns purges due at or before now, oldest first.
func (repo *purgeRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*entity.PendingPurge, error) {
	var purgeModels []*model.PendingPurgeModel

	query := repo.db.WithContext(ctx).Where("due_at <= ?", now).Order("due_at").Order("definition_id")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&purgeModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list due purges")
	}

	purges := make([]*entity.PendingPurge, 0, len(purgeModels))
	for _, purgeM := range purgeModels {
		purge, err := toPurgeDomain(purgeM)
		if err != nil {
			return nil, err
		}
		purges = append(purges, purge)
	}

	return purges, nil
}

// Remove deletes the pending purge of a definition. A missing purge is not an error.
func (repo *purgeRepository) Remove(ctx context.Context, definitionID uuid.UUID) error {
	if err := repo.db.WithContext(ctx).Where("definition_id = ?", definitionID).Delete(&model.PendingPurgeModel{}).Error; err != nil {
		return errors.Wrap(err, "failed to remove pending purge")
	}

	return nil
}

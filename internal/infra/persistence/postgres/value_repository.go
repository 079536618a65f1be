package postgres

import (
	"context"

	"attrschema/internal/domain/entity"
	"attrschema/internal/domain/repository"
	"attrschema/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// valueRepository implements the repository.ValueRepository interface.
type valueRepository struct {
	db *gorm.DB
}

// NewValueRepository is the constructor for valueRepository.
func NewValueRepository(db *gorm.DB) repository.ValueRepository {
	return &valueRepository{
		db: db,
	}
}

// Find retrieves the value a principal holds for a definition.
func (repo *valueRepository) Find(ctx context.Context, principalID, definitionID uuid.UUID) (*entity.AttributeValue, error) {
	var valueM model.AttributeValueModel

	err := repo.db.WithContext(ctx).
		Where("principal_id = ? AND definition_id = ?", principalID, definitionID).
		First(&valueM).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrValueNotFound
		}

		return nil, errors.Wrap(err, "failed to find attribute value")
	}

	return toValueDomain(&valueM)
}

// ListByPrincipal returns every value stored for a principal.
func (repo *valueRepository) ListByPrincipal(ctx context.Context, principalID uuid.UUID) ([]*entity.AttributeValue, error) {
	return repo.list(ctx, "principal_id = ?", principalID)
}

// ListByDefinition returns every value stored for a definition.
func (repo *valueRepository) ListByDefinition(ctx context.Context, definitionID uuid.UUID) ([]*entity.AttributeValue, error) {
	return repo.list(ctx, "definition_id = ?", definitionID)
}

func (repo *valueRepository) list(ctx context.Context, cond string, arg any) ([]*entity.AttributeValue, error) {
	var valueModels []*model.AttributeValueModel

	if err := repo.db.WithContext(ctx).Where(cond, arg).Order("created_at").Order("id").Find(&valueModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list attribute values")
	}

	values := make([]*entity.AttributeValue, 0, len(valueModels))
	for _, valueM := range valueModels {
		value, err := toValueDomain(valueM)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}

	return values, nil
}

// Upsert inserts the value or replaces the one already stored for the same
// principal and definition. The stored ID and creation time are written back.
func (repo *valueRepository) Upsert(ctx context.Context, value *entity.AttributeValue) error {
	valueM, err := fromValueDomain(value)
	if err != nil {
		return err
	}
	if valueM.ID == uuid.Nil {
		valueM.ID = uuid.New()
	}

	err = repo.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "principal_id"}, {Name: "definition_id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"value", "numeric_value", "date_value", "privacy", "is_verified", "updated_by", "updated_at",
				}),
			},
			clause.Returning{Columns: []clause.Column{{Name: "id"}, {Name: "created_at"}}},
		).
		Create(valueM).Error
	if err != nil {
		if isForeignKeyConstraintViolation(err) {
			return repository.ErrDefinitionNotFound
		}

		return errors.Wrap(err, "failed to upsert attribute value")
	}

	value.ID = valueM.ID
	value.CreatedAt = valueM.CreatedAt
	value.UpdatedAt = valueM.UpdatedAt

	return nil
}

// Delete removes one principal's value for a definition.
func (repo *valueRepository) Delete(ctx context.Context, principalID, definitionID uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Where("principal_id = ? AND definition_id = ?", principalID, definitionID).
		Delete(&model.AttributeValueModel{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete attribute value")
	}
	if result.RowsAffected == 0 {
		return repository.ErrValueNotFound
	}

	return nil
}

// DeleteByDefinition removes every value of a definition.
func (repo *valueRepository) DeleteByDefinition(ctx context.Context, definitionID uuid.UUID) (int64, error) {
	result := repo.db.WithContext(ctx).Where("definition_id = ?", definitionID).Delete(&model.AttributeValueModel{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to delete attribute values by definition")
	}

	return result.RowsAffected, nil
}

// CountByDefinition returns how many principals hold a value for the definition.
func (repo *valueRepository) CountByDefinition(ctx context.Context, definitionID uuid.UUID) (int64, error) {
	var count int64

	err := repo.db.WithContext(ctx).
		Model(&model.AttributeValueModel{}).
		Where("definition_id = ?", definitionID).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count attribute values")
	}

	return count, nil
}

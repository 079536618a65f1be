package postgres

import (
	"context"
	"database/sql"
	"strings"

	"attrschema/internal/domain/entity"
	"attrschema/internal/domain/repository"
	"attrschema/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Columns an update may never touch; the name is immutable after creation.
var definitionImmutableColumns = []string{"id", "name", "created_at", "created_by"}

// definitionRepository implements the repository.DefinitionRepository interface.
type definitionRepository struct {
	db *gorm.DB
}

// NewDefinitionRepository is the constructor for definitionRepository.
func NewDefinitionRepository(db *gorm.DB) repository.DefinitionRepository {
	return &definitionRepository{
		db: db,
	}
}

// FindByID retrieves a single definition by its unique ID.
func (repo *definitionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.AttributeDefinition, error) {
	return repo.findOne(ctx, "id = ?", id)
}

// FindByName retrieves a single definition by its unique name.
func (repo *definitionRepository) FindByName(ctx context.Context, name string) (*entity.AttributeDefinition, error) {
	return repo.findOne(ctx, "name = ?", name)
}

func (repo *definitionRepository) findOne(ctx context.Context, cond string, arg any) (*entity.AttributeDefinition, error) {
	var definitionM model.AttributeDefinitionModel

	if err := repo.db.WithContext(ctx).Where(cond, arg).First(&definitionM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrDefinitionNotFound
		}

		return nil, errors.Wrap(err, "failed to find attribute definition")
	}

	return toDefinitionDomain(&definitionM)
}

// List returns one page of definitions and the total number of matches.
func (repo *definitionRepository) List(ctx context.Context, filter repository.DefinitionFilter) ([]*entity.AttributeDefinition, int64, error) {
	filter = filter.Normalize()
	// A fresh session lets the filtered query back both the count and the page.
	query := applyDefinitionFilter(repo.db.WithContext(ctx).Model(&model.AttributeDefinitionModel{}), filter).
		Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count attribute definitions")
	}

	var definitionModels []*model.AttributeDefinitionModel
	err := query.
		Order(clause.OrderByColumn{Column: clause.Column{Name: filter.OrderColumn()}, Desc: filter.Desc}).
		Order("name").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&definitionModels).Error
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list attribute definitions")
	}

	definitions := make([]*entity.AttributeDefinition, 0, len(definitionModels))
	for _, definitionM := range definitionModels {
		def, err := toDefinitionDomain(definitionM)
		if err != nil {
			return nil, 0, err
		}
		definitions = append(definitions, def)
	}

	return definitions, total, nil
}

func applyDefinitionFilter(query *gorm.DB, filter repository.DefinitionFilter) *gorm.DB {
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			statuses = append(statuses, status.String())
		}
		query = query.Where("status IN ?", statuses)
	}
	if len(filter.Kinds) > 0 {
		query = query.Where("kind IN ?", filter.Kinds)
	}
	if len(filter.Groups) > 0 {
		query = query.Where("group_key IN ?", filter.Groups)
	}
	if filter.Searchable != nil {
		query = query.Where("is_searchable = ?", *filter.Searchable)
	}
	if filter.Public != nil {
		query = query.Where("is_public = ?", *filter.Public)
	}
	if filter.Search != "" {
		pattern := "%" + escapeLike(filter.Search) + "%"
		query = query.Where("(name ILIKE ? OR label ILIKE ?)", pattern, pattern)
	}

	return query
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(term string) string {
	return likeEscaper.Replace(term)
}

// Create persists a new definition.
func (repo *definitionRepository) Create(ctx context.Context, definition *entity.AttributeDefinition) error {
	definitionM, err := fromDefinitionDomain(definition)
	if err != nil {
		return err
	}

	if err := repo.db.WithContext(ctx).Create(definitionM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return repository.ErrDuplicateDefinitionName
		}

		return errors.Wrap(err, "failed to create attribute definition")
	}

	definition.CreatedAt = definitionM.CreatedAt
	definition.UpdatedAt = definitionM.UpdatedAt

	return nil
}

// Update writes every mutable column, including zero values.
func (repo *definitionRepository) Update(ctx context.Context, definition *entity.AttributeDefinition) error {
	definitionM, err := fromDefinitionDomain(definition)
	if err != nil {
		return err
	}

	result := repo.db.WithContext(ctx).
		Model(&model.AttributeDefinitionModel{ID: definition.ID}).
		Select("*").
		Omit(definitionImmutableColumns...).
		Updates(definitionM)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update attribute definition")
	}
	if result.RowsAffected == 0 {
		return repository.ErrDefinitionNotFound
	}

	definition.UpdatedAt = definitionM.UpdatedAt

	return nil
}

// UpdatePlacement changes only the order and group of a definition.
func (repo *definitionRepository) UpdatePlacement(ctx context.Context, id uuid.UUID, order int, group string) error {
	result := repo.db.WithContext(ctx).
		Model(&model.AttributeDefinitionModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"sort_order": order,
			"group_key":  group,
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update attribute definition placement")
	}
	if result.RowsAffected == 0 {
		return repository.ErrDefinitionNotFound
	}

	return nil
}

// Delete removes a definition row.
func (repo *definitionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).Where("id = ?", id).Delete(&model.AttributeDefinitionModel{})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to delete attribute definition")
	}
	if result.RowsAffected == 0 {
		return repository.ErrDefinitionNotFound
	}

	return nil
}

// MaxOrder returns the highest order in the group.
func (repo *definitionRepository) MaxOrder(ctx context.Context, group string) (int, bool, error) {
	var maxOrder sql.NullInt64

	err := repo.db.WithContext(ctx).
		Model(&model.AttributeDefinitionModel{}).
		Where("group_key = ?", group).
		Select("MAX(sort_order)").
		Scan(&maxOrder).Error
	if err != nil {
		return 0, false, errors.Wrap(err, "failed to read max attribute order")
	}

	return int(maxOrder.Int64), maxOrder.Valid, nil
}

type countRow struct {
	Key   string
	Count int64
}

// Stats aggregates counts by status and kind.
func (repo *definitionRepository) Stats(ctx context.Context) (*repository.DefinitionStats, error) {
	stats := &repository.DefinitionStats{
		ByStatus: make(map[string]int64),
		ByKind:   make(map[string]int64),
	}

	for column, target := range map[string]map[string]int64{"status": stats.ByStatus, "kind": stats.ByKind} {
		var rows []countRow
		err := repo.db.WithContext(ctx).
			Model(&model.AttributeDefinitionModel{}).
			Select(column + " AS key, COUNT(*) AS count").
			Group(column).
			Scan(&rows).Error
		if err != nil {
			return nil, errors.Wrapf(err, "failed to count attribute definitions by %s", column)
		}
		for _, row := range rows {
			target[row.Key] = row.Count
		}
	}

	for _, count := range stats.ByStatus {
		stats.Total += count
	}

	return stats, nil
}

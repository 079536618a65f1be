package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"attrschema/internal/domain/entity"
	"attrschema/internal/domain/repository"

	"github.com/google/uuid"
)

type definitionRepository struct {
	st       *state
	writeErr error
}

func (r *definitionRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.AttributeDefinition, error) {
	def, ok := r.st.definitions[id]
	if !ok {
		return nil, repository.ErrDefinitionNotFound
	}

	return def.Clone(), nil
}

func (r *definitionRepository) FindByName(_ context.Context, name string) (*entity.AttributeDefinition, error) {
	for _, def := range r.st.definitions {
		if def.Name == name {
			return def.Clone(), nil
		}
	}

	return nil, repository.ErrDefinitionNotFound
}

func (r *definitionRepository) List(_ context.Context, filter repository.DefinitionFilter) ([]*entity.AttributeDefinition, int64, error) {
	filter = filter.Normalize()

	matched := make([]*entity.AttributeDefinition, 0, len(r.st.definitions))
	for _, def := range r.st.definitions {
		if matchesFilter(def, filter) {
			matched = append(matched, def)
		}
	}

	slices.SortFunc(matched, func(a, b *entity.AttributeDefinition) int {
		c := compareBy(a, b, filter.OrderBy)
		if filter.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}

		return cmp.Compare(a.Name, b.Name)
	})

	total := int64(len(matched))
	start := min(filter.Offset, len(matched))
	end := min(start+filter.Limit, len(matched))

	out := make([]*entity.AttributeDefinition, 0, end-start)
	for _, def := range matched[start:end] {
		out = append(out, def.Clone())
	}

	return out, total, nil
}

func matchesFilter(def *entity.AttributeDefinition, f repository.DefinitionFilter) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, def.Status) {
		return false
	}
	if len(f.Kinds) > 0 && !slices.Contains(f.Kinds, def.Kind) {
		return false
	}
	if len(f.Groups) > 0 && !slices.Contains(f.Groups, def.Group) {
		return false
	}
	if f.Searchable != nil && def.IsSearchable != *f.Searchable {
		return false
	}
	if f.Public != nil && def.IsPublic != *f.Public {
		return false
	}
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(def.Name), term) && !strings.Contains(strings.ToLower(def.Label), term) {
			return false
		}
	}

	return true
}

func compareBy(a, b *entity.AttributeDefinition, orderBy string) int {
	switch orderBy {
	case "name":
		return cmp.Compare(a.Name, b.Name)
	case "label":
		return cmp.Compare(a.Label, b.Label)
	case "kind":
		return cmp.Compare(a.Kind, b.Kind)
	case "group":
		return cmp.Compare(a.Group, b.Group)
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "updated_at":
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return cmp.Compare(a.Order, b.Order)
	}
}

func (r *definitionRepository) Create(_ context.Context, definition *entity.AttributeDefinition) error {
	if r.writeErr != nil {
		return r.writeErr
	}
	for _, def := range r.st.definitions {
		if def.Name == definition.Name {
			return repository.ErrDuplicateDefinitionName
		}
	}
	r.st.definitions[definition.ID] = definition.Clone()

	return nil
}

func (r *definitionRepository) Update(_ context.Context, definition *entity.AttributeDefinition) error {
	if r.writeErr != nil {
		return r.writeErr
	}
	existing, ok := r.st.definitions[definition.ID]
	if !ok {
		return repository.ErrDefinitionNotFound
	}
	updated := definition.Clone()
	updated.Name = existing.Name
	updated.CreatedAt = existing.CreatedAt
	updated.CreatedBy = existing.CreatedBy
	r.st.definitions[definition.ID] = updated

	return nil
}

func (r *definitionRepository) UpdatePlacement(_ context.Context, id uuid.UUID, order int, group string) error {
	if r.writeErr != nil {
		return r.writeErr
	}
	def, ok := r.st.definitions[id]
	if !ok {
		return repository.ErrDefinitionNotFound
	}
	def.Order = order
	def.Group = group

	return nil
}

func (r *definitionRepository) Delete(_ context.Context, id uuid.UUID) error {
	if r.writeErr != nil {
		return r.writeErr
	}
	if _, ok := r.st.definitions[id]; !ok {
		return repository.ErrDefinitionNotFound
	}
	delete(r.st.definitions, id)

	return nil
}

func (r *definitionRepository) MaxOrder(_ context.Context, group string) (int, bool, error) {
	maxOrder, found := 0, false
	for _, def := range r.st.definitions {
		if def.Group != group {
			continue
		}
		if !found || def.Order > maxOrder {
			maxOrder = def.Order
			found = true
		}
	}

	return maxOrder, found, nil
}

func (r *definitionRepository) Stats(_ context.Context) (*repository.DefinitionStats, error) {
	stats := &repository.DefinitionStats{
		ByStatus: make(map[string]int64),
		ByKind:   make(map[string]int64),
	}
	for _, def := range r.st.definitions {
		stats.Total++
		stats.ByStatus[def.Status.String()]++
		stats.ByKind[def.Kind]++
	}

	return stats, nil
}

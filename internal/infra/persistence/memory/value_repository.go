package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"attrschema/internal/domain/entity"
	"attrschema/internal/domain/repository"

	"github.com/google/uuid"
)

type valueRepository struct {
	st       *state
	writeErr error
}

func copyValue(v *entity.AttributeValue) *entity.AttributeValue {
	cp := *v

	return &cp
}

func (r *valueRepository) Find(_ context.Context, principalID, definitionID uuid.UUID) (*entity.AttributeValue, error) {
	val, ok := r.st.values[valueKey{principalID: principalID, definitionID: definitionID}]
	if !ok {
		return nil, repository.ErrValueNotFound
	}

	return copyValue(val), nil
}

func (r *valueRepository) ListByPrincipal(_ context.Context, principalID uuid.UUID) ([]*entity.AttributeValue, error) {
	out := make([]*entity.AttributeValue, 0)
	for key, val := range r.st.values {
		if key.principalID == principalID {
			out = append(out, copyValue(val))
		}
	}
	slices.SortFunc(out, func(a, b *entity.AttributeValue) int {
		return cmp.Compare(a.DefinitionID.String(), b.DefinitionID.String())
	})

	return out, nil
}

func (r *valueRepository) ListByDefinition(_ context.Context, definitionID uuid.UUID) ([]*entity.AttributeValue, error) {
	out := make([]*entity.AttributeValue, 0)
	for key, val := range r.st.values {
		if key.definitionID == definitionID {
			out = append(out, copyValue(val))
		}
	}
	slices.SortFunc(out, func(a, b *entity.AttributeValue) int {
		return cmp.Compare(a.PrincipalID.String(), b.PrincipalID.String())
	})

	return out, nil
}

func (r *valueRepository) Upsert(_ context.Context, value *entity.AttributeValue) error {
	if r.writeErr != nil {
		return r.writeErr
	}
	key := valueKey{principalID: value.PrincipalID, definitionID: value.DefinitionID}
	stored := copyValue(value)
	if existing, ok := r.st.values[key]; ok {
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
	}
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	r.st.values[key] = stored
	value.ID = stored.ID
	value.CreatedAt = stored.CreatedAt

	return nil
}

func (r *valueRepository) Delete(_ context.Context, principalID, definitionID uuid.UUID) error {
	if r.writeErr != nil {
		return r.writeErr
	}
	key := valueKey{principalID: principalID, definitionID: definitionID}
	if _, ok := r.st.values[key]; !ok {
		return repository.ErrValueNotFound
	}
	delete(r.st.values, key)

	return nil
}

func (r *valueRepository) DeleteByDefinition(_ context.Context, definitionID uuid.UUID) (int64, error) {
	if r.writeErr != nil {
		return 0, r.writeErr
	}
	var removed int64
	for key := range r.st.values {
		if key.definitionID == definitionID {
			delete(r.st.values, key)
			removed++
		}
	}

	return removed, nil
}

func (r *valueRepository) CountByDefinition(_ context.Context, definitionID uuid.UUID) (int64, error) {
	var count int64
	for key := range r.st.values {
		if key.definitionID == definitionID {
			count++
		}
	}

	return count, nil
}

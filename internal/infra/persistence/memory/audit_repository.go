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

type groupRepository struct {
	st       *state
	writeErr error
}

func (r *groupRepository) List(_ context.Context) ([]*entity.AttributeGroup, error) {
	out := make([]*entity.AttributeGroup, 0, len(r.st.groups))
	for _, group := range r.st.groups {
		cp := *group
		out = append(out, &cp)
	}
	slices.SortFunc(out, func(a, b *entity.AttributeGroup) int {
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}

		return cmp.Compare(a.Key, b.Key)
	})

	return out, nil
}

func (r *groupRepository) Find(_ context.Context, key string) (*entity.AttributeGroup, error) {
	group, ok := r.st.groups[key]
	if !ok {
		return nil, repository.ErrGroupNotFound
	}
	cp := *group

	return &cp, nil
}

func (r *groupRepository) Save(_ context.Context, group *entity.AttributeGroup) error {
	if r.writeErr != nil {
		return r.writeErr
	}
	cp := *group
	if existing, ok := r.st.groups[group.Key]; ok {
		cp.CreatedAt = existing.CreatedAt
	}
	r.st.groups[group.Key] = &cp

	return nil
}

type historyRepository struct {
	st       *state
	writeErr error
}

func (r *historyRepository) Append(_ context.Context, record *entity.HistoryRecord) error {
	if r.writeErr != nil {
		return r.writeErr
	}
	cp := *record
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	r.st.history = append(r.st.history, &cp)

	return nil
}

func (r *historyRepository) ListByDefinition(_ context.Context, definitionID uuid.UUID, limit int) ([]*entity.HistoryRecord, error) {
	out := make([]*entity.HistoryRecord, 0)
	for i := len(r.st.history) - 1; i >= 0; i-- {
		rec := r.st.history[i]
		if rec.DefinitionID != definitionID {
			continue
		}
		cp := *rec
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}

	return out, nil
}

type purgeRepository struct {
	st       *state
	writeErr error
}

func (r *purgeRepository) Schedule(_ context.Context, purge *entity.PendingPurge) error {
	if r.writeErr != nil {
		return r.writeErr
	}
	cp := *purge
	cp.Snapshot = purge.Snapshot.Clone()
	r.st.purges[purge.DefinitionID] = &cp

	return nil
}

func (r *purgeRepository) Find(_ context.Context, definitionID uuid.UUID) (*entity.PendingPurge, error) {
	purge, ok := r.st.purges[definitionID]
	if !ok {
		return nil, repository.ErrPurgeNotFound
	}
	cp := *purge

	return &cp, nil
}

func (r *purgeRepository) ListDue(_ context.Context, now time.Time, limit int) ([]*entity.PendingPurge, error) {
	out := make([]*entity.PendingPurge, 0)
	for _, purge := range r.st.purges {
		if purge.IsDue(now) {
			cp := *purge
			out = append(out, &cp)
		}
	}
	slices.SortFunc(out, func(a, b *entity.PendingPurge) int {
		return a.DueAt.Compare(b.DueAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (r *purgeRepository) Remove(_ context.Context, definitionID uuid.UUID) error {
	if r.writeErr != nil {
		return r.writeErr
	}
	delete(r.st.purges, definitionID)

	return nil
}

// Package memory is an in-process implementation of the storage contracts.
// It backs the service and API tests without a running database.
package memory

import (
	"context"
	"sync"

	"attrschema/internal/domain/entity"
	"attrschema/internal/domain/repository"

	"github.com/google/uuid"
)

type valueKey struct {
	principalID  uuid.UUID
	definitionID uuid.UUID
}

type state struct {
	definitions map[uuid.UUID]*entity.AttributeDefinition
	values      map[valueKey]*entity.AttributeValue
	groups      map[string]*entity.AttributeGroup
	history     []*entity.HistoryRecord
	purges      map[uuid.UUID]*entity.PendingPurge
}

func newState() *state {
	return &state{
		definitions: make(map[uuid.UUID]*entity.AttributeDefinition),
		values:      make(map[valueKey]*entity.AttributeValue),
		groups:      make(map[string]*entity.AttributeGroup),
		purges:      make(map[uuid.UUID]*entity.PendingPurge),
	}
}

func (s *state) clone() *state {
	out := newState()
	for id, def := range s.definitions {
		out.definitions[id] = def.Clone()
	}
	for key, val := range s.values {
		cp := *val
		out.values[key] = &cp
	}
	for key, group := range s.groups {
		cp := *group
		out.groups[key] = &cp
	}
	// History is append-only so records can be shared.
	out.history = append(out.history, s.history...)
	for id, purge := range s.purges {
		cp := *purge
		cp.Snapshot = purge.Snapshot.Clone()
		out.purges[id] = &cp
	}

	return out
}

// Store holds every collection. Transactions run one at a time against a
// copy of the state which replaces the committed state only on success.
type Store struct {
	mu        sync.Mutex
	committed *state
	writeErr  error
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{committed: newState()}
}

// WithWriteError makes every subsequent write fail with err. Pass nil to clear it.
func (s *Store) WithWriteError(err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeErr = err

	return s
}

// NewTransactionManager returns a TransactionManager over the store.
func NewTransactionManager(store *Store) repository.TransactionManager {
	return &transactionManager{store: store}
}

type transactionManager struct {
	store *Store
}

// Execute runs fn against a working copy and commits it when fn succeeds.
// A panic inside fn leaves the committed state untouched.
func (tm *transactionManager) Execute(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tm.store.mu.Lock()
	defer tm.store.mu.Unlock()

	work := tm.store.committed.clone()
	factory := &repositoryFactory{st: work, writeErr: tm.store.writeErr}
	if err := fn(factory); err != nil {
		return err
	}
	tm.store.committed = work

	return nil
}

type repositoryFactory struct {
	st       *state
	writeErr error
}

func (f *repositoryFactory) DefinitionRepo() repository.DefinitionRepository {
	return &definitionRepository{st: f.st, writeErr: f.writeErr}
}

func (f *repositoryFactory) ValueRepo() repository.ValueRepository {
	return &valueRepository{st: f.st, writeErr: f.writeErr}
}

func (f *repositoryFactory) GroupRepo() repository.GroupRepository {
	return &groupRepository{st: f.st, writeErr: f.writeErr}
}

func (f *repositoryFactory) HistoryRepo() repository.HistoryRepository {
	return &historyRepository{st: f.st, writeErr: f.writeErr}
}

func (f *repositoryFactory) PurgeRepo() repository.PurgeRepository {
	return &purgeRepository{st: f.st, writeErr: f.writeErr}
}

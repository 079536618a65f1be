package service

import (
	"context"

	"attrschema/internal/domain/entity"
)

type actorKey struct{}

// WithActor returns a context carrying the actor performing the operation.
func WithActor(ctx context.Context, actor entity.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor stored in ctx, or an anonymous actor
// without capabilities.
func ActorFromContext(ctx context.Context) entity.Actor {
	if actor, ok := ctx.Value(actorKey{}).(entity.Actor); ok {
		return actor
	}

	return entity.Actor{ID: "anonymous"}
}

// Authorizer decides whether the actor in ctx holds a capability. Roles and
// capability storage belong to the account system; this is its interface.
type Authorizer interface {
	Can(ctx context.Context, capability string) bool
}

// ContextAuthorizer trusts the capabilities attached to the context actor.
type ContextAuthorizer struct{}

// NewContextAuthorizer creates an Authorizer that reads the context actor.
func NewContextAuthorizer() Authorizer {
	return ContextAuthorizer{}
}

// Can implements Authorizer.
func (ContextAuthorizer) Can(ctx context.Context, capability string) bool {
	return ActorFromContext(ctx).Can(capability)
}

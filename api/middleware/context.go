package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/angelmondragon/pos-backend/pkg/enums"
)

// Actor is the authenticated caller behind a request.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
}

func (a Actor) valid() bool {
	return a.UserID != uuid.Nil && a.Role.IsValid()
}

type actorKey struct{}

// WithActor stores the caller on ctx. Handlers read it back with ActorFrom.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the caller set by Auth. ok is false for anonymous
// requests and for an actor with a nil id or unknown role.
func ActorFrom(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey{}).(Actor)
	if !ok || !actor.valid() {
		return Actor{}, false
	}
	return actor, true
}

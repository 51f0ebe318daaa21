package admin

import (
	"context"

	"github.com/jonathan/recruit-grader/internal/types"
)

type actorKey struct{}

// WithActor returns a context identifying the administrator performing operations.
func WithActor(ctx context.Context, actor types.ActorID) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the administrator stored by WithActor.
func ActorFrom(ctx context.Context) (types.ActorID, bool) {
	actor, ok := ctx.Value(actorKey{}).(types.ActorID)
	return actor, ok && actor != ""
}

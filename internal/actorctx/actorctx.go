package actorctx

import (
	"context"

	"github.com/geocoder89/clubhub/internal/domain/user"
)

type ctxKey struct{}

// WithActor stores the acting user for logging; services still take the actor explicitly.
func WithActor(ctx context.Context, a user.Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

func ActorFrom(ctx context.Context) (user.Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(user.Actor)

	return a, ok && a.ID != ""
}

func UserIDFrom(ctx context.Context) (string, bool) {
	a, ok := ActorFrom(ctx)
	return a.ID, ok
}

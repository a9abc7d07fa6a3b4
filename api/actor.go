package api

import (
	"context"
	"net/http"

	"github.com/tallybook/ledger-engine/ledger"
)

type actorKey struct{}

// ActorMiddleware resolves the acting user from the X-Actor-ID and
// X-Actor-Name headers. Identity resolution proper is out of scope here;
// an absent header falls back to the anonymous actor so offline use never
// blocks a mutation.
func ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := ledger.AnonymousActor
		if id := r.Header.Get("X-Actor-ID"); id != "" {
			actor = ledger.Actor{ID: id, Name: r.Header.Get("X-Actor-Name")}
		}
		ctx := context.WithValue(r.Context(), actorKey{}, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorProvider reads the actor placed in the request context by
// ActorMiddleware.
var ActorProvider = ledger.ActorFunc(func(ctx context.Context) ledger.Actor {
	if actor, ok := ctx.Value(actorKey{}).(ledger.Actor); ok {
		return actor
	}
	return ledger.AnonymousActor
})

package http

import (
	"net/http"

	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/security"
)

// authMiddleware resolves an optional bearer token into an actor. A token
// that is present but invalid is rejected; routes that need a caller check
// for one themselves.
func authMiddleware(tm security.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := tm.ValidateToken(security.BearerToken(header))
			if err != nil {
				writeUnauthenticated(w, err.Error())
				return
			}
			actor, err := claims.Actor()
			if err != nil {
				writeUnauthenticated(w, err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(security.WithActor(r.Context(), actor)))
		})
	}
}

// requireActor returns the caller or writes a 401.
func requireActor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor := security.ActorFromContext(r.Context())
	if actor == nil {
		writeUnauthenticated(w, "authentication required")
		return nil, false
	}
	return actor, true
}

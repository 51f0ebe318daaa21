// Package middleware provides HTTP middleware for authentication and authorization.
package middleware

import (
	"net/http"
	"strings"

	"github.com/jonathan/recruit-grader/internal/admin"
	"github.com/jonathan/recruit-grader/internal/types"
)

// TokenValidator is an interface for validating bearer tokens.
// This allows the middleware to work with any JWT service implementation.
type TokenValidator interface {
	ValidateToken(tokenString string) (ActorGetter, error)
}

// ActorGetter is an interface for extracting the administrator from token claims.
type ActorGetter interface {
	GetActorID() types.ActorID
}

// AuthMiddleware creates middleware that validates bearer tokens and stores the
// acting administrator in the request context (see admin.ActorFrom).
func AuthMiddleware(tokens TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			// Handle case-insensitive "Bearer" prefix
			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.ValidateToken(parts[1])
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			actor := claims.GetActorID()
			if strings.TrimSpace(string(actor)) == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := admin.WithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetActorID extracts the authenticated administrator from the request context.
func GetActorID(r *http.Request) (types.ActorID, bool) {
	return admin.ActorFrom(r.Context())
}

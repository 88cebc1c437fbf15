package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/accountsvc/accounts-service/internal/auth"
	"github.com/accountsvc/accounts-service/internal/models"
)

type contextKey string

const identityKey contextKey = "identity"

// Authenticate validates the bearer token and attaches the caller's identity to the
// request context. If roles are given, the identity's role must be one of them.
func Authenticate(tokenGenerator *auth.TokenGenerator, roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Expected format: "Authorization: Bearer <token>"
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				respondError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == "" {
				respondError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			// Validate token and extract identity
			userID, role, err := tokenGenerator.Validate(token)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			identity := models.Identity{UserID: userID, Role: role}

			// Check role against the required set, if any
			if len(roles) > 0 && !slices.Contains(roles, identity.Role) {
				respondError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity retrieves the caller's identity from context
func GetIdentity(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(models.Identity)
	return identity, ok
}

// respondError writes a JSON error response. Middleware cannot depend on the
// handlers package, so the small helper is duplicated here.
func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(`{"error":"` + message + `"}`))
}

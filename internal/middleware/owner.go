package middleware

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/accountsvc/accounts-service/internal/models"
)

// OwnerOrAdmin restricts an identity-scoped route to the user the {id} path
// parameter refers to, or to any admin. Must run after Authenticate.
func OwnerOrAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.Atoi(chi.URLParam(r, "id"))
		if err != nil || id <= 0 {
			respondError(w, http.StatusBadRequest, "invalid user ID")
			return
		}

		identity, ok := GetIdentity(r.Context())
		if !ok {
			respondError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		if identity.Role != models.RoleAdmin && identity.UserID != id {
			respondError(w, http.StatusForbidden, "access denied")
			return
		}

		next.ServeHTTP(w, r)
	})
}

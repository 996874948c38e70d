package middleware

import (
	"net/http"
)

// RequireRole rejects requests whose session role is not one of the given
// roles. Anonymous requests get 401, authenticated-but-ineligible ones 403.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetUserRole(r.Context())
			if !ok {
				RespondWithError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			if _, ok := allowed[role]; !ok {
				RespondWithError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

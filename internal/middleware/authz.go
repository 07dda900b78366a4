package middleware

import (
	"net/http"

	"github.com/natebrady-cyera/deep-thought/internal/auth"
)

// NewAdminMiddleware admits only users holding the user-management right. It
// must run after the authentication middleware.
func NewAdminMiddleware(evaluator *auth.Evaluator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := auth.GetUserFromContext(r.Context())
			if !ok {
				unauthenticated(w)
				return
			}
			if !evaluator.CanManageUsers(user) {
				writeError(w, http.StatusForbidden, "admin role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

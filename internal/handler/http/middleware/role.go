package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/sitecrew-hq/siteops-backend-go/internal/domain/user"
	"github.com/sitecrew-hq/siteops-backend-go/internal/handler/http/response"
)

// RequireSupervisor requires supervisor or admin role
func RequireSupervisor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.HandleError(w, user.ErrInsufficientPermissions)
			return
		}

		roleStr, ok := claims["role"].(string)
		if !ok || !user.Role(roleStr).CanViewSummaries() {
			response.HandleError(w, user.ErrInsufficientPermissions)
			return
		}

		next.ServeHTTP(w, r)
	})
}

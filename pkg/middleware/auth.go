package middleware

import (
	"net/http"
	"strings"

	"github.com/mad23dog/nomad-detroit-coffee/pkg/auth"
	"github.com/mad23dog/nomad-detroit-coffee/pkg/response"
)

// AdminAuth guards administrative mutations. It requires a valid bearer
// token carrying the admin claim; anything else is rejected before the
// handler runs.
func AdminAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")

		if token == "" || token == header {
			response.Unauthorized(w, "access token required")
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			response.Unauthorized(w, "invalid or expired token")
			return
		}

		if !claims.IsAdmin {
			response.Forbidden(w, "admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

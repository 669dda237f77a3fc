package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/xelth-com/eckposgo/internal/utils"
)

type contextKey string

const UserContextKey contextKey = "user"

// ErrorWriter renders an error response; handlers supply their JSON encoder
type ErrorWriter func(w http.ResponseWriter, status int, message string)

// Auth verifies bearer JWT tokens and stores the staff identity in the
// request context.
func Auth(secret string, fail ErrorWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				fail(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			// Bearer token
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				fail(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			claims, err := utils.ValidateToken(parts[1], secret)
			if err != nil {
				fail(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}
			who, err := utils.IdentityFromClaims(claims)
			if err != nil {
				fail(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, who)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole lets a request through only if Auth stored one of roles
func RequireRole(fail ErrorWriter, roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			who, ok := IdentityFrom(r.Context())
			if !ok {
				fail(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			for _, role := range roles {
				if who.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			fail(w, http.StatusForbidden, "Insufficient role")
		})
	}
}

// IdentityFrom returns the staff identity stored by Auth
func IdentityFrom(ctx context.Context) (utils.Identity, bool) {
	who, ok := ctx.Value(UserContextKey).(utils.Identity)
	return who, ok
}

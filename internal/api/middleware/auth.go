package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/keanu3244/shop-chat/internal/auth"
	"github.com/keanu3244/shop-chat/internal/models"
)

type contextKey string

const UserContextKey contextKey = "user"

// RequireAuth verifies the Bearer token on each request and attaches the
// authenticated user to the context. The token may arrive in the
// Authorization header or, for websocket upgrades, in the "token" query
// parameter (browsers cannot set headers on websocket handshakes).
func RequireAuth(secret string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := r.Header.Get("Authorization")
			if tokenString == "" {
				tokenString = r.URL.Query().Get("token")
			}
			if tokenString == "" {
				jsonError(w, http.StatusUnauthorized, "missing token")
				return
			}

			claims, err := auth.Parse(secret, tokenString)
			if err != nil {
				jsonError(w, http.StatusUnauthorized, err.Error())
				return
			}

			user := claims.User()
			ctx := context.WithValue(r.Context(), UserContextKey, &user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose authenticated user has a different role.
func RequireRole(role string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUserFromContext(r.Context())
			if user == nil || user.Role != role {
				jsonError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext retrieves the authenticated user from the request context.
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

func jsonError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": message})
}

// Package middleware holds the router middleware: authentication, request
// ids, request logging, and panic recovery.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mmo1994/SurnaturToDo/auth"
)

// TokenHeader is the custom request header carrying the session token on
// every authenticated call.
const TokenHeader = "x-auth-token"

// contextKey is a private type to avoid context key collisions.
type contextKey string

const userIDKey contextKey = "user_id"

// UserID extracts the authenticated user's id from the request context.
func UserID(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(userIDKey).(int)
	return id, ok
}

// WithUserID returns a context carrying the authenticated user's id.
// Exposed for handler tests that bypass the middleware.
func WithUserID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// Auth verifies the session token and stores the caller's user id in the
// request context. Requests without a valid, unexpired token get 401.
func Auth(issuer *auth.Issuer) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := r.Header.Get(TokenHeader)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "no token, authorization denied")
				return
			}

			userID, err := issuer.Verify(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "token is not valid")
				return
			}

			ctx := WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// Package handlers translates HTTP requests into store operations and back.
// Every task endpoint is scoped to the authenticated caller; a task owned by
// someone else is indistinguishable from a missing one.
package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmo1994/SurnaturToDo/apperr"
	"github.com/mmo1994/SurnaturToDo/auth"
	"github.com/mmo1994/SurnaturToDo/middleware"
	"github.com/mmo1994/SurnaturToDo/store"
)

// Handlers holds the stores and the token issuer shared by all endpoints.
type Handlers struct {
	users  store.UserStore
	todos  store.TodoStore
	issuer *auth.Issuer
	logger *zap.Logger
}

// New constructs the handler set.
func New(users store.UserStore, todos store.TodoStore, issuer *auth.Issuer, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{users: users, todos: todos, issuer: issuer, logger: logger}
}

// respondJSON formats and sends a JSON response.
func respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

// respondError maps a classified error to its HTTP status. Internal
// failures are logged with full detail and surfaced as a generic message.
func (h *Handlers) respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.Internal {
		h.logger.Error("request failed",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.RequestIDFrom(r.Context())),
		)
	}
	respondJSON(w, kind.HTTPStatus(), map[string]string{"error": apperr.Message(err)})
}

// callerID extracts the authenticated user id placed in the context by the
// auth middleware.
func (h *Handlers) callerID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, ok := middleware.UserID(r.Context())
	if !ok {
		h.respondError(w, r, apperr.New(apperr.Unauthorized, "authorization required"))
		return 0, false
	}
	return id, true
}

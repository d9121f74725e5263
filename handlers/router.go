package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mmo1994/SurnaturToDo/metrics"
	"github.com/mmo1994/SurnaturToDo/middleware"
)

// Router builds the full route table. Registration and login are public;
// everything else under /api requires a valid session token.
func (h *Handlers) Router(m *metrics.HTTPMetrics) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(h.logger))
	r.Use(middleware.Logging(h.logger))
	if m != nil {
		r.Use(m.Middleware())
		r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	}

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost)

	protected := api.PathPrefix("/").Subrouter()
	protected.Use(middleware.Auth(h.issuer))
	protected.HandleFunc("/auth", h.CurrentUser).Methods(http.MethodGet)
	protected.HandleFunc("/users/{id:[0-9]+}", h.GetUser).Methods(http.MethodGet)
	protected.HandleFunc("/users/{id:[0-9]+}", h.UpdateUser).Methods(http.MethodPut)
	protected.HandleFunc("/todos", h.ListTodos).Methods(http.MethodGet)
	protected.HandleFunc("/todos", h.CreateTodo).Methods(http.MethodPost)
	protected.HandleFunc("/todos/reorder", h.ReorderTodos).Methods(http.MethodPut)
	protected.HandleFunc("/todos/{id:[0-9]+}", h.GetTodo).Methods(http.MethodGet)
	protected.HandleFunc("/todos/{id:[0-9]+}", h.UpdateTodo).Methods(http.MethodPut)
	protected.HandleFunc("/todos/{id:[0-9]+}", h.DeleteTodo).Methods(http.MethodDelete)

	return r
}

// Health is a liveness probe.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

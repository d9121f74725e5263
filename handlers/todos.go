package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/mmo1994/SurnaturToDo/apperr"
	"github.com/mmo1994/SurnaturToDo/models"
	"github.com/mmo1994/SurnaturToDo/store"
	"github.com/mmo1994/SurnaturToDo/taskview"
)

// dueDateLayouts are the formats accepted for due_date values.
var dueDateLayouts = []string{time.RFC3339, "2006-01-02"}

func parseDueDate(s string) (*time.Time, error) {
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, apperr.Newf(apperr.InvalidInput, "invalid due_date: %q", s)
}

// todoID parses the {id} path variable.
func (h *Handlers) todoID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, r, apperr.New(apperr.InvalidInput, "invalid todo id"))
		return 0, false
	}
	return id, true
}

// ListTodos handles GET /api/todos. By default the list is ordered by
// position with newest-first tiebreaks; optional filter and sort query
// parameters apply the derived view server-side.
func (h *Handlers) ListTodos(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	filter, err := taskview.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	sortBy, err := taskview.ParseSort(r.URL.Query().Get("sort"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	todos, err := h.todos.ListByUser(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, taskview.Apply(todos, filter, sortBy))
}

// CreateTodo handles POST /api/todos. The new todo is appended to the end
// of the caller's custom order.
func (h *Handlers) CreateTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	var req models.CreateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, apperr.New(apperr.InvalidInput, "invalid request payload"))
		return
	}
	defer r.Body.Close()

	if req.Title == "" {
		h.respondError(w, r, apperr.New(apperr.InvalidInput, "title is required"))
		return
	}

	var due *time.Time
	if req.DueDate != nil && *req.DueDate != "" {
		var err error
		if due, err = parseDueDate(*req.DueDate); err != nil {
			h.respondError(w, r, err)
			return
		}
	}

	todo, err := h.todos.Create(r.Context(), userID, req.Title, req.Description, due)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, todo)
}

// GetTodo handles GET /api/todos/{id}.
func (h *Handlers) GetTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	id, ok := h.todoID(w, r)
	if !ok {
		return
	}

	todo, err := h.todos.Get(r.Context(), userID, id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, todo)
}

// UpdateTodo handles PUT /api/todos/{id}: a partial update. Sending
// {"due_date": null} clears the due date.
func (h *Handlers) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	id, ok := h.todoID(w, r)
	if !ok {
		return
	}

	var req models.UpdateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, apperr.New(apperr.InvalidInput, "invalid request payload"))
		return
	}
	defer r.Body.Close()

	upd := store.TodoUpdate{}
	if req.Title.Set {
		if !req.Title.Valid || req.Title.Value == "" {
			h.respondError(w, r, apperr.New(apperr.InvalidInput, "title must not be empty"))
			return
		}
		upd.Title = &req.Title.Value
	}
	if req.Description.Set {
		// An explicit null clears the description.
		desc := ""
		if req.Description.Valid {
			desc = req.Description.Value
		}
		upd.Description = &desc
	}
	if req.DueDate.Set {
		upd.SetDueDate = true
		if req.DueDate.Valid && req.DueDate.Value != "" {
			due, err := parseDueDate(req.DueDate.Value)
			if err != nil {
				h.respondError(w, r, err)
				return
			}
			upd.DueDate = due
		}
	}
	if req.Completed.Set {
		if !req.Completed.Valid {
			h.respondError(w, r, apperr.New(apperr.InvalidInput, "completed must be a boolean"))
			return
		}
		upd.Completed = &req.Completed.Value
	}

	todo, err := h.todos.Update(r.Context(), userID, id, upd)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, todo)
}

// DeleteTodo handles DELETE /api/todos/{id}.
func (h *Handlers) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}
	id, ok := h.todoID(w, r)
	if !ok {
		return
	}

	if err := h.todos.Delete(r.Context(), userID, id); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, models.MessageResponse{Msg: "todo removed"})
}

// ReorderTodos handles PUT /api/todos/reorder: an all-or-nothing rewrite of
// the caller's custom order. On failure the offending id is named so the
// client can decide whether to retry the whole batch.
func (h *Handlers) ReorderTodos(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	var req models.ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, apperr.New(apperr.InvalidInput, "invalid todo order data"))
		return
	}
	defer r.Body.Close()

	todos, err := h.todos.Reorder(r.Context(), userID, req.TodoIDs)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, todos)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"net/mail"
	"strconv"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmo1994/SurnaturToDo/apperr"
	"github.com/mmo1994/SurnaturToDo/models"
	"github.com/mmo1994/SurnaturToDo/store"
)

// ownProfileID parses the {id} path variable and checks it is the caller's
// own profile. Profiles are strictly private; any other id is rejected as
// Unauthorized before the store is touched.
func (h *Handlers) ownProfileID(w http.ResponseWriter, r *http.Request) (int, bool) {
	callerID, ok := h.callerID(w, r)
	if !ok {
		return 0, false
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, r, apperr.New(apperr.InvalidInput, "invalid user id"))
		return 0, false
	}
	if id != callerID {
		h.respondError(w, r, apperr.New(apperr.Unauthorized, "not authorized"))
		return 0, false
	}
	return id, true
}

// GetUser handles GET /api/users/{id}.
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownProfileID(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UpdateUser handles PUT /api/users/{id}: a partial update of name, email,
// and password.
func (h *Handlers) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownProfileID(w, r)
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, apperr.New(apperr.InvalidInput, "invalid request payload"))
		return
	}
	defer r.Body.Close()

	upd := store.UserUpdate{Name: req.Name, Email: req.Email}
	if req.Email != nil {
		if _, err := mail.ParseAddress(*req.Email); err != nil {
			h.respondError(w, r, apperr.New(apperr.InvalidInput, "invalid email address"))
			return
		}
	}
	if req.Password != nil {
		if *req.Password == "" {
			h.respondError(w, r, apperr.New(apperr.InvalidInput, "password must not be empty"))
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			h.respondError(w, r, apperr.Wrap(apperr.Internal, "hashing password", err))
			return
		}
		hashed := string(hash)
		upd.PasswordHash = &hashed
	}

	if upd.Empty() {
		h.respondError(w, r, apperr.New(apperr.InvalidInput, "no update information provided"))
		return
	}

	user, err := h.users.Update(r.Context(), id, upd)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

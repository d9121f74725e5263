package handlers

import (
	"encoding/json"
	"net/http"
	"net/mail"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmo1994/SurnaturToDo/apperr"
	"github.com/mmo1994/SurnaturToDo/models"
)

// Register handles POST /api/auth/register: creates the account and returns
// a session token, logging the new user in immediately.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, apperr.New(apperr.InvalidInput, "invalid request payload"))
		return
	}
	defer r.Body.Close()

	if req.Name == "" || req.Email == "" || req.Password == "" {
		h.respondError(w, r, apperr.New(apperr.InvalidInput, "name, email and password are required"))
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		h.respondError(w, r, apperr.New(apperr.InvalidInput, "invalid email address"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.respondError(w, r, apperr.Wrap(apperr.Internal, "hashing password", err))
		return
	}

	user, err := h.users.Create(r.Context(), req.Name, req.Email, string(hash))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, models.TokenResponse{Token: token})
}

// Login handles POST /api/auth/login. An unknown email and a wrong password
// are reported identically so account existence is not probeable.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, r, apperr.New(apperr.InvalidInput, "invalid request payload"))
		return
	}
	defer r.Body.Close()

	invalidCredentials := apperr.New(apperr.Unauthorized, "invalid credentials")

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if apperr.Is(err, apperr.NotFound) {
			h.respondError(w, r, invalidCredentials)
		} else {
			h.respondError(w, r, err)
		}
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		h.respondError(w, r, invalidCredentials)
		return
	}

	token, err := h.issuer.Issue(user.ID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, models.TokenResponse{Token: token})
}

// CurrentUser handles GET /api/auth: the authenticated caller's profile.
func (h *Handlers) CurrentUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.callerID(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

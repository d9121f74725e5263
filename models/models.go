// Package models defines the persisted entities and the request/response
// shapes exchanged with API clients.
package models

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User represents a registered account. The password hash is never serialized.
type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Todo is a task owned by exactly one user. Position defines the user's
// custom display order; values are renumbered 1..N by a reorder and are
// otherwise allowed to be non-contiguous.
type Todo struct {
	ID          int        `json:"id"`
	UserID      int        `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Completed   bool       `json:"completed"`
	Position    int        `json:"position"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Claims defines the information stored in a session token.
type Claims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries a freshly issued session token.
type TokenResponse struct {
	Token string `json:"token"`
}

// UpdateUserRequest is the partial-update body of PUT /api/users/{id}.
// Nil fields are left unchanged.
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// CreateTodoRequest is the body of POST /api/todos. DueDate accepts either
// RFC 3339 or a plain YYYY-MM-DD date.
type CreateTodoRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     *string `json:"due_date"`
}

// UpdateTodoRequest is the partial-update body of PUT /api/todos/{id}.
// Optional fields distinguish "absent" from an explicit null, so a due date
// can be cleared by sending {"due_date": null}.
type UpdateTodoRequest struct {
	Title       Optional[string] `json:"title"`
	Description Optional[string] `json:"description"`
	DueDate     Optional[string] `json:"due_date"`
	Completed   Optional[bool]   `json:"completed"`
}

// ReorderRequest is the body of PUT /api/todos/reorder: task ids in the
// desired final order.
type ReorderRequest struct {
	TodoIDs []int `json:"todo_ids"`
}

// MessageResponse is a plain confirmation payload.
type MessageResponse struct {
	Msg string `json:"msg"`
}

// Optional is a JSON field that remembers whether it appeared in the payload.
// Set is true if the field was present at all; Valid is true if it was
// present and non-null.
type Optional[T any] struct {
	Set   bool
	Valid bool
	Value T
}

// UnmarshalJSON implements json.Unmarshaler. It is only invoked for fields
// present in the payload, which is what makes absence detectable.
func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(b, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

// MarshalJSON implements json.Marshaler for symmetry in tests and clients.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

// Package store persists users and todos. The PostgreSQL implementations
// back the service in production; the in-memory implementations back tests
// and database-less development runs.
//
// Every todo operation is scoped by the owning user id. A todo that exists
// but belongs to someone else is reported as NotFound, never distinguished
// from one that does not exist.
package store

import (
	"context"
	"time"

	"github.com/mmo1994/SurnaturToDo/models"
)

// UserStore persists registered accounts.
type UserStore interface {
	// Create inserts a new user. A duplicate email yields a Conflict error.
	Create(ctx context.Context, name, email, passwordHash string) (*models.User, error)
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Update applies the non-nil fields. An email collision with another
	// user yields Conflict; an empty update yields InvalidInput.
	Update(ctx context.Context, id int, upd UserUpdate) (*models.User, error)
}

// UserUpdate holds the partial profile update. Nil fields are unchanged.
type UserUpdate struct {
	Name         *string
	Email        *string
	PasswordHash *string
}

// Empty reports whether the update would change nothing.
func (u UserUpdate) Empty() bool {
	return u.Name == nil && u.Email == nil && u.PasswordHash == nil
}

// TodoStore persists a user's tasks and their custom order.
type TodoStore interface {
	// ListByUser returns the user's todos ordered by position, breaking
	// ties by most recent creation first.
	ListByUser(ctx context.Context, userID int) ([]models.Todo, error)
	Get(ctx context.Context, userID, id int) (*models.Todo, error)
	// Create appends the todo to the end of the user's custom order:
	// position is assigned max(existing)+1 as observed at insert time.
	Create(ctx context.Context, userID int, title, description string, dueDate *time.Time) (*models.Todo, error)
	Update(ctx context.Context, userID, id int, upd TodoUpdate) (*models.Todo, error)
	Delete(ctx context.Context, userID, id int) error
	// Reorder writes position i+1 to the i-th listed todo inside a single
	// all-or-nothing transaction, then returns the full list by position.
	// If any id does not resolve to a todo owned by the user, nothing is
	// written and the error names the offending id. Todos omitted from
	// ids keep their previous positions.
	Reorder(ctx context.Context, userID int, ids []int) ([]models.Todo, error)
}

// TodoUpdate holds the partial task update. Nil fields are unchanged;
// SetDueDate distinguishes clearing the due date from leaving it alone.
type TodoUpdate struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	SetDueDate  bool
	Completed   *bool
}

// Empty reports whether the update would change nothing.
func (u TodoUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && !u.SetDueDate && u.Completed == nil
}

package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmo1994/SurnaturToDo/apperr"
	"github.com/mmo1994/SurnaturToDo/models"
)

// MemUsers is an in-memory UserStore with the same semantics as the
// PostgreSQL implementation. It backs tests and database-less runs.
type MemUsers struct {
	mu     sync.Mutex
	nextID int
	users  map[int]models.User
}

// NewMemUsers creates an empty in-memory user store.
func NewMemUsers() *MemUsers {
	return &MemUsers{nextID: 1, users: map[int]models.User{}}
}

func (s *MemUsers) Create(_ context.Context, name, email, passwordHash string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return nil, apperr.New(apperr.Conflict, "email already registered")
		}
	}

	now := time.Now()
	u := models.User{
		ID:           s.nextID,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.nextID++
	s.users[u.ID] = u
	return &u, nil
}

func (s *MemUsers) GetByID(_ context.Context, id int) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	return &u, nil
}

func (s *MemUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "user not found")
}

func (s *MemUsers) Update(_ context.Context, id int, upd UserUpdate) (*models.User, error) {
	if upd.Empty() {
		return nil, apperr.New(apperr.InvalidInput, "no update information provided")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	if upd.Email != nil {
		for otherID, other := range s.users {
			if otherID != id && strings.EqualFold(other.Email, *upd.Email) {
				return nil, apperr.New(apperr.Conflict, "email already in use")
			}
		}
		u.Email = *upd.Email
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	u.UpdatedAt = time.Now()
	s.users[id] = u
	return &u, nil
}

// MemTodos is an in-memory TodoStore mirroring the PostgreSQL semantics,
// including reorder atomicity.
type MemTodos struct {
	mu     sync.Mutex
	nextID int
	todos  map[int]models.Todo
}

// NewMemTodos creates an empty in-memory todo store.
func NewMemTodos() *MemTodos {
	return &MemTodos{nextID: 1, todos: map[int]models.Todo{}}
}

func (s *MemTodos) ListByUser(_ context.Context, userID int) ([]models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(userID), nil
}

func (s *MemTodos) listLocked(userID int) []models.Todo {
	out := []models.Todo{}
	for _, t := range s.todos {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *MemTodos) Get(_ context.Context, userID, id int) (*models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.todos[id]
	if !ok || t.UserID != userID {
		return nil, apperr.New(apperr.NotFound, "todo not found")
	}
	return &t, nil
}

func (s *MemTodos) Create(_ context.Context, userID int, title, description string, dueDate *time.Time) (*models.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxPos := 0
	for _, t := range s.todos {
		if t.UserID == userID && t.Position > maxPos {
			maxPos = t.Position
		}
	}

	now := time.Now()
	t := models.Todo{
		ID:          s.nextID,
		UserID:      userID,
		Title:       title,
		Description: description,
		DueDate:     dueDate,
		Position:    maxPos + 1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.nextID++
	s.todos[t.ID] = t
	return &t, nil
}

func (s *MemTodos) Update(_ context.Context, userID, id int, upd TodoUpdate) (*models.Todo, error) {
	if upd.Empty() {
		return nil, apperr.New(apperr.InvalidInput, "no update information provided")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.todos[id]
	if !ok || t.UserID != userID {
		return nil, apperr.New(apperr.NotFound, "todo not found")
	}
	if upd.Title != nil {
		t.Title = *upd.Title
	}
	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.SetDueDate {
		t.DueDate = upd.DueDate
	}
	if upd.Completed != nil {
		t.Completed = *upd.Completed
	}
	t.UpdatedAt = time.Now()
	s.todos[id] = t
	return &t, nil
}

func (s *MemTodos) Delete(_ context.Context, userID, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.todos[id]
	if !ok || t.UserID != userID {
		return apperr.New(apperr.NotFound, "todo not found")
	}
	delete(s.todos, id)
	return nil
}

// Reorder validates every id before writing anything, so a bad id leaves
// all positions untouched, matching the transactional contract.
func (s *MemTodos) Reorder(_ context.Context, userID int, ids []int) ([]models.Todo, error) {
	if len(ids) == 0 {
		return nil, apperr.New(apperr.InvalidInput, "invalid todo order data")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		t, ok := s.todos[id]
		if !ok || t.UserID != userID {
			return nil, apperr.Newf(apperr.NotFound, "todo with id %d not found", id)
		}
	}

	now := time.Now()
	for i, id := range ids {
		t := s.todos[id]
		t.Position = i + 1
		t.UpdatedAt = now
		s.todos[id] = t
	}
	return s.listLocked(userID), nil
}

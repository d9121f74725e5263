package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/mmo1994/SurnaturToDo/apperr"
	"github.com/mmo1994/SurnaturToDo/models"
)

// uniqueViolation is the postgres error code raised by the users.email
// unique constraint.
const uniqueViolation = "23505"

// Users is the PostgreSQL UserStore.
type Users struct {
	db *sql.DB
}

// NewUsers creates a Users store over the given connection.
func NewUsers(db *sql.DB) *Users {
	return &Users{db: db}
}

func (s *Users) Create(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	u := &models.User{Name: name, Email: email, PasswordHash: passwordHash}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO users (name, email, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		name, email, passwordHash,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Wrap(apperr.Conflict, "email already registered", err)
		}
		return nil, apperr.Wrap(apperr.Internal, "inserting user", err)
	}
	return u, nil
}

func (s *Users) GetByID(ctx context.Context, id int) (*models.User, error) {
	return s.get(ctx, `WHERE id = $1`, id)
}

func (s *Users) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.get(ctx, `WHERE email = $1`, email)
}

func (s *Users) get(ctx context.Context, where string, arg any) (*models.User, error) {
	u := &models.User{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, created_at, updated_at FROM users `+where,
		arg,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "fetching user", err)
	}
	return u, nil
}

// Update applies the non-nil fields in a single statement. Email uniqueness
// is enforced by the constraint rather than a racy pre-check.
func (s *Users) Update(ctx context.Context, id int, upd UserUpdate) (*models.User, error) {
	if upd.Empty() {
		return nil, apperr.New(apperr.InvalidInput, "no update information provided")
	}

	sets := []string{}
	args := []any{}
	n := 1
	add := func(col string, val any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, n))
		args = append(args, val)
		n++
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.PasswordHash != nil {
		add("password_hash", *upd.PasswordHash)
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(
		`UPDATE users SET %s WHERE id = $%d
		 RETURNING id, name, email, password_hash, created_at, updated_at`,
		strings.Join(sets, ", "), n,
	)

	u := &models.User{}
	err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "user not found")
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Wrap(apperr.Conflict, "email already in use", err)
		}
		return nil, apperr.Wrap(apperr.Internal, "updating user", err)
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mmo1994/SurnaturToDo/apperr"
	"github.com/mmo1994/SurnaturToDo/models"
)

const todoColumns = `id, user_id, title, description, due_date, completed, position, created_at, updated_at`

// Todos is the PostgreSQL TodoStore.
type Todos struct {
	db *sql.DB
}

// NewTodos creates a Todos store over the given connection.
func NewTodos(db *sql.DB) *Todos {
	return &Todos{db: db}
}

func (s *Todos) ListByUser(ctx context.Context, userID int) ([]models.Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+todoColumns+` FROM todos
		 WHERE user_id = $1
		 ORDER BY position ASC, created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "listing todos", err)
	}
	defer rows.Close()

	todos := []models.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "scanning todo", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "iterating todos", err)
	}
	return todos, nil
}

func (s *Todos) Get(ctx context.Context, userID, id int) (*models.Todo, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "todo not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "fetching todo", err)
	}
	return &t, nil
}

// Create appends the todo to the user's custom order. Reading the current
// maximum position and inserting happen in one statement, which narrows the
// window in which two concurrent creations by the same user could observe
// the same maximum. Under the default isolation level duplicates remain
// possible; they are tolerated, since listing tiebreaks by creation time.
func (s *Todos) Create(ctx context.Context, userID int, title, description string, dueDate *time.Time) (*models.Todo, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO todos (user_id, title, description, due_date, position)
		 SELECT $1, $2, $3, $4, COALESCE(MAX(position), 0) + 1
		 FROM todos WHERE user_id = $1
		 RETURNING `+todoColumns,
		userID, title, description, dueDate,
	)
	t, err := scanTodo(row)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "inserting todo", err)
	}
	return &t, nil
}

func (s *Todos) Update(ctx context.Context, userID, id int, upd TodoUpdate) (*models.Todo, error) {
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
	if upd.Title != nil {
		add("title", *upd.Title)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.SetDueDate {
		add("due_date", upd.DueDate)
	}
	if upd.Completed != nil {
		add("completed", *upd.Completed)
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id, userID)

	query := fmt.Sprintf(
		`UPDATE todos SET %s WHERE id = $%d AND user_id = $%d RETURNING `+todoColumns,
		strings.Join(sets, ", "), n, n+1,
	)

	row := s.db.QueryRowContext(ctx, query, args...)
	t, err := scanTodo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.NotFound, "todo not found")
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "updating todo", err)
	}
	return &t, nil
}

func (s *Todos) Delete(ctx context.Context, userID, id int) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM todos WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "deleting todo", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return apperr.Wrap(apperr.Internal, "deleting todo", err)
	}
	if affected == 0 {
		return apperr.New(apperr.NotFound, "todo not found")
	}
	return nil
}

// Reorder renumbers the listed todos 1..N inside a single transaction.
// Any id that does not resolve to a todo owned by userID aborts the whole
// operation; no position change persists. Todos not listed keep their old
// positions, matching the documented contract.
func (s *Todos) Reorder(ctx context.Context, userID int, ids []int) ([]models.Todo, error) {
	if len(ids) == 0 {
		return nil, apperr.New(apperr.InvalidInput, "invalid todo order data")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "beginning reorder transaction", err)
	}
	defer tx.Rollback()

	for i, id := range ids {
		var updated int
		err := tx.QueryRowContext(ctx,
			`UPDATE todos SET position = $1, updated_at = now()
			 WHERE id = $2 AND user_id = $3
			 RETURNING id`,
			i+1, id, userID,
		).Scan(&updated)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.NotFound, "todo with id %d not found", id)
		}
		if err != nil {
			return nil, apperr.Wrap(apperr.Internal, "updating todo position", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "committing reorder transaction", err)
	}

	return s.ListByUser(ctx, userID)
}

// scanTodo reads one todo row from either *sql.Row or *sql.Rows.
func scanTodo(row interface{ Scan(...any) error }) (models.Todo, error) {
	var t models.Todo
	var due sql.NullTime
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &due,
		&t.Completed, &t.Position, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return t, err
	}
	if due.Valid {
		d := due.Time
		t.DueDate = &d
	}
	return t, nil
}

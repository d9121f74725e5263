package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mmo1994/SurnaturToDo/auth"
	"github.com/mmo1994/SurnaturToDo/metrics"
	"github.com/mmo1994/SurnaturToDo/middleware"
	"github.com/mmo1994/SurnaturToDo/models"
	"github.com/mmo1994/SurnaturToDo/store"
)

func newTestRouter(t *testing.T) *mux.Router {
	t.Helper()
	issuer := auth.NewIssuer("test-secret", time.Hour)
	h := New(store.NewMemUsers(), store.NewMemTodos(), issuer, zap.NewNop())
	return h.Router(metrics.New())
}

// do sends a JSON request through the router and returns the recorder.
func do(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(middleware.TokenHeader, token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func register(t *testing.T, router http.Handler, name, email string) string {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
		Name: name, Email: email, Password: "hunter22",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.TokenResponse](t, rec).Token
}

func createTodo(t *testing.T, router http.Handler, token, title string, dueDate *string) models.Todo {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/todos", token, models.CreateTodoRequest{
		Title: title, DueDate: dueDate,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Todo](t, rec)
}

func TestRegister(t *testing.T) {
	router := newTestRouter(t)

	t.Run("returns a working token", func(t *testing.T) {
		token := register(t, router, "alice", "alice@example.com")

		rec := do(t, router, http.MethodGet, "/api/auth", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		user := decode[models.User](t, rec)
		assert.Equal(t, "alice", user.Name)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.NotContains(t, rec.Body.String(), "password")
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
			Name: "imposter", Email: "alice@example.com", Password: "pw123456",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
			Email: "noname@example.com", Password: "pw123456",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid email rejected", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/api/auth/register", "", models.RegisterRequest{
			Name: "bob", Email: "not-an-email", Password: "pw123456",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLogin(t *testing.T) {
	router := newTestRouter(t)
	register(t, router, "alice", "alice@example.com")

	t.Run("correct credentials", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/api/auth/login", "", models.LoginRequest{
			Email: "alice@example.com", Password: "hunter22",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, decode[models.TokenResponse](t, rec).Token)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		wrongPW := do(t, router, http.MethodPost, "/api/auth/login", "", models.LoginRequest{
			Email: "alice@example.com", Password: "wrong",
		})
		unknown := do(t, router, http.MethodPost, "/api/auth/login", "", models.LoginRequest{
			Email: "nobody@example.com", Password: "hunter22",
		})
		assert.Equal(t, http.StatusUnauthorized, wrongPW.Code)
		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.JSONEq(t, wrongPW.Body.String(), unknown.Body.String())
	})
}

func TestAuthRequired(t *testing.T) {
	router := newTestRouter(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/auth"},
		{http.MethodGet, "/api/todos"},
		{http.MethodPost, "/api/todos"},
		{http.MethodPut, "/api/todos/reorder"},
		{http.MethodGet, "/api/users/1"},
	} {
		rec := do(t, router, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestUserProfile(t *testing.T) {
	router := newTestRouter(t)
	alice := register(t, router, "alice", "alice@example.com")
	bob := register(t, router, "bob", "bob@example.com")

	aliceRec := do(t, router, http.MethodGet, "/api/auth", alice, nil)
	aliceUser := decode[models.User](t, aliceRec)

	t.Run("own profile readable", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, fmt.Sprintf("/api/users/%d", aliceUser.ID), alice, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("other user's profile is off limits", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, fmt.Sprintf("/api/users/%d", aliceUser.ID), bob, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("partial update", func(t *testing.T) {
		name := "alice b."
		rec := do(t, router, http.MethodPut, fmt.Sprintf("/api/users/%d", aliceUser.ID), alice,
			models.UpdateUserRequest{Name: &name})
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[models.User](t, rec)
		assert.Equal(t, "alice b.", got.Name)
		assert.Equal(t, "alice@example.com", got.Email)
	})

	t.Run("email collision conflicts", func(t *testing.T) {
		email := "bob@example.com"
		rec := do(t, router, http.MethodPut, fmt.Sprintf("/api/users/%d", aliceUser.ID), alice,
			models.UpdateUserRequest{Email: &email})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("empty update rejected", func(t *testing.T) {
		rec := do(t, router, http.MethodPut, fmt.Sprintf("/api/users/%d", aliceUser.ID), alice,
			models.UpdateUserRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestTodoCRUD(t *testing.T) {
	router := newTestRouter(t)
	alice := register(t, router, "alice", "alice@example.com")

	t.Run("create assigns appended positions", func(t *testing.T) {
		first := createTodo(t, router, alice, "first", nil)
		second := createTodo(t, router, alice, "second", nil)
		assert.Equal(t, 1, first.Position)
		assert.Equal(t, 2, second.Position)
	})

	t.Run("missing title rejected", func(t *testing.T) {
		rec := do(t, router, http.MethodPost, "/api/todos", alice, models.CreateTodoRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("plain date accepted for due_date", func(t *testing.T) {
		due := "2026-09-15"
		todo := createTodo(t, router, alice, "dated", &due)
		require.NotNil(t, todo.DueDate)
		assert.Equal(t, 2026, todo.DueDate.Year())
	})

	t.Run("invalid due_date rejected", func(t *testing.T) {
		due := "next tuesday"
		rec := do(t, router, http.MethodPost, "/api/todos", alice, models.CreateTodoRequest{
			Title: "bad date", DueDate: &due,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("update toggles completion", func(t *testing.T) {
		todo := createTodo(t, router, alice, "toggle me", nil)
		rec := do(t, router, http.MethodPut, fmt.Sprintf("/api/todos/%d", todo.ID), alice,
			map[string]any{"completed": true})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decode[models.Todo](t, rec).Completed)
	})

	t.Run("explicit null clears due date", func(t *testing.T) {
		due := "2026-09-15"
		todo := createTodo(t, router, alice, "clear my date", &due)
		rec := do(t, router, http.MethodPut, fmt.Sprintf("/api/todos/%d", todo.ID), alice,
			map[string]any{"due_date": nil})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, decode[models.Todo](t, rec).DueDate)
	})

	t.Run("delete removes the todo", func(t *testing.T) {
		todo := createTodo(t, router, alice, "doomed", nil)
		rec := do(t, router, http.MethodDelete, fmt.Sprintf("/api/todos/%d", todo.ID), alice, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = do(t, router, http.MethodGet, fmt.Sprintf("/api/todos/%d", todo.ID), alice, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/todos/99999", alice, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCrossUserIsolation(t *testing.T) {
	router := newTestRouter(t)
	alice := register(t, router, "alice", "alice@example.com")
	bob := register(t, router, "bob", "bob@example.com")

	secret := createTodo(t, router, alice, "alice's secret", nil)

	// Bob holds the correct id but every access reads as not found.
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, fmt.Sprintf("/api/todos/%d", secret.ID)},
		{http.MethodDelete, fmt.Sprintf("/api/todos/%d", secret.ID)},
	} {
		rec := do(t, router, tc.method, tc.path, bob, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.path)
	}

	rec := do(t, router, http.MethodPut, fmt.Sprintf("/api/todos/%d", secret.ID), bob,
		map[string]any{"title": "stolen"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/todos", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.Todo](t, rec))
}

func TestListFilterAndSort(t *testing.T) {
	router := newTestRouter(t)
	alice := register(t, router, "alice", "alice@example.com")

	a := createTodo(t, router, alice, "buy milk", nil)
	due := "2026-09-01"
	b := createTodo(t, router, alice, "call dentist", &due)
	do(t, router, http.MethodPut, fmt.Sprintf("/api/todos/%d", a.ID), alice,
		map[string]any{"completed": true})

	t.Run("active filter", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/todos?filter=active", alice, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[[]models.Todo](t, rec)
		require.Len(t, got, 1)
		assert.Equal(t, b.ID, got[0].ID)
	})

	t.Run("due_date sort places undated last", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/todos?sort=due_date", alice, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[[]models.Todo](t, rec)
		require.Len(t, got, 2)
		assert.Equal(t, b.ID, got[0].ID)
		assert.Equal(t, a.ID, got[1].ID)
	})

	t.Run("invalid criteria rejected", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/todos?filter=done", alice, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReorderEndpoint(t *testing.T) {
	router := newTestRouter(t)
	alice := register(t, router, "alice", "alice@example.com")
	bob := register(t, router, "bob", "bob@example.com")

	a := createTodo(t, router, alice, "a", nil)
	b := createTodo(t, router, alice, "b", nil)
	c := createTodo(t, router, alice, "c", nil)
	foreign := createTodo(t, router, bob, "bob's", nil)

	t.Run("permutation renumbers 1..N", func(t *testing.T) {
		rec := do(t, router, http.MethodPut, "/api/todos/reorder", alice,
			models.ReorderRequest{TodoIDs: []int{c.ID, a.ID, b.ID}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := decode[[]models.Todo](t, rec)
		require.Len(t, got, 3)
		assert.Equal(t, []int{c.ID, a.ID, b.ID}, []int{got[0].ID, got[1].ID, got[2].ID})
		assert.Equal(t, []int{1, 2, 3}, []int{got[0].Position, got[1].Position, got[2].Position})
	})

	t.Run("foreign id aborts atomically with the offending id", func(t *testing.T) {
		rec := do(t, router, http.MethodPut, "/api/todos/reorder", alice,
			models.ReorderRequest{TodoIDs: []int{a.ID, foreign.ID, b.ID}})
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), fmt.Sprintf("%d", foreign.ID))

		// Order from the previous successful reorder is intact.
		list := do(t, router, http.MethodGet, "/api/todos", alice, nil)
		got := decode[[]models.Todo](t, list)
		assert.Equal(t, []int{c.ID, a.ID, b.ID}, []int{got[0].ID, got[1].ID, got[2].ID})
	})

	t.Run("empty list rejected", func(t *testing.T) {
		rec := do(t, router, http.MethodPut, "/api/todos/reorder", alice,
			models.ReorderRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// TestEndToEnd walks the full scenario: register, create two tasks, check
// the due-date view, reorder, and list by position.
func TestEndToEnd(t *testing.T) {
	router := newTestRouter(t)
	alice := register(t, router, "alice", "alice@example.com")

	milk := createTodo(t, router, alice, "Buy milk", nil)
	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	dentist := createTodo(t, router, alice, "Call dentist", &tomorrow)

	// Sorted by due date, the dated task comes first.
	rec := do(t, router, http.MethodGet, "/api/todos?sort=due_date", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	byDue := decode[[]models.Todo](t, rec)
	require.Len(t, byDue, 2)
	assert.Equal(t, "Call dentist", byDue[0].Title)
	assert.Equal(t, "Buy milk", byDue[1].Title)

	// Reorder to [Buy milk, Call dentist].
	rec = do(t, router, http.MethodPut, "/api/todos/reorder", alice,
		models.ReorderRequest{TodoIDs: []int{milk.ID, dentist.ID}})
	require.Equal(t, http.StatusOK, rec.Code)
	reordered := decode[[]models.Todo](t, rec)
	require.Len(t, reordered, 2)
	assert.Equal(t, 1, reordered[0].Position)
	assert.Equal(t, "Buy milk", reordered[0].Title)
	assert.Equal(t, 2, reordered[1].Position)

	// Listing by position now returns "Buy milk" first.
	rec = do(t, router, http.MethodGet, "/api/todos", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	byPos := decode[[]models.Todo](t, rec)
	assert.Equal(t, "Buy milk", byPos[0].Title)
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)
	rec := do(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)
	do(t, router, http.MethodGet, "/health", "", nil)

	rec := do(t, router, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

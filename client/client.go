// Package client is a Go client for the todo API. It keeps a local cache of
// the caller's tasks keyed by id, mirroring what the server returned last.
// The server stays the source of truth: the cache is a derived, possibly
// stale view, refreshed from list responses and updated from mutation
// responses.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/mmo1994/SurnaturToDo/apperr"
	"github.com/mmo1994/SurnaturToDo/middleware"
	"github.com/mmo1994/SurnaturToDo/models"
	"github.com/mmo1994/SurnaturToDo/taskview"
)

// Client talks to one todo API server on behalf of one user session.
type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.Mutex
	token string
	cache map[int]models.Todo
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the API at baseURL (without the /api prefix).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		cache:   map[int]models.Todo{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register creates an account and stores the returned session token.
func (c *Client) Register(ctx context.Context, name, email, password string) error {
	var resp models.TokenResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/register", models.RegisterRequest{
		Name: name, Email: email, Password: password,
	}, &resp)
	if err != nil {
		return err
	}
	c.setToken(resp.Token)
	return nil
}

// Login authenticates and stores the returned session token.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var resp models.TokenResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", models.LoginRequest{
		Email: email, Password: password,
	}, &resp)
	if err != nil {
		return err
	}
	c.setToken(resp.Token)
	return nil
}

// Logout drops the session token and the cache.
func (c *Client) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.cache = map[int]models.Todo{}
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// CurrentUser fetches the authenticated profile.
func (c *Client) CurrentUser(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, http.MethodGet, "/api/auth", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Refresh reloads the cache from the server.
func (c *Client) Refresh(ctx context.Context) error {
	var todos []models.Todo
	if err := c.do(ctx, http.MethodGet, "/api/todos", nil, &todos); err != nil {
		return err
	}
	c.replaceCache(todos)
	return nil
}

func (c *Client) replaceCache(todos []models.Todo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[int]models.Todo, len(todos))
	for _, t := range todos {
		c.cache[t.ID] = t
	}
}

// Todos returns the cached tasks ordered by position. It never touches the
// network; call Refresh first for a current view.
func (c *Client) Todos() []models.Todo {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]models.Todo, 0, len(c.cache))
	for _, t := range c.cache {
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// View returns the cached tasks through the given filter and sort, without
// mutating the cache.
func (c *Client) View(filter taskview.Filter, sortBy taskview.Sort) []models.Todo {
	return taskview.Apply(c.Todos(), filter, sortBy)
}

// Create adds a task and caches the server's version of it.
func (c *Client) Create(ctx context.Context, title, description string, dueDate *string) (*models.Todo, error) {
	var todo models.Todo
	err := c.do(ctx, http.MethodPost, "/api/todos", models.CreateTodoRequest{
		Title: title, Description: description, DueDate: dueDate,
	}, &todo)
	if err != nil {
		return nil, err
	}
	c.cacheOne(todo)
	return &todo, nil
}

// Update applies a partial update and refreshes the cached entry. Only the
// fields marked Set are sent, so unset fields stay untouched server-side.
func (c *Client) Update(ctx context.Context, id int, req models.UpdateTodoRequest) (*models.Todo, error) {
	payload := map[string]any{}
	set := func(key string, valid bool, value any) {
		if valid {
			payload[key] = value
		} else {
			payload[key] = nil
		}
	}
	if req.Title.Set {
		set("title", req.Title.Valid, req.Title.Value)
	}
	if req.Description.Set {
		set("description", req.Description.Valid, req.Description.Value)
	}
	if req.DueDate.Set {
		set("due_date", req.DueDate.Valid, req.DueDate.Value)
	}
	if req.Completed.Set {
		set("completed", req.Completed.Valid, req.Completed.Value)
	}

	var todo models.Todo
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/todos/%d", id), payload, &todo); err != nil {
		return nil, err
	}
	c.cacheOne(todo)
	return &todo, nil
}

// ToggleComplete flips the cached completion state of the task.
func (c *Client) ToggleComplete(ctx context.Context, id int) (*models.Todo, error) {
	c.mu.Lock()
	current, ok := c.cache[id]
	c.mu.Unlock()
	if !ok {
		return nil, apperr.Newf(apperr.NotFound, "todo with id %d not cached", id)
	}

	return c.Update(ctx, id, models.UpdateTodoRequest{
		Completed: models.Optional[bool]{Set: true, Valid: true, Value: !current.Completed},
	})
}

// Delete removes the task on the server and from the cache.
func (c *Client) Delete(ctx context.Context, id int) error {
	if err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/todos/%d", id), nil, nil); err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.cache, id)
	c.mu.Unlock()
	return nil
}

func (c *Client) cacheOne(t models.Todo) {
	c.mu.Lock()
	c.cache[t.ID] = t
	c.mu.Unlock()
}

// Move takes the cached task with the given id and drops it at index in the
// position-ordered list, then confirms the complete new order with the
// server — the drag-and-drop gesture, expressed as an API call.
func (c *Client) Move(ctx context.Context, id, index int) error {
	todos := c.Todos()

	from := -1
	for i, t := range todos {
		if t.ID == id {
			from = i
			break
		}
	}
	if from == -1 {
		return apperr.Newf(apperr.NotFound, "todo with id %d not cached", id)
	}
	if index < 0 || index >= len(todos) {
		return apperr.Newf(apperr.InvalidInput, "index %d out of range", index)
	}
	if from == index {
		return nil
	}

	moved := todos[from]
	todos = append(todos[:from], todos[from+1:]...)
	rest := append([]models.Todo{}, todos[index:]...)
	todos = append(append(todos[:index:index], moved), rest...)

	ids := make([]int, len(todos))
	for i, t := range todos {
		ids[i] = t.ID
	}
	return c.Reorder(ctx, ids)
}

// Reorder submits the full desired order and replaces the cache with the
// server's confirmed list.
func (c *Client) Reorder(ctx context.Context, ids []int) error {
	var todos []models.Todo
	err := c.do(ctx, http.MethodPut, "/api/todos/reorder", models.ReorderRequest{TodoIDs: ids}, &todos)
	if err != nil {
		return err
	}
	c.replaceCache(todos)
	return nil
}

// errorResponse is the API's failure payload.
type errorResponse struct {
	Error string `json:"error"`
}

// do sends one request and decodes the response into out (when non-nil).
// Non-2xx responses come back as classified errors matching the server's
// taxonomy.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		req.Header.Set(middleware.TokenHeader, token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr errorResponse
		msg := resp.Status
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			msg = apiErr.Error
		}
		return apperr.New(kindForStatus(resp.StatusCode), msg)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func kindForStatus(code int) apperr.Kind {
	switch code {
	case http.StatusBadRequest:
		return apperr.InvalidInput
	case http.StatusUnauthorized:
		return apperr.Unauthorized
	case http.StatusNotFound:
		return apperr.NotFound
	case http.StatusConflict:
		return apperr.Conflict
	default:
		return apperr.Internal
	}
}

package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"todoapp/internal/database"
	"todoapp/internal/models"
	"todoapp/internal/repository"
	"todoapp/internal/service"
)

func setupTestRouter(t *testing.T) http.Handler {
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(db))

	svc := service.NewTodoService(repository.NewTodoRepository(db))
	return NewHandler(svc, db).Router()
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeTodo(t *testing.T, rec *httptest.ResponseRecorder) models.Todo {
	var todo models.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &todo))
	return todo
}

func TestCreateTodoEndpoint(t *testing.T) {
	router := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/todos", map[string]interface{}{
		"title": "buy milk",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	todo := decodeTodo(t, rec)
	assert.NotZero(t, todo.ID)
	assert.Equal(t, "buy milk", todo.Title)
	assert.Equal(t, models.PriorityMedium, todo.Priority)
	assert.False(t, todo.Completed)
}

func TestCreateTodoEndpoint_Validation(t *testing.T) {
	router := setupTestRouter(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{"missing title", map[string]interface{}{}},
		{"whitespace title", map[string]interface{}{"title": "   "}},
		{"bad priority", map[string]interface{}{"title": "x", "priority": "critical"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/todos", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestGetTodoEndpoint_RoundTrip(t *testing.T) {
	router := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/todos", map[string]interface{}{
		"title":    "report",
		"priority": "high",
		"category": "work",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeTodo(t, rec)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/todos/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created, decodeTodo(t, rec))
}

func TestListTodosEndpoint(t *testing.T) {
	router := setupTestRouter(t)

	for _, body := range []map[string]interface{}{
		{"title": "work item", "category": "work"},
		{"title": "home item", "category": "home"},
	} {
		rec := doJSON(t, router, http.MethodPost, "/api/todos", body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/todos?category=work", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var todos []models.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &todos))
	require.Len(t, todos, 1)
	assert.Equal(t, "work item", todos[0].Title)
}

func TestUpdateTodoEndpoint(t *testing.T) {
	router := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/todos", map[string]interface{}{"title": "task"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeTodo(t, rec)

	rec = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/todos/%d", created.ID),
		map[string]interface{}{"completed": true, "priority": "urgent"})
	require.Equal(t, http.StatusOK, rec.Code)

	updated := decodeTodo(t, rec)
	assert.True(t, updated.Completed)
	assert.Equal(t, models.PriorityUrgent, updated.Priority)
	assert.Equal(t, "task", updated.Title)
}

func TestUpdateTodoEndpoint_ExplicitNullClears(t *testing.T) {
	router := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/todos", map[string]interface{}{
		"title":    "task",
		"due_date": "2026-09-01",
		"category": "work",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeTodo(t, rec)
	require.NotNil(t, created.DueDate)
	require.NotNil(t, created.Category)

	// An explicit null is one provided field: it must clear the column,
	// not count as an empty patch.
	rec = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/todos/%d", created.ID),
		map[string]interface{}{"due_date": nil})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeTodo(t, rec)
	assert.Nil(t, updated.DueDate)
	require.NotNil(t, updated.Category)
	assert.Equal(t, "work", *updated.Category)

	rec = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/todos/%d", created.ID),
		map[string]interface{}{"category": nil})
	require.Equal(t, http.StatusOK, rec.Code)
	updated = decodeTodo(t, rec)
	assert.Nil(t, updated.Category)
	assert.Equal(t, "task", updated.Title)
}

func TestUpdateTodoEndpoint_Errors(t *testing.T) {
	router := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/todos", map[string]interface{}{"title": "task"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeTodo(t, rec)

	// Empty patch is a 400 even against an existing row.
	rec = doJSON(t, router, http.MethodPatch, fmt.Sprintf("/api/todos/%d", created.ID),
		map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// A real patch against a missing row is a 404.
	rec = doJSON(t, router, http.MethodPatch, "/api/todos/9999",
		map[string]interface{}{"completed": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Non-numeric id is a 400.
	rec = doJSON(t, router, http.MethodPatch, "/api/todos/abc",
		map[string]interface{}{"completed": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteTodoEndpoint(t *testing.T) {
	router := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/todos", map[string]interface{}{"title": "task"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeTodo(t, rec)

	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/todos/%d", created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp successResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)

	rec = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/todos/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBulkEndpoint(t *testing.T) {
	router := setupTestRouter(t)

	for i := 0; i < 3; i++ {
		rec := doJSON(t, router, http.MethodPost, "/api/todos", map[string]interface{}{"title": "open"})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, router, http.MethodPost, "/api/todos/bulk",
		map[string]interface{}{"action": "complete-all"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/todos?filter=active", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var todos []models.Todo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &todos))
	assert.Empty(t, todos)

	rec = doJSON(t, router, http.MethodPost, "/api/todos/bulk",
		map[string]interface{}{"action": "clear-completed"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/todos/bulk",
		map[string]interface{}{"action": "nuke"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	router := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	router := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/todos", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
	req.Header.Set("X-Request-ID", "client-supplied")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, "client-supplied", rec.Header().Get("X-Request-ID"))
}

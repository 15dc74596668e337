// Package server is the HTTP layer: routing, JSON parsing, status codes.
// Business rules live in the service, storage in the repository.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"

	"todoapp/internal/models"
	"todoapp/internal/repository"
	"todoapp/internal/service"
)

type Handler struct {
	svc *service.TodoService
	db  *sqlx.DB
}

func NewHandler(svc *service.TodoService, db *sqlx.DB) *Handler {
	return &Handler{
		svc: svc,
		db:  db,
	}
}

// Router assembles the HTTP routes and middleware for the todo API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(RequestIDMiddleware)

	r.Get("/healthz", h.health)

	r.Route("/api/todos", func(r chi.Router) {
		r.Get("/", h.listTodos)
		r.Post("/", h.createTodo)
		r.Post("/bulk", h.bulkAction)

		r.Get("/{id}", h.getTodo)
		r.Patch("/{id}", h.updateTodo)
		r.Delete("/{id}", h.deleteTodo)
	})

	return r
}

// listTodos handles GET /api/todos?filter=&sortBy=&category=
func (h *Handler) listTodos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.ListFilter{
		Status:   q.Get("filter"),
		SortBy:   q.Get("sortBy"),
		Category: q.Get("category"),
	}

	todos, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, todos)
}

// createTodo handles POST /api/todos
func (h *Handler) createTodo(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return
	}

	todo, err := h.svc.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, todo)
}

// getTodo handles GET /api/todos/{id}
func (h *Handler) getTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	todo, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, todo)
}

// updateTodo handles PATCH /api/todos/{id}
func (h *Handler) updateTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req models.UpdateTodoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return
	}

	todo, err := h.svc.Update(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, todo)
}

// deleteTodo handles DELETE /api/todos/{id}
func (h *Handler) deleteTodo(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// bulkAction handles POST /api/todos/bulk
func (h *Handler) bulkAction(w http.ResponseWriter, r *http.Request) {
	var req models.BulkActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return
	}

	message, err := h.svc.Bulk(r.Context(), req.Action)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: message})
}

// health handles GET /healthz by pinging the store.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid todo ID", "")
		return 0, false
	}
	return id, true
}

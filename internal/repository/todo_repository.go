package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"todoapp/internal/models"
)

// ErrNotFound is returned when an operation targets an id with no row.
var ErrNotFound = errors.New("todo not found")

const todoColumns = `id, title, completed, completed_by, priority, due_date, category, position, created_at`

type TodoRepository struct {
	db *sqlx.DB
}

func NewTodoRepository(db *sqlx.DB) *TodoRepository {
	return &TodoRepository{
		db: db,
	}
}

// ListFilter narrows and orders the result set. Zero values mean "no
// constraint": Status "" or "all" matches every row, SortBy "" falls back
// to newest-first.
type ListFilter struct {
	Status   string // "all", "active", "completed"
	SortBy   string // "created_at", "priority", "due_date", "position"
	Category string
}

// TodoInput carries the column values for a new row. The service applies
// defaults before it reaches the repository.
type TodoInput struct {
	Title    string
	Priority string
	DueDate  *string
	Category *string
	Position *int64
}

// TodoPatch is a structured partial update: nil fields are left untouched.
// A pointer to the empty string clears the column to NULL.
type TodoPatch struct {
	Title       *string
	Completed   *bool
	CompletedBy *string
	Priority    *string
	DueDate     *string
	Category    *string
	Position    *int64
}

func (p *TodoPatch) empty() bool {
	return p.Title == nil &&
		p.Completed == nil &&
		p.CompletedBy == nil &&
		p.Priority == nil &&
		p.DueDate == nil &&
		p.Category == nil &&
		p.Position == nil
}

// List returns the rows matching filter. Predicates are appended
// conjunctively only for parameters that actually constrain the set, and
// every sort order tie-breaks on created_at DESC.
func (r *TodoRepository) List(ctx context.Context, filter ListFilter) ([]models.Todo, error) {
	var (
		where []string
		args  []interface{}
	)

	switch filter.Status {
	case "active":
		where = append(where, "completed = 0")
	case "completed":
		where = append(where, "completed = 1")
	}

	if filter.Category != "" {
		where = append(where, "category = ?")
		args = append(args, filter.Category)
	}

	query := "SELECT " + todoColumns + " FROM todos"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}

	switch filter.SortBy {
	case "priority":
		// Most urgent first; CASE keeps the enum order out of collation.
		query += ` ORDER BY CASE priority
			WHEN 'urgent' THEN 1
			WHEN 'high' THEN 2
			WHEN 'medium' THEN 3
			WHEN 'low' THEN 4
		END, created_at DESC`
	case "due_date":
		query += " ORDER BY due_date IS NULL, due_date ASC, created_at DESC"
	case "position":
		query += " ORDER BY position IS NULL, position ASC, created_at DESC"
	default:
		query += " ORDER BY created_at DESC"
	}

	todos := []models.Todo{}
	if err := r.db.SelectContext(ctx, &todos, query, args...); err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}

	return todos, nil
}

// GetByID returns the row with the given id, or ErrNotFound.
func (r *TodoRepository) GetByID(ctx context.Context, id int64) (*models.Todo, error) {
	var todo models.Todo
	err := r.db.GetContext(ctx, &todo,
		"SELECT "+todoColumns+" FROM todos WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get todo %d: %w", id, err)
	}
	return &todo, nil
}

// Create inserts a row and returns it fully materialized, including the
// generated id and created_at.
func (r *TodoRepository) Create(ctx context.Context, input *TodoInput) (*models.Todo, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO todos (title, priority, due_date, category, position)
		 VALUES (?, ?, ?, ?, ?)`,
		input.Title, input.Priority,
		nullableString(input.DueDate), nullableString(input.Category),
		nullableInt(input.Position),
	)
	if err != nil {
		return nil, fmt.Errorf("insert todo: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert todo id: %w", err)
	}

	return r.GetByID(ctx, id)
}

// Update applies patch to the row with the given id and returns the updated
// row. Only non-nil patch fields make it into the SET clause.
func (r *TodoRepository) Update(ctx context.Context, id int64, patch *TodoPatch) (*models.Todo, error) {
	if patch.empty() {
		return nil, errors.New("empty patch")
	}

	var (
		set  []string
		args []interface{}
	)

	if patch.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Completed != nil {
		set = append(set, "completed = ?")
		args = append(args, *patch.Completed)
	}
	if patch.CompletedBy != nil {
		set = append(set, "completed_by = ?")
		args = append(args, nullableString(patch.CompletedBy))
	}
	if patch.Priority != nil {
		set = append(set, "priority = ?")
		args = append(args, *patch.Priority)
	}
	if patch.DueDate != nil {
		set = append(set, "due_date = ?")
		args = append(args, nullableString(patch.DueDate))
	}
	if patch.Category != nil {
		set = append(set, "category = ?")
		args = append(args, nullableString(patch.Category))
	}
	if patch.Position != nil {
		set = append(set, "position = ?")
		args = append(args, *patch.Position)
	}

	args = append(args, id)
	res, err := r.db.ExecContext(ctx,
		"UPDATE todos SET "+strings.Join(set, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return nil, fmt.Errorf("update todo %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update todo %d: %w", id, err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	return r.GetByID(ctx, id)
}

// Delete removes the row with the given id, or returns ErrNotFound.
func (r *TodoRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM todos WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete todo %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete todo %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// CompleteAll marks every incomplete row completed in one statement and
// returns the number of rows it touched.
func (r *TodoRepository) CompleteAll(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE todos SET completed = 1 WHERE completed = 0")
	if err != nil {
		return 0, fmt.Errorf("complete all todos: %w", err)
	}
	return res.RowsAffected()
}

// ClearCompleted deletes every completed row in one statement and returns
// the number of rows removed.
func (r *TodoRepository) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM todos WHERE completed = 1")
	if err != nil {
		return 0, fmt.Errorf("clear completed todos: %w", err)
	}
	return res.RowsAffected()
}

// nullableString maps a nil or empty string pointer to NULL; empty input
// is stored as the absence of a value, not as "".
func nullableString(s *string) interface{} {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func nullableInt(i *int64) interface{} {
	if i == nil {
		return nil
	}
	return *i
}

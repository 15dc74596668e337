package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"todoapp/internal/models"
	"todoapp/internal/repository"
)

// ValidationError marks malformed or out-of-domain input. The HTTP layer
// maps it to 400; everything else from the repository is 404 or 500.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

type TodoService struct {
	repo     *repository.TodoRepository
	validate *validator.Validate
}

func NewTodoService(repo *repository.TodoRepository) *TodoService {
	return &TodoService{
		repo:     repo,
		validate: validator.New(),
	}
}

// List returns todos narrowed by filter. Unknown filter or sort tokens are
// treated as their defaults rather than rejected, matching the query
// parameters being optional.
func (s *TodoService) List(ctx context.Context, filter repository.ListFilter) ([]models.Todo, error) {
	switch filter.Status {
	case "active", "completed":
	default:
		filter.Status = "all"
	}
	return s.repo.List(ctx, filter)
}

// Get returns one todo by id.
func (s *TodoService) Get(ctx context.Context, id int64) (*models.Todo, error) {
	return s.repo.GetByID(ctx, id)
}

// Create validates the request, fills defaults and inserts the todo.
func (s *TodoService) Create(ctx context.Context, req *models.CreateTodoRequest) (*models.Todo, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, validationErrorf("invalid todo: %v", err)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, validationErrorf("title is required")
	}

	priority := req.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	return s.repo.Create(ctx, &repository.TodoInput{
		Title:    title,
		Priority: priority,
		DueDate:  req.DueDate,
		Category: req.Category,
		Position: req.Position,
	})
}

// Update applies a partial update. An empty request body is rejected before
// the row is looked up, so "no valid fields" and "not found" stay distinct.
func (s *TodoService) Update(ctx context.Context, id int64, req *models.UpdateTodoRequest) (*models.Todo, error) {
	if req.Empty() {
		return nil, validationErrorf("no valid fields to update")
	}

	if err := s.validate.Struct(req); err != nil {
		return nil, validationErrorf("invalid update: %v", err)
	}

	patch := &repository.TodoPatch{
		Completed:   req.Completed,
		CompletedBy: req.CompletedBy,
		DueDate:     req.DueDate,
		Category:    req.Category,
		Position:    req.Position,
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, validationErrorf("title cannot be empty")
		}
		patch.Title = &title
	}

	if req.Priority != nil {
		if !models.ValidPriority(*req.Priority) {
			return nil, validationErrorf("invalid priority %q", *req.Priority)
		}
		patch.Priority = req.Priority
	}

	// completed_by only means something while the todo is completed;
	// flipping completed off clears it.
	if req.Completed != nil && !*req.Completed {
		cleared := ""
		patch.CompletedBy = &cleared
	}

	return s.repo.Update(ctx, id, patch)
}

// Delete removes one todo by id.
func (s *TodoService) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Bulk runs a set-wide action and returns a human-readable summary.
func (s *TodoService) Bulk(ctx context.Context, action string) (string, error) {
	switch action {
	case models.ActionCompleteAll:
		n, err := s.repo.CompleteAll(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("marked %d todos as complete", n), nil
	case models.ActionClearCompleted:
		n, err := s.repo.ClearCompleted(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("cleared %d completed todos", n), nil
	default:
		return "", validationErrorf("invalid action %q", action)
	}
}

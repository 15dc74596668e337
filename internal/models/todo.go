package models

import (
	"encoding/json"
	"time"
)

// Priority constants
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ValidPriority reports whether p is one of the enumerated priority values.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Todo is the persisted task record. Nullable columns use pointers so that
// absent values serialize as JSON null.
type Todo struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Completed   bool      `db:"completed" json:"completed"`
	CompletedBy *string   `db:"completed_by" json:"completed_by"`
	Priority    string    `db:"priority" json:"priority"`
	DueDate     *string   `db:"due_date" json:"due_date"`
	Category    *string   `db:"category" json:"category"`
	Position    *int64    `db:"position" json:"position"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// CreateTodoRequest is the incoming JSON contract for creating a todo.
type CreateTodoRequest struct {
	Title    string  `json:"title" validate:"required"`
	Priority string  `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	DueDate  *string `json:"due_date"`
	Category *string `json:"category"`
	Position *int64  `json:"position"`
}

// UpdateTodoRequest carries a partial update: nil means the client did not
// send the field, so it must be left untouched. For the nullable string
// columns an explicit JSON null counts as provided and clears the column;
// UnmarshalJSON maps it onto the empty string, the wire convention the
// repository coerces to NULL.
type UpdateTodoRequest struct {
	Title       *string `json:"title,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
	CompletedBy *string `json:"completed_by,omitempty"`
	Priority    *string `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	DueDate     *string `json:"due_date,omitempty"`
	Category    *string `json:"category,omitempty"`
	Position    *int64  `json:"position,omitempty"`
}

// UnmarshalJSON decodes the patch body key by key so that field presence
// survives: absent keys stay nil, explicit null on a nullable column
// becomes a clear. Null on title, completed, priority or position is
// treated as absent.
func (r *UpdateTodoRequest) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	for key, raw := range fields {
		var err error
		switch key {
		case "title":
			err = json.Unmarshal(raw, &r.Title)
		case "completed":
			err = json.Unmarshal(raw, &r.Completed)
		case "priority":
			err = json.Unmarshal(raw, &r.Priority)
		case "completed_by":
			r.CompletedBy, err = nullableField(raw)
		case "due_date":
			r.DueDate, err = nullableField(raw)
		case "category":
			r.Category, err = nullableField(raw)
		case "position":
			err = json.Unmarshal(raw, &r.Position)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

// nullableField decodes a string value where explicit null means "clear
// the column", carried downstream as the empty string.
func nullableField(raw json.RawMessage) (*string, error) {
	if string(raw) == "null" {
		cleared := ""
		return &cleared, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Empty reports whether the request carries no recognized fields.
func (r *UpdateTodoRequest) Empty() bool {
	return r.Title == nil &&
		r.Completed == nil &&
		r.CompletedBy == nil &&
		r.Priority == nil &&
		r.DueDate == nil &&
		r.Category == nil &&
		r.Position == nil
}

// Bulk action tokens
const (
	ActionCompleteAll    = "complete-all"
	ActionClearCompleted = "clear-completed"
)

// BulkActionRequest is the incoming JSON contract for set-wide operations.
type BulkActionRequest struct {
	Action string `json:"action"`
}

package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"todoapp/internal/repository"
	"todoapp/internal/service"
)

// errorResponse is the error envelope for every non-2xx body.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// successResponse acknowledges operations that return no record.
type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, errorResponse{Error: message, Details: details})
}

// writeServiceError maps service and repository errors onto the HTTP
// taxonomy: validation → 400, missing row → 404, anything else → 500 with
// a generic message and the underlying detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Message, "")
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "Todo not found", "")
	default:
		log.Printf("[%s] internal error: %v", RequestIDFromContext(r.Context()), err)
		writeError(w, http.StatusInternalServerError, "Internal server error", err.Error())
	}
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/savorly/marketledger/internal/adapter/http/dto"
	"github.com/savorly/marketledger/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError maps a core error to its HTTP representation. Structured
// errors carry their own status and code; anything else is a 500.
func writeDomainError(w http.ResponseWriter, err error) {
	var derr *domain.Error
	if errors.As(err, &derr) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(derr.HTTPStatus)
		json.NewEncoder(w).Encode(dto.ErrorResponse{
			Error:   derr.Message,
			Code:    string(derr.Code),
			Message: derr.Message,
		})
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error", err.Error())
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// Package httpapi exposes the HTTP API layer of the service.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fairyhunter13/inventory-stock-service/internal/model"
)

// jsonError represents a JSON error payload.
type jsonError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteJSONError writes a JSON error payload with the given status code.
func WriteJSONError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonError{Error: message, Details: details})
}

// WriteDomainError maps a business error to its status code. The boundary
// only translates error kinds; the rules themselves live in the inventory
// service.
func WriteDomainError(w http.ResponseWriter, err error) {
	var ve *model.ValidationError
	var ise *model.InsufficientStockError
	switch {
	case errors.As(err, &ve):
		WriteJSONError(w, http.StatusBadRequest, "validation_error", ve.Error())
	case errors.As(err, &ise):
		WriteJSONError(w, http.StatusConflict, "insufficient_stock", ise.Error())
	case errors.Is(err, model.ErrNotFound):
		WriteJSONError(w, http.StatusNotFound, "not_found", "")
	case errors.Is(err, model.ErrStoreUnavailable):
		WriteJSONError(w, http.StatusServiceUnavailable, "store_unavailable", "")
	default:
		WriteJSONError(w, http.StatusInternalServerError, "internal_error", "")
	}
}

package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/splitbook/splitbook/internal/auth"
	"github.com/splitbook/splitbook/internal/models"
)

// errorResponse is the JSON body for every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}

func readJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", models.ErrInvalidInput, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps domain errors to HTTP status codes. Unrecognized errors
// become 500 with a generic body so internals never leak to clients.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, models.ErrEmptyParticipants),
		errors.Is(err, models.ErrDuplicateParticipant),
		errors.Is(err, models.ErrSplitMismatch),
		errors.Is(err, models.ErrCurrencyMismatch),
		errors.Is(err, auth.ErrWeakPassword):
		status = http.StatusBadRequest
		msg = err.Error()
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		status = http.StatusUnauthorized
		msg = err.Error()
	case errors.Is(err, models.ErrNotAMember),
		errors.Is(err, models.ErrUnauthorized):
		status = http.StatusForbidden
		msg = err.Error()
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
		msg = err.Error()
	case errors.Is(err, auth.ErrEmailExists):
		status = http.StatusConflict
		msg = err.Error()
	case errors.Is(err, models.ErrAlreadySettled):
		status = http.StatusConflict
		msg = err.Error()
	case errors.Is(err, models.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
		msg = "storage unavailable"
	default:
		slog.Error("Unhandled error", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/librarydesk/backend/internal/domain"
)

// errorResponse is the JSON body returned for every error status.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

// errorDetail carries a stable machine-readable code plus a human message.
type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON serializes v with the charset-qualified content type the public
// listing contract requires and logs (rather than propagates) encode failures,
// since the status line is already on the wire by then.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("handler: encode response", "error", err)
	}
}

// writeError maps a service error to its HTTP status and error body.
// The notFoundMsg names what was being looked up (e.g. "book not found"),
// because the handler is the layer that knows.
func writeError(w http.ResponseWriter, err error, notFoundMsg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: errorDetail{Code: "not_found", Message: notFoundMsg}})
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: errorDetail{Code: "validation_error", Message: unwrapMessage(err)}})
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrUnavailable):
		writeJSON(w, http.StatusConflict, errorResponse{Error: errorDetail{Code: "conflict", Message: unwrapMessage(err)}})
	default:
		slog.Error("handler: internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: errorDetail{Code: "internal_error", Message: "internal server error"}})
	}
}

// writeRequestError rejects a request before it reaches the service layer
// (malformed body, unparsable id).
func writeRequestError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: errorDetail{Code: "validation_error", Message: message}})
}

// unwrapMessage extracts the human-readable tail from a wrapped sentinel error.
// e.g. "service.LoanService.Open: conflict: book already has an open loan"
// → "conflict: book already has an open loan" minus the sentinel prefix.
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	// Drop "service.X.Y: " style prefixes.
	for {
		i := strings.Index(msg, ": ")
		if i < 0 {
			break
		}
		head := msg[:i]
		if head == domain.ErrValidation.Error() || head == domain.ErrConflict.Error() || head == domain.ErrUnavailable.Error() {
			return msg[i+2:]
		}
		if !strings.HasPrefix(head, "service.") && !strings.HasPrefix(head, "repo.") {
			break
		}
		msg = msg[i+2:]
	}
	return msg
}

package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/kevinaaaquil/intelliread/auth"
)

// ErrorBody is the JSON shape of every failed API response.
type ErrorBody struct {
	Success bool   `json:"success"`
	Kind    string `json:"kind,omitempty"`
	Error   string `json:"error"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "err", err)
	}
}

// WriteMessage writes a failure with a plain message and no error kind.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorBody{Error: msg})
}

// WriteError maps err to a status code and writes it. Errors without a kind are
// logged and reported as a generic 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	kind := auth.KindOf(err)
	status := StatusFor(kind)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "kind", kind, "err", err)
	}
	WriteJSON(w, status, ErrorBody{Kind: string(kind), Error: auth.MessageOf(err)})
}

// StatusFor is the single kind-to-status table of the API.
func StatusFor(kind auth.Kind) int {
	switch kind {
	case auth.KindValidation, auth.KindDuplicateAccount, auth.KindInvalidCredentials,
		auth.KindOTPExpired, auth.KindOTPMismatch, auth.KindOTPNotVerified, auth.KindWeakPassword:
		return http.StatusBadRequest
	case auth.KindUnauthenticated:
		return http.StatusUnauthorized
	case auth.KindForbidden, auth.KindPublisherNotApproved:
		return http.StatusForbidden
	case auth.KindAccountNotFound, auth.KindOTPNotFound:
		return http.StatusNotFound
	case auth.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

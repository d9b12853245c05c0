package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/kevinaaaquil/intelliread/auth"
)

// Bearer lets API clients authenticate with a token instead of the session cookie.
// A missing, malformed or expired token attaches no principal, so the request
// falls back to the session. Protected routes reject it in Require; logout and
// status keep working for a client holding a stale token.
func Bearer(tokens *auth.Tokens) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				slog.DebugContext(r.Context(), "ignoring authorization header", "reason", "scheme")
				next.ServeHTTP(w, r)
				return
			}
			p, err := tokens.Parse(strings.TrimSpace(parts[1]))
			if err != nil {
				slog.DebugContext(r.Context(), "ignoring bearer token", "err", err)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), p)))
		})
	}
}

// Require rejects requests whose principal does not satisfy need.
func Require(gate *auth.Gate, need auth.Level) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := gate.Require(r.Context(), need); err != nil {
				WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

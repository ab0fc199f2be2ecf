package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/driftwatch/sentinel/internal/apperr"
)

// BearerAuth enforces spec §6's admin auth model: every /admin/* request
// must carry "Authorization: Bearer <token>" matching the configured
// ADMIN_TOKEN exactly. A blank configured token disables the admin API
// entirely rather than accepting any bearer value.
func BearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				writeAppError(w, apperr.Unauth("admin API disabled: no ADMIN_TOKEN configured"))
				return
			}
			got := r.Header.Get("Authorization")
			const prefix = "Bearer "
			if !strings.HasPrefix(got, prefix) {
				writeAppError(w, apperr.Unauth("missing bearer token"))
				return
			}
			candidate := strings.TrimPrefix(got, prefix)
			if subtle.ConstantTimeCompare([]byte(candidate), []byte(token)) != 1 {
				writeAppError(w, apperr.Unauth("invalid bearer token"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package auth

import (
	"crypto/subtle"
	"net/http"

	"rsvp-service/internal/logger"
)

// AdminOnly gates a route group behind the shared x-admin-key header. This is
// a single global credential, not per-user identity: no sessions, no
// rotation. A server with no key configured rejects everything.
func AdminOnly(adminKey string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-Admin-Key")
			if adminKey == "" || key == "" ||
				subtle.ConstantTimeCompare([]byte(key), []byte(adminKey)) != 1 {
				if log != nil {
					log.LogSecurity("ADMIN_KEY", "Rejected admin request to "+r.URL.Path)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"Unauthorized"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

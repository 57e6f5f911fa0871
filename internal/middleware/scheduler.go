package middleware

import (
	"crypto/subtle"
	"net/http"
)

const schedulerHeader = "X-Scheduler-Secret"

// Scheduler guards the time-triggered job endpoints with a shared secret.
// The trigger itself (cron, cloud scheduler) lives outside this service.
func Scheduler(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				http.Error(w, "scheduler secret not configured", http.StatusServiceUnavailable)
				return
			}
			provided := r.Header.Get(schedulerHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(secret)) != 1 {
				http.Error(w, "invalid scheduler secret", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

package httpadapter

import (
	"log/slog"
	"net/http"

	"github.com/giantswarm/oauth2-interceptor/security"
)

// RateLimit wraps next with per-client-IP throttling. It is meant to sit in
// front of the authorization endpoints, which an attacker can otherwise use
// to stuff the session store with states and targets.
func RateLimit(next http.Handler, limiter *security.KeyedLimiter, trustProxy bool, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r, trustProxy)
		if !limiter.Allow(ip) {
			logger.Warn("Request rate limited", "ip", ip, "path", r.URL.Path)
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Package httpadapter bridges net/http and the interceptor pipeline. It
// loads the session from a pluggable store, converts the request, runs the
// pipeline handler, persists any session patch, and writes the response.
package httpadapter

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"

	interceptor "github.com/giantswarm/oauth2-interceptor"
	"github.com/giantswarm/oauth2-interceptor/providers"
)

// SessionStore loads and saves the per-request session map. Implementations
// live in the sessionstore packages; anything matching the contract works.
type SessionStore interface {
	// Load returns the session for the request, or an empty map when the
	// request carries none.
	Load(r *http.Request) (map[string]any, error)

	// Save persists the session for the client, typically by writing a
	// cookie on w.
	Save(w http.ResponseWriter, r *http.Request, session map[string]any) error
}

// Adapter serves HTTP by running requests through a pipeline handler.
type Adapter struct {
	handler  interceptor.Handler
	sessions SessionStore
	logger   *slog.Logger
}

// New creates an adapter for the given pipeline handler and session store.
func New(handler interceptor.Handler, sessions SessionStore, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		handler:  handler,
		sessions: sessions,
		logger:   logger,
	}
}

// ServeHTTP implements http.Handler.
func (a *Adapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	session, err := a.sessions.Load(r)
	if err != nil {
		a.logger.Error("Failed to load session", "error", err)
		http.Error(w, "session unavailable", http.StatusInternalServerError)
		return
	}

	req := FromHTTP(r, session)
	resp, err := a.handler(r.Context(), req)
	if err != nil {
		a.writeError(w, err)
		return
	}

	if resp.Session != nil {
		if err := a.sessions.Save(w, r, resp.Session); err != nil {
			a.logger.Error("Failed to save session", "error", err)
			http.Error(w, "session unavailable", http.StatusInternalServerError)
			return
		}
	}

	for key, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if len(resp.Body) > 0 {
		_, _ = w.Write(resp.Body)
	}
}

// writeError maps pipeline failures onto HTTP statuses: CSRF violations are
// the client's fault (403), authorization-server protocol errors are an
// upstream failure (502), everything else is internal.
func (a *Adapter) writeError(w http.ResponseWriter, err error) {
	var stateErr *interceptor.StateMismatchError
	var protoErr *providers.ProtocolError

	switch {
	case errors.As(err, &stateErr):
		a.logger.Warn("Rejected request with mismatched state")
		http.Error(w, "state parameter mismatch", http.StatusForbidden)
	case errors.As(err, &protoErr):
		a.logger.Error("Authorization server returned an error",
			"code", protoErr.Code, "description", protoErr.Description)
		http.Error(w, "authorization server error", http.StatusBadGateway)
	default:
		a.logger.Error("Pipeline failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// FromHTTP converts a net/http request plus its loaded session into the
// pipeline's request representation.
func FromHTTP(r *http.Request, session map[string]any) *interceptor.Request {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return &interceptor.Request{
		Method:   r.Method,
		Scheme:   scheme,
		Host:     r.Host,
		Path:     r.URL.Path,
		RawQuery: r.URL.RawQuery,
		Header:   r.Header,
		Params:   r.URL.Query(),
		Session:  session,
	}
}

// ClientIP extracts the caller's IP for rate-limit keying. The first
// X-Forwarded-For hop is trusted only when trustProxy is set.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first := strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
			if first != "" {
				return first
			}
		}
		if real := r.Header.Get("X-Real-IP"); real != "" {
			return real
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

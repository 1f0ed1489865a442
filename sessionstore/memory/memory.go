// Package memory provides a server-side in-memory session store. Sessions
// are keyed by a random cookie value; only the opaque key crosses the wire.
// Suitable for development, testing, and single-instance deployments.
package memory

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCookieName is the session cookie written by the store.
const DefaultCookieName = "oauth2_session"

// DefaultTTL is how long an untouched session survives.
const DefaultTTL = 12 * time.Hour

type entry struct {
	data      map[string]any
	expiresAt time.Time
}

// Store is an in-memory session store. A janitor goroutine drops expired
// sessions; call Stop when the store is no longer needed.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	cookieName string
	ttl        time.Duration
	secure     bool

	stopCleanup chan struct{}
	logger      *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithCookieName overrides the session cookie name.
func WithCookieName(name string) Option {
	return func(s *Store) { s.cookieName = name }
}

// WithTTL overrides the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithSecureCookies marks the session cookie Secure.
func WithSecureCookies() Option {
	return func(s *Store) { s.secure = true }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates a store with a one-minute cleanup interval.
func New(opts ...Option) *Store {
	s := &Store{
		sessions:    make(map[string]*entry),
		cookieName:  DefaultCookieName,
		ttl:         DefaultTTL,
		stopCleanup: make(chan struct{}),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.cleanupLoop(time.Minute)
	return s
}

// Load returns a copy of the request's session, or an empty map when the
// request carries no live session. Handing out a copy keeps the stored
// session immune to in-request mutation; only Save publishes changes.
func (s *Store) Load(r *http.Request) (map[string]any, error) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil {
		return map[string]any{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[cookie.Value]
	if !ok || time.Now().After(e.expiresAt) {
		return map[string]any{}, nil
	}
	session := make(map[string]any, len(e.data))
	for k, v := range e.data {
		session[k] = v
	}
	return session, nil
}

// Save persists the session and ensures the client holds its key. A new key
// is minted when the request carried none.
func (s *Store) Save(w http.ResponseWriter, r *http.Request, session map[string]any) error {
	id := ""
	if cookie, err := r.Cookie(s.cookieName); err == nil {
		id = cookie.Value
	}
	if id == "" {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     s.cookieName,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			Secure:   s.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}

	data := make(map[string]any, len(session))
	for k, v := range session {
		data[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &entry{
		data:      data,
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

// Delete removes the request's session, if any.
func (s *Store) Delete(r *http.Request) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, cookie.Value)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *Store) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *Store) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for id, e := range s.sessions {
		if now.After(e.expiresAt) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Debug("Session cleanup completed",
			"removed", removed,
			"remaining", len(s.sessions))
	}
}

// Stop terminates the cleanup goroutine.
func (s *Store) Stop() {
	close(s.stopCleanup)
}

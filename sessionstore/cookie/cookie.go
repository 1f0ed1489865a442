// Package cookie provides a client-side session store: the whole session
// travels in an authenticated, encrypted cookie (NaCl secretbox). No state
// is held server-side, so it scales horizontally for free, at the cost of
// the cookie size limit.
package cookie

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/crypto/nacl/secretbox"
)

// DefaultCookieName is the session cookie written by the store.
const DefaultCookieName = "oauth2_session_data"

// maxCookieBytes is the conventional browser limit for one cookie.
const maxCookieBytes = 4096

// KeySize is the required secret key length in bytes.
const KeySize = 32

const nonceSize = 24

// Store seals sessions into a cookie with a 32-byte secret key.
type Store struct {
	key        [KeySize]byte
	cookieName string
	secure     bool
}

// Option configures a Store.
type Option func(*Store)

// WithCookieName overrides the session cookie name.
func WithCookieName(name string) Option {
	return func(s *Store) { s.cookieName = name }
}

// WithSecureCookies marks the session cookie Secure.
func WithSecureCookies() Option {
	return func(s *Store) { s.secure = true }
}

// New creates a cookie store. The key must be exactly 32 bytes; generate
// one with GenerateKey and keep it stable across restarts, or every session
// dies with the process.
func New(key []byte, opts ...Option) (*Store, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("key must be %d bytes, got %d", KeySize, len(key))
	}
	s := &Store{cookieName: DefaultCookieName}
	copy(s.key[:], key)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// GenerateKey returns a fresh random 32-byte key.
// The function panics if the system's random number generator fails,
// which indicates a critical system-level security failure.
func GenerateKey() []byte {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		panic(fmt.Sprintf("crypto/rand failed: %v", err))
	}
	return key
}

// Load decrypts the session cookie. A missing, tampered, or undecodable
// cookie yields an empty session rather than an error: the client simply
// starts over unauthenticated.
func (s *Store) Load(r *http.Request) (map[string]any, error) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil {
		return map[string]any{}, nil
	}

	raw, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil || len(raw) <= nonceSize {
		return map[string]any{}, nil
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plaintext, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &s.key)
	if !ok {
		return map[string]any{}, nil
	}

	var session map[string]any
	if err := json.Unmarshal(plaintext, &session); err != nil {
		return map[string]any{}, nil
	}
	return session, nil
}

// Save seals the session into the cookie.
func (s *Store) Save(w http.ResponseWriter, r *http.Request, session map[string]any) error {
	plaintext, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], plaintext, &nonce, &s.key)
	value := base64.RawURLEncoding.EncodeToString(sealed)
	if len(value) > maxCookieBytes {
		return fmt.Errorf("session too large for a cookie: %d bytes", len(value))
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

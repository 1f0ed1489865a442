// Package interceptor implements an OAuth2 authorization-code client pipeline
// that sits in front of an arbitrary downstream handler. The pipeline
// classifies incoming requests (excluded, logout, logout-callback,
// authorization-callback, normal), drives the CSRF-protected redirect to the
// authorization server, validates and refreshes access tokens, and writes
// token data back to the host-owned session through pluggable accessors.
//
// The pipeline is framework-agnostic: requests and responses are explicit
// values. The httpadapter package bridges net/http, and the sessionstore
// packages provide ready-made session backends.
package interceptor

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// Request is the framework-agnostic view of an inbound HTTP request.
// The Session map is owned by the host framework; the pipeline reads and
// writes it only through the accessor functions configured on Config.
type Request struct {
	// Method is the HTTP method (GET, POST, ...).
	Method string

	// Scheme is "http" or "https".
	Scheme string

	// Host is the request host, optionally including a port.
	Host string

	// Path is the URI path component.
	Path string

	// RawQuery is the unparsed query string, without the leading "?".
	RawQuery string

	// Header holds the request headers (case-insensitive).
	Header http.Header

	// Params holds the parsed query/form parameters. If nil, stages parse
	// RawQuery on demand.
	Params url.Values

	// Session is the per-request session map owned by the host framework.
	Session map[string]any

	// OAuth2 is the token data injected by the pipeline once the request
	// is authenticated. Downstream handlers read it from here.
	OAuth2 *TokenData
}

// URI returns the path plus query string, the form stored as the post-login
// target and matched against exclusion specs.
func (r *Request) URI() string {
	if r.RawQuery == "" {
		return r.Path
	}
	return r.Path + "?" + r.RawQuery
}

// Query returns the parsed request parameters, falling back to parsing
// RawQuery when Params was not populated by the host adapter.
func (r *Request) Query() url.Values {
	if r.Params != nil {
		return r.Params
	}
	v, err := url.ParseQuery(r.RawQuery)
	if err != nil {
		return url.Values{}
	}
	return v
}

// AcceptsHTML reports whether the request's Accept header contains
// "text/html". It decides between a re-login redirect and a structured
// JSON error when a token refresh fails.
func (r *Request) AcceptsHTML() bool {
	if r.Header == nil {
		return false
	}
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// WithOAuth2 returns a shallow copy of the request carrying the given token
// data. The original request is not modified.
func (r *Request) WithOAuth2(data *TokenData) *Request {
	clone := *r
	clone.OAuth2 = data
	return &clone
}

// Response is the framework-agnostic view of an outbound HTTP response.
type Response struct {
	// Status is the HTTP status code.
	Status int

	// Header holds the response headers.
	Header http.Header

	// Body is the response body.
	Body []byte

	// Session, when non-nil, is a session patch the host framework must
	// persist in place of the current session. Nil means "leave the
	// session alone".
	Session map[string]any

	// OAuth2 carries refreshed token data out of the validation stage so
	// the data-injection stage can persist it. Host adapters ignore it.
	OAuth2 *TokenData
}

// Redirect builds a 302 response pointing at location.
func Redirect(location string) *Response {
	h := http.Header{}
	h.Set("Location", location)
	return &Response{
		Status: http.StatusFound,
		Header: h,
	}
}

// Handler processes a request and produces a response. The downstream
// application handler and every composed pipeline stage share this shape.
type Handler func(ctx context.Context, req *Request) (*Response, error)

// TokenData is the OAuth2 token state held in the session's oauth2 slot.
// The JSON field names are the slot's serialized form, used by session
// backends that persist the session outside the process.
type TokenData struct {
	// AccessToken is the bearer token presented to resource servers.
	AccessToken string `json:"access-token"`

	// TokenType is the token type reported by the server, usually "Bearer".
	TokenType string `json:"token-type,omitempty"`

	// ExpiresIn is the advisory lifetime in seconds as reported by the
	// server. It is stored but never consulted locally: every request
	// re-introspects so revocation takes effect immediately.
	ExpiresIn int64 `json:"expires-in,omitempty"`

	// RefreshToken, when present, allows recovering from an expired
	// access token without user interaction.
	RefreshToken string `json:"refresh-token,omitempty"`

	// Params holds all provider-returned token fields that have no
	// dedicated field above (and the raw refresh_token/expires_in).
	Params map[string]any `json:"params,omitempty"`

	// Userinfo holds the user attributes fetched after the code exchange.
	Userinfo map[string]any `json:"userinfo,omitempty"`
}

// Clone returns a deep-enough copy of the token data: the maps are copied
// one level deep so session writes never alias pipeline-owned state.
func (d *TokenData) Clone() *TokenData {
	if d == nil {
		return nil
	}
	clone := *d
	clone.Params = copyMap(d.Params)
	clone.Userinfo = copyMap(d.Userinfo)
	return &clone
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Package providers defines the client interface to the OAuth2 authorization
// server: building the authorization redirect, exchanging codes, refreshing
// and introspecting tokens, and fetching user info. The pipeline consumes
// this interface; the httpclient subpackage implements it over HTTP.
package providers

import (
	"context"
	"fmt"
	"net/url"
)

// Client is the pipeline's view of the authorization server. Implementations
// are constructed with their endpoint configuration; every method that
// touches the network takes a context and returns transport failures as
// errors distinct from protocol-level outcomes.
type Client interface {
	// BuildAuthRequest produces the authorization request for the given
	// CSRF state: the full authorize-endpoint URL (response_type=code,
	// client_id, redirect_uri, space-joined scope, state) plus the scope
	// and state for later verification.
	BuildAuthRequest(state string) AuthRequest

	// ExchangeCode swaps the authorization code carried in the callback
	// parameters for a token. A server-side error response is returned
	// as *ProtocolError.
	ExchangeCode(ctx context.Context, callback url.Values, ar AuthRequest) (*TokenResponse, error)

	// RefreshToken obtains a fresh token using a refresh token. A server
	// rejection is returned as *ProtocolError; transport failures as
	// ordinary errors.
	RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error)

	// IntrospectToken asks the server whether the access token is
	// currently valid. The bool answers validity; a non-nil error means
	// the question could not be answered (network or server failure) and
	// must never be read as "invalid".
	IntrospectToken(ctx context.Context, accessToken string) (bool, error)

	// FetchUserinfo retrieves the user attributes for the access token.
	// Returns nil with no error when no userinfo endpoint is configured.
	FetchUserinfo(ctx context.Context, accessToken string) (map[string]any, error)

	// PasswordCredentials performs the resource-owner password grant.
	PasswordCredentials(ctx context.Context, username, password string) (*TokenResponse, error)
}

// AuthRequest is the outcome of BuildAuthRequest: everything the pipeline
// needs to redirect the user and later complete the callback.
type AuthRequest struct {
	// URI is the complete authorize-endpoint URL to redirect to.
	URI string

	// Scopes are the requested scopes.
	Scopes []string

	// State is the CSRF state embedded in URI.
	State string
}

// TokenResponse is a token-endpoint response with its raw fields preserved.
type TokenResponse struct {
	AccessToken  string
	TokenType    string
	RefreshToken string

	// ExpiresIn is the advisory token lifetime in seconds.
	ExpiresIn int64

	// Extra holds every field of the raw response body, including the
	// standard ones above. Callers that remap fields into their own
	// representation work from this map so provider-specific extensions
	// survive the trip.
	Extra map[string]any
}

// ProtocolError is an error/error_description pair returned by the
// authorization server in place of a code or token.
type ProtocolError struct {
	Code        string
	Description string
}

// Error implements the error interface
func (e *ProtocolError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("authorization server error: %s", e.Code)
	}
	return fmt.Sprintf("authorization server error: %s: %s", e.Code, e.Description)
}

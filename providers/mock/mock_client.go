// Package mock provides a scriptable implementation of providers.Client for
// testing.
package mock

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"github.com/giantswarm/oauth2-interceptor/providers"
)

// Client is a mock implementation of providers.Client. Behavior is
// scripted through the exported function fields; unset fields fall back to
// permissive defaults.
type Client struct {
	// BuildAuthRequestFunc is called when BuildAuthRequest is invoked.
	BuildAuthRequestFunc func(state string) providers.AuthRequest

	// ExchangeCodeFunc is called when ExchangeCode is invoked.
	ExchangeCodeFunc func(ctx context.Context, callback url.Values, ar providers.AuthRequest) (*providers.TokenResponse, error)

	// RefreshTokenFunc is called when RefreshToken is invoked.
	RefreshTokenFunc func(ctx context.Context, refreshToken string) (*providers.TokenResponse, error)

	// IntrospectTokenFunc is called when IntrospectToken is invoked.
	IntrospectTokenFunc func(ctx context.Context, accessToken string) (bool, error)

	// FetchUserinfoFunc is called when FetchUserinfo is invoked.
	FetchUserinfoFunc func(ctx context.Context, accessToken string) (map[string]any, error)

	// PasswordCredentialsFunc is called when PasswordCredentials is invoked.
	PasswordCredentialsFunc func(ctx context.Context, username, password string) (*providers.TokenResponse, error)

	// CallCounts tracks how many times each method was called.
	CallCounts map[string]int

	mu sync.RWMutex
}

var _ providers.Client = (*Client)(nil)

// New creates a mock client with permissive defaults: every token is
// valid, exchanges succeed, and userinfo is empty.
func New() *Client {
	return &Client{
		CallCounts: make(map[string]int),
		BuildAuthRequestFunc: func(state string) providers.AuthRequest {
			return providers.AuthRequest{
				URI:    "https://provider.example.com/authorize?response_type=code&state=" + url.QueryEscape(state),
				Scopes: []string{"openid"},
				State:  state,
			}
		},
		ExchangeCodeFunc: func(ctx context.Context, callback url.Values, ar providers.AuthRequest) (*providers.TokenResponse, error) {
			return &providers.TokenResponse{
				AccessToken:  "mock-access-token",
				TokenType:    "Bearer",
				RefreshToken: "mock-refresh-token",
				Extra: map[string]any{
					"access_token":  "mock-access-token",
					"token_type":    "Bearer",
					"refresh_token": "mock-refresh-token",
				},
			}, nil
		},
		RefreshTokenFunc: func(ctx context.Context, refreshToken string) (*providers.TokenResponse, error) {
			return &providers.TokenResponse{
				AccessToken:  "refreshed-access-token",
				TokenType:    "Bearer",
				RefreshToken: "refreshed-refresh-token",
				Extra: map[string]any{
					"access_token":  "refreshed-access-token",
					"token_type":    "Bearer",
					"refresh_token": "refreshed-refresh-token",
				},
			}, nil
		},
		IntrospectTokenFunc: func(ctx context.Context, accessToken string) (bool, error) {
			return true, nil
		},
		FetchUserinfoFunc: func(ctx context.Context, accessToken string) (map[string]any, error) {
			return nil, nil
		},
		PasswordCredentialsFunc: func(ctx context.Context, username, password string) (*providers.TokenResponse, error) {
			return &providers.TokenResponse{
				AccessToken: "mock-password-token",
				TokenType:   "Bearer",
				Extra: map[string]any{
					"access_token": "mock-password-token",
					"token_type":   "Bearer",
				},
			}, nil
		},
	}
}

// record bumps the call counter and returns under lock; the scripted
// function itself runs unlocked so it may call back into the mock.
func (m *Client) record(method string) {
	m.mu.Lock()
	m.CallCounts[method]++
	m.mu.Unlock()
}

// BuildAuthRequest produces the authorization request for the state.
func (m *Client) BuildAuthRequest(state string) providers.AuthRequest {
	m.record("BuildAuthRequest")
	m.mu.RLock()
	fn := m.BuildAuthRequestFunc
	m.mu.RUnlock()
	if fn == nil {
		return providers.AuthRequest{State: state}
	}
	return fn(state)
}

// ExchangeCode swaps the callback code for a token.
func (m *Client) ExchangeCode(ctx context.Context, callback url.Values, ar providers.AuthRequest) (*providers.TokenResponse, error) {
	m.record("ExchangeCode")
	m.mu.RLock()
	fn := m.ExchangeCodeFunc
	m.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("ExchangeCodeFunc not configured")
	}
	return fn(ctx, callback, ar)
}

// RefreshToken obtains a fresh token.
func (m *Client) RefreshToken(ctx context.Context, refreshToken string) (*providers.TokenResponse, error) {
	m.record("RefreshToken")
	m.mu.RLock()
	fn := m.RefreshTokenFunc
	m.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("RefreshTokenFunc not configured")
	}
	return fn(ctx, refreshToken)
}

// IntrospectToken reports scripted token validity.
func (m *Client) IntrospectToken(ctx context.Context, accessToken string) (bool, error) {
	m.record("IntrospectToken")
	m.mu.RLock()
	fn := m.IntrospectTokenFunc
	m.mu.RUnlock()
	if fn == nil {
		return false, fmt.Errorf("IntrospectTokenFunc not configured")
	}
	return fn(ctx, accessToken)
}

// FetchUserinfo returns scripted user attributes.
func (m *Client) FetchUserinfo(ctx context.Context, accessToken string) (map[string]any, error) {
	m.record("FetchUserinfo")
	m.mu.RLock()
	fn := m.FetchUserinfoFunc
	m.mu.RUnlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ctx, accessToken)
}

// PasswordCredentials performs the scripted password grant.
func (m *Client) PasswordCredentials(ctx context.Context, username, password string) (*providers.TokenResponse, error) {
	m.record("PasswordCredentials")
	m.mu.RLock()
	fn := m.PasswordCredentialsFunc
	m.mu.RUnlock()
	if fn == nil {
		return nil, fmt.Errorf("PasswordCredentialsFunc not configured")
	}
	return fn(ctx, username, password)
}

// GetCallCount returns the number of times a method was called.
func (m *Client) GetCallCount(method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.CallCounts[method]
}

// ResetCallCounts resets all call counters.
func (m *Client) ResetCallCounts() {
	m.mu.Lock()
	m.CallCounts = make(map[string]int)
	m.mu.Unlock()
}

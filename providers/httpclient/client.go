// Package httpclient implements the providers.Client interface over plain
// HTTP. Authorization URLs are built with golang.org/x/oauth2; token
// endpoint calls are issued directly so the raw response fields can be
// preserved for the session.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/giantswarm/oauth2-interceptor/internal/util"
	"github.com/giantswarm/oauth2-interceptor/providers"
)

// maxResponseBytes bounds token/userinfo response bodies.
const maxResponseBytes = 1 << 20

// Config holds the endpoints and credentials for one authorization server.
type Config struct {
	// ClientID is the OAuth2 client identifier (required).
	ClientID string

	// ClientSecret is the OAuth2 client secret (required).
	ClientSecret string

	// Scopes are the scopes requested during authorization.
	Scopes []string

	// AuthorizationURI is the authorize endpoint (required).
	AuthorizationURI string

	// AccessTokenURI is the token endpoint used for the code exchange,
	// refresh, and password grants (required).
	AccessTokenURI string

	// RedirectURI is where the server sends the user back after consent.
	RedirectURI string

	// TokenInfoURI is the introspection endpoint. Empty disables
	// introspection (IntrospectToken then fails loudly).
	TokenInfoURI string

	// UserinfoURI is the userinfo endpoint. Empty disables the
	// post-exchange userinfo fetch.
	UserinfoURI string

	// HTTPClient overrides the default HTTP client (30s timeout).
	HTTPClient *http.Client

	// Logger for structured logging (optional, uses default if not provided)
	Logger *slog.Logger
}

// Client talks to a single authorization server.
type Client struct {
	cfg    Config
	oauth  *oauth2.Config
	http   *http.Client
	logger *slog.Logger
}

var _ providers.Client = (*Client)(nil)

// New creates a client for the configured authorization server.
func New(cfg Config) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("client ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("client secret is required")
	}
	if cfg.AuthorizationURI == "" {
		return nil, fmt.Errorf("authorization URI is required")
	}
	if cfg.AccessTokenURI == "" {
		return nil, fmt.Errorf("access token URI is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthorizationURI,
				TokenURL: cfg.AccessTokenURI,
			},
		},
		http:   httpClient,
		logger: logger,
	}, nil
}

// BuildAuthRequest builds the authorize-endpoint redirect for the state.
func (c *Client) BuildAuthRequest(state string) providers.AuthRequest {
	return providers.AuthRequest{
		URI:    c.oauth.AuthCodeURL(state),
		Scopes: c.cfg.Scopes,
		State:  state,
	}
}

// ExchangeCode swaps the callback's authorization code for a token.
func (c *Client) ExchangeCode(ctx context.Context, callback url.Values, ar providers.AuthRequest) (*providers.TokenResponse, error) {
	if errCode := callback.Get("error"); errCode != "" {
		return nil, &providers.ProtocolError{
			Code:        errCode,
			Description: callback.Get("error_description"),
		}
	}
	code := callback.Get("code")
	if code == "" {
		return nil, fmt.Errorf("authorization callback carried no code parameter")
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	if c.cfg.RedirectURI != "" {
		form.Set("redirect_uri", c.cfg.RedirectURI)
	}
	return c.token(ctx, form)
}

// RefreshToken obtains a fresh token for the given refresh token.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*providers.TokenResponse, error) {
	if refreshToken == "" {
		return nil, &providers.ProtocolError{
			Code:        "invalid_grant",
			Description: "no refresh token available",
		}
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	tr, err := c.token(ctx, form)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("Refreshed access token",
		"token_prefix", util.TruncateSecret(tr.AccessToken))
	return tr, nil
}

// PasswordCredentials performs the resource-owner password grant.
func (c *Client) PasswordCredentials(ctx context.Context, username, password string) (*providers.TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("username", username)
	form.Set("password", password)
	if len(c.cfg.Scopes) > 0 {
		form.Set("scope", strings.Join(c.cfg.Scopes, " "))
	}
	return c.token(ctx, form)
}

// token posts a grant to the token endpoint and decodes the response with
// its raw fields intact.
func (c *Client) token(ctx context.Context, form url.Values) (*providers.TokenResponse, error) {
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AccessTokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	raw := map[string]any{}
	if jsonErr := json.Unmarshal(body, &raw); jsonErr != nil && resp.StatusCode < 300 {
		return nil, fmt.Errorf("failed to decode token response: %w", jsonErr)
	}

	if resp.StatusCode >= 300 {
		if code, ok := raw["error"].(string); ok && code != "" {
			desc, _ := raw["error_description"].(string)
			return nil, &providers.ProtocolError{Code: code, Description: desc}
		}
		return nil, fmt.Errorf("token request failed with status %d", resp.StatusCode)
	}

	tr := &providers.TokenResponse{Extra: raw}
	tr.AccessToken, _ = raw["access_token"].(string)
	tr.TokenType, _ = raw["token_type"].(string)
	tr.RefreshToken, _ = raw["refresh_token"].(string)
	tr.ExpiresIn = asInt64(raw["expires_in"])
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("token response carried no access_token")
	}
	return tr, nil
}

// IntrospectToken asks the introspection endpoint whether the token is
// currently valid. A definitive "no" from the server (active:false or a
// 4xx rejection) yields (false, nil); anything else that prevents an answer
// is an error so callers never mistake an outage for a revoked token.
func (c *Client) IntrospectToken(ctx context.Context, accessToken string) (bool, error) {
	if c.cfg.TokenInfoURI == "" {
		return false, fmt.Errorf("no token info URI configured")
	}

	form := url.Values{}
	form.Set("token", accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenInfoURI, strings.NewReader(form.Encode()))
	if err != nil {
		return false, fmt.Errorf("failed to build introspection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(url.QueryEscape(c.cfg.ClientID), url.QueryEscape(c.cfg.ClientSecret))

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("introspection request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var result map[string]any
		if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&result); err != nil {
			return false, fmt.Errorf("failed to decode introspection response: %w", err)
		}
		if active, ok := result["active"].(bool); ok {
			return active, nil
		}
		// Legacy tokeninfo endpoints answer 200 with the token's
		// attributes and no active field.
		return true, nil
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		return false, nil
	default:
		return false, fmt.Errorf("introspection failed with status %d", resp.StatusCode)
	}
}

// FetchUserinfo retrieves the user attributes behind the access token.
func (c *Client) FetchUserinfo(ctx context.Context, accessToken string) (map[string]any, error) {
	if c.cfg.UserinfoURI == "" {
		return nil, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.UserinfoURI, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request failed with status %d", resp.StatusCode)
	}

	var info map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}
	return info, nil
}

// asInt64 coerces the JSON encodings of expires_in seen in the wild.
func asInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case json.Number:
		i, _ := n.Int64()
		return i
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	default:
		return 0
	}
}

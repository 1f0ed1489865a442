package interceptor

import (
	"log/slog"
	"net/url"

	"github.com/giantswarm/oauth2-interceptor/instrumentation"
	"github.com/giantswarm/oauth2-interceptor/providers"
	"github.com/giantswarm/oauth2-interceptor/security"
)

// Config holds the pipeline configuration. It is read-only for the lifetime
// of the process; Wrap copies it and fills in defaults, so a zero value for
// any optional field selects the default behavior.
type Config struct {
	// Client is the authorization-server client collaborator (required).
	Client providers.Client

	// RedirectURI is the registered callback URI. Its path component
	// (scheme, host, and port are ignored) identifies authorization
	// callbacks. Required.
	RedirectURI string

	// Exclude exempts matching request URIs from all OAuth2 processing.
	// Nil excludes nothing.
	Exclude *Exclusion

	// LogoutURI is the provider-side logout endpoint users are sent to.
	LogoutURI string

	// LogoutClientURI is the local path that triggers the logout
	// redirect.
	LogoutClientURI string

	// LogoutCallbackURI is the local path the provider calls after a
	// completed logout.
	LogoutCallbackURI string

	// LogoutCallback handles the logout callback. The default redirects
	// to "/" and clears the session's oauth2 slot, leaving sibling slots
	// untouched.
	LogoutCallback Handler

	// Session accessors. Each defaults to the session-map implementation
	// in this package.
	GetState       GetStateFunc
	PutState       PutStateFunc
	GetTarget      GetTargetFunc
	PutTarget      PutTargetFunc
	GetTokenData   GetTokenDataFunc
	PutTokenData   PutTokenDataFunc
	ClearTokenData ClearTokenDataFunc

	// States produces CSRF state values. Defaults to a crypto/rand
	// source emitting 20 mixed-case alphanumeric characters.
	States security.StateSource

	// Logger for structured logging (optional, uses default if not provided)
	Logger *slog.Logger

	// Instrumentation enables pipeline metrics and tracing (optional).
	Instrumentation *instrumentation.Instrumentation
}

// withDefaults returns a copy of the config with every optional field
// populated.
func (c *Config) withDefaults() *Config {
	out := *c
	if out.GetState == nil {
		out.GetState = DefaultGetState
	}
	if out.PutState == nil {
		out.PutState = DefaultPutState
	}
	if out.GetTarget == nil {
		out.GetTarget = DefaultGetTarget
	}
	if out.PutTarget == nil {
		out.PutTarget = DefaultPutTarget
	}
	if out.GetTokenData == nil {
		out.GetTokenData = DefaultGetTokenData
	}
	if out.PutTokenData == nil {
		out.PutTokenData = DefaultPutTokenData
	}
	if out.ClearTokenData == nil {
		out.ClearTokenData = DefaultClearTokenData
	}
	if out.States == nil {
		out.States = security.CryptoStateSource{}
	}
	if out.Logger == nil {
		out.Logger = slog.Default()
	}
	if out.LogoutCallback == nil {
		out.LogoutCallback = defaultLogoutCallback(&out)
	}
	return &out
}

// Validate checks the configuration. All violations are *ConfigError and
// fatal at setup time.
func (c *Config) Validate() error {
	if c.Client == nil {
		return configErrorf("Client", "authorization-server client is required")
	}
	if c.RedirectURI == "" {
		return configErrorf("RedirectURI", "redirect URI is required")
	}
	callbackPath := c.redirectPath()
	if callbackPath == "" {
		return configErrorf("RedirectURI", "redirect URI %q has no path component", c.RedirectURI)
	}
	if c.LogoutClientURI != "" && c.LogoutClientURI == callbackPath {
		return configErrorf("LogoutClientURI", "must be distinct from the redirect URI path %q", callbackPath)
	}
	if c.LogoutCallbackURI != "" && c.LogoutCallbackURI == callbackPath {
		return configErrorf("LogoutCallbackURI", "must be distinct from the redirect URI path %q", callbackPath)
	}
	return nil
}

// redirectPath returns the path component of RedirectURI. A value that does
// not parse as a URL is taken to be a bare path.
func (c *Config) redirectPath() string {
	u, err := url.Parse(c.RedirectURI)
	if err != nil {
		return c.RedirectURI
	}
	return u.Path
}

// metrics returns the pipeline metrics holder, or nil when instrumentation
// is not configured. All recording helpers tolerate nil.
func (c *Config) metrics() *instrumentation.Metrics {
	if c.Instrumentation == nil {
		return nil
	}
	return c.Instrumentation.Metrics()
}

package interceptor

import (
	"context"
	"time"
)

// Stage is one named pipeline stage. Wrap receives the next handler inward
// and the resolved configuration; a stage whose trigger matches owns the
// response and must not call next.
type Stage struct {
	Name string
	Wrap func(next Handler, cfg *Config) Handler
}

// pipelineStages returns the fixed stage order, innermost first. Execution
// order for an inbound request is the reverse: logout, logout-callback,
// authorization-callback, token-data, validate-and-refresh, downstream.
// The outermost matching stage wins; every stage independently re-checks
// the exclusion spec so excluded requests reach downstream untouched no
// matter what else would match.
func pipelineStages() []Stage {
	return []Stage{
		{Name: "validate-and-refresh", Wrap: validateAndRefresh},
		{Name: "token-data", Wrap: injectTokenData},
		{Name: "authorization-callback", Wrap: authorizationCallbackStage},
		{Name: "logout-callback", Wrap: logoutCallbackStage},
		{Name: "logout", Wrap: logoutStage},
	}
}

// Wrap composes the full interceptor pipeline around the downstream
// handler. The configuration is validated up front; a *ConfigError here is
// fatal and never surfaces per-request.
func Wrap(next Handler, cfg *Config) (Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := cfg.withDefaults()

	h := next
	for _, s := range pipelineStages() {
		h = s.Wrap(h, c)
	}

	if m := c.metrics(); m != nil {
		inner := h
		h = func(ctx context.Context, req *Request) (*Response, error) {
			start := time.Now()
			defer m.RecordStage(ctx, "pipeline", start)
			return inner(ctx, req)
		}
	}
	return h, nil
}

// injectTokenData reads the session's token data into the request on the
// way in and persists the authoritative token data (refreshed if the
// validation stage replaced it) into the response session on the way out.
func injectTokenData(next Handler, cfg *Config) Handler {
	return func(ctx context.Context, req *Request) (*Response, error) {
		if cfg.Exclude.Excluded(req.URI()) {
			return next(ctx, req)
		}
		if data := cfg.GetTokenData(req); data != nil {
			req = req.WithOAuth2(data)
		}

		resp, err := next(ctx, req)
		if err != nil {
			return nil, err
		}

		data := resp.OAuth2
		if data == nil {
			data = req.OAuth2
		}
		if data != nil {
			resp = cfg.PutTokenData(req, resp, data)
		}
		return resp, nil
	}
}

// authorizationCallbackStage completes the code exchange when the request
// path equals the redirect URI's path component. Scheme, host, and port are
// ignored for the match.
func authorizationCallbackStage(next Handler, cfg *Config) Handler {
	callbackPath := cfg.redirectPath()
	return func(ctx context.Context, req *Request) (*Response, error) {
		if req.Path != callbackPath || cfg.Exclude.Excluded(req.URI()) {
			return next(ctx, req)
		}
		return handleAuthorizationCallback(ctx, req, cfg)
	}
}

// RedirectUnauthenticated is the standalone variant for handlers that only
// need "send anonymous users to login": no introspection, no refresh. A
// request with token data in hand (or in the session) passes through with
// the data injected; anything else is redirected to the authorization
// server.
func RedirectUnauthenticated(next Handler, cfg *Config) (Handler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := cfg.withDefaults()

	return func(ctx context.Context, req *Request) (*Response, error) {
		if c.Exclude.Excluded(req.URI()) {
			return next(ctx, req)
		}
		data := req.OAuth2
		if data == nil {
			data = c.GetTokenData(req)
		}
		if data == nil {
			return RedirectToAuthorizationServer(ctx, req, c)
		}
		return next(ctx, req.WithOAuth2(data))
	}, nil
}

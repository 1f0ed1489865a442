package interceptor

import (
	"context"

	"github.com/giantswarm/oauth2-interceptor/instrumentation"
)

// logoutStage redirects requests for the local logout path to the
// provider's logout endpoint. The session is left alone; the provider's
// logout callback is what clears local token data.
func logoutStage(next Handler, cfg *Config) Handler {
	return func(ctx context.Context, req *Request) (*Response, error) {
		if cfg.LogoutClientURI == "" || req.Path != cfg.LogoutClientURI || cfg.Exclude.Excluded(req.URI()) {
			return next(ctx, req)
		}
		cfg.Logger.Info("Logout requested, redirecting to provider", "logout_uri", cfg.LogoutURI)
		if m := cfg.metrics(); m != nil {
			instrumentation.CountResult(ctx, m.Logouts, "logout")
		}
		return Redirect(cfg.LogoutURI), nil
	}
}

// logoutCallbackStage dispatches the provider's post-logout callback to the
// configured handler.
func logoutCallbackStage(next Handler, cfg *Config) Handler {
	return func(ctx context.Context, req *Request) (*Response, error) {
		if cfg.LogoutCallbackURI == "" || req.Path != cfg.LogoutCallbackURI || cfg.Exclude.Excluded(req.URI()) {
			return next(ctx, req)
		}
		if m := cfg.metrics(); m != nil {
			instrumentation.CountResult(ctx, m.Logouts, "logout_callback")
		}
		return cfg.LogoutCallback(ctx, req)
	}
}

// defaultLogoutCallback redirects to "/" and strips only the oauth2 slot
// from the session, keeping every sibling key.
func defaultLogoutCallback(cfg *Config) Handler {
	return func(ctx context.Context, req *Request) (*Response, error) {
		cfg.Logger.Info("Logout callback, clearing token data")
		resp := Redirect("/")
		resp = cfg.ClearTokenData(req, resp)
		return resp, nil
	}
}

package interceptor

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/giantswarm/oauth2-interceptor/instrumentation"
	"github.com/giantswarm/oauth2-interceptor/internal/util"
	"github.com/giantswarm/oauth2-interceptor/providers"
)

// refreshFailedBody is the structured response for non-HTML clients whose
// token could not be refreshed. The wire format is fixed.
const refreshFailedBody = `{"error":"Refresh token failed","errorcode":"refresh-token-failed"}`

// validateAndRefresh is the innermost stage: it introspects the request's
// token on every pass (expiry is advisory and never trusted locally, so
// revocation takes effect immediately) and attempts a refresh when the
// server reports the token invalid.
//
// Concurrent requests holding the same refresh token may race to refresh
// it; the pipeline does not serialize them. Whether the server tolerates
// that reuse is a property of the server.
func validateAndRefresh(next Handler, cfg *Config) Handler {
	return func(ctx context.Context, req *Request) (*Response, error) {
		if cfg.Exclude.Excluded(req.URI()) {
			return next(ctx, req)
		}
		data := req.OAuth2
		if data == nil || data.AccessToken == "" {
			return next(ctx, req)
		}
		m := cfg.metrics()

		valid, err := cfg.Client.IntrospectToken(ctx, data.AccessToken)
		if err != nil {
			// An unanswered introspection is not an invalid token.
			if m != nil {
				instrumentation.CountResult(ctx, m.Introspections, "error")
			}
			return nil, fmt.Errorf("token introspection: %w", err)
		}
		if valid {
			if m != nil {
				instrumentation.CountResult(ctx, m.Introspections, "valid")
			}
			return next(ctx, req)
		}
		if m != nil {
			instrumentation.CountResult(ctx, m.Introspections, "invalid")
		}

		cfg.Logger.Debug("Access token invalid, attempting refresh",
			"token_prefix", util.TruncateSecret(data.AccessToken))

		tr, err := cfg.Client.RefreshToken(ctx, data.RefreshToken)
		if err != nil {
			var pe *providers.ProtocolError
			if errors.As(err, &pe) {
				if m != nil {
					instrumentation.CountResult(ctx, m.Refreshes, "rejected")
				}
				return refreshFailed(ctx, req, cfg)
			}
			if m != nil {
				instrumentation.CountResult(ctx, m.Refreshes, "error")
			}
			return nil, fmt.Errorf("token refresh: %w", err)
		}
		if m != nil {
			instrumentation.CountResult(ctx, m.Refreshes, "success")
		}

		refreshed := mergeRefreshed(data, tr)
		resp, err := next(ctx, req.WithOAuth2(refreshed))
		if err != nil {
			return nil, err
		}
		// Stamp the refreshed data on the response; the token-data stage
		// persists it to the session on the way out.
		resp.OAuth2 = refreshed
		return resp, nil
	}
}

// refreshFailed answers a rejected refresh: browsers are sent back through
// the authorization flow, API clients get a structured 400.
func refreshFailed(ctx context.Context, req *Request, cfg *Config) (*Response, error) {
	if req.AcceptsHTML() {
		cfg.Logger.Info("Refresh rejected, re-authorizing browser client", "uri", req.URI())
		return RedirectToAuthorizationServer(ctx, req, cfg)
	}

	cfg.Logger.Info("Refresh rejected, returning structured error", "uri", req.URI())
	h := http.Header{}
	h.Set("Content-Type", "application/json; charset=utf-8")
	return &Response{
		Status: http.StatusBadRequest,
		Header: h,
		Body:   []byte(refreshFailedBody),
	}, nil
}

package interceptor

import (
	"context"
	"fmt"

	"github.com/giantswarm/oauth2-interceptor/instrumentation"
	"github.com/giantswarm/oauth2-interceptor/providers"
	"github.com/giantswarm/oauth2-interceptor/security"
)

// handleAuthorizationCallback completes the authorization-code flow: it
// verifies the CSRF state, exchanges the code for a token, merges the
// fetched userinfo, and redirects to the stored pre-auth target with the
// token data written into the response session.
//
// State mismatches and server error responses abort the callback with
// *StateMismatchError and *providers.ProtocolError respectively; neither is
// recoverable inside the pipeline.
func handleAuthorizationCallback(ctx context.Context, req *Request, cfg *Config) (*Response, error) {
	params := req.Query()
	m := cfg.metrics()

	if errCode := params.Get("error"); errCode != "" {
		if m != nil {
			instrumentation.CountResult(ctx, m.CallbackResults, "protocol_error")
		}
		return nil, &providers.ProtocolError{
			Code:        errCode,
			Description: params.Get("error_description"),
		}
	}

	stored := cfg.GetState(req)
	if stored == "" || !security.SecureCompare(stored, params.Get("state")) {
		cfg.Logger.Warn("Authorization callback rejected: state mismatch",
			"path", req.Path)
		if m != nil {
			instrumentation.CountResult(ctx, m.CallbackResults, "state_mismatch")
		}
		return nil, &StateMismatchError{}
	}

	ar := providers.AuthRequest{State: stored}
	tr, err := cfg.Client.ExchangeCode(ctx, params, ar)
	if err != nil {
		if m != nil {
			instrumentation.CountResult(ctx, m.CallbackResults, "exchange_error")
		}
		return nil, fmt.Errorf("code exchange: %w", err)
	}
	data := tokenDataFromResponse(tr)

	info, err := cfg.Client.FetchUserinfo(ctx, data.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("userinfo fetch: %w", err)
	}
	data.Userinfo = info

	target := cfg.GetTarget(req)
	if target == "" {
		target = "/"
	}

	cfg.Logger.Info("Authorization callback completed", "target", target)
	if m != nil {
		instrumentation.CountResult(ctx, m.CallbackResults, "success")
	}

	resp := Redirect(target)
	resp = cfg.PutTokenData(req, resp, data)
	return resp, nil
}

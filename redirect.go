package interceptor

import (
	"context"

	"github.com/giantswarm/oauth2-interceptor/instrumentation"
	"github.com/giantswarm/oauth2-interceptor/internal/util"
)

// RedirectToAuthorizationServer builds the 302 response that sends the user
// to the authorization server. An existing session state is reused so
// parallel tabs land on the same value; otherwise a fresh one is generated.
// The state and the original target URI are persisted into the response
// session for the callback to consume.
func RedirectToAuthorizationServer(ctx context.Context, req *Request, cfg *Config) (*Response, error) {
	state := cfg.GetState(req)
	if state == "" {
		state = cfg.States.State()
	}

	ar := cfg.Client.BuildAuthRequest(state)
	target := req.URI()

	cfg.Logger.Debug("Redirecting to authorization server",
		"target", target,
		"state_prefix", util.TruncateSecret(state))
	if m := cfg.metrics(); m != nil {
		instrumentation.CountResult(ctx, m.AuthRedirects, "issued")
	}

	resp := Redirect(ar.URI)
	resp = cfg.PutState(resp, state)
	resp = cfg.PutTarget(resp, target)
	return resp, nil
}

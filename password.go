package interceptor

import (
	"context"
	"fmt"
)

// AuthenticateWithPassword performs the resource-owner password grant and
// returns token data ready for the session, with userinfo merged the same
// way the authorization-callback flow does. Callers persist the result
// themselves, typically via Config.PutTokenData.
//
// Server rejections surface as *providers.ProtocolError; transport
// failures propagate as ordinary errors.
func AuthenticateWithPassword(ctx context.Context, cfg *Config, username, password string) (*TokenData, error) {
	if cfg.Client == nil {
		return nil, configErrorf("Client", "authorization-server client is required")
	}

	tr, err := cfg.Client.PasswordCredentials(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("password grant: %w", err)
	}
	data := tokenDataFromResponse(tr)

	info, err := cfg.Client.FetchUserinfo(ctx, data.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("userinfo fetch: %w", err)
	}
	data.Userinfo = info
	return data, nil
}

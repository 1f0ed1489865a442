package interceptor

import "github.com/giantswarm/oauth2-interceptor/providers"

// tokenDataFromResponse remaps a raw token response into session token
// data: access_token becomes AccessToken, refresh_token becomes
// RefreshToken, and every returned field except access_token stays under
// Params so provider-specific extensions survive.
func tokenDataFromResponse(tr *providers.TokenResponse) *TokenData {
	params := copyMap(tr.Extra)
	delete(params, "access_token")
	return &TokenData{
		AccessToken:  tr.AccessToken,
		TokenType:    tr.TokenType,
		ExpiresIn:    tr.ExpiresIn,
		RefreshToken: tr.RefreshToken,
		Params:       params,
	}
}

// mergeRefreshed folds a refresh response into existing token data. Fields
// absent from the response keep their previous values; Params is replaced
// with the refreshed raw fields; Userinfo is retained.
func mergeRefreshed(old *TokenData, tr *providers.TokenResponse) *TokenData {
	data := old.Clone()
	if data == nil {
		data = &TokenData{}
	}
	data.AccessToken = tr.AccessToken
	if tr.TokenType != "" {
		data.TokenType = tr.TokenType
	}
	if tr.RefreshToken != "" {
		data.RefreshToken = tr.RefreshToken
	}
	if tr.ExpiresIn != 0 {
		data.ExpiresIn = tr.ExpiresIn
	}
	params := copyMap(tr.Extra)
	delete(params, "access_token")
	data.Params = params
	return data
}

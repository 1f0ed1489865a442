package interceptor

// Session slot names used by the default accessors.
const (
	sessionStateSlot  = "state"
	sessionTargetSlot = "target"
	sessionOAuth2Slot = "oauth2"
)

// Session accessor functions. The pipeline never touches the session map
// directly; all reads and writes go through these, so a host can rebind the
// CSRF state, post-login target, and token data to any storage it likes
// (server-side cache key, encrypted cookie, ...) without changing pipeline
// logic.
type (
	// GetStateFunc reads the stored CSRF state, or "" when absent.
	GetStateFunc func(req *Request) string

	// PutStateFunc records the CSRF state on the outgoing response.
	PutStateFunc func(resp *Response, state string) *Response

	// GetTargetFunc reads the stored post-login target URI, or "".
	GetTargetFunc func(req *Request) string

	// PutTargetFunc records the post-login target on the response.
	PutTargetFunc func(resp *Response, target string) *Response

	// GetTokenDataFunc reads the session's token data, or nil.
	GetTokenDataFunc func(req *Request) *TokenData

	// PutTokenDataFunc merges token data into the response's session
	// patch. An already-declared session patch is preserved and merged
	// into, never overwritten.
	PutTokenDataFunc func(req *Request, resp *Response, data *TokenData) *Response

	// ClearTokenDataFunc removes only the oauth2 slot from the session,
	// preserving every sibling key.
	ClearTokenDataFunc func(req *Request, resp *Response) *Response
)

// sessionString reads a string slot from the request session.
func sessionString(req *Request, slot string) string {
	if req.Session == nil {
		return ""
	}
	s, _ := req.Session[slot].(string)
	return s
}

// responsePatch returns the response's session patch, creating an empty one
// when none is declared yet. The existing patch is copied so callers can
// mutate the result freely.
func responsePatch(resp *Response) map[string]any {
	patch := make(map[string]any, len(resp.Session)+1)
	for k, v := range resp.Session {
		patch[k] = v
	}
	return patch
}

// sessionBase returns the response's session patch if one is declared,
// otherwise a copy of the request's session. Used by accessors that must
// preserve sibling slots when the response replaces the whole session.
func sessionBase(req *Request, resp *Response) map[string]any {
	if resp.Session != nil {
		return responsePatch(resp)
	}
	base := make(map[string]any, len(req.Session)+1)
	for k, v := range req.Session {
		base[k] = v
	}
	return base
}

// DefaultGetState reads the CSRF state from the session's state slot.
func DefaultGetState(req *Request) string {
	return sessionString(req, sessionStateSlot)
}

// DefaultPutState merges the CSRF state into the response session patch.
func DefaultPutState(resp *Response, state string) *Response {
	patch := responsePatch(resp)
	patch[sessionStateSlot] = state
	resp.Session = patch
	return resp
}

// DefaultGetTarget reads the post-login target from the session.
func DefaultGetTarget(req *Request) string {
	return sessionString(req, sessionTargetSlot)
}

// DefaultPutTarget merges the post-login target into the response session.
func DefaultPutTarget(resp *Response, target string) *Response {
	patch := responsePatch(resp)
	patch[sessionTargetSlot] = target
	resp.Session = patch
	return resp
}

// DefaultGetTokenData reads token data from the session's oauth2 slot.
// Session backends that serialize the session hand the slot back as a
// plain map; both forms are accepted.
func DefaultGetTokenData(req *Request) *TokenData {
	if req.Session == nil {
		return nil
	}
	switch v := req.Session[sessionOAuth2Slot].(type) {
	case *TokenData:
		return v
	case map[string]any:
		return decodeTokenData(v)
	default:
		return nil
	}
}

// decodeTokenData rebuilds token data from its serialized session form.
func decodeTokenData(m map[string]any) *TokenData {
	data := &TokenData{}
	data.AccessToken, _ = m["access-token"].(string)
	data.TokenType, _ = m["token-type"].(string)
	data.RefreshToken, _ = m["refresh-token"].(string)
	if n, ok := m["expires-in"].(float64); ok {
		data.ExpiresIn = int64(n)
	}
	data.Params, _ = m["params"].(map[string]any)
	data.Userinfo, _ = m["userinfo"].(map[string]any)
	return data
}

// DefaultPutTokenData merges token data under the session's oauth2 slot.
// When the response carries no session patch yet, the request's session is
// used as the base so sibling slots survive the write.
func DefaultPutTokenData(req *Request, resp *Response, data *TokenData) *Response {
	base := sessionBase(req, resp)
	base[sessionOAuth2Slot] = data
	resp.Session = base
	return resp
}

// DefaultClearTokenData removes the oauth2 slot and nothing else.
func DefaultClearTokenData(req *Request, resp *Response) *Response {
	base := sessionBase(req, resp)
	delete(base, sessionOAuth2Slot)
	resp.Session = base
	return resp
}

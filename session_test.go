package interceptor

import (
	"net/http"
	"testing"
)

func TestDefaultStateAndTargetAccessors(t *testing.T) {
	req := &Request{Session: map[string]any{"state": "abc", "target": "/orig?x=1"}}

	if got := DefaultGetState(req); got != "abc" {
		t.Errorf("GetState = %q, want %q", got, "abc")
	}
	if got := DefaultGetTarget(req); got != "/orig?x=1" {
		t.Errorf("GetTarget = %q, want %q", got, "/orig?x=1")
	}

	resp := &Response{Status: http.StatusFound}
	resp = DefaultPutState(resp, "new-state")
	resp = DefaultPutTarget(resp, "/next")

	if resp.Session["state"] != "new-state" {
		t.Errorf("state slot = %v, want %q", resp.Session["state"], "new-state")
	}
	if resp.Session["target"] != "/next" {
		t.Errorf("target slot = %v, want %q", resp.Session["target"], "/next")
	}
}

func TestDefaultAccessors_EmptySession(t *testing.T) {
	req := &Request{}
	if DefaultGetState(req) != "" {
		t.Error("GetState on nil session should be empty")
	}
	if DefaultGetTarget(req) != "" {
		t.Error("GetTarget on nil session should be empty")
	}
	if DefaultGetTokenData(req) != nil {
		t.Error("GetTokenData on nil session should be nil")
	}
}

func TestDefaultPutTokenData_PreservesSiblings(t *testing.T) {
	req := &Request{Session: map[string]any{"something": "keep it"}}
	resp := &Response{Status: http.StatusOK}

	data := &TokenData{AccessToken: "tok"}
	resp = DefaultPutTokenData(req, resp, data)

	if resp.Session["something"] != "keep it" {
		t.Errorf("sibling slot lost: %v", resp.Session)
	}
	if resp.Session["oauth2"] != data {
		t.Errorf("oauth2 slot = %v, want token data", resp.Session["oauth2"])
	}
}

func TestDefaultPutTokenData_MergesIntoDeclaredPatch(t *testing.T) {
	// A session override already present on the response must be merged
	// into, never replaced.
	req := &Request{Session: map[string]any{"ignored": "request side"}}
	resp := &Response{Session: map[string]any{"declared": true}}

	resp = DefaultPutTokenData(req, resp, &TokenData{AccessToken: "tok"})

	if resp.Session["declared"] != true {
		t.Error("declared session override was dropped")
	}
	if _, ok := resp.Session["oauth2"]; !ok {
		t.Error("oauth2 slot missing after put")
	}
	if _, ok := resp.Session["ignored"]; ok {
		t.Error("declared override should win over the request session")
	}
}

func TestDefaultClearTokenData_RemovesOnlyOAuth2(t *testing.T) {
	req := &Request{Session: map[string]any{
		"something": "keep it",
		"oauth2":    &TokenData{AccessToken: "tok"},
	}}
	resp := &Response{Status: http.StatusFound}

	resp = DefaultClearTokenData(req, resp)

	if _, ok := resp.Session["oauth2"]; ok {
		t.Error("oauth2 slot survived clear")
	}
	if resp.Session["something"] != "keep it" {
		t.Error("sibling slot lost on clear")
	}
	// The request's own session must not have been touched.
	if _, ok := req.Session["oauth2"]; !ok {
		t.Error("clear mutated the request session in place")
	}
}

func TestDefaultGetTokenData_DecodesSerializedForm(t *testing.T) {
	// Session backends that round-trip through JSON hand the slot back
	// as a plain map.
	req := &Request{Session: map[string]any{
		"oauth2": map[string]any{
			"access-token":  "tok",
			"token-type":    "Bearer",
			"expires-in":    float64(120),
			"refresh-token": "ref",
			"params":        map[string]any{"scope": "openid"},
		},
	}}

	data := DefaultGetTokenData(req)
	if data == nil {
		t.Fatal("GetTokenData returned nil for serialized slot")
	}
	if data.AccessToken != "tok" || data.TokenType != "Bearer" || data.RefreshToken != "ref" {
		t.Errorf("decoded token data = %+v", data)
	}
	if data.ExpiresIn != 120 {
		t.Errorf("ExpiresIn = %d, want 120", data.ExpiresIn)
	}
	if data.Params["scope"] != "openid" {
		t.Errorf("Params = %v", data.Params)
	}
}

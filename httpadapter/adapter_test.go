package httpadapter

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	interceptor "github.com/giantswarm/oauth2-interceptor"
	"github.com/giantswarm/oauth2-interceptor/providers"
	"github.com/giantswarm/oauth2-interceptor/providers/mock"
	"github.com/giantswarm/oauth2-interceptor/security"
	"github.com/giantswarm/oauth2-interceptor/sessionstore/memory"
)

func TestAdapter_ServeHTTP(t *testing.T) {
	handler := func(ctx context.Context, req *interceptor.Request) (*interceptor.Response, error) {
		h := http.Header{}
		h.Set("X-Custom", "yes")
		return &interceptor.Response{
			Status: http.StatusTeapot,
			Header: h,
			Body:   []byte("short and stout"),
		}, nil
	}

	store := memory.New()
	defer store.Stop()
	a := New(handler, store, nil)

	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pot", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", rec.Code)
	}
	if rec.Header().Get("X-Custom") != "yes" {
		t.Error("response header lost")
	}
	if rec.Body.String() != "short and stout" {
		t.Errorf("body = %q", rec.Body.String())
	}
	// No session patch, no cookie.
	if len(rec.Result().Cookies()) != 0 {
		t.Error("adapter wrote a cookie without a session patch")
	}
}

func TestAdapter_DefaultStatusIs200(t *testing.T) {
	handler := func(ctx context.Context, req *interceptor.Request) (*interceptor.Response, error) {
		return &interceptor.Response{Body: []byte("ok")}, nil
	}
	store := memory.New()
	defer store.Stop()

	rec := httptest.NewRecorder()
	New(handler, store, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestAdapter_PersistsSessionPatch(t *testing.T) {
	handler := func(ctx context.Context, req *interceptor.Request) (*interceptor.Response, error) {
		return &interceptor.Response{
			Status:  http.StatusOK,
			Session: map[string]any{"state": "abc"},
		}, nil
	}
	store := memory.New()
	defer store.Stop()
	a := New(handler, store, nil)

	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %v, want the session cookie", cookies)
	}

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookies[0])
	session, err := store.Load(next)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if session["state"] != "abc" {
		t.Errorf("session = %v", session)
	}
}

func TestAdapter_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"state mismatch", &interceptor.StateMismatchError{}, http.StatusForbidden},
		{"protocol error", &providers.ProtocolError{Code: "access_denied"}, http.StatusBadGateway},
		{"wrapped protocol error", fmt.Errorf("code exchange: %w", &providers.ProtocolError{Code: "x"}), http.StatusBadGateway},
		{"other error", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	store := memory.New()
	defer store.Stop()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := func(ctx context.Context, req *interceptor.Request) (*interceptor.Response, error) {
				return nil, tt.err
			}
			rec := httptest.NewRecorder()
			New(handler, store, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

// TestAdapter_EndToEndLogin drives a full login through real pipeline,
// adapter, and session store: anonymous redirect, callback, authenticated
// request.
func TestAdapter_EndToEndLogin(t *testing.T) {
	client := mock.New()

	downstream := func(ctx context.Context, req *interceptor.Request) (*interceptor.Response, error) {
		if req.OAuth2 == nil {
			return interceptor.Redirect("/login-needed"), nil
		}
		return &interceptor.Response{Status: http.StatusOK, Body: []byte("welcome " + req.OAuth2.AccessToken)}, nil
	}

	pipeline, err := interceptor.RedirectUnauthenticated(downstream, &interceptor.Config{
		Client:      client,
		RedirectURI: "http://app.example.com/oauth2/callback",
	})
	if err != nil {
		t.Fatalf("RedirectUnauthenticated() error = %v", err)
	}
	// The callback stage only exists in the full pipeline; wire both so the
	// adapter sees one handler.
	full, err := interceptor.Wrap(downstream, &interceptor.Config{
		Client:      client,
		RedirectURI: "http://app.example.com/oauth2/callback",
	})
	if err != nil {
		t.Fatalf("Wrap() error = %v", err)
	}
	combined := func(ctx context.Context, req *interceptor.Request) (*interceptor.Response, error) {
		if req.Path == "/oauth2/callback" {
			return full(ctx, req)
		}
		return pipeline(ctx, req)
	}

	store := memory.New()
	defer store.Stop()
	a := New(combined, store, nil)

	// 1. Anonymous request is sent to the authorization server.
	rec := httptest.NewRecorder()
	a.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app?x=1", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if rec.Header().Get("Location") == "" {
		t.Fatal("no Location header on login redirect")
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %v, want the session cookie", cookies)
	}
	sessionCookie := cookies[0]

	// Recover the state the pipeline stored for the callback.
	probe := httptest.NewRequest(http.MethodGet, "/", nil)
	probe.AddCookie(sessionCookie)
	session, err := store.Load(probe)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	state, _ := session["state"].(string)
	if state == "" {
		t.Fatal("no state stored in the session")
	}
	if session["target"] != "/app?x=1" {
		t.Fatalf("target = %v", session["target"])
	}

	// 2. The authorization server sends the user back with code and state.
	rec = httptest.NewRecorder()
	cb := httptest.NewRequest(http.MethodGet, "/oauth2/callback?code=authcode&state="+state, nil)
	cb.AddCookie(sessionCookie)
	a.ServeHTTP(rec, cb)
	if rec.Code != http.StatusFound {
		t.Fatalf("callback status = %d, want 302", rec.Code)
	}
	if got := rec.Header().Get("Location"); got != "/app?x=1" {
		t.Errorf("callback Location = %q, want the stored target", got)
	}

	// 3. The next request is authenticated.
	rec = httptest.NewRecorder()
	again := httptest.NewRequest(http.MethodGet, "/app", nil)
	again.AddCookie(sessionCookie)
	a.ServeHTTP(rec, again)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "welcome mock-access-token" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestFromHTTP(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "https://app.example.com/path?a=1&b=2", nil)
	session := map[string]any{"k": "v"}

	req := FromHTTP(r, session)
	if req.Method != http.MethodPost || req.Scheme != "https" || req.Host != "app.example.com" {
		t.Errorf("request = %+v", req)
	}
	if req.Path != "/path" || req.RawQuery != "a=1&b=2" {
		t.Errorf("request = %+v", req)
	}
	if req.Params.Get("b") != "2" {
		t.Errorf("Params = %v", req.Params)
	}
	if req.Session["k"] != "v" {
		t.Errorf("Session = %v", req.Session)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		forwarded  string
		realIP     string
		trustProxy bool
		want       string
	}{
		{"remote addr only", "10.0.0.1:1234", "", "", false, "10.0.0.1"},
		{"forwarded ignored without trust", "10.0.0.1:1234", "1.2.3.4", "", false, "10.0.0.1"},
		{"forwarded first hop", "10.0.0.1:1234", "1.2.3.4, 5.6.7.8", "", true, "1.2.3.4"},
		{"real ip fallback", "10.0.0.1:1234", "", "9.9.9.9", true, "9.9.9.9"},
		{"unparseable remote addr", "not-an-addr", "", "", false, "not-an-addr"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			if tt.forwarded != "" {
				r.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := ClientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	limiter := security.NewKeyedLimiter(1, 1, nil)
	defer limiter.Stop()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := RateLimit(inner, limiter, false, nil)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec.Code)
	}

	// A different client is unaffected.
	other := httptest.NewRequest(http.MethodGet, "/", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", rec.Code)
	}
}

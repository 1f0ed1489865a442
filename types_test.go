package interceptor

import (
	"net/http"
	"net/url"
	"testing"
)

func TestRequest_URI(t *testing.T) {
	tests := []struct {
		path, query, want string
	}{
		{"/app", "", "/app"},
		{"/app", "x=1&y=2", "/app?x=1&y=2"},
		{"/", "", "/"},
	}
	for _, tt := range tests {
		r := &Request{Path: tt.path, RawQuery: tt.query}
		if got := r.URI(); got != tt.want {
			t.Errorf("URI() = %q, want %q", got, tt.want)
		}
	}
}

func TestRequest_Query(t *testing.T) {
	t.Run("prefers populated params", func(t *testing.T) {
		r := &Request{
			RawQuery: "from=rawquery",
			Params:   url.Values{"from": {"params"}},
		}
		if got := r.Query().Get("from"); got != "params" {
			t.Errorf("Query() = %q, want params", got)
		}
	})

	t.Run("parses raw query on demand", func(t *testing.T) {
		r := &Request{RawQuery: "code=abc&state=xyz"}
		q := r.Query()
		if q.Get("code") != "abc" || q.Get("state") != "xyz" {
			t.Errorf("Query() = %v", q)
		}
	})

	t.Run("malformed query yields empty values", func(t *testing.T) {
		r := &Request{RawQuery: "a=%zz"}
		if got := r.Query(); len(got) != 0 {
			t.Errorf("Query() = %v, want empty", got)
		}
	})
}

func TestRequest_AcceptsHTML(t *testing.T) {
	tests := []struct {
		accept string
		want   bool
	}{
		{"text/html", true},
		{"text/html,application/xhtml+xml;q=0.9", true},
		{"application/json", false},
		{"", false},
	}
	for _, tt := range tests {
		h := http.Header{}
		if tt.accept != "" {
			h.Set("Accept", tt.accept)
		}
		r := &Request{Header: h}
		if got := r.AcceptsHTML(); got != tt.want {
			t.Errorf("AcceptsHTML(%q) = %v, want %v", tt.accept, got, tt.want)
		}
	}

	if (&Request{}).AcceptsHTML() {
		t.Error("nil header must not accept HTML")
	}
}

func TestRequest_WithOAuth2(t *testing.T) {
	orig := &Request{Path: "/app"}
	data := &TokenData{AccessToken: "tok"}

	clone := orig.WithOAuth2(data)
	if clone.OAuth2 != data || clone.Path != "/app" {
		t.Errorf("clone = %+v", clone)
	}
	if orig.OAuth2 != nil {
		t.Error("WithOAuth2 mutated the original request")
	}
}

func TestRedirect(t *testing.T) {
	resp := Redirect("/somewhere")
	if resp.Status != http.StatusFound {
		t.Errorf("status = %d, want 302", resp.Status)
	}
	if got := resp.Header.Get("Location"); got != "/somewhere" {
		t.Errorf("Location = %q", got)
	}
	if resp.Session != nil {
		t.Error("redirect must not declare a session patch")
	}
}

func TestTokenData_Clone(t *testing.T) {
	var nilData *TokenData
	if nilData.Clone() != nil {
		t.Error("Clone of nil should be nil")
	}

	d := &TokenData{
		AccessToken: "tok",
		Params:      map[string]any{"scope": "openid"},
		Userinfo:    map[string]any{"sub": "u1"},
	}
	c := d.Clone()
	c.Params["scope"] = "changed"
	c.Userinfo["sub"] = "changed"

	if d.Params["scope"] != "openid" || d.Userinfo["sub"] != "u1" {
		t.Error("Clone shares map storage with the original")
	}
}

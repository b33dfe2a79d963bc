package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func serveSecured(t *testing.T, opt SecurityOptions, pre gin.HandlerFunc, req *http.Request) http.Header {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if pre != nil {
		r.Use(pre)
	}
	r.Use(SecurityHeaders(opt))
	r.NoRoute(func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header()
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	h := serveSecured(t, SecurityOptions{}, nil, httptest.NewRequest(http.MethodGet, "/api/books", nil))

	if h.Get("X-Content-Type-Options") != "nosniff" ||
		h.Get("X-Frame-Options") != "DENY" ||
		h.Get("Referrer-Policy") != "no-referrer" {
		t.Fatalf("baseline headers missing: %#v", h)
	}
	for _, k := range []string{"Permissions-Policy", "Cache-Control", "Pragma", "Strict-Transport-Security", "Access-Control-Expose-Headers"} {
		if h.Get(k) != "" {
			t.Fatalf("unexpected %s: %q", k, h.Get(k))
		}
	}
}

func TestSecurityHeaders_ExposeRequestID(t *testing.T) {
	cases := []struct {
		name     string
		existing string
		want     string
	}{
		{"added", "", "X-Request-ID"},
		{"appended", "ETag", "ETag, X-Request-ID"},
		{"not duplicated", "X-Request-ID, ETag", "X-Request-ID, ETag"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			pre := func(c *gin.Context) {
				c.Header("X-Request-ID", "rid-1")
				if tc.existing != "" {
					c.Header("Access-Control-Expose-Headers", tc.existing)
				}
				c.Next()
			}
			h := serveSecured(t, SecurityOptions{}, pre, httptest.NewRequest(http.MethodGet, "/", nil))
			if got := h.Get("Access-Control-Expose-Headers"); got != tc.want {
				t.Fatalf("got %q; want %q", got, tc.want)
			}
		})
	}
}

func TestSecurityHeaders_CacheRules(t *testing.T) {
	opt := SecurityOptions{
		NoStorePrefixes: []string{"/api/auth", "", "/api/me"},
		PrivatePrefixes: []string{"/api/list-items", "/api/me"},
	}
	cases := []struct {
		path      string
		wantCache string
		wantVary  bool
	}{
		{"/api/auth/login", "no-store", false},
		{"/api/me", "no-store", false}, // no-store wins
		{"/api/list-items", "private, no-cache", true},
		{"/api/list-items/li-1", "private, no-cache", true},
		{"/api/books", "", false},
	}
	for _, tc := range cases {
		h := serveSecured(t, opt, nil, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if got := h.Get("Cache-Control"); got != tc.wantCache {
			t.Fatalf("%s: Cache-Control = %q; want %q", tc.path, got, tc.wantCache)
		}
		if tc.wantCache == "no-store" && (h.Get("Pragma") != "no-cache" || h.Get("Expires") != "0") {
			t.Fatalf("%s: legacy no-store headers missing: %#v", tc.path, h)
		}
		if got := h.Get("Vary") == HeaderUserID; got != tc.wantVary {
			t.Fatalf("%s: Vary = %q", tc.path, h.Get("Vary"))
		}
	}
}

func TestSecurityHeaders_PolicyAndHSTS(t *testing.T) {
	opt := SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour, EnablePolicy: true}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	h := serveSecured(t, opt, nil, req)
	if h.Get("Permissions-Policy") == "" || h.Get("X-Permitted-Cross-Domain-Policies") != "none" {
		t.Fatalf("missing policy headers: %#v", h)
	}
	if got := h.Get("Strict-Transport-Security"); got != "max-age=86400; includeSubDomains; preload" {
		t.Fatalf("HSTS = %q", got)
	}

	// Proxy-terminated TLS with the default max age.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "HTTPS")
	h = serveSecured(t, SecurityOptions{EnableHSTS: true}, nil, req)
	if got := h.Get("Strict-Transport-Security"); !strings.HasPrefix(got, "max-age=15552000;") {
		t.Fatalf("HSTS default = %q", got)
	}

	// Plain HTTP never gets HSTS.
	h = serveSecured(t, opt, nil, httptest.NewRequest(http.MethodGet, "/", nil))
	if h.Get("Strict-Transport-Security") != "" {
		t.Fatalf("HSTS must not be sent over HTTP")
	}
}

func Test_hasAnyPrefix(t *testing.T) {
	if hasAnyPrefix("/x", nil) || hasAnyPrefix("/x", []string{""}) {
		t.Fatalf("empty prefixes must not match")
	}
	if !hasAnyPrefix("/api/me", []string{"/api/auth", "/api/me"}) {
		t.Fatalf("expected match")
	}
}

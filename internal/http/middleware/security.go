// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders: baseline hardening headers for a JSON
// API plus per-prefix cache rules. Credentials and profile responses are
// never stored; reading lists may be kept by the requesting client only and
// must be revalidated, which lets the list ETag answer 304.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Cache-Control values written by SecurityHeaders.
const (
	cacheNoStore    = "no-store"
	cacheRevalidate = "private, no-cache"
)

// SecurityOptions configures SecurityHeaders.
//
// HSTS is only sent for HTTPS requests (direct TLS or X-Forwarded-Proto),
// and only when EnableHSTS is set. HSTSMaxAge defaults to 180 days.
//
// NoStorePrefixes and PrivatePrefixes are matched against the request path.
// NoStore wins when both match.
type SecurityOptions struct {
	EnableHSTS   bool
	HSTSMaxAge   time.Duration
	EnablePolicy bool // Permissions-Policy and X-Permitted-Cross-Domain-Policies

	NoStorePrefixes []string // Cache-Control: no-store
	PrivatePrefixes []string // Cache-Control: private, no-cache; Vary: X-User-ID
}

// SecurityHeaders returns a Gin middleware that sets
//
//	X-Content-Type-Options: nosniff
//	X-Frame-Options: DENY
//	Referrer-Policy: no-referrer
//
// on every response, the cache rules from opt, optional browser feature
// policies and HSTS. When a request ID is set it is added to
// Access-Control-Expose-Headers.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	hsts := "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		switch path := c.Request.URL.Path; {
		case hasAnyPrefix(path, opt.NoStorePrefixes):
			h.Set("Cache-Control", cacheNoStore)
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		case hasAnyPrefix(path, opt.PrivatePrefixes):
			h.Set("Cache-Control", cacheRevalidate)
			h.Add("Vary", HeaderUserID)
		}

		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		if h.Get("X-Request-ID") != "" {
			const hdr = "Access-Control-Expose-Headers"
			switch cur := h.Get(hdr); {
			case cur == "":
				h.Set(hdr, "X-Request-ID")
			case !strings.Contains(cur, "X-Request-ID"):
				h.Set(hdr, cur+", X-Request-ID")
			}
		}

		c.Next()
	}
}

// isHTTPS reports whether r arrived over TLS directly or through a proxy
// that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

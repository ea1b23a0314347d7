package commandapi

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// corsPolicy answers with the configured UI origin. A loopback origin on the
// same scheme and port as a loopback UI origin is echoed back, so the UI
// works whether it is opened via localhost or 127.0.0.1.
type corsPolicy struct {
	allowed string
	parsed  *url.URL
}

func newCORS(allowed string) corsPolicy {
	allowed = strings.TrimSpace(allowed)
	if allowed == "" {
		allowed = "*"
	}
	p := corsPolicy{allowed: allowed}
	if u, err := url.Parse(allowed); err == nil && allowed != "*" {
		p.parsed = u
	}
	return p
}

func (p corsPolicy) origin(requestOrigin string) string {
	origin := strings.TrimSpace(requestOrigin)
	if origin == "" || p.parsed == nil || origin == p.allowed {
		return p.allowed
	}
	u, err := url.Parse(origin)
	if err != nil || !sameLoopback(u, p.parsed) {
		return p.allowed
	}
	return origin
}

func (p corsPolicy) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := w.Header()
		header.Set("Vary", "Origin, Access-Control-Request-Headers")
		header.Set("Access-Control-Allow-Origin", p.origin(r.Header.Get("Origin")))
		header.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		allowHeaders := strings.TrimSpace(r.Header.Get("Access-Control-Request-Headers"))
		if allowHeaders == "" {
			allowHeaders = "Content-Type"
		}
		header.Set("Access-Control-Allow-Headers", allowHeaders)
		next.ServeHTTP(w, r)
	})
}

func sameLoopback(a, b *url.URL) bool {
	return isLoopback(a.Hostname()) && isLoopback(b.Hostname()) &&
		a.Port() == b.Port() && strings.EqualFold(a.Scheme, b.Scheme)
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

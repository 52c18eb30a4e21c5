// Package httputil holds request helpers shared by the HTTP handlers.
package httputil

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP extracts the client IP address from the request.
// When trustProxy is true, X-Forwarded-For (first entry) and X-Real-IP
// headers are checked before falling back to RemoteAddr. Header values
// that do not parse as an IP address are skipped, and any port is removed.
// Only enable trustProxy when the server is behind a trusted reverse proxy.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip, ok := parseHost(first); ok {
				return ip
			}
		}
		if ip, ok := parseHost(r.Header.Get("X-Real-IP")); ok {
			return ip
		}
	}
	if ip, ok := parseHost(r.RemoteAddr); ok {
		return ip
	}
	return r.RemoteAddr
}

// parseHost accepts "ip", "ip:port" or "[ipv6]:port" and returns the
// canonical IP text.
func parseHost(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if host, _, err := net.SplitHostPort(s); err == nil {
		s = host
	}
	ip := net.ParseIP(strings.Trim(s, "[]"))
	if ip == nil {
		return "", false
	}
	return ip.String(), true
}

// Package metadata extracts client metadata early in the middleware chain:
// the real client IP behind proxies and a coarse device label parsed from
// the User-Agent. Both land in the request context for audit logging.
package metadata

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"worldpass/pkg/requestcontext"
)

// ClientMetadata extracts client IP address and a device label from the
// request and adds them to the context for handlers and services.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = requestcontext.WithClientIP(ctx, ClientIPFromRequest(r))
		ctx = requestcontext.WithDevice(ctx, deviceLabel(r.Header.Get("User-Agent")))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// deviceLabel condenses a User-Agent into "browser/version (os)". Raw
// user-agent strings are too high-cardinality for audit fields.
func deviceLabel(rawUA string) string {
	if rawUA == "" {
		return "unknown"
	}
	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	if name == "" {
		if ua.Bot() {
			return "bot"
		}
		return "unknown"
	}
	label := name
	if version != "" {
		label += "/" + version
	}
	if os := ua.OS(); os != "" {
		label += " (" + os + ")"
	}
	return label
}

// ClientIPFromRequest extracts the real client IP, handling proxies and
// load balancers.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First entry is the original client.
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if addr := r.RemoteAddr; addr != "" {
		// RemoteAddr is "ip:port"; IPv6 is "[::1]:port".
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return addr[:idx]
		}
		return addr
	}
	return "unknown"
}

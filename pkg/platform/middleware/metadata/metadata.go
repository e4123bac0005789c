// Package metadata records who is calling: client IP and a coarse device
// label derived from the User-Agent.
package metadata

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"veridion/pkg/requestcontext"
)

type contextKeyDevice struct{}

// ClientMetadata extracts client IP and User-Agent into requestcontext and
// stores a parsed device label. Apply early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua := r.Header.Get("User-Agent")
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), ua)
		ctx = WithDevice(ctx, DeviceLabel(ua))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Device returns the device label stored by ClientMetadata.
func Device(ctx context.Context) string {
	if d, ok := ctx.Value(contextKeyDevice{}).(string); ok {
		return d
	}
	return ""
}

// WithDevice injects a device label. Useful in service tests.
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, contextKeyDevice{}, device)
}

// DeviceLabel renders "<browser> on <os>" ("bot" for crawlers), or "" when
// the header is empty.
func DeviceLabel(ua string) string {
	if strings.TrimSpace(ua) == "" {
		return ""
	}
	parsed := useragent.New(ua)
	if parsed.Bot() {
		return "bot"
	}
	browser, _ := parsed.Browser()
	os := parsed.OS()
	switch {
	case browser != "" && os != "":
		label := browser + " on " + os
		if parsed.Mobile() {
			label += " (mobile)"
		}
		return label
	case browser != "":
		return browser
	default:
		return "unknown"
	}
}

// ClientIPFromRequest resolves the caller IP, preferring proxy headers.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

package httpmw

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	HeaderContentVersion = "X-Content-Version"
	HeaderContentHash    = "X-Content-Hash"
)

// ContentInfo is satisfied by content.Manager.
type ContentInfo interface {
	ContentVersion() string
	ContentHash() string
}

// ContentHeaders stamps responses with the active content identity so a
// page can be traced back to the bundle that rendered it.
func ContentHeaders(info ContentInfo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if info == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v, h := info.ContentVersion(), info.ContentHash()
			span := trace.SpanFromContext(r.Context())
			if v != "" {
				w.Header().Set(HeaderContentVersion, v)
				span.SetAttributes(attribute.String("content.version", v))
			}
			if h != "" {
				w.Header().Set(HeaderContentHash, shortHash(h))
				span.SetAttributes(attribute.String("content.hash", h))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

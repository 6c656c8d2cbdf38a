package httpmw

import (
	"net/http"
	"strings"
)

// CSPOptions widens the default policy for content the sections embed.
type CSPOptions struct {
	// FrameSources are origins allowed in video iframes.
	FrameSources []string
	// ImageSources are extra origins for slide and background images.
	ImageSources []string
}

// DefaultCSPOptions allows the video hosts the media registry embeds and
// images from any https origin.
func DefaultCSPOptions() CSPOptions {
	return CSPOptions{
		FrameSources: []string{"https://www.youtube.com", "https://player.vimeo.com"},
		ImageSources: []string{"https:", "data:"},
	}
}

// ContentSecurityPolicy builds the policy string. Scripts and stylesheets
// stay same-origin; inline style attributes are allowed because slide
// layers and background images are positioned with them.
func ContentSecurityPolicy(o CSPOptions) string {
	img := append([]string{"'self'"}, o.ImageSources...)
	frame := append([]string{"'self'"}, o.FrameSources...)
	directives := []string{
		"default-src 'self'",
		"script-src 'self'",
		"style-src 'self'",
		"style-src-attr 'unsafe-inline'",
		"img-src " + strings.Join(img, " "),
		"media-src 'self' https:",
		"frame-src " + strings.Join(frame, " "),
		"connect-src 'self'",
		"font-src 'self'",
		"base-uri 'self'",
		"form-action 'self'",
		"frame-ancestors 'none'",
		"object-src 'none'",
		"upgrade-insecure-requests",
	}
	return strings.Join(directives, "; ")
}

// SecurityHeaders sets the hardening headers on every response.
func SecurityHeaders(o CSPOptions) func(http.Handler) http.Handler {
	csp := ContentSecurityPolicy(o)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
			h.Set("Content-Security-Policy", csp)
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "accelerometer=(), camera=(), geolocation=(), gyroscope=(), magnetometer=(), microphone=(), payment=(), usb=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
			h.Set("Cross-Origin-Opener-Policy", "same-origin")
			h.Set("Cross-Origin-Resource-Policy", "same-origin")
			next.ServeHTTP(w, r)
		})
	}
}

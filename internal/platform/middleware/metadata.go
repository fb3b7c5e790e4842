package middleware

import (
	"net"
	"net/http"

	"github.com/mssola/useragent"

	"seva/pkg/requestcontext"
)

// ClientMetadata captures the caller's IP and a parsed User-Agent summary for
// the audit trail. X-Forwarded-For wins over RemoteAddr when present since the
// service normally sits behind a proxy.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.Header.Get("X-Forwarded-For")
		if ip == "" {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err == nil {
				ip = host
			} else {
				ip = r.RemoteAddr
			}
		}

		rawUA := r.UserAgent()
		device := ""
		if rawUA != "" {
			ua := useragent.New(rawUA)
			name, version := ua.Browser()
			device = name + " " + version + " (" + ua.OS() + ")"
		}

		ctx := requestcontext.WithClientMetadata(r.Context(), ip, rawUA, device)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

package logx

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
)

// anonymizeIP zeroes the last IPv4 octet, or keeps only the first half of an IPv6 address.
func anonymizeIP(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}

	ip := net.ParseIP(addr)
	switch {
	case ip == nil:
		return "unknown_ip"
	case ip.IsLoopback():
		return "127.0.0.1"
	case ip.To4() != nil:
		return ip.To4()[:3].String() + ".0"
	}

	masked := make(net.IP, net.IPv6len)
	copy(masked, ip.To16()[:8])
	return masked.String()
}

// RequestLogger stores a request-scoped logger in the request context (see
// FromContext) and writes one access line per request once it completes.
func RequestLogger() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		access := hlog.AccessHandler(logAccess)(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := Logger().With().
				Str("component", "http").
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("remote_ip", anonymizeIP(r.RemoteAddr)).
				Str("request_method", r.Method).
				Str("request_path", r.URL.Path).
				Logger()

			access.ServeHTTP(w, r.WithContext(l.WithContext(r.Context())))
		})
	}
}

func logAccess(r *http.Request, status, size int, latency time.Duration) {
	l := hlog.FromRequest(r)

	var ev *zerolog.Event
	switch {
	case status >= 500:
		ev = l.Error()
	case status >= 400:
		ev = l.Warn()
	default:
		ev = l.Info()
	}

	ev.Int("status", status).
		Int("bytes", size).
		Dur("latency", latency).
		Msg("Request completed")
}

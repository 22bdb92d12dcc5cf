package middleware

import (
	"net/http"
	"time"

	"iotguardian/internal/logx"
	"iotguardian/internal/telemetry"
)

// RequestLogger logs one line per request with its route template, status and duration.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := telemetry.NewResponseWriter(w)

		next.ServeHTTP(rw, r)

		status := rw.StatusCode()
		event := logx.Info()
		switch {
		case status >= http.StatusInternalServerError:
			event = logx.Error()
		case status >= http.StatusBadRequest:
			event = logx.Warn()
		}
		event.
			Str("method", r.Method).
			Str("route", telemetry.RoutePath(r)).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

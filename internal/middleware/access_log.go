package middleware

import (
	"net/http"
	"time"

	"patient-access/internal/platform/logger"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// AccessLog registra una línea por request. Nunca loguea bodies: el body de
// /invitations/redeem lleva el código en claro.
func AccessLog(log logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := map[string]any{
				"request_id": chimw.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     status,
				"bytes":      ww.BytesWritten(),
				"dur_ms":     time.Since(start).Milliseconds(),
				"ip":         r.RemoteAddr,
			}
			if uid, ok := UserID(r.Context()); ok {
				fields["user_id"] = uid
			}
			log.Info("http request", fields)
		})
	}
}

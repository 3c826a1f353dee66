package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"team-checkin/backend/internal/log"
)

// RequestLogger puts a request-scoped entry of logger into the context and
// logs one line per request once it is served.
func RequestLogger(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			ctx := log.WithLogger(r.Context(), logger.WithFields(logrus.Fields{
				"method":    r.Method,
				"path":      r.URL.Path,
				"requestId": chimw.GetReqID(r.Context()),
			}))
			next.ServeHTTP(ww, r.WithContext(ctx))

			entry := log.GetLogger(ctx).WithFields(logrus.Fields{
				"status":   ww.Status(),
				"bytes":    ww.BytesWritten(),
				"duration": time.Since(start).String(),
			})
			if ww.Status() >= http.StatusInternalServerError {
				entry.Warn("request failed")
				return
			}
			entry.Info("request served")
		})
	}
}

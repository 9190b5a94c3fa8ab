package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"payflow/internal/platform/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// Logger writes one access log entry per request and feeds the HTTP
// metrics with the matched chi route pattern.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		elapsed := time.Since(start)

		metrics.RecordHTTP(r.Method, routePattern(r), recorder.status, elapsed)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", recorder.status),
			zap.Int64("durationMs", elapsed.Milliseconds()),
			zap.String("requestId", GetRequestID(r.Context())),
		}
		if user, ok := GetUser(r.Context()); ok {
			fields = append(fields, zap.String("userId", user.UserID))
		}
		switch {
		case recorder.status >= 500:
			zap.L().Error("http request", fields...)
		case recorder.status >= 400:
			zap.L().Warn("http request", fields...)
		default:
			zap.L().Info("http request", fields...)
		}
	})
}

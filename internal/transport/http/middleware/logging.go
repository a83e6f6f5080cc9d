package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// StatusObserver receives the outcome of every request.
type StatusObserver interface {
	Record(status int, duration time.Duration)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func Logger(observer StatusObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)
			elapsed := time.Since(start)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", recorder.status,
				"durationMs", elapsed.Milliseconds(),
				"requestId", GetRequestID(r.Context()),
			}
			if session, ok := GetSession(r.Context()); ok {
				attrs = append(attrs, "userId", session.UserID)
			}
			if recorder.status >= http.StatusInternalServerError {
				slog.Error("request", attrs...)
			} else {
				slog.Info("request", attrs...)
			}
			if observer != nil {
				observer.Record(recorder.status, elapsed)
			}
		})
	}
}

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/versich-treue/vtml-go/pkg/logging"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// loggingMiddleware tags every request with an ID and writes one access
// log line after the handler finishes.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		requestID := fmt.Sprintf("%d", time.Now().UnixNano())
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID))
		rw.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(rw, r)

		s.logger.Info("http request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", rw.statusCode),
			logging.Float("duration_ms", time.Since(start).Seconds()*1000),
			logging.String("remote_addr", r.RemoteAddr),
			logging.RequestID(requestID),
			logging.Component("api"))
	})
}

// recoveryMiddleware converts handler panics into 500 responses.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", fmt.Errorf("panic: %v", rec),
					logging.String("method", r.Method),
					logging.String("path", r.URL.Path),
					logging.Component("api"))
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code for
// the access log.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

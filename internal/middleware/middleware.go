package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"cogit/internal/logging"
	shared "cogit/shared/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-ID"
	// ErrorTypeHeader carries the error type of a failed response so the
	// request log can record it.
	ErrorTypeHeader = "X-Error-Type"
	// PanicErrorType is reported for requests that panicked.
	PanicErrorType = "INTERNAL"
)

type responseWriter struct {
	http.ResponseWriter
	status  int
	written int
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.written += n
	return n, err
}

type Middleware func(http.Handler) http.Handler

// Chain wraps h so that the first middleware is the innermost.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for _, m := range middlewares {
		h = m(h)
	}
	return h
}

// RequestID tags each request with an ID, keeping one supplied by the
// caller.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx := logging.ContextWithRequestID(r.Context(), requestID)
		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Logger records one line per request. Server errors are logged at error
// level and client errors at warn, with the error type when the handler
// set one.
func Logger(logger *logging.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapper := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapper, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", wrapper.status),
				zap.Int("bytes", wrapper.written),
				zap.Duration("duration", time.Since(start)),
			}
			if kind := wrapper.Header().Get(ErrorTypeHeader); kind != "" {
				fields = append(fields, zap.String("error_type", kind))
			}

			log := logger.WithRequestID(r.Context())
			switch {
			case wrapper.status >= http.StatusInternalServerError:
				log.Error("request failed", fields...)
			case wrapper.status >= http.StatusBadRequest:
				log.Warn("request rejected", fields...)
			default:
				log.Info("request completed", fields...)
			}
		})
	}
}

// Recover turns a handler panic into a JSON 500 and logs the stack.
func Recover(logger *logging.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				logger.WithRequestID(r.Context()).Error("panic recovered",
					zap.Any("panic", rec),
					zap.Stack("stack"),
				)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set(ErrorTypeHeader, PanicErrorType)
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(shared.ErrorResponse{
					Type:    PanicErrorType,
					Message: "internal server error",
				})
			}()
			next.ServeHTTP(w, r)
		})
	}
}

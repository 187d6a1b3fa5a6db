package api

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/garnizeh/crm/internal/apperr"
	"github.com/garnizeh/crm/internal/metrics"
	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type ctxKey string

const (
	CtxEmployeeID ctxKey = "employee_id"
	CtxRequestID  ctxKey = "request_id"
)

const headerRequestID = "X-Request-ID"

// package-level logger used by middleware and helpers; can be set via SetLogger from caller
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger installs a logger for the api package. Passing nil is a no-op.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

// EmployeeIDFromContext returns the employee id stored by RequireAuth.
func EmployeeIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(CtxEmployeeID).(int64)
	return id, ok && id > 0
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(CtxRequestID).(string)
	return id
}

// statusRecorder remembers the status code written by the next handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter { return s.ResponseWriter }

func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		reqID := r.Header.Get(headerRequestID)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(headerRequestID, reqID)
		r = r.WithContext(context.WithValue(r.Context(), CtxRequestID, reqID))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logger.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote", r.RemoteAddr),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", reqID),
		)
	})
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic", slog.Any("err", err), slog.String("path", r.URL.Path))

				hub := sentry.GetHubFromContext(r.Context())
				if hub == nil {
					hub = sentry.CurrentHub().Clone()
				}
				hub.RecoverWithContext(r.Context(), err)

				writeMessage(w, "Internal server error.", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// MetricsMiddleware records request counts and latencies labelled with the
// route template, so ids in paths do not blow up cardinality.
func MetricsMiddleware(m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			path := "unmatched"
			if route := mux.CurrentRoute(r); route != nil {
				if tpl, err := route.GetPathTemplate(); err == nil {
					path = tpl
				}
			}
			m.RequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
			m.RequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}

// TokenVerifier resolves a bearer token to an employee id.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (int64, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// resolved employee id in the request context.
func RequireAuth(v TokenVerifier) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				writeMessage(w, "Authentication required.", http.StatusUnauthorized)
				return
			}

			id, err := v.Verify(r.Context(), tokenString)
			if err != nil {
				writeError(w, r, err, "Unable to authenticate right now.")
				return
			}

			ctx := context.WithValue(r.Context(), CtxEmployeeID, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)

	return token, token != ""
}

// callerID reads the authenticated employee id, failing closed when a handler
// is mounted without RequireAuth.
func callerID(r *http.Request) (int64, error) {
	id, ok := EmployeeIDFromContext(r.Context())
	if !ok {
		return 0, apperr.Auth("Authentication required.")
	}

	return id, nil
}

// chain applies middlewares so that the first one listed runs first.
func chain(h http.Handler, mws ...mux.MiddlewareFunc) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}

	return h
}

package http

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"ocstat/internal/shared/loggers"
	"ocstat/internal/shared/svcerrors"
	"ocstat/internal/shared/ulid"

	"github.com/go-chi/chi/v5"
)

// setupMiddleware installs the chain outermost first. mwRecoverer sits last
// so a recovered panic is still observed as a 500.
func setupMiddleware(router chi.Router, httpLogger loggers.Logger) {
	router.Use(
		mwRequestID(httpLogger),
		mwAppResponseWriter,
		mwObserve,
		mwRecoverer,
	)
}

func mwAppResponseWriter(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(newAppResponseWriter(w, r.ProtoMajor), r)
	})
}

// mwRequestID keeps the caller's x-request-id or mints one, echoes it on the
// response and attaches a request-scoped logger to the context.
func mwRequestID(httpLogger loggers.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := requestID(r)
			if id == "" {
				id = ulid.NewULID()
				setRequestID(r, id)
			}
			w.Header().Set(headerRequestID, id)

			ctx := httpLogger.With().
				Str(loggers.FieldRequestID, id).
				Logger().WithContext(r.Context())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// mwObserve records request metrics and the completion log line. Metrics are
// labelled by route pattern, so /reports/daily and /reports/monthly share a
// series.
func mwObserve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		elapsed := time.Since(start)

		status, errorCode := http.StatusOK, ""
		if appWriter, ok := w.(*appResponseWriter); ok {
			status = appWriter.FinalStatus()
			errorCode = appWriter.ErrorCode()
		}

		route := routePattern(r)
		statusStr := strconv.Itoa(status)
		metricHTTPRequestsTotal.WithLabelValues(r.Method, route, statusStr, errorCode).Inc()
		metricHTTPRequestDuration.WithLabelValues(r.Method, route, statusStr, errorCode).Observe(elapsed.Seconds())

		event := loggers.Ctx(r.Context()).Info()
		if errorCode != "" {
			event = event.Str(loggers.FieldErrorCode, errorCode)
		}
		event.
			Str(loggers.FieldHttpMethod, r.Method).
			Str(loggers.FieldHttpPath, r.URL.Path).
			Int(loggers.FieldHttpStatus, status).
			Int64(loggers.FieldDuration, elapsed.Milliseconds()).
			Msg("request completed")
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// mwRecoverer turns a handler panic into SYS_9000. A response that is
// already on the wire cannot be replaced; the panic is then only logged.
func mwRecoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			loggers.Ctx(r.Context()).Error().
				Bytes(loggers.FieldErrorStack, debug.Stack()).
				Msgf("http panic recovered: %v", p)

			if appWriter, ok := w.(*appResponseWriter); ok && appWriter.Committed() {
				return
			}
			writeErrorResponse(w, r, svcerrors.NewInternalErrorPanic(panicAsError(p)))
		}()

		next.ServeHTTP(w, r)
	})
}

func panicAsError(p any) error {
	if err, ok := p.(error); ok {
		return err
	}
	return fmt.Errorf("%v", p)
}

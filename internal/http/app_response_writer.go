package http

import (
	"net/http"

	"ocstat/internal/shared/metrics"
	"ocstat/internal/shared/svcerrors"

	"github.com/go-chi/chi/v5/middleware"
)

// appResponseWriter remembers what the observing middleware reports once the
// handler has returned: the written status and the ServiceError, if any.
type appResponseWriter struct {
	middleware.WrapResponseWriter
	svcError *svcerrors.ServiceError
}

func newAppResponseWriter(w http.ResponseWriter, protoMajor int) *appResponseWriter {
	return &appResponseWriter{
		WrapResponseWriter: middleware.NewWrapResponseWriter(w, protoMajor),
	}
}

func (w *appResponseWriter) SetServiceError(svcError *svcerrors.ServiceError) {
	w.svcError = svcError
}

// ErrorCode is metrics.ValueNoError for successful answers.
func (w *appResponseWriter) ErrorCode() string {
	if w.svcError == nil {
		return metrics.ValueNoError
	}
	return w.svcError.Code
}

// Committed reports whether a status line has already gone out.
func (w *appResponseWriter) Committed() bool {
	return w.Status() != 0
}

// FinalStatus is the written status, or 200 when the handler wrote nothing.
func (w *appResponseWriter) FinalStatus() int {
	if !w.Committed() {
		return http.StatusOK
	}
	return w.Status()
}

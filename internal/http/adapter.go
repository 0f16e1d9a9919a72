package http

import (
	"encoding/json"
	"net/http"

	"ocstat/internal/shared/loggers"
	"ocstat/internal/shared/svcerrors"
)

// retryAfterUnavailable is sent with every 503 so pushers back off for one
// collect interval.
const retryAfterUnavailable = "60"

// ErrorResponse is the JSON body of every non-2xx answer.
type ErrorResponse struct {
	RequestID        string `json:"requestId"`
	ErrorCategory    string `json:"errorCategory"`
	ErrorCode        string `json:"errorCode"`
	ErrorDescription string `json:"errorDescription"`
}

func errorHandlingAdapter(httpHandler AppHttpHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := httpHandler.Handle(w, r); err != nil {
			writeErrorResponse(w, r, toServiceError(r, err))
		}
	}
}

// toServiceError maps a handler error onto a ServiceError. Internal causes
// never reach the client, so they are logged here.
func toServiceError(r *http.Request, err error) *svcerrors.ServiceError {
	svcErr, ok := svcerrors.AsServiceError(err)
	if !ok {
		svcErr = svcerrors.NewInternalErrorUndefined(err)
	}
	if svcErr.IsInternalError() {
		loggers.Ctx(r.Context()).Error().
			Err(svcErr.Cause).
			Str(loggers.FieldErrorCode, svcErr.Code).
			Str(loggers.FieldHttpPath, r.URL.Path).
			Msg("handler failed")
	}
	return svcErr
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, svcErr *svcerrors.ServiceError) {
	if appWriter, ok := w.(*appResponseWriter); ok {
		appWriter.SetServiceError(svcErr)
	}

	header := w.Header()
	header.Set("Content-Type", "application/json")
	if svcErr.IsUnavailable() {
		header.Set("Retry-After", retryAfterUnavailable)
	}
	w.WriteHeader(svcErr.HttpStatusCode)

	_ = json.NewEncoder(w).Encode(ErrorResponse{
		RequestID:        requestID(r),
		ErrorCategory:    svcErr.Category,
		ErrorCode:        svcErr.Code,
		ErrorDescription: svcErr.Message,
	})
}

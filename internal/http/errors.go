package http

import (
	"fmt"

	"ocstat/internal/shared/svcerrors"
)

const (
	codeInvalidWindow = "HTTP_1000"

	codeInternalChartFailed = "HTTP_9000"
)

func errInvalidWindow(window string, cause error) *svcerrors.ServiceError {
	return svcerrors.NewInvalidArgumentError(codeInvalidWindow, fmt.Sprintf("unknown window %q, expected daily or monthly", window), cause)
}

func errInternalChartFailed(cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeInternalChartFailed, fmt.Errorf("chartFailed: %w", cause))
}

package jobs

import (
	"fmt"

	"ocstat/internal/models"
	"ocstat/internal/shared/svcerrors"
)

const (
	codeCheckpointFailed = "JOB_9000"
	codeCursorFailed     = "JOB_9001"
	codeReportFailed     = "JOB_9002"
	codeReportMarkFailed = "JOB_9003"
)

func errCheckpointFailed(cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeCheckpointFailed, fmt.Errorf("checkpointFailed: %w", cause))
}

func errCursorFailed(source string, cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeCursorFailed, fmt.Errorf("cursorFailed: source=%s: %w", source, cause))
}

func errReportFailed(kind models.WindowKind, cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeReportFailed, fmt.Errorf("reportFailed: window=%s: %w", kind, cause))
}

func errReportMarkFailed(kind models.WindowKind, cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeReportMarkFailed, fmt.Errorf("reportMarkFailed: window=%s: %w", kind, cause))
}

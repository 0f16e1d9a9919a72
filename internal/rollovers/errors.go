package rollovers

import (
	"fmt"

	"ocstat/internal/models"
	"ocstat/internal/shared/svcerrors"
)

const (
	codeInternalPersistenceFailed = "ROL_9000"
	codeInternalFoldFailed        = "ROL_9001"
	codeInternalRestoreFailed     = "ROL_9002"
)

// errPersistenceFailed returns an error when a closing window could not be
// written. The window stays open and the rollover is retried on the next check.
func errPersistenceFailed(kind models.WindowKind, username string, cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeInternalPersistenceFailed, fmt.Errorf("persistenceFailed: window=%s user=%q: %w", kind, username, cause))
}

func errFoldFailed(username string, cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeInternalFoldFailed, fmt.Errorf("foldFailed: user=%q: %w", username, cause))
}

func errRestoreFailed(cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeInternalRestoreFailed, fmt.Errorf("restoreFailed: %w", cause))
}

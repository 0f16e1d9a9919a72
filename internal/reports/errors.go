package reports

import (
	"fmt"

	"ocstat/internal/models"
	"ocstat/internal/shared/svcerrors"
)

const (
	codeInternalRenderFailed   = "REP_9000"
	codeInternalDeliveryFailed = "REP_9001"
	codeInternalArchiveFailed  = "REP_9002"
)

// errRenderFailed returns an error when a report could not be turned into an image.
func errRenderFailed(kind models.WindowKind, cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeInternalRenderFailed, fmt.Errorf("renderFailed: window=%s: %w", kind, cause))
}

// errDeliveryFailed returns an error when the notifier rejected a rendered report.
// The accumulators are untouched; the report is simply dropped.
func errDeliveryFailed(kind models.WindowKind, cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeInternalDeliveryFailed, fmt.Errorf("deliveryFailed: window=%s: %w", kind, cause))
}

func errArchiveFailed(key string, cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeInternalArchiveFailed, fmt.Errorf("archiveFailed: key=%s: %w", key, cause))
}

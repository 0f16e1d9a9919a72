package sources

import (
	"fmt"

	"ocstat/internal/shared/svcerrors"
)

const (
	codeSourceUnavailable = "SRC_9000"
	codeAckFailed         = "SRC_9001"
	codeRadiusPublish     = "SRC_9002"
)

// errSourceUnavailable returns an error when a source could not be read. The
// tick's ingest is skipped and retried on the next one.
func errSourceUnavailable(source string, cause error) *svcerrors.ServiceError {
	return svcerrors.NewUnavailableError(codeSourceUnavailable, fmt.Sprintf("session source %q unavailable", source), cause)
}

func errAckFailed(source string, cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeAckFailed, fmt.Errorf("ackFailed: source=%s: %w", source, cause))
}

func errRadiusPublish(cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeRadiusPublish, fmt.Errorf("radiusPublishFailed: %w", cause))
}

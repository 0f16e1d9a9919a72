package streams

import (
	"fmt"

	"ocstat/internal/shared/svcerrors"
)

const codeStreamQueueFull = "STR_9000"

// errQueueFull returns an error when a batch could not be queued before the
// caller gave up. Records already queued stay queued.
func errQueueFull(published, total int, cause error) *svcerrors.ServiceError {
	return svcerrors.NewUnavailableError(codeStreamQueueFull, "session queue is full, retry later",
		fmt.Errorf("queueFull: published %d of %d records: %w", published, total, cause))
}

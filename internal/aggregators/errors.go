package aggregators

import (
	"fmt"

	"ocstat/internal/shared/svcerrors"
)

const (
	codeInvalidSessionRecord     = "AGG_1000"
	codeStaleSessionRecord       = "AGG_1001"
	codeFutureSessionRecord      = "AGG_1002"
	codeInternalKnownIPLookup    = "AGG_9000"
	codeInternalUsageRollupFails = "AGG_9001"
)

// errInvalidSessionRecord returns an error when a record fails validation.
func errInvalidSessionRecord(cause error) *svcerrors.ServiceError {
	return svcerrors.NewInvalidArgumentError(codeInvalidSessionRecord, "invalid session record", cause)
}

// errStaleSessionRecord returns an error when a record belongs to a window that is already closed.
func errStaleSessionRecord(cause error) *svcerrors.ServiceError {
	return svcerrors.NewInvalidArgumentError(codeStaleSessionRecord, "session record precedes every open window", cause)
}

// errFutureSessionRecord returns an error when a record is stamped further ahead
// of the clock than the allowed skew.
func errFutureSessionRecord(cause error) *svcerrors.ServiceError {
	return svcerrors.NewInvalidArgumentError(codeFutureSessionRecord, "session record is stamped in the future", cause)
}

func errInternalKnownIPLookup(cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeInternalKnownIPLookup, fmt.Errorf("knownIPLookupFailed: %w", cause))
}

// errInternalUsageRollupFailed returns an error when a usage cannot be added to its accumulator.
func errInternalUsageRollupFailed(cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeInternalUsageRollupFails, fmt.Errorf("usageRollupFailed: %w", cause))
}

package ingestors

import (
	"fmt"

	"ocstat/internal/shared/svcerrors"
)

// IngestionService errors
const (
	codeValidationFailed      = "ING_1000"
	codeBatchAlreadyProcessed = "ING_1001"

	codeInternalSessionBatchStoreFailed = "ING_9000"
	codeInternalSessionProducerFailed   = "ING_9001"
)

func errValidationFailed(msg string, cause error) *svcerrors.ServiceError {
	return svcerrors.NewInvalidArgumentError(codeValidationFailed, msg, cause)
}

// errSessionBatchAlreadyProcessed returns an error when a batch with the same idempotency key was accepted before.
func errSessionBatchAlreadyProcessed(cause error) *svcerrors.ServiceError {
	return svcerrors.NewResourceConflictError(codeBatchAlreadyProcessed, "session batch already processed", cause)
}

func errInternalSessionBatchStoreFailed(cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeInternalSessionBatchStoreFailed, fmt.Errorf("sessionBatchStoreFailed: %w", cause))
}

func errInternalSessionProducerFailed(cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeInternalSessionProducerFailed, fmt.Errorf("sessionProducerFailed: %w", cause))
}

package schedulers

import (
	"fmt"
	"time"

	"ocstat/internal/shared/svcerrors"
)

const (
	codeInvalidTrigger = "SCH_1000"

	codeJobFailed   = "SCH_9000"
	codeJobTimedOut = "SCH_9001"
	codeJobPanicked = "SCH_9002"
)

func errInvalidTrigger(msg string, cause error) *svcerrors.ServiceError {
	return svcerrors.NewInvalidArgumentError(codeInvalidTrigger, msg, cause)
}

func errJobFailed(job string, cause error) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeJobFailed, fmt.Errorf("jobFailed: job=%s: %w", job, cause))
}

// errJobTimedOut is returned when a run outlives the job timeout. The run is
// abandoned, not killed.
func errJobTimedOut(job string, timeout time.Duration) *svcerrors.ServiceError {
	return svcerrors.NewInternalError(codeJobTimedOut, fmt.Errorf("jobTimedOut: job=%s: timeout=%s", job, timeout))
}

func errJobPanicked(job string, recovered any) *svcerrors.ServiceError {
	if err, ok := recovered.(error); ok {
		return svcerrors.NewInternalError(codeJobPanicked, fmt.Errorf("jobPanicked: job=%s: %w", job, err))
	}
	return svcerrors.NewInternalError(codeJobPanicked, fmt.Errorf("jobPanicked: job=%s: %v", job, recovered))
}

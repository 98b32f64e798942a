package flow

import (
	"errors"
	"fmt"
)

var (
	ErrNavigationInProgress = errors.New("navigation already in progress")
	ErrTimespanInProgress   = errors.New("timespan already in progress")
	ErrSnapshotInProgress   = errors.New("snapshot already in progress")
	ErrNoNavigation         = errors.New("no navigation in progress")
	ErrNoTimespan           = errors.New("no timespan in progress")

	// ErrEmptyFlow rejects aggregation over a flow with zero gather steps.
	ErrEmptyFlow = errors.New("flow has no gather steps")

	// ErrStepAudit is the root of every StepAuditError.
	ErrStepAudit = errors.New("step produced no audit result")
)

// IsInvalidFlowState reports whether err is a slot precondition violation:
// an operation was attempted while a conflicting operation was active, or
// while none was active when one was required. These are always detected
// before any external side effect.
func IsInvalidFlowState(err error) bool {
	return errors.Is(err, ErrNavigationInProgress) ||
		errors.Is(err, ErrTimespanInProgress) ||
		errors.Is(err, ErrSnapshotInProgress) ||
		errors.Is(err, ErrNoNavigation) ||
		errors.Is(err, ErrNoTimespan)
}

// StepAuditError reports that the scoring engine returned no result for a
// step. It carries the step's resolved display name for diagnosability.
type StepAuditError struct {
	StepName string
}

func (e *StepAuditError) Error() string {
	return fmt.Sprintf("step %q produced no audit result", e.StepName)
}

func (e *StepAuditError) Unwrap() error {
	return ErrStepAudit
}

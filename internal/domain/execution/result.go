package execution

import (
	"time"

	"github.com/gameforge/quartermaster/internal/domain/step"
)

// Status represents the outcome of a single step during a run.
type Status string

const (
	// StatusApplied indicates the step's forward action ran and succeeded.
	StatusApplied Status = "applied"
	// StatusWouldApply indicates a dry run reported the step without
	// invoking its forward action.
	StatusWouldApply Status = "would-apply"
	// StatusSkipped indicates the step was already completed and idempotent.
	StatusSkipped Status = "skipped"
	// StatusFailed indicates the step's forward action failed.
	StatusFailed Status = "failed"
)

// StepResult captures the outcome of executing a single step.
type StepResult struct {
	stepID   step.StepID
	status   Status
	err      error
	duration time.Duration
}

// NewStepResult creates a new StepResult.
func NewStepResult(stepID step.StepID, status Status, err error) StepResult {
	return StepResult{
		stepID: stepID,
		status: status,
		err:    err,
	}
}

// StepID returns the ID of the step that was executed.
func (r StepResult) StepID() step.StepID {
	return r.stepID
}

// Status returns the final status of the step.
func (r StepResult) Status() Status {
	return r.status
}

// Error returns any error that occurred during execution.
func (r StepResult) Error() error {
	return r.err
}

// Duration returns how long the step took to execute.
func (r StepResult) Duration() time.Duration {
	return r.duration
}

// Success returns true if the step completed or was validly skipped.
func (r StepResult) Success() bool {
	return r.status != StatusFailed
}

// WithDuration returns a new StepResult with duration set.
func (r StepResult) WithDuration(d time.Duration) StepResult {
	r.duration = d
	return r
}

// RevertResult captures the outcome of one reverse action during rollback.
type RevertResult struct {
	StepID   step.StepID
	Err      error
	Duration time.Duration
}

// Success returns true if the reverse action completed.
func (r RevertResult) Success() bool {
	return r.Err == nil
}

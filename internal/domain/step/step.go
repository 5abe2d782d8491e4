// Package step defines the provisioning step model: identifiers, the step
// contract, the ordered registry, and the error taxonomy shared by the
// executor and the rollback planner.
package step

import (
	"errors"
)

// Step represents a single named unit of provisioning work with a forward
// and a reverse action.
type Step interface {
	// ID returns the unique identifier for this step.
	ID() StepID

	// Idempotent reports whether the step is safe to skip when it is
	// already recorded as completed. Non-idempotent steps are re-applied
	// on resume.
	Idempotent() bool

	// Apply executes the step's changes.
	Apply(ctx RunContext) error

	// Revert undoes the changes made by Apply. Reverts must tolerate the
	// forward action never having fully completed: remove-if-present, not
	// remove. Reverting twice must produce the same observable state as
	// reverting once.
	Revert(ctx RunContext) error
}

// Action is a single forward or reverse operation.
type Action func(ctx RunContext) error

// Alternatives returns an Action that tries each action in order. The
// combined action succeeds as soon as one alternative succeeds and fails
// only when all alternatives fail, with the individual causes joined.
func Alternatives(actions ...Action) Action {
	return func(ctx RunContext) error {
		if len(actions) == 0 {
			return errors.New("no alternatives declared")
		}
		var errs []error
		for _, action := range actions {
			if err := action(ctx); err != nil {
				errs = append(errs, err)
				continue
			}
			return nil
		}
		return errors.Join(errs...)
	}
}

// NoRevert is a reverse action for steps that are irreversible by design.
func NoRevert(_ RunContext) error {
	return nil
}

// FuncStep is a Step assembled from callables. Providers with richer state
// implement Step directly; FuncStep covers ad hoc steps and tests.
type FuncStep struct {
	id         StepID
	idempotent bool
	apply      Action
	revert     Action
}

// NewFuncStep creates a FuncStep with the given identifier.
// The step defaults to idempotent with a no-op revert.
func NewFuncStep(id string) *FuncStep {
	return &FuncStep{
		id:         MustNewStepID(id),
		idempotent: true,
		revert:     NoRevert,
	}
}

// WithApply returns a copy with the forward action set.
func (s *FuncStep) WithApply(fn Action) *FuncStep {
	c := *s
	c.apply = fn
	return &c
}

// WithRevert returns a copy with the reverse action set.
func (s *FuncStep) WithRevert(fn Action) *FuncStep {
	c := *s
	c.revert = fn
	return &c
}

// WithIdempotent returns a copy with the idempotency flag set.
func (s *FuncStep) WithIdempotent(idempotent bool) *FuncStep {
	c := *s
	c.idempotent = idempotent
	return &c
}

// ID returns the step identifier.
func (s *FuncStep) ID() StepID {
	return s.id
}

// Idempotent returns the idempotency flag.
func (s *FuncStep) Idempotent() bool {
	return s.idempotent
}

// Apply executes the forward action.
func (s *FuncStep) Apply(ctx RunContext) error {
	if s.apply == nil {
		return nil
	}
	return s.apply(ctx)
}

// Revert executes the reverse action.
func (s *FuncStep) Revert(ctx RunContext) error {
	if s.revert == nil {
		return nil
	}
	return s.revert(ctx)
}

// Ensure FuncStep implements Step.
var _ Step = (*FuncStep)(nil)

package execution

import (
	"context"
	"errors"
	"time"

	"github.com/gameforge/quartermaster/internal/domain/step"
	"github.com/gameforge/quartermaster/internal/ports"
)

// ErrAborted is returned when the operator cancels the run. Cancellation is
// only honored at step boundaries, never mid-step.
var ErrAborted = errors.New("run aborted by operator")

// Executor runs registered steps in declared order, persisting progress
// after each success so an interrupted run resumes where it stopped.
type Executor struct {
	store  Store
	logger ports.Logger
	dryRun bool
}

// NewExecutor creates an Executor persisting progress through store.
func NewExecutor(store Store, logger ports.Logger) *Executor {
	return &Executor{
		store:  store,
		logger: logger,
	}
}

// WithDryRun returns an Executor that reports steps without applying them.
func (e *Executor) WithDryRun(dryRun bool) *Executor {
	return &Executor{
		store:  e.store,
		logger: e.logger,
		dryRun: dryRun,
	}
}

// Run iterates the registry's ordered steps against the provided state.
// Steps already recorded as completed are skipped when idempotent and
// re-applied otherwise. In dry-run mode forward actions are reported but
// never invoked. On the first failure a StepError is returned and
// the remaining steps are not attempted. Results cover every step that was
// considered, including the failing one.
func (e *Executor) Run(ctx context.Context, registry *step.Registry, state *State) ([]StepResult, error) {
	results := make([]StepResult, 0, registry.Len())
	runCtx := step.NewRunContext(ctx)

	for _, s := range registry.Ordered() {
		// Honor cancellation only between steps so an external tool
		// invocation is never left half-applied.
		select {
		case <-ctx.Done():
			return results, ErrAborted
		default:
		}

		id := s.ID()

		if state.Contains(id) && s.Idempotent() {
			e.logger.Debug(ctx, "step already completed, skipping", ports.F("step", id.String()))
			results = append(results, NewStepResult(id, StatusSkipped, nil))
			continue
		}

		if e.dryRun {
			e.logger.Info(ctx, "would apply step", ports.F("step", id.String()))
			results = append(results, NewStepResult(id, StatusWouldApply, nil))
			continue
		}

		e.logger.Info(ctx, "applying step", ports.F("step", id.String()))
		start := time.Now()
		err := s.Apply(runCtx)
		duration := time.Since(start)

		if err != nil {
			result := NewStepResult(id, StatusFailed, err).WithDuration(duration)
			results = append(results, result)
			e.logger.Error(ctx, "step failed", ports.F("step", id.String()), ports.F("error", err.Error()))

			if errors.Is(err, ports.ErrPromptAbandoned) {
				return results, step.NewPromptAbandonedError(id.String(), err)
			}
			return results, step.NewStepFailure(id.String(), err)
		}

		results = append(results, NewStepResult(id, StatusApplied, nil).WithDuration(duration))
		e.logger.Info(ctx, "step applied", ports.F("step", id.String()), ports.F("duration", duration.String()))

		if !state.Contains(id) {
			if err := state.Append(id); err != nil {
				return results, err
			}
			if err := e.store.Append(ctx, state.RunID(), id); err != nil {
				return results, step.NewStepFailure(id.String(), err)
			}
		}
	}

	return results, nil
}

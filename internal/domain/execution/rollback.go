package execution

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gameforge/quartermaster/internal/domain/step"
	"github.com/gameforge/quartermaster/internal/ports"
)

// PartialFailure reports reverse actions that failed during rollback.
// Rollback is best-effort: individual failures are collected as warnings
// and never halt the remaining reverse actions.
type PartialFailure struct {
	Warnings []RevertResult
}

// Error returns the formatted warning list.
func (e *PartialFailure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rollback completed with %d warning(s):", len(e.Warnings))
	for _, w := range e.Warnings {
		fmt.Fprintf(&b, "\n  %s: %v", w.StepID.String(), w.Err)
	}
	return b.String()
}

// RollbackPlanner computes and executes the reverse of an execution state:
// one reverse action per completed step, most recent first.
type RollbackPlanner struct {
	store  Store
	logger ports.Logger
}

// NewRollbackPlanner creates a RollbackPlanner.
func NewRollbackPlanner(store Store, logger ports.Logger) *RollbackPlanner {
	return &RollbackPlanner{
		store:  store,
		logger: logger,
	}
}

// Rollback reverts the completed steps recorded in state in reverse
// completion order. Every reverse action is attempted; failures are
// reported through a PartialFailure, never escalated, so the operator is
// always left able to retry from a clean slate. Steps missing from the
// registry are reported as warnings and skipped.
func (p *RollbackPlanner) Rollback(ctx context.Context, registry *step.Registry, state *State) ([]RevertResult, error) {
	completed := state.Completed()
	results := make([]RevertResult, 0, len(completed))
	runCtx := step.NewRunContext(ctx)

	for i := len(completed) - 1; i >= 0; i-- {
		id := completed[i]

		s, ok := registry.Get(id)
		if !ok {
			p.logger.Warn(ctx, "completed step not in registry, cannot revert", ports.F("step", id.String()))
			results = append(results, RevertResult{
				StepID: id,
				Err:    fmt.Errorf("step %q not found in registry", id.String()),
			})
			continue
		}

		p.logger.Info(ctx, "reverting step", ports.F("step", id.String()))
		start := time.Now()
		err := s.Revert(runCtx)
		duration := time.Since(start)

		if err != nil {
			p.logger.Warn(ctx, "revert failed, continuing", ports.F("step", id.String()), ports.F("error", err.Error()))
		}
		results = append(results, RevertResult{StepID: id, Err: err, Duration: duration})
	}

	if err := p.store.Clear(ctx); err != nil {
		p.logger.Warn(ctx, "failed to clear execution state", ports.F("error", err.Error()))
		results = append(results, RevertResult{Err: fmt.Errorf("clear state: %w", err)})
	}

	warnings := make([]RevertResult, 0)
	for _, r := range results {
		if r.Err != nil {
			warnings = append(warnings, r)
		}
	}
	if len(warnings) > 0 {
		return results, &PartialFailure{Warnings: warnings}
	}
	return results, nil
}

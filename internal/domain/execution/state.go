// Package execution handles step orchestration: the sequential executor,
// the persisted execution state, and the rollback planner.
package execution

import (
	"context"
	"fmt"

	"github.com/gameforge/quartermaster/internal/domain/step"
)

// State is the ordered sequence of step identifiers that completed
// successfully. It is owned by the Executor, appended to after each
// successful step, and read by the rollback planner.
type State struct {
	runID     string
	completed []step.StepID
	seen      map[string]bool
}

// NewState creates an empty State for the given run.
func NewState(runID string) *State {
	return &State{
		runID: runID,
		seen:  make(map[string]bool),
	}
}

// RunID returns the identifier of the run that produced this state.
func (s *State) RunID() string {
	return s.runID
}

// Append records a completed step. A step id may appear at most once.
func (s *State) Append(id step.StepID) error {
	if s.seen[id.String()] {
		return fmt.Errorf("step %q already recorded as completed", id.String())
	}
	s.seen[id.String()] = true
	s.completed = append(s.completed, id)
	return nil
}

// Contains reports whether the step is recorded as completed.
func (s *State) Contains(id step.StepID) bool {
	return s.seen[id.String()]
}

// Completed returns the completed step ids in completion order.
// The returned slice is a copy.
func (s *State) Completed() []step.StepID {
	out := make([]step.StepID, len(s.completed))
	copy(out, s.completed)
	return out
}

// Len returns the number of completed steps.
func (s *State) Len() int {
	return len(s.completed)
}

// IsEmpty returns true if no steps completed.
func (s *State) IsEmpty() bool {
	return len(s.completed) == 0
}

// Store persists execution state across process restarts so an interrupted
// run resumes instead of restarting.
type Store interface {
	// Load reads the persisted state. A missing state file yields a fresh
	// empty state.
	Load(ctx context.Context) (*State, error)

	// Append durably records one completed step id for the given run.
	Append(ctx context.Context, runID string, id step.StepID) error

	// Clear removes the persisted state after a completed rollback.
	Clear(ctx context.Context) error
}

package execution

import (
	"context"
	"errors"
	"testing"

	"github.com/gameforge/quartermaster/internal/domain/step"
)

func newTestPlanner(store Store) *RollbackPlanner {
	return NewRollbackPlanner(store, &testLogger{})
}

func TestRollback_ReverseCompletionOrder(t *testing.T) {
	store := &memStore{}
	planner := newTestPlanner(store)
	registry := step.NewRegistry()

	var reverted []string
	for _, id := range []string{"user:create:gameserver", "share:add:mpmissions", "steam:fetch:arma3"} {
		id := id
		s := step.NewFuncStep(id).WithRevert(func(step.RunContext) error {
			reverted = append(reverted, id)
			return nil
		})
		if err := registry.Register(s); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}

	state := NewState("r1")
	for _, id := range []string{"user:create:gameserver", "share:add:mpmissions", "steam:fetch:arma3"} {
		if err := state.Append(step.MustNewStepID(id)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	results, err := planner.Rollback(context.Background(), registry, state)
	if err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}

	want := []string{"steam:fetch:arma3", "share:add:mpmissions", "user:create:gameserver"}
	if len(reverted) != len(want) {
		t.Fatalf("reverted %d steps, want %d", len(reverted), len(want))
	}
	for i, id := range want {
		if reverted[i] != id {
			t.Errorf("reverted[%d] = %q, want %q", i, reverted[i], id)
		}
	}

	if len(results) != 3 {
		t.Errorf("results len = %d, want 3", len(results))
	}
	if !store.cleared {
		t.Error("state was not cleared after rollback")
	}
}

func TestRollback_OnlyCompletedSteps(t *testing.T) {
	store := &memStore{}
	planner := newTestPlanner(store)
	registry := step.NewRegistry()

	neverRanReverted := false
	if err := registry.RegisterAll(
		step.NewFuncStep("a:one"),
		step.NewFuncStep("a:two").WithRevert(func(step.RunContext) error {
			neverRanReverted = true
			return nil
		}),
	); err != nil {
		t.Fatalf("RegisterAll() error = %v", err)
	}

	state := NewState("r1")
	if err := state.Append(step.MustNewStepID("a:one")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if _, err := planner.Rollback(context.Background(), registry, state); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}
	if neverRanReverted {
		t.Error("step that never completed was reverted")
	}
}

func TestRollback_BestEffortCollectsWarnings(t *testing.T) {
	store := &memStore{}
	planner := newTestPlanner(store)
	registry := step.NewRegistry()

	firstReverted := false
	if err := registry.RegisterAll(
		step.NewFuncStep("a:one").WithRevert(func(step.RunContext) error {
			firstReverted = true
			return nil
		}),
		step.NewFuncStep("a:two").WithRevert(func(step.RunContext) error {
			return errors.New("userdel: user is currently logged in")
		}),
	); err != nil {
		t.Fatalf("RegisterAll() error = %v", err)
	}

	state := NewState("r1")
	for _, id := range []string{"a:one", "a:two"} {
		if err := state.Append(step.MustNewStepID(id)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	results, err := planner.Rollback(context.Background(), registry, state)

	var partial *PartialFailure
	if !errors.As(err, &partial) {
		t.Fatalf("Rollback() error = %T, want *PartialFailure", err)
	}
	if len(partial.Warnings) != 1 {
		t.Fatalf("warnings len = %d, want 1", len(partial.Warnings))
	}
	if partial.Warnings[0].StepID.String() != "a:two" {
		t.Errorf("warning step = %q, want a:two", partial.Warnings[0].StepID)
	}

	// The failure on the later step must not stop the earlier revert.
	if !firstReverted {
		t.Error("remaining reverse action skipped after a failure")
	}
	if len(results) != 2 {
		t.Errorf("results len = %d, want 2", len(results))
	}
	if !store.cleared {
		t.Error("state should still be cleared after partial failure")
	}
}

func TestRollback_MissingStepIsWarning(t *testing.T) {
	store := &memStore{}
	planner := newTestPlanner(store)
	registry := step.NewRegistry()

	state := NewState("r1")
	if err := state.Append(step.MustNewStepID("gone:step")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	results, err := planner.Rollback(context.Background(), registry, state)

	var partial *PartialFailure
	if !errors.As(err, &partial) {
		t.Fatalf("Rollback() error = %T, want *PartialFailure", err)
	}
	if len(results) != 1 || results[0].Success() {
		t.Errorf("results = %+v, want one warning result", results)
	}
}

func TestRollback_EmptyState(t *testing.T) {
	store := &memStore{}
	planner := newTestPlanner(store)

	results, err := planner.Rollback(context.Background(), step.NewRegistry(), NewState("r1"))
	if err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results len = %d, want 0", len(results))
	}
}

func TestRollback_IdempotentReverts(t *testing.T) {
	store := &memStore{}
	planner := newTestPlanner(store)
	registry := step.NewRegistry()

	// Remove-if-present semantics: a second rollback of the same state
	// must succeed without error.
	present := true
	s := step.NewFuncStep("user:authorized-key:gameserver").WithRevert(func(step.RunContext) error {
		present = false
		return nil
	})
	if err := registry.Register(s); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	state := NewState("r1")
	if err := state.Append(step.MustNewStepID("user:authorized-key:gameserver")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := planner.Rollback(context.Background(), registry, state); err != nil {
			t.Fatalf("Rollback() pass %d error = %v", i+1, err)
		}
	}
	if present {
		t.Error("revert did not run")
	}
}

func TestState_AppendRejectsDuplicates(t *testing.T) {
	state := NewState("r1")
	id := step.MustNewStepID("apt:update")

	if err := state.Append(id); err != nil {
		t.Fatalf("first Append() error = %v", err)
	}
	if err := state.Append(id); err == nil {
		t.Fatal("second Append() error = nil, want duplicate rejection")
	}
	if state.Len() != 1 {
		t.Errorf("Len() = %d, want 1", state.Len())
	}
}

func TestState_CompletedReturnsCopy(t *testing.T) {
	state := NewState("r1")
	if err := state.Append(step.MustNewStepID("apt:update")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	completed := state.Completed()
	completed[0] = step.MustNewStepID("mutated:step")

	if state.Completed()[0].String() != "apt:update" {
		t.Error("mutating the returned slice changed the state")
	}
}

package step

import (
	"context"
	"errors"
	"testing"
)

func testCtx() RunContext {
	return NewRunContext(context.Background())
}

func TestAlternatives_FirstSucceeds(t *testing.T) {
	secondCalled := false
	action := Alternatives(
		func(RunContext) error { return nil },
		func(RunContext) error { secondCalled = true; return nil },
	)

	if err := action(testCtx()); err != nil {
		t.Fatalf("action error = %v", err)
	}
	if secondCalled {
		t.Error("second alternative ran after the first succeeded")
	}
}

func TestAlternatives_FallsThrough(t *testing.T) {
	action := Alternatives(
		func(RunContext) error { return errors.New("curl missing") },
		func(RunContext) error { return nil },
	)

	if err := action(testCtx()); err != nil {
		t.Fatalf("action error = %v, want nil after fallback", err)
	}
}

func TestAlternatives_AllFail(t *testing.T) {
	errA := errors.New("curl missing")
	errB := errors.New("wget missing")
	action := Alternatives(
		func(RunContext) error { return errA },
		func(RunContext) error { return errB },
	)

	err := action(testCtx())
	if err == nil {
		t.Fatal("action error = nil, want joined failure")
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("joined error %v should wrap both causes", err)
	}
}

func TestAlternatives_Empty(t *testing.T) {
	if err := Alternatives()(testCtx()); err == nil {
		t.Error("empty alternatives should fail")
	}
}

func TestFuncStep_Defaults(t *testing.T) {
	s := NewFuncStep("apt:update")

	if !s.Idempotent() {
		t.Error("FuncStep should default to idempotent")
	}
	if err := s.Apply(testCtx()); err != nil {
		t.Errorf("Apply() with no action error = %v", err)
	}
	if err := s.Revert(testCtx()); err != nil {
		t.Errorf("Revert() default error = %v", err)
	}
}

func TestFuncStep_BuildersDoNotMutate(t *testing.T) {
	base := NewFuncStep("apt:update")
	modified := base.WithIdempotent(false).WithApply(func(RunContext) error {
		return errors.New("boom")
	})

	if !base.Idempotent() {
		t.Error("WithIdempotent mutated the original")
	}
	if err := base.Apply(testCtx()); err != nil {
		t.Errorf("original Apply() error = %v", err)
	}
	if modified.Idempotent() {
		t.Error("modified copy should not be idempotent")
	}
	if err := modified.Apply(testCtx()); err == nil {
		t.Error("modified Apply() should fail")
	}
}

func TestStepError_Unwrap(t *testing.T) {
	cause := errors.New("exit 100")
	err := NewStepFailure("apt:package:samba", cause)

	if !errors.Is(err, cause) {
		t.Error("StepError should wrap its cause")
	}
	if err.Code != ErrCodeStepFailed {
		t.Errorf("Code = %q, want %q", err.Code, ErrCodeStepFailed)
	}
}

func TestStepError_WithSuggestionCopies(t *testing.T) {
	base := NewPreconditionError("root privileges required")
	withHint := base.WithSuggestion("Re-run with sudo.")

	if base.Suggestion != "" {
		t.Error("WithSuggestion mutated the original")
	}
	if withHint.Suggestion != "Re-run with sudo." {
		t.Errorf("Suggestion = %q", withHint.Suggestion)
	}
}

func TestExternalToolError_Message(t *testing.T) {
	err := NewExternalToolError("steamcmd", ToolErrorAuthRejected, 5, "Invalid Password\n")
	got := err.Error()

	want := `steamcmd failed (auth-rejected, exit 5): Invalid Password`
	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

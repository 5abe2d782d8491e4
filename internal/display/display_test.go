package display

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gameforge/quartermaster/internal/domain/execution"
	"github.com/gameforge/quartermaster/internal/domain/step"
)

func TestRenderer_RunResults(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	results := []execution.StepResult{
		execution.NewStepResult(step.MustNewStepID("apt:update"), execution.StatusApplied, nil).WithDuration(1200 * time.Millisecond),
		execution.NewStepResult(step.MustNewStepID("apt:package:samba"), execution.StatusSkipped, nil),
		execution.NewStepResult(step.MustNewStepID("user:create:gameserver"), execution.StatusWouldApply, nil),
		execution.NewStepResult(step.MustNewStepID("steam:fetch:arma3"), execution.StatusFailed, errors.New("steamcmd failed (network-unreachable, exit 1)")),
	}
	r.RunResults(results)

	out := buf.String()
	if !strings.Contains(out, "apt:update") {
		t.Errorf("applied step missing: %q", out)
	}
	if !strings.Contains(out, "1.2s") {
		t.Errorf("duration missing: %q", out)
	}
	if !strings.Contains(out, "already done") {
		t.Errorf("skipped annotation missing: %q", out)
	}
	if !strings.Contains(out, "would apply") {
		t.Errorf("dry-run annotation missing: %q", out)
	}
	if !strings.Contains(out, "network-unreachable") {
		t.Errorf("failure detail missing: %q", out)
	}
}

func TestRenderer_RollbackResults(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	results := []execution.RevertResult{
		{StepID: step.MustNewStepID("share:add:mpmissions")},
		{StepID: step.MustNewStepID("user:create:gameserver"), Err: errors.New("user is logged in")},
	}
	r.RollbackResults(results)

	out := buf.String()
	if !strings.Contains(out, "reverted share:add:mpmissions") {
		t.Errorf("successful revert missing: %q", out)
	}
	if !strings.Contains(out, "user is logged in") {
		t.Errorf("warning detail missing: %q", out)
	}
}

func TestRenderer_State(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	state := execution.NewState("0a1b2c3d-4e5f-6071-8293-a4b5c6d7e8f9")
	for _, id := range []string{"apt:update", "user:create:gameserver"} {
		if err := state.Append(step.MustNewStepID(id)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	r.State(state)

	out := buf.String()
	if !strings.Contains(out, "0a1b2c3d") {
		t.Errorf("shortened run id missing: %q", out)
	}
	if strings.Contains(out, "0a1b2c3d-4e5f") {
		t.Errorf("run id should be shortened: %q", out)
	}
	if !strings.Contains(out, "apt:update") || !strings.Contains(out, "user:create:gameserver") {
		t.Errorf("completed steps missing: %q", out)
	}
}

func TestRenderer_EmptyState(t *testing.T) {
	var buf bytes.Buffer
	NewRenderer(&buf).State(execution.NewState("r1"))

	if !strings.Contains(buf.String(), "No completed steps recorded.") {
		t.Errorf("empty-state message missing: %q", buf.String())
	}
}

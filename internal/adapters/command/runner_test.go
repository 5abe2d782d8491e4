package command

import (
	"context"
	"testing"
)

func TestNewRealRunner(t *testing.T) {
	runner := NewRealRunner()
	if runner == nil {
		t.Error("NewRealRunner() should not return nil")
	}
}

func TestRealRunner_Run_Success(t *testing.T) {
	runner := NewRealRunner()

	result, err := runner.Run(context.Background(), "echo", "hello")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !result.Success() {
		t.Error("Run() should succeed for 'echo hello'")
	}
	if result.Stdout != "hello\n" {
		t.Errorf("Stdout = %q, want %q", result.Stdout, "hello\n")
	}
}

func TestRealRunner_Run_NonZeroExitIsNotAnError(t *testing.T) {
	runner := NewRealRunner()

	result, err := runner.Run(context.Background(), "false")
	if err != nil {
		t.Fatalf("Run() error = %v (exit code should travel in the result)", err)
	}
	if result.Success() {
		t.Error("Run() should fail for 'false' command")
	}
	if result.ExitCode == 0 {
		t.Error("ExitCode should be non-zero for 'false' command")
	}
}

func TestRealRunner_Run_NotFound(t *testing.T) {
	runner := NewRealRunner()

	if _, err := runner.Run(context.Background(), "nonexistent-command-12345"); err == nil {
		t.Error("Run() should return error for non-existent command")
	}
}

func TestRealRunner_Run_CapturesStderr(t *testing.T) {
	runner := NewRealRunner()

	result, err := runner.Run(context.Background(), "sh", "-c", "echo oops >&2; exit 1")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Stderr != "oops\n" {
		t.Errorf("Stderr = %q, want %q", result.Stderr, "oops\n")
	}
	if result.ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", result.ExitCode)
	}
}

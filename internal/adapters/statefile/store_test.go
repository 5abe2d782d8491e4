package statefile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gameforge/quartermaster/internal/domain/step"
)

func TestFileStore_LoadMissingFile(t *testing.T) {
	store := NewFileStore(t.TempDir())

	state, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !state.IsEmpty() {
		t.Error("fresh state should be empty")
	}
	if state.RunID() == "" {
		t.Error("fresh state should carry a run id")
	}
}

func TestFileStore_AppendThenLoad(t *testing.T) {
	store := NewFileStore(t.TempDir())
	ctx := context.Background()

	ids := []string{"apt:update", "apt:package:samba", "user:create:gameserver"}
	for _, id := range ids {
		if err := store.Append(ctx, "run-abc", step.MustNewStepID(id)); err != nil {
			t.Fatalf("Append(%q) error = %v", id, err)
		}
	}

	state, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if state.RunID() != "run-abc" {
		t.Errorf("RunID() = %q, want run-abc", state.RunID())
	}

	completed := state.Completed()
	if len(completed) != len(ids) {
		t.Fatalf("completed len = %d, want %d", len(completed), len(ids))
	}
	for i, id := range ids {
		if completed[i].String() != id {
			t.Errorf("completed[%d] = %q, want %q", i, completed[i], id)
		}
	}
}

func TestFileStore_HeaderFormat(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	if err := store.Append(context.Background(), "run-abc", step.MustNewStepID("apt:update")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "state"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("file has %d lines, want 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "run run-abc ") {
		t.Errorf("header = %q, want run header with id and timestamp", lines[0])
	}
	if lines[1] != "apt:update" {
		t.Errorf("entry = %q, want apt:update", lines[1])
	}
}

func TestFileStore_HeaderWrittenOnce(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)
	ctx := context.Background()

	if err := store.Append(ctx, "run-abc", step.MustNewStepID("a:one")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Append(ctx, "run-abc", step.MustNewStepID("a:two")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "state"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if got := strings.Count(string(data), "run run-abc"); got != 1 {
		t.Errorf("header appears %d times, want 1", got)
	}
}

func TestFileStore_Clear(t *testing.T) {
	store := NewFileStore(t.TempDir())
	ctx := context.Background()

	if err := store.Append(ctx, "run-abc", step.MustNewStepID("a:one")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	state, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() after Clear() error = %v", err)
	}
	if !state.IsEmpty() {
		t.Error("state should be empty after Clear")
	}

	// Clearing again is not an error.
	if err := store.Clear(ctx); err != nil {
		t.Errorf("second Clear() error = %v", err)
	}
}

func TestFileStore_CorruptHeader(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "state"), []byte("apt:update\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	store := NewFileStore(dir)
	if _, err := store.Load(context.Background()); !errors.Is(err, ErrCorruptState) {
		t.Errorf("Load() error = %v, want ErrCorruptState", err)
	}
}

func TestFileStore_CorruptEntry(t *testing.T) {
	dir := t.TempDir()
	content := "run run-abc 2026-08-29T00:00:00Z\nnot a valid id\n"
	if err := os.WriteFile(filepath.Join(dir, "state"), []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	store := NewFileStore(dir)
	if _, err := store.Load(context.Background()); !errors.Is(err, ErrCorruptState) {
		t.Errorf("Load() error = %v, want ErrCorruptState", err)
	}
}

func TestFileStore_CreatesStateDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state-dir")
	store := NewFileStore(dir)

	if err := store.Append(context.Background(), "run-abc", step.MustNewStepID("a:one")); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "state")); err != nil {
		t.Errorf("state file not created: %v", err)
	}
}

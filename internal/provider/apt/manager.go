package apt

import (
	"context"
	"strings"

	"github.com/gameforge/quartermaster/internal/domain/step"
	"github.com/gameforge/quartermaster/internal/ports"
)

// Manager wraps the system package manager behind a narrow interface.
// Callers see the error taxonomy, never raw tool output.
type Manager struct {
	runner ports.CommandRunner
}

// NewManager creates a new Manager.
func NewManager(runner ports.CommandRunner) *Manager {
	return &Manager{runner: runner}
}

// Update refreshes the package index.
func (m *Manager) Update(ctx context.Context) error {
	result, err := m.runner.Run(ctx, "apt-get", "update")
	if err != nil {
		return err
	}
	if !result.Success() {
		return step.NewExternalToolError("apt-get update", classify(result), result.ExitCode, result.Stderr)
	}
	return nil
}

// Installed reports whether the package is installed.
func (m *Manager) Installed(ctx context.Context, pkg string) (bool, error) {
	result, err := m.runner.Run(ctx, "dpkg-query", "-W", "-f=${db:Status-Status}", pkg)
	if err != nil {
		return false, err
	}
	// dpkg-query exits non-zero when the package is unknown
	if !result.Success() {
		return false, nil
	}
	return strings.Contains(result.Stdout, "installed"), nil
}

// Install installs the package unconditionally.
func (m *Manager) Install(ctx context.Context, pkg string) error {
	result, err := m.runner.Run(ctx, "apt-get", "install", "-y", pkg)
	if err != nil {
		return err
	}
	if !result.Success() {
		return step.NewExternalToolError("apt-get install "+pkg, classify(result), result.ExitCode, result.Stderr)
	}
	return nil
}

// EnsureInstalled installs the package unless it is already present.
func (m *Manager) EnsureInstalled(ctx context.Context, pkg string) error {
	installed, err := m.Installed(ctx, pkg)
	if err != nil {
		return err
	}
	if installed {
		return nil
	}
	return m.Install(ctx, pkg)
}

// classify maps tool output onto the error taxonomy best-effort.
func classify(result ports.CommandResult) step.ToolErrorKind {
	out := strings.ToLower(result.Stdout + result.Stderr)
	switch {
	case strings.Contains(out, "could not resolve") ||
		strings.Contains(out, "temporary failure") ||
		strings.Contains(out, "network is unreachable") ||
		strings.Contains(out, "connection timed out"):
		return step.ToolErrorNetwork
	default:
		return step.ToolErrorOpaque
	}
}

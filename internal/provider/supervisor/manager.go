package supervisor

import (
	"context"

	"github.com/gameforge/quartermaster/internal/domain/step"
	"github.com/gameforge/quartermaster/internal/ports"
)

// Manager drives the process supervisor. Callers see the error taxonomy,
// never raw systemctl output.
type Manager struct {
	runner ports.CommandRunner
}

// NewManager creates a new Manager.
func NewManager(runner ports.CommandRunner) *Manager {
	return &Manager{runner: runner}
}

// RegisterService reloads unit definitions and enables the unit
// immediately.
func (m *Manager) RegisterService(ctx context.Context, unit string) error {
	for _, args := range [][]string{
		{"daemon-reload"},
		{"enable", "--now", unit},
	} {
		result, err := m.runner.Run(ctx, "systemctl", args...)
		if err != nil {
			return err
		}
		if !result.Success() {
			return step.NewExternalToolError("systemctl", step.ToolErrorOpaque, result.ExitCode, result.Stderr)
		}
	}
	return nil
}

// DeregisterService disables the unit best-effort. The unit may never
// have started, so failures are tolerated.
func (m *Manager) DeregisterService(ctx context.Context, unit string) {
	_, _ = m.runner.Run(ctx, "systemctl", "disable", "--now", unit)
}

// ReloadUnits asks the supervisor to re-read unit definitions,
// best-effort.
func (m *Manager) ReloadUnits(ctx context.Context) {
	_, _ = m.runner.Run(ctx, "systemctl", "daemon-reload")
}

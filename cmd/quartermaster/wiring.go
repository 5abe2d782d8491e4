package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gameforge/quartermaster/internal/adapters/command"
	"github.com/gameforge/quartermaster/internal/adapters/filesystem"
	"github.com/gameforge/quartermaster/internal/adapters/logging"
	"github.com/gameforge/quartermaster/internal/adapters/prompt"
	"github.com/gameforge/quartermaster/internal/config"
	"github.com/gameforge/quartermaster/internal/domain/platform"
	"github.com/gameforge/quartermaster/internal/domain/step"
	"github.com/gameforge/quartermaster/internal/ports"
	"github.com/gameforge/quartermaster/internal/provider"
	"github.com/gameforge/quartermaster/internal/provider/apt"
	"github.com/gameforge/quartermaster/internal/provider/host"
	"github.com/gameforge/quartermaster/internal/provider/samba"
	"github.com/gameforge/quartermaster/internal/provider/sourcebuild"
	"github.com/gameforge/quartermaster/internal/provider/steam"
	"github.com/gameforge/quartermaster/internal/provider/supervisor"
	"github.com/gameforge/quartermaster/internal/provider/sysuser"
)

// buildRegistry assembles the full provisioning sequence in install order.
// Rollback walks the same registry in reverse completion order, so both the
// run and rollback commands must construct it identically.
func buildRegistry(release platform.Release, cfg *config.Config, runner ports.CommandRunner, fs ports.FileSystem, prompter ports.Prompter) (*step.Registry, error) {
	providers := []provider.Provider{
		apt.NewProvider(runner),
		host.NewProvider(runner, prompter),
		sourcebuild.NewProvider(runner, fs),
		sysuser.NewProvider(runner, fs, prompter),
		samba.NewProvider(runner),
		steam.NewProvider(steam.NewClient(runner), runner, fs, prompter),
		supervisor.NewProvider(runner, fs),
	}

	registry := step.NewRegistry()
	for _, p := range providers {
		steps, err := p.Steps(release, cfg)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", p.Name(), err)
		}
		if err := registry.RegisterAll(steps...); err != nil {
			return nil, fmt.Errorf("provider %s: %w", p.Name(), err)
		}
	}
	return registry, nil
}

// newAuditLogger returns a logger that mirrors console output into an
// append-only audit log under the state directory. The returned closer is
// nil when the audit file could not be used (dry runs, unwritable dir).
func newAuditLogger(stateDir string, dryRun bool) (ports.Logger, io.Closer) {
	level := ports.LevelInfo
	if verbose {
		level = ports.LevelDebug
	}
	if dryRun {
		return logging.NewConsoleLogger(logging.WithLevel(level)), nil
	}
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return logging.NewConsoleLogger(logging.WithLevel(level)), nil
	}
	f, err := os.OpenFile(filepath.Join(stateDir, "audit.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return logging.NewConsoleLogger(logging.WithLevel(level)), nil
	}
	logger := logging.NewConsoleLogger(
		logging.WithLevel(level),
		logging.WithOutput(io.MultiWriter(os.Stderr, f)),
	)
	return logger, f
}

func newPrompter() ports.Prompter {
	return prompt.NewGateway()
}

func newRunner() ports.CommandRunner {
	return command.NewRealRunner()
}

func newFileSystem() ports.FileSystem {
	return filesystem.NewRealFileSystem()
}
